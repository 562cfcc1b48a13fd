package request

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

var (
	errNoDiscountRules        = errors.New("at most 10 discount rules are allowed")
	errRuleThresholdTooLow    = errors.New("discount rule thresholds must be at least 1")
	errRuleThresholdTooHigh   = errors.New("discount rule thresholds must not exceed the participant target")
	errRulePercentOutOfRange  = errors.New("discount percents must be between 1 and 100")
	errRulesNotAscending      = errors.New("discount rules must have strictly ascending thresholds and percents")
	errStartsInPast           = errors.New("the offering must start in the future")
	errTargetParticipantsLow  = errors.New("target participants must be at least 2")
	errTargetParticipantsHigh = errors.New("target participants must not exceed 500")
)

type DiscountRule struct {
	Threshold       int `json:"threshold"`
	DiscountPercent int `json:"discount_percent"`
}

type CreateOfferingRequest struct {
	Title              string         `json:"title"`
	Description        string         `json:"description"`
	Location           string         `json:"location"`
	Kind               string         `json:"kind"`
	BasePrice          float64        `json:"base_price"`
	TargetParticipants int            `json:"target_participants"`
	DiscountRules      []DiscountRule `json:"discount_rules"`
	StartsAt           time.Time      `json:"starts_at"`
}

func (req *CreateOfferingRequest) Validate() error {
	err := validation.ValidateStruct(
		req,
		validation.Field(&req.Title, validation.Required, validation.Length(3, 100)),
		validation.Field(&req.Description, validation.Length(0, 2000)),
		validation.Field(&req.Location, validation.Required, validation.Length(2, 100)),
		validation.Field(&req.Kind, validation.Required, validation.In("tour", "service")),
		validation.Field(&req.BasePrice, validation.Required, validation.Min(0.01)),
		validation.Field(&req.StartsAt, validation.Required),
	)
	if err != nil {
		return err
	}

	if req.TargetParticipants < 2 {
		return errTargetParticipantsLow
	}
	if req.TargetParticipants > 500 {
		return errTargetParticipantsHigh
	}
	if !req.StartsAt.After(time.Now()) {
		return errStartsInPast
	}

	return req.validateRules()
}

// Rules must be strictly ascending in both threshold and percent so that a
// bigger group never quotes a worse price than a smaller one.
func (req *CreateOfferingRequest) validateRules() error {
	if len(req.DiscountRules) > 10 {
		return errNoDiscountRules
	}

	prevThreshold, prevPercent := 0, 0
	for _, rule := range req.DiscountRules {
		if rule.Threshold < 1 {
			return errRuleThresholdTooLow
		}
		if rule.Threshold > req.TargetParticipants {
			return errRuleThresholdTooHigh
		}
		if rule.DiscountPercent < 1 || rule.DiscountPercent > 100 {
			return errRulePercentOutOfRange
		}
		if rule.Threshold <= prevThreshold || rule.DiscountPercent <= prevPercent {
			return errRulesNotAscending
		}

		prevThreshold, prevPercent = rule.Threshold, rule.DiscountPercent
	}

	return nil
}
