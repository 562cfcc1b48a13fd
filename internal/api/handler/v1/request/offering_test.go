package request

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validCreateOfferingRequest() CreateOfferingRequest {
	return CreateOfferingRequest{
		Title:              "Street food evening tour",
		Location:           "Lisbon",
		Kind:               "tour",
		BasePrice:          45,
		TargetParticipants: 8,
		DiscountRules: []DiscountRule{
			{Threshold: 3, DiscountPercent: 10},
			{Threshold: 5, DiscountPercent: 20},
		},
		StartsAt: time.Now().Add(72 * time.Hour),
	}
}

func TestCreateOfferingRequest_Validate(t *testing.T) {
	req := validCreateOfferingRequest()
	assert.NoError(t, req.Validate())
}

func TestCreateOfferingRequest_Validate_Rules(t *testing.T) {
	tests := []struct {
		name    string
		rules   []DiscountRule
		wantErr error
	}{
		{
			name:    "no rules is fine",
			rules:   nil,
			wantErr: nil,
		},
		{
			name:    "threshold below one",
			rules:   []DiscountRule{{Threshold: 0, DiscountPercent: 10}},
			wantErr: errRuleThresholdTooLow,
		},
		{
			name:    "threshold above target",
			rules:   []DiscountRule{{Threshold: 9, DiscountPercent: 10}},
			wantErr: errRuleThresholdTooHigh,
		},
		{
			name:    "percent above 100",
			rules:   []DiscountRule{{Threshold: 3, DiscountPercent: 101}},
			wantErr: errRulePercentOutOfRange,
		},
		{
			name: "descending thresholds",
			rules: []DiscountRule{
				{Threshold: 5, DiscountPercent: 10},
				{Threshold: 3, DiscountPercent: 20},
			},
			wantErr: errRulesNotAscending,
		},
		{
			name: "bigger group with smaller discount",
			rules: []DiscountRule{
				{Threshold: 3, DiscountPercent: 20},
				{Threshold: 5, DiscountPercent: 10},
			},
			wantErr: errRulesNotAscending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreateOfferingRequest()
			req.DiscountRules = tt.rules

			err := req.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestCreateOfferingRequest_Validate_StartsInPast(t *testing.T) {
	req := validCreateOfferingRequest()
	req.StartsAt = time.Now().Add(-time.Hour)

	assert.ErrorIs(t, req.Validate(), errStartsInPast)
}

func TestSignupRequest_Validate(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"letters and digits", "traveler42", false},
		{"too short", "abc1", true},
		{"no digit", "travelerxyz", true},
		{"no letter", "1234567890", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := SignupRequest{
				Email:           "nomad@example.com",
				Password:        tt.password,
				ConfirmPassword: tt.password,
				Name:            "Nomad",
				Role:            "tourist",
			}

			err := req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSignupRequest_Validate_ConfirmMismatch(t *testing.T) {
	req := SignupRequest{
		Email:           "nomad@example.com",
		Password:        "traveler42",
		ConfirmPassword: "traveler43",
		Name:            "Nomad",
		Role:            "tourist",
	}

	assert.ErrorIs(t, req.Validate(), errConfirmPasswordMismatch)
}
