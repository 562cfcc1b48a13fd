package domain

import "time"

type OfferingStatus string

const (
	OfferingActive    OfferingStatus = "active"
	OfferingFull      OfferingStatus = "full"
	OfferingExpired   OfferingStatus = "expired"
	OfferingCompleted OfferingStatus = "completed"
)

// Joinable reports whether new participants may still enter the group.
func (s OfferingStatus) Joinable() bool {
	return s == OfferingActive
}

// Offering is a group-bookable tour or service instance. The participant
// counter and status are owned by the in-process capacity ledger; the
// persisted copy is a write-through for restarts and reporting.
type Offering struct {
	ID                  uint           `json:"id"`
	GuideID             uint           `json:"guide_id"`
	Title               string         `json:"title"`
	Description         string         `json:"description"`
	Location            string         `json:"location"`
	Kind                string         `json:"kind"` // "tour" or "service"
	BasePrice           float64        `json:"base_price"`
	TargetParticipants  int            `json:"target_participants"`
	CurrentParticipants int            `json:"current_participants"`
	Status              OfferingStatus `json:"status"`
	DiscountRules       []DiscountRule `json:"discount_rules"`
	StartsAt            time.Time      `json:"starts_at"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// DiscountRule grants DiscountPercent off the base price once the group
// has reached Threshold participants. Rules are immutable after the
// offering is created.
type DiscountRule struct {
	Threshold       int `json:"threshold"`
	DiscountPercent int `json:"discount_percent"`
}

// JoinOutcome is what a successful join reports back to the requester.
type JoinOutcome struct {
	NewCount        int
	EffectivePrice  float64
	DiscountPercent int
	OriginalPrice   float64
	BecameFull      bool
	CheckoutRef     string
}

// OfferingSnapshot is the read model served before a client has a live
// subscription. It may be stale the moment it is rendered.
type OfferingSnapshot struct {
	CurrentParticipants int            `json:"current_participants"`
	TargetParticipants  int            `json:"target_participants"`
	Status              OfferingStatus `json:"status"`
	EffectivePrice      float64        `json:"effective_price"`
	DiscountPercent     int            `json:"discount_percent"`
}
