package response

import "github.com/tourvia/groupbooking-api/internal/domain"

// JoinResponse mirrors the confirmed state of the group the instant the
// join committed. OriginalPrice is only present when a discount applied.
type JoinResponse struct {
	OfferingID      uint    `json:"offering_id"`
	NewCount        int     `json:"new_count"`
	EffectivePrice  float64 `json:"effective_price"`
	DiscountPercent int     `json:"discount_percent"`
	OriginalPrice   float64 `json:"original_price,omitempty"`
	BecameFull      bool    `json:"became_full"`
	CheckoutRef     string  `json:"checkout_ref,omitempty"`
}

func NewJoinResponse(offeringID uint, outcome domain.JoinOutcome) JoinResponse {
	resp := JoinResponse{
		OfferingID:      offeringID,
		NewCount:        outcome.NewCount,
		EffectivePrice:  outcome.EffectivePrice,
		DiscountPercent: outcome.DiscountPercent,
		BecameFull:      outcome.BecameFull,
		CheckoutRef:     outcome.CheckoutRef,
	}
	if outcome.DiscountPercent > 0 {
		resp.OriginalPrice = outcome.OriginalPrice
	}

	return resp
}

type LeaveResponse struct {
	OfferingID uint                    `json:"offering_id"`
	Group      domain.OfferingSnapshot `json:"group"`
}
