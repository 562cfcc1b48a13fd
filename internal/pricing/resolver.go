// Package pricing computes the effective group price for an offering.
// It is the single source of truth for discounts: clients only ever see
// server-confirmed prices, never values they recomputed themselves.
package pricing

import (
	"math"

	"github.com/tourvia/groupbooking-api/internal/domain"
)

// Quote is the resolved price for a given participant count.
type Quote struct {
	EffectivePrice  float64
	DiscountPercent int
	// OriginalPrice is set only when a discount applies.
	OriginalPrice float64
}

// Resolve picks the largest discount whose threshold the group has reached
// and applies it to the base price. No I/O, deterministic.
func Resolve(currentParticipants int, basePrice float64, rules []domain.DiscountRule) Quote {
	pct := 0
	for _, r := range rules {
		if r.Threshold <= currentParticipants && r.DiscountPercent > pct {
			pct = r.DiscountPercent
		}
	}

	if pct == 0 {
		return Quote{EffectivePrice: round2(basePrice)}
	}

	return Quote{
		EffectivePrice:  round2(basePrice * (1 - float64(pct)/100)),
		DiscountPercent: pct,
		OriginalPrice:   round2(basePrice),
	}
}

// round2 rounds half-up to two decimal places.
func round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
