package domain

import "time"

// ParticipantRecord is written once per successful join. PricePaid is the
// effective price at the moment of that join; later joins never change it,
// only the advertised price for new joiners.
type ParticipantRecord struct {
	ID         uint      `json:"id"`
	OfferingID uint      `json:"offering_id"`
	UserID     uint      `json:"user_id"`
	PricePaid  float64   `json:"price_paid"`
	JoinedAt   time.Time `json:"joined_at"`
}
