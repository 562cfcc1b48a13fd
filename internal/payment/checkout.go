// Package payment is the boundary to the external checkout provider.
// The group engine only ever talks to the Checkout interface; capture and
// settlement happen entirely on the provider side.
package payment

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
)

// Checkout creates a payment session for a participant's locked-in group
// price and returns the provider's reference for it.
type Checkout interface {
	CreateSession(ctx context.Context, offeringID, userID uint, amount float64) (string, error)
}

type StripeCheckout struct {
	api *client.API
}

func NewStripeCheckout(secretKey string) *StripeCheckout {
	api := &client.API{}
	api.Init(secretKey, nil)

	return &StripeCheckout{
		api: api,
	}
}

func (s *StripeCheckout) CreateSession(ctx context.Context, offeringID, userID uint, amount float64) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(int64(math.Round(amount * 100))),
		Currency:           stripe.String(string(stripe.CurrencyEUR)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx
	params.AddMetadata("offering_id", strconv.FormatUint(uint64(offeringID), 10))
	params.AddMetadata("user_id", strconv.FormatUint(uint64(userID), 10))

	intent, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return "", fmt.Errorf("s.api.PaymentIntents.New -> %w", err)
	}

	return intent.ID, nil
}
