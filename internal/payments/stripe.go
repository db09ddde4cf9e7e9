// Package payments wraps stripe-go for the fare hold flow: the agent
// places a manual-capture hold when a ride is booked, captures it
// when the ride completes, and releases it when the booking dies
// without a driver.
package payments

import (
	"context"
	"math"

	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"

	"github.com/instaaid/ride-tracker/internal/models"
)

// Fares are quoted in rupees; stripe wants paise.
const paisePerRupee = 100

type Client struct {
	Currency string
}

// NewClient sets the package-level stripe key (stripe-go keeps the
// key global) and returns a client charging in the given currency.
func NewClient(apiKey, currency string) *Client {
	stripe.Key = apiKey
	if currency == "" {
		currency = "inr"
	}
	return &Client{Currency: currency}
}

// HoldFare creates a manual-capture PaymentIntent for the ride's
// quoted fare and returns its id.
func (c *Client) HoldFare(ctx context.Context, ride *models.Ride) (string, error) {
	amount := int64(math.Round(ride.Fare * paisePerRupee))
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(c.Currency),
	}
	params.CaptureMethod = stripe.String(string(stripe.PaymentIntentCaptureMethodManual))
	params.AddMetadata("ride_id", ride.ID)
	pi, err := paymentintent.New(params)
	if err != nil {
		return "", err
	}
	return pi.ID, nil
}

// CaptureFare finalizes a held fare once the ride completes.
func (c *Client) CaptureFare(ctx context.Context, paymentIntentID string) error {
	_, err := paymentintent.Capture(paymentIntentID, nil)
	return err
}

// ReleaseFare cancels the hold, e.g. after a no-driver expiry.
func (c *Client) ReleaseFare(ctx context.Context, paymentIntentID string) error {
	_, err := paymentintent.Cancel(paymentIntentID, nil)
	return err
}
