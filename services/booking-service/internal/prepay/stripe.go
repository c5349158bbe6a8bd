// Package prepay creates Stripe Checkout links for appointment prepayments.
package prepay

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/stripe/stripe-go/v79"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"

	"zapisbot/services/booking-service/internal/model"
)

type Config struct {
	SecretKey  string
	Currency   string
	SuccessURL string
	CancelURL  string
}

type Service struct {
	cfg    Config
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Service {
	if cfg.Currency == "" {
		cfg.Currency = "eur"
	}
	return &Service{cfg: cfg, logger: logger}
}

// Enabled reports whether Stripe is configured at all.
func (s *Service) Enabled() bool {
	return s.cfg.SecretKey != ""
}

// Collectable reports whether the appointment carries an amount worth a
// payment link. Amounts of 0 and 1 are display markers (none / prepaid), not
// sums to collect.
func (s *Service) Collectable(a model.Appointment) bool {
	return s.Enabled() && a.Prepayment > 1
}

// CheckoutLink creates a one-off Checkout session for the prepayment amount
// and returns its URL. The appointment id doubles as the Stripe idempotency
// key so handler retries do not mint duplicate sessions.
func (s *Service) CheckoutLink(ctx context.Context, schema string, a model.Appointment) (string, error) {
	// Stripe uses a global API key. Keep usage limited to this call.
	stripe.Key = s.cfg.SecretKey

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(s.cfg.SuccessURL),
		CancelURL:         stripe.String(s.cfg.CancelURL),
		ClientReferenceID: stripe.String(fmt.Sprintf("%s/%d", schema, a.ID)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(s.cfg.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("Prepayment for %s %s", a.Day, a.Time)),
					},
					UnitAmount: stripe.Int64(int64(math.Round(a.Prepayment * 100))),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: map[string]string{
			"schema":         schema,
			"appointment_id": fmt.Sprintf("%d", a.ID),
		},
	}
	params.IdempotencyKey = stripe.String(fmt.Sprintf("prepay-%s-%d", schema, a.ID))

	sess, err := checkoutsession.New(params)
	if err != nil {
		s.logger.Error("stripe checkout session create failed", "err", err)
		return "", err
	}
	return sess.URL, nil
}
