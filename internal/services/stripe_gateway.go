// internal/services/stripe_gateway.go
package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/checkout/session"

	"github.com/bcdastro/backend/internal/config"
	"github.com/bcdastro/backend/internal/utils"
)

// StripeGateway opens Stripe Checkout sessions for card purchases.
type StripeGateway struct {
	cfg *config.Config
}

func NewStripeGateway(cfg *config.Config) *StripeGateway {
	// Initialize Stripe
	stripe.Key = cfg.Payment.StripeSecretKey
	return &StripeGateway{cfg: cfg}
}

func (g *StripeGateway) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	successURL := fmt.Sprintf("%s/media/%s?purchase=%s&status=success",
		g.cfg.Frontend.BaseURL, req.MediaID, req.PurchaseID)
	cancelURL := fmt.Sprintf("%s/media/%s?purchase=%s&status=cancelled",
		g.cfg.Frontend.BaseURL, req.MediaID, req.PurchaseID)

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(successURL),
		CancelURL:          stripe.String(cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(req.Currency),
					UnitAmount: stripe.Int64(req.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Title),
					},
				},
			},
		},
	}
	params.Context = ctx
	params.Metadata = map[string]string{
		"purchase_id": req.PurchaseID.String(),
		"media_id":    req.MediaID.String(),
		"buyer_id":    req.BuyerID.String(),
	}
	if req.BuyerEmail != "" {
		params.CustomerEmail = stripe.String(req.BuyerEmail)
	}

	// The provider-side idempotency key is derived from the purchase id,
	// so network retries of this call reuse the same session.
	params.SetIdempotencyKey(utils.IdempotencyKey(req.PurchaseID))

	s, err := session.New(params)
	if err != nil {
		logrus.WithError(err).WithField("purchase_id", req.PurchaseID).
			Error("Stripe checkout session creation failed")
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	return &CheckoutSession{
		ProviderRef: s.ID,
		URL:         s.URL,
	}, nil
}
