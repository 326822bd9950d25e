// internal/services/gateway.go
package services

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CheckoutRequest carries everything an adapter needs to open a
// provider-side payment session for one ledger row.
type CheckoutRequest struct {
	PurchaseID  uuid.UUID
	MediaID     uuid.UUID
	BuyerID     uuid.UUID
	BuyerEmail  string
	AmountCents int64
	Currency    string
	Title       string
}

// CheckoutSession is the provider's answer: a reference we can reconcile
// webhooks against and a URL to send the buyer to. Crypto adapters also
// fill the charge detail fields.
type CheckoutSession struct {
	ProviderRef string
	URL         string

	// Crypto only
	CryptoAmount   string
	CryptoCurrency string
	WalletAddress  string
	ExchangeRate   float64
	ExpiresAt      *time.Time
}

// PaymentGateway creates a provider-side payment session for a purchase.
// Implementations must honour the idempotency key derived from
// CheckoutRequest.PurchaseID so that transport-level retries can never
// produce a second charge, and must not retry internally — retry policy
// belongs to the caller.
type PaymentGateway interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
}

// RateQuoter supplies the fiat-to-crypto conversion rate used when a
// crypto charge is created. The quoted rate is recorded on the
// CryptoPaymentRecord so reconciliation is not exposed to rate drift.
type RateQuoter interface {
	Quote(ctx context.Context, fiatCurrency, cryptoCurrency string) (float64, error)
}

// StaticRateQuoter quotes a fixed rate. USDC is treated as 1:1 with USD,
// matching the settlement currency the marketplace charges in.
type StaticRateQuoter struct {
	Rate float64
}

func (q StaticRateQuoter) Quote(ctx context.Context, fiatCurrency, cryptoCurrency string) (float64, error) {
	if q.Rate > 0 {
		return q.Rate, nil
	}
	return 1.0, nil
}
