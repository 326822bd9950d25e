// internal/services/coinbase_gateway.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bcdastro/backend/internal/config"
	"github.com/bcdastro/backend/internal/utils"
)

const coinbaseAPIVersion = "2018-03-22"

// CoinbaseGateway creates Coinbase Commerce charges over the REST API.
// There is no maintained Go SDK for Commerce; the charge endpoint is
// called directly, as the hosted checkout integration does.
type CoinbaseGateway struct {
	cfg    *config.Config
	rates  RateQuoter
	client *http.Client
}

func NewCoinbaseGateway(cfg *config.Config, rates RateQuoter) *CoinbaseGateway {
	if rates == nil {
		rates = StaticRateQuoter{}
	}
	return &CoinbaseGateway{
		cfg:   cfg,
		rates: rates,
		client: &http.Client{
			Timeout: time.Duration(cfg.Payment.GatewayTimeoutSeconds) * time.Second,
		},
	}
}

type coinbaseChargeRequest struct {
	Name           string            `json:"name"`
	Description    string            `json:"description,omitempty"`
	PricingType    string            `json:"pricing_type"`
	LocalPrice     coinbasePrice     `json:"local_price"`
	Metadata       map[string]string `json:"metadata"`
	RedirectURL    string            `json:"redirect_url,omitempty"`
	CancelURL      string            `json:"cancel_url,omitempty"`
	IdempotencyKey string            `json:"idempotency_key,omitempty"`
}

type coinbasePrice struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type coinbaseChargeResponse struct {
	Data struct {
		ID        string            `json:"id"`
		Code      string            `json:"code"`
		HostedURL string            `json:"hosted_url"`
		ExpiresAt time.Time         `json:"expires_at"`
		Addresses map[string]string `json:"addresses"`
	} `json:"data"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (g *CoinbaseGateway) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	cryptoCurrency := g.cfg.Crypto.Currency

	rate, err := g.rates.Quote(ctx, req.Currency, cryptoCurrency)
	if err != nil {
		return nil, fmt.Errorf("%w: rate quote failed: %v", ErrGatewayUnavailable, err)
	}
	cryptoAmount := fmt.Sprintf("%.2f", float64(req.AmountCents)/100.0*rate)

	body := coinbaseChargeRequest{
		Name:        req.Title,
		Description: fmt.Sprintf("License for media %s", req.MediaID),
		PricingType: "fixed_price",
		LocalPrice:  coinbasePrice{Amount: cryptoAmount, Currency: cryptoCurrency},
		Metadata: map[string]string{
			"purchase_id": req.PurchaseID.String(),
			"media_id":    req.MediaID.String(),
			"buyer_id":    req.BuyerID.String(),
		},
		RedirectURL: fmt.Sprintf("%s/media/%s?purchase=%s&status=success",
			g.cfg.Frontend.BaseURL, req.MediaID, req.PurchaseID),
		CancelURL: fmt.Sprintf("%s/media/%s?purchase=%s&status=cancelled",
			g.cfg.Frontend.BaseURL, req.MediaID, req.PurchaseID),
		IdempotencyKey: utils.IdempotencyKey(req.PurchaseID),
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode charge request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.cfg.Payment.CoinbaseAPIBaseURL+"/charges", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build charge request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-CC-Api-Key", g.cfg.Payment.CoinbaseAPIKey)
	httpReq.Header.Set("X-CC-Version", coinbaseAPIVersion)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		logrus.WithError(err).WithField("purchase_id", req.PurchaseID).
			Error("Coinbase charge creation failed")
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	var chargeResp coinbaseChargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&chargeResp); err != nil {
		return nil, fmt.Errorf("%w: decode charge response: %v", ErrGatewayUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logrus.WithFields(logrus.Fields{
			"purchase_id": req.PurchaseID,
			"status":      resp.StatusCode,
			"error_type":  chargeResp.Error.Type,
		}).Error("Coinbase charge rejected")
		return nil, fmt.Errorf("%w: %s", ErrGatewayUnavailable, chargeResp.Error.Message)
	}
	if chargeResp.Data.ID == "" || chargeResp.Data.HostedURL == "" {
		return nil, fmt.Errorf("%w: charge response missing id or hosted url", ErrGatewayUnavailable)
	}

	// A charge always carries an expiry; it drives the local sweep that
	// fails abandoned crypto purchases.
	expiresAt := chargeResp.Data.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(time.Duration(g.cfg.Crypto.ChargeExpiryMinutes) * time.Minute)
	}

	wallet := chargeResp.Data.Addresses[g.cfg.Crypto.Network]
	if wallet == "" {
		wallet = g.cfg.Crypto.MerchantWallet
	}

	return &CheckoutSession{
		ProviderRef:    chargeResp.Data.ID,
		URL:            chargeResp.Data.HostedURL,
		CryptoAmount:   cryptoAmount,
		CryptoCurrency: cryptoCurrency,
		WalletAddress:  wallet,
		ExchangeRate:   rate,
		ExpiresAt:      &expiresAt,
	}, nil
}
