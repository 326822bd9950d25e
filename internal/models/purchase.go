// internal/models/purchase.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Purchase is the authoritative ledger entry for a purchase attempt.
// Rows are created in pending state before any provider call and are never
// deleted; only the webhook reconciler and the expiry sweeper move them to
// a terminal state, always through a conditional status update.
type Purchase struct {
	BaseModel
	BuyerID      uuid.UUID     `json:"buyer_id" gorm:"type:uuid;not null;index:idx_purchases_buyer_media"`
	MediaAssetID uuid.UUID     `json:"media_asset_id" gorm:"type:uuid;not null;index:idx_purchases_buyer_media"`
	LicenseType  LicenseType   `json:"license_type" gorm:"type:varchar(20);default:'standard'"`
	Method       PaymentMethod `json:"method" gorm:"type:varchar(10);not null"`

	// ProviderRef holds the Stripe checkout session id or the Coinbase
	// charge id, depending on Method. Exactly one provider owns it.
	ProviderRef string `json:"provider_ref" gorm:"size:255;index"`

	// TxHash is the on-chain transaction hash, crypto purchases only,
	// populated by the reconciler on confirmation.
	TxHash string `json:"tx_hash,omitempty" gorm:"size:66"`

	// AmountCents equals the asset's authoritative price at creation time.
	AmountCents      int64 `json:"amount_cents" gorm:"not null"`
	PlatformFeeCents int64 `json:"platform_fee_cents" gorm:"default:0"`

	Status        PurchaseStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	CheckoutURL   string         `json:"checkout_url,omitempty" gorm:"size:1024"`
	FailureReason string         `json:"failure_reason,omitempty" gorm:"size:255"`
	ConfirmedAt   *time.Time     `json:"confirmed_at"`
	DownloadCount int            `json:"download_count" gorm:"default:0"`

	// Relationships
	Buyer  User                 `json:"buyer,omitempty" gorm:"foreignKey:BuyerID"`
	Media  MediaAsset           `json:"media,omitempty" gorm:"foreignKey:MediaAssetID"`
	Crypto *CryptoPaymentRecord `json:"crypto,omitempty" gorm:"foreignKey:PurchaseID"`
}

func (p *Purchase) IsTerminal() bool {
	return p.Status != PurchaseStatusPending
}

// CryptoPaymentRecord carries the crypto-specific detail of a purchase,
// 1:1 with its parent Purchase when Method is crypto.
type CryptoPaymentRecord struct {
	BaseModel
	PurchaseID uuid.UUID `json:"purchase_id" gorm:"type:uuid;not null;uniqueIndex"`
	ChargeID   string    `json:"charge_id" gorm:"size:255;uniqueIndex;not null"`

	CryptoCurrency string `json:"crypto_currency" gorm:"size:10;not null"`
	CryptoAmount   string `json:"crypto_amount" gorm:"size:64;not null"`

	// ExchangeRate is the fiat->crypto rate actually quoted at charge
	// creation, recorded so reconciliation is immune to rate drift.
	ExchangeRate float64 `json:"exchange_rate" gorm:"type:decimal(18,8);not null"`

	WalletAddress string             `json:"wallet_address" gorm:"size:64"`
	Confirmations int                `json:"confirmations" gorm:"default:0"`
	Status        CryptoChargeStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	ExpiresAt     time.Time          `json:"expires_at" gorm:"index;not null"`
}
