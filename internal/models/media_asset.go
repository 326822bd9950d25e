// internal/models/media_asset.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type MediaAsset struct {
	BaseModel
	CreatorID   uuid.UUID `json:"creator_id" gorm:"type:uuid;not null;index"`
	Title       string    `json:"title" gorm:"size:255;not null"`
	Description string    `json:"description" gorm:"type:text"`
	Category    string    `json:"category" gorm:"size:100;index"`
	MediaType   MediaType `json:"media_type" gorm:"type:varchar(10);not null"`

	// PriceCents is the authoritative price in minor units. It is set once
	// at upload time; any amount supplied by a client later is a display
	// hint and must match this value before a charge is created.
	PriceCents int64 `json:"price_cents" gorm:"not null"`

	CardEnabled   bool `json:"card_enabled" gorm:"default:true"`
	CryptoEnabled bool `json:"crypto_enabled" gorm:"default:true"`

	Status     MediaStatus    `json:"status" gorm:"type:varchar(20);default:'draft';index"`
	StorageKey string         `json:"-" gorm:"size:512"`
	PreviewURL string         `json:"preview_url" gorm:"size:512"`
	Tags       pq.StringArray `json:"tags" gorm:"type:text[]"`
	Metadata   JSONB          `json:"metadata" gorm:"type:jsonb"`

	SalesCount    int64 `json:"sales_count" gorm:"default:0"`
	DownloadCount int64 `json:"download_count" gorm:"default:0"`

	// Relationships
	Creator   User       `json:"creator,omitempty" gorm:"foreignKey:CreatorID"`
	Purchases []Purchase `json:"purchases,omitempty" gorm:"foreignKey:MediaAssetID"`
}

// AcceptsMethod reports whether the asset can be bought with the method.
func (m *MediaAsset) AcceptsMethod(method PaymentMethod) bool {
	switch method {
	case PaymentMethodCard:
		return m.CardEnabled
	case PaymentMethodCrypto:
		return m.CryptoEnabled
	default:
		return false
	}
}
