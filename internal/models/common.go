// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type UserType string

const (
	UserTypeCreator UserType = "creator"
	UserTypeBuyer   UserType = "buyer"
	UserTypeAdmin   UserType = "admin"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusBanned    UserStatus = "banned"
)

type MediaType string

const (
	MediaTypePhoto MediaType = "photo"
	MediaTypeVideo MediaType = "video"
)

type MediaStatus string

const (
	MediaStatusDraft     MediaStatus = "draft"
	MediaStatusPending   MediaStatus = "pending"
	MediaStatusPublished MediaStatus = "published"
)

type LicenseType string

const (
	LicenseTypeStandard  LicenseType = "standard"
	LicenseTypePackage   LicenseType = "package"
	LicenseTypeExclusive LicenseType = "exclusive"
)

type PaymentMethod string

const (
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodCrypto PaymentMethod = "crypto"
)

type PurchaseStatus string

const (
	PurchaseStatusPending   PurchaseStatus = "pending"
	PurchaseStatusCompleted PurchaseStatus = "completed"
	PurchaseStatusFailed    PurchaseStatus = "failed"
	PurchaseStatusRefunded  PurchaseStatus = "refunded"
)

type CryptoChargeStatus string

const (
	CryptoChargeStatusPending   CryptoChargeStatus = "pending"
	CryptoChargeStatusConfirmed CryptoChargeStatus = "confirmed"
	CryptoChargeStatusFailed    CryptoChargeStatus = "failed"
	CryptoChargeStatusExpired   CryptoChargeStatus = "expired"
)

// MaxDownloads returns the delivery cap for a license. Zero means unlimited.
func (l LicenseType) MaxDownloads() int {
	switch l {
	case LicenseTypePackage:
		return 50
	case LicenseTypeExclusive:
		return 0
	default:
		return 10
	}
}
