// internal/models/user.go
package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	Username      string     `json:"username" gorm:"uniqueIndex;size:50;not null"`
	Email         string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash  string     `json:"-" gorm:"size:255;not null"`
	UserType      UserType   `json:"user_type" gorm:"type:varchar(20);not null"`
	Status        UserStatus `json:"status" gorm:"type:varchar(20);default:'active'"`
	WalletAddress *string    `json:"wallet_address,omitempty" gorm:"uniqueIndex;size:64"`

	// Commission withheld from the creator's share, percent. Card and
	// crypto settlements carry different processing costs, so the rates
	// are tracked separately and are admin-adjustable per user.
	FiatCommissionRate   float64 `json:"fiat_commission_rate" gorm:"type:decimal(5,2);default:10.0"`
	CryptoCommissionRate float64 `json:"crypto_commission_rate" gorm:"type:decimal(5,2);default:5.0"`

	ProfileData     JSONB      `json:"profile_data" gorm:"type:jsonb"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	LastLoginAt     *time.Time `json:"last_login_at"`

	// Relationships
	MediaAssets []MediaAsset `json:"media_assets,omitempty" gorm:"foreignKey:CreatorID"`
	Purchases   []Purchase   `json:"purchases,omitempty" gorm:"foreignKey:BuyerID"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

// CommissionRate returns the rate applied for the given settlement method.
func (u *User) CommissionRate(method PaymentMethod) float64 {
	if method == PaymentMethodCrypto {
		return u.CryptoCommissionRate
	}
	return u.FiatCommissionRate
}
