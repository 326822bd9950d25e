// internal/services/testutil_test.go
package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bcdastro/backend/internal/config"
	"github.com/bcdastro/backend/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.MediaAsset{},
		&models.Purchase{},
		&models.CryptoPaymentRecord{},
		&models.AuditLog{},
	)
	require.NoError(t, err)

	return db
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Payment: config.PaymentConfig{
			StripeWebhookSecret:   "whsec_test_secret",
			CoinbaseWebhookSecret: "cb_test_secret",
			PlatformFeePercent:    5.0,
			GatewayTimeoutSeconds: 5,
		},
		Crypto: config.CryptoConfig{
			Currency:            "USDC",
			ChargeExpiryMinutes: 15,
			SweepIntervalSecs:   60,
			Network:             "base",
		},
		Frontend: config.FrontendConfig{
			BaseURL: "http://localhost:4321",
		},
	}
}

func createTestUser(t *testing.T, db *gorm.DB, userType models.UserType) *models.User {
	t.Helper()

	user := &models.User{
		Username: "user_" + uuid.NewString()[:8],
		Email:    "user_" + uuid.NewString()[:8] + "@example.com",
		UserType: userType,
		Status:   models.UserStatusActive,

		FiatCommissionRate:   10.0,
		CryptoCommissionRate: 5.0,
	}
	require.NoError(t, user.SetPassword("TestPass123!"))
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestMedia(t *testing.T, db *gorm.DB, creatorID uuid.UUID, priceCents int64) *models.MediaAsset {
	t.Helper()

	media := &models.MediaAsset{
		CreatorID:     creatorID,
		Title:         "Aurora over the launch pad",
		Category:      "photography",
		MediaType:     models.MediaTypePhoto,
		PriceCents:    priceCents,
		CardEnabled:   true,
		CryptoEnabled: true,
		Status:        models.MediaStatusPublished,
		StorageKey:    "masters/20260101_test.jpg",
	}
	require.NoError(t, db.Create(media).Error)
	return media
}

// fakeGateway records checkout calls and can be primed to fail or to
// observe database state mid-call.
type fakeGateway struct {
	calls    int
	lastReq  CheckoutRequest
	failWith error
	onCreate func(req CheckoutRequest)
	session  *CheckoutSession
}

func (g *fakeGateway) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	g.calls++
	g.lastReq = req
	if g.onCreate != nil {
		g.onCreate(req)
	}
	if g.failWith != nil {
		return nil, g.failWith
	}
	if g.session != nil {
		return g.session, nil
	}
	return &CheckoutSession{
		ProviderRef: "sess_" + req.PurchaseID.String()[:8],
		URL:         "https://checkout.example.com/" + req.PurchaseID.String(),
	}, nil
}

func cryptoSession(ref string, expiresIn time.Duration) *CheckoutSession {
	expires := time.Now().Add(expiresIn)
	return &CheckoutSession{
		ProviderRef:    ref,
		URL:            "https://commerce.example.com/charges/" + ref,
		CryptoAmount:   "25.00",
		CryptoCurrency: "USDC",
		WalletAddress:  "0x1111111111111111111111111111111111111111",
		ExchangeRate:   1.0,
		ExpiresAt:      &expires,
	}
}
