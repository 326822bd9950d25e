// internal/handlers/webhook_test.go
package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bcdastro/backend/internal/config"
	"github.com/bcdastro/backend/internal/models"
	"github.com/bcdastro/backend/internal/services"
	"github.com/bcdastro/backend/internal/utils"
)

// Exercises the provider-facing status-code contract: 401 on bad
// signatures, 200 on anything reconcilable, including events for
// references we no longer know.
type WebhookHandlerTestSuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine
}

const coinbaseTestSecret = "cb_test_secret"

func (suite *WebhookHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	suite.Require().NoError(err)
	suite.Require().NoError(db.AutoMigrate(
		&models.User{},
		&models.MediaAsset{},
		&models.Purchase{},
		&models.CryptoPaymentRecord{},
	))
	suite.db = db

	cfg := &config.Config{
		Payment: config.PaymentConfig{
			StripeWebhookSecret:   "whsec_test_secret",
			CoinbaseWebhookSecret: coinbaseTestSecret,
		},
	}

	handler := NewWebhookHandler(services.NewWebhookService(db, cfg))
	suite.router = gin.New()
	suite.router.POST("/v1/webhooks/coinbase", handler.HandleCoinbase)
}

func (suite *WebhookHandlerTestSuite) seedCryptoPurchase(chargeID string) *models.Purchase {
	user := &models.User{
		Username: "buyer_" + uuid.NewString()[:8],
		Email:    uuid.NewString()[:8] + "@example.com",
		UserType: models.UserTypeBuyer,
		Status:   models.UserStatusActive,
	}
	suite.Require().NoError(user.SetPassword("TestPass123!"))
	suite.Require().NoError(suite.db.Create(user).Error)

	purchase := &models.Purchase{
		BuyerID:      user.ID,
		MediaAssetID: uuid.New(),
		Method:       models.PaymentMethodCrypto,
		ProviderRef:  chargeID,
		AmountCents:  2500,
		Status:       models.PurchaseStatusPending,
	}
	suite.Require().NoError(suite.db.Create(purchase).Error)

	record := &models.CryptoPaymentRecord{
		PurchaseID:     purchase.ID,
		ChargeID:       chargeID,
		CryptoCurrency: "USDC",
		CryptoAmount:   "25.00",
		ExchangeRate:   1.0,
		Status:         models.CryptoChargeStatusPending,
		ExpiresAt:      time.Now().Add(15 * time.Minute),
	}
	suite.Require().NoError(suite.db.Create(record).Error)
	return purchase
}

func (suite *WebhookHandlerTestSuite) post(payload []byte, signature string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodPost, "/v1/webhooks/coinbase", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-CC-Webhook-Signature", signature)

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func chargeEvent(eventType, chargeID string) []byte {
	return []byte(fmt.Sprintf(
		`{"event":{"id":"evt_1","type":"%s","data":{"id":"%s","payments":[]}}}`,
		eventType, chargeID))
}

func (suite *WebhookHandlerTestSuite) TestConfirmedChargeReturns200() {
	purchase := suite.seedCryptoPurchase("charge_ok")

	payload := chargeEvent("charge:confirmed", "charge_ok")
	w := suite.post(payload, utils.ComputeHMAC(payload, coinbaseTestSecret))
	suite.Equal(http.StatusOK, w.Code)

	var got models.Purchase
	suite.NoError(suite.db.First(&got, "id = ?", purchase.ID).Error)
	suite.Equal(models.PurchaseStatusCompleted, got.Status)
}

func (suite *WebhookHandlerTestSuite) TestBadSignatureReturns401() {
	suite.seedCryptoPurchase("charge_sig")

	payload := chargeEvent("charge:confirmed", "charge_sig")
	w := suite.post(payload, "bogus")
	suite.Equal(http.StatusUnauthorized, w.Code)

	var got models.Purchase
	suite.NoError(suite.db.First(&got, "provider_ref = ?", "charge_sig").Error)
	suite.Equal(models.PurchaseStatusPending, got.Status)
}

func (suite *WebhookHandlerTestSuite) TestUnknownReferenceStillAcknowledged() {
	payload := chargeEvent("charge:confirmed", "charge_missing")
	w := suite.post(payload, utils.ComputeHMAC(payload, coinbaseTestSecret))
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *WebhookHandlerTestSuite) TestMalformedPayloadReturns400() {
	payload := []byte(`{"event":`)
	w := suite.post(payload, utils.ComputeHMAC(payload, coinbaseTestSecret))
	suite.Equal(http.StatusBadRequest, w.Code)
}

func TestWebhookHandlerSuite(t *testing.T) {
	suite.Run(t, new(WebhookHandlerTestSuite))
}
