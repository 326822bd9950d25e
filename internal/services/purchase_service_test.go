// internal/services/purchase_service_test.go
package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/bcdastro/backend/internal/models"
)

type PurchaseServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	creator *models.User
	buyer   *models.User
	media   *models.MediaAsset
	card    *fakeGateway
	crypto  *fakeGateway
	svc     *PurchaseService
}

func (suite *PurchaseServiceTestSuite) SetupTest() {
	suite.db = setupTestDB(suite.T())
	suite.creator = createTestUser(suite.T(), suite.db, models.UserTypeCreator)
	suite.buyer = createTestUser(suite.T(), suite.db, models.UserTypeBuyer)
	suite.media = createTestMedia(suite.T(), suite.db, suite.creator.ID, 2500)

	suite.card = &fakeGateway{}
	suite.crypto = &fakeGateway{session: cryptoSession("charge_abc", 15*time.Minute)}

	suite.svc = NewPurchaseService(suite.db, testConfig(), NewPricingService(suite.db),
		map[models.PaymentMethod]PaymentGateway{
			models.PaymentMethodCard:   suite.card,
			models.PaymentMethodCrypto: suite.crypto,
		})
}

func (suite *PurchaseServiceTestSuite) initiate(method models.PaymentMethod) (*InitiatePurchaseResult, error) {
	return suite.svc.InitiatePurchase(context.Background(), InitiatePurchaseInput{
		BuyerID: suite.buyer.ID,
		MediaID: suite.media.ID,
		Method:  method,
	})
}

func (suite *PurchaseServiceTestSuite) TestInitiateCardPurchase() {
	result, err := suite.initiate(models.PaymentMethodCard)
	suite.NoError(err)
	suite.NotEmpty(result.CheckoutURL)
	suite.Equal(models.PurchaseStatusPending, result.Purchase.Status)
	suite.Equal(int64(2500), result.Purchase.AmountCents)
	// 10% fiat commission on 2500
	suite.Equal(int64(250), result.Purchase.PlatformFeeCents)
	suite.Equal(1, suite.card.calls)
	suite.Equal(suite.buyer.ID, suite.card.lastReq.BuyerID)
}

func (suite *PurchaseServiceTestSuite) TestLedgerRowExistsBeforeGatewayCall() {
	var pendingAtCall int64
	suite.card.onCreate = func(req CheckoutRequest) {
		suite.db.Model(&models.Purchase{}).
			Where("id = ? AND status = ?", req.PurchaseID, models.PurchaseStatusPending).
			Count(&pendingAtCall)
	}

	_, err := suite.initiate(models.PaymentMethodCard)
	suite.NoError(err)
	suite.Equal(int64(1), pendingAtCall)
}

func (suite *PurchaseServiceTestSuite) TestGatewayFailureMarksPurchaseFailed() {
	suite.card.failWith = ErrGatewayUnavailable

	_, err := suite.initiate(models.PaymentMethodCard)
	suite.ErrorIs(err, ErrGatewayUnavailable)

	var purchase models.Purchase
	suite.NoError(suite.db.First(&purchase, "buyer_id = ?", suite.buyer.ID).Error)
	suite.Equal(models.PurchaseStatusFailed, purchase.Status)
	suite.NotEmpty(purchase.FailureReason)
}

func (suite *PurchaseServiceTestSuite) TestPriceMismatchRejected() {
	stale := int64(1999)
	_, err := suite.svc.InitiatePurchase(context.Background(), InitiatePurchaseInput{
		BuyerID:      suite.buyer.ID,
		MediaID:      suite.media.ID,
		Method:       models.PaymentMethodCard,
		DisplayCents: &stale,
	})
	suite.ErrorIs(err, ErrPriceMismatch)
	suite.Equal(0, suite.card.calls)
}

func (suite *PurchaseServiceTestSuite) TestOwnMediaRejected() {
	_, err := suite.svc.InitiatePurchase(context.Background(), InitiatePurchaseInput{
		BuyerID: suite.creator.ID,
		MediaID: suite.media.ID,
		Method:  models.PaymentMethodCard,
	})
	suite.ErrorIs(err, ErrForbidden)
}

func (suite *PurchaseServiceTestSuite) TestDisabledMethodRejected() {
	suite.NoError(suite.db.Model(suite.media).Update("crypto_enabled", false).Error)

	_, err := suite.initiate(models.PaymentMethodCrypto)
	suite.ErrorIs(err, ErrMethodNotSupported)
	suite.Equal(0, suite.crypto.calls)
}

func (suite *PurchaseServiceTestSuite) TestAlreadyOwnedRejected() {
	result, err := suite.initiate(models.PaymentMethodCard)
	suite.NoError(err)

	suite.NoError(suite.db.Model(&models.Purchase{}).
		Where("id = ?", result.Purchase.ID).
		Update("status", models.PurchaseStatusCompleted).Error)

	_, err = suite.initiate(models.PaymentMethodCard)
	suite.ErrorIs(err, ErrAlreadyOwned)
	suite.Equal(1, suite.card.calls)
}

func (suite *PurchaseServiceTestSuite) TestRetryResumesPendingAttempt() {
	first, err := suite.initiate(models.PaymentMethodCard)
	suite.NoError(err)

	second, err := suite.initiate(models.PaymentMethodCard)
	suite.NoError(err)

	suite.Equal(first.Purchase.ID, second.Purchase.ID)
	suite.Equal(first.CheckoutURL, second.CheckoutURL)
	suite.Equal(1, suite.card.calls)

	var count int64
	suite.db.Model(&models.Purchase{}).Where("buyer_id = ?", suite.buyer.ID).Count(&count)
	suite.Equal(int64(1), count)
}

func (suite *PurchaseServiceTestSuite) TestCryptoPurchaseCreatesChargeRecord() {
	result, err := suite.initiate(models.PaymentMethodCrypto)
	suite.NoError(err)
	suite.NotNil(result.Crypto)
	suite.Equal("charge_abc", result.Crypto.ChargeID)
	suite.Equal("USDC", result.Crypto.CryptoCurrency)
	suite.Equal(models.CryptoChargeStatusPending, result.Crypto.Status)
	suite.WithinDuration(time.Now().Add(15*time.Minute), result.Crypto.ExpiresAt, time.Minute)

	// 5% crypto commission on 2500
	suite.Equal(int64(125), result.Purchase.PlatformFeeCents)
}

func (suite *PurchaseServiceTestSuite) TestExpiredCryptoAttemptNotResumed() {
	suite.crypto.session = cryptoSession("charge_old", -time.Minute)

	first, err := suite.initiate(models.PaymentMethodCrypto)
	suite.NoError(err)

	suite.crypto.session = cryptoSession("charge_new", 15*time.Minute)
	second, err := suite.initiate(models.PaymentMethodCrypto)
	suite.NoError(err)

	suite.NotEqual(first.Purchase.ID, second.Purchase.ID)
	suite.Equal(2, suite.crypto.calls)
}

func (suite *PurchaseServiceTestSuite) TestGetPurchaseScopedToBuyer() {
	result, err := suite.initiate(models.PaymentMethodCard)
	suite.NoError(err)

	got, err := suite.svc.GetPurchase(result.Purchase.ID, suite.buyer.ID, false)
	suite.NoError(err)
	suite.Equal(result.Purchase.ID, got.ID)

	_, err = suite.svc.GetPurchase(result.Purchase.ID, suite.creator.ID, false)
	suite.ErrorIs(err, ErrNotFound)

	got, err = suite.svc.GetPurchase(result.Purchase.ID, suite.creator.ID, true)
	suite.NoError(err)
	suite.Equal(result.Purchase.ID, got.ID)
}

func TestPurchaseServiceSuite(t *testing.T) {
	suite.Run(t, new(PurchaseServiceTestSuite))
}
