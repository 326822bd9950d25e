// internal/services/expiry_sweeper_test.go
package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/bcdastro/backend/internal/models"
)

type ExpirySweeperTestSuite struct {
	suite.Suite
	db      *gorm.DB
	creator *models.User
	buyer   *models.User
	media   *models.MediaAsset
	sweeper *ExpirySweeper
}

func (suite *ExpirySweeperTestSuite) SetupTest() {
	suite.db = setupTestDB(suite.T())
	suite.creator = createTestUser(suite.T(), suite.db, models.UserTypeCreator)
	suite.buyer = createTestUser(suite.T(), suite.db, models.UserTypeBuyer)
	suite.media = createTestMedia(suite.T(), suite.db, suite.creator.ID, 2500)
	suite.sweeper = NewExpirySweeper(suite.db, testConfig())
}

func (suite *ExpirySweeperTestSuite) createCryptoPurchase(status models.PurchaseStatus, chargeID string, expiresAt time.Time) *models.Purchase {
	purchase := &models.Purchase{
		BuyerID:      suite.buyer.ID,
		MediaAssetID: suite.media.ID,
		Method:       models.PaymentMethodCrypto,
		ProviderRef:  chargeID,
		AmountCents:  2500,
		Status:       status,
	}
	suite.Require().NoError(suite.db.Create(purchase).Error)

	record := &models.CryptoPaymentRecord{
		PurchaseID:     purchase.ID,
		ChargeID:       chargeID,
		CryptoCurrency: "USDC",
		CryptoAmount:   "25.00",
		ExchangeRate:   1.0,
		Status:         models.CryptoChargeStatusPending,
		ExpiresAt:      expiresAt,
	}
	suite.Require().NoError(suite.db.Create(record).Error)
	return purchase
}

func (suite *ExpirySweeperTestSuite) TestSweepFailsOverduePending() {
	overdue := suite.createCryptoPurchase(models.PurchaseStatusPending, "charge_overdue", time.Now().Add(-time.Minute))
	fresh := suite.createCryptoPurchase(models.PurchaseStatusPending, "charge_fresh", time.Now().Add(10*time.Minute))

	n, err := suite.sweeper.SweepOnce(context.Background())
	suite.NoError(err)
	suite.Equal(int64(1), n)

	var got models.Purchase
	suite.NoError(suite.db.First(&got, "id = ?", overdue.ID).Error)
	suite.Equal(models.PurchaseStatusFailed, got.Status)
	suite.Equal("charge expired", got.FailureReason)

	var record models.CryptoPaymentRecord
	suite.NoError(suite.db.First(&record, "purchase_id = ?", overdue.ID).Error)
	suite.Equal(models.CryptoChargeStatusExpired, record.Status)

	var gotFresh models.Purchase
	suite.NoError(suite.db.First(&gotFresh, "id = ?", fresh.ID).Error)
	suite.Equal(models.PurchaseStatusPending, gotFresh.Status)
}

func (suite *ExpirySweeperTestSuite) TestSweepLeavesCompletedPurchaseAlone() {
	// Charge confirmed after its nominal expiry; the completed ledger
	// row must survive the sweep.
	purchase := suite.createCryptoPurchase(models.PurchaseStatusCompleted, "charge_late", time.Now().Add(-time.Minute))
	suite.Require().NoError(suite.db.Model(&models.CryptoPaymentRecord{}).
		Where("purchase_id = ?", purchase.ID).
		Update("status", models.CryptoChargeStatusConfirmed).Error)

	n, err := suite.sweeper.SweepOnce(context.Background())
	suite.NoError(err)
	suite.Equal(int64(0), n)

	var got models.Purchase
	suite.NoError(suite.db.First(&got, "id = ?", purchase.ID).Error)
	suite.Equal(models.PurchaseStatusCompleted, got.Status)
}

func (suite *ExpirySweeperTestSuite) TestSweepIsIdempotent() {
	suite.createCryptoPurchase(models.PurchaseStatusPending, "charge_once", time.Now().Add(-time.Minute))

	n, err := suite.sweeper.SweepOnce(context.Background())
	suite.NoError(err)
	suite.Equal(int64(1), n)

	n, err = suite.sweeper.SweepOnce(context.Background())
	suite.NoError(err)
	suite.Equal(int64(0), n)
}

func TestExpirySweeperSuite(t *testing.T) {
	suite.Run(t, new(ExpirySweeperTestSuite))
}
