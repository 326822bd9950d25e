// internal/services/entitlement_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/bcdastro/backend/internal/models"
)

type EntitlementServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	creator *models.User
	buyer   *models.User
	media   *models.MediaAsset
	svc     *EntitlementService
}

func (suite *EntitlementServiceTestSuite) SetupTest() {
	suite.db = setupTestDB(suite.T())
	suite.creator = createTestUser(suite.T(), suite.db, models.UserTypeCreator)
	suite.buyer = createTestUser(suite.T(), suite.db, models.UserTypeBuyer)
	suite.media = createTestMedia(suite.T(), suite.db, suite.creator.ID, 2500)

	storage, err := NewStorageService(testConfig())
	suite.Require().NoError(err)
	suite.svc = NewEntitlementService(suite.db, storage)
}

func (suite *EntitlementServiceTestSuite) createPurchase(status models.PurchaseStatus, license models.LicenseType) *models.Purchase {
	purchase := &models.Purchase{
		BuyerID:      suite.buyer.ID,
		MediaAssetID: suite.media.ID,
		LicenseType:  license,
		Method:       models.PaymentMethodCard,
		AmountCents:  2500,
		Status:       status,
	}
	if status == models.PurchaseStatusCompleted {
		now := time.Now()
		purchase.ConfirmedAt = &now
	}
	suite.Require().NoError(suite.db.Create(purchase).Error)
	return purchase
}

func (suite *EntitlementServiceTestSuite) TestNotEntitledWithoutPurchase() {
	entitled, err := suite.svc.IsEntitled(suite.buyer.ID, suite.media.ID)
	suite.NoError(err)
	suite.False(entitled)

	_, err = suite.svc.GetDownloadURL(suite.buyer.ID, suite.media.ID)
	suite.ErrorIs(err, ErrForbidden)
}

func (suite *EntitlementServiceTestSuite) TestPendingPurchaseGrantsNothing() {
	suite.createPurchase(models.PurchaseStatusPending, models.LicenseTypeStandard)

	entitled, err := suite.svc.IsEntitled(suite.buyer.ID, suite.media.ID)
	suite.NoError(err)
	suite.False(entitled)

	_, err = suite.svc.GetDownloadURL(suite.buyer.ID, suite.media.ID)
	suite.ErrorIs(err, ErrForbidden)
}

func (suite *EntitlementServiceTestSuite) TestCompletedPurchaseGrantsSignedURL() {
	purchase := suite.createPurchase(models.PurchaseStatusCompleted, models.LicenseTypeStandard)

	entitled, err := suite.svc.IsEntitled(suite.buyer.ID, suite.media.ID)
	suite.NoError(err)
	suite.True(entitled)

	grant, err := suite.svc.GetDownloadURL(suite.buyer.ID, suite.media.ID)
	suite.NoError(err)
	suite.Contains(grant.URL, suite.media.StorageKey)
	suite.Contains(grant.URL, "signature=")
	suite.True(grant.ExpiresAt.After(time.Now()))

	var got models.Purchase
	suite.NoError(suite.db.First(&got, "id = ?", purchase.ID).Error)
	suite.Equal(1, got.DownloadCount)

	var media models.MediaAsset
	suite.NoError(suite.db.First(&media, "id = ?", suite.media.ID).Error)
	suite.Equal(int64(1), media.DownloadCount)
}

func (suite *EntitlementServiceTestSuite) TestStandardLicenseDownloadCap() {
	purchase := suite.createPurchase(models.PurchaseStatusCompleted, models.LicenseTypeStandard)
	suite.Require().NoError(suite.db.Model(purchase).Update("download_count", 9).Error)

	// Tenth download is the last one allowed.
	_, err := suite.svc.GetDownloadURL(suite.buyer.ID, suite.media.ID)
	suite.NoError(err)

	_, err = suite.svc.GetDownloadURL(suite.buyer.ID, suite.media.ID)
	suite.ErrorIs(err, ErrDownloadLimit)
}

func (suite *EntitlementServiceTestSuite) TestExclusiveLicenseHasNoCap() {
	purchase := suite.createPurchase(models.PurchaseStatusCompleted, models.LicenseTypeExclusive)
	suite.Require().NoError(suite.db.Model(purchase).Update("download_count", 500).Error)

	_, err := suite.svc.GetDownloadURL(suite.buyer.ID, suite.media.ID)
	suite.NoError(err)

	var got models.Purchase
	suite.NoError(suite.db.First(&got, "id = ?", purchase.ID).Error)
	suite.Equal(501, got.DownloadCount)
}

func (suite *EntitlementServiceTestSuite) TestCreatorDownloadsOwnMedia() {
	grant, err := suite.svc.GetDownloadURL(suite.creator.ID, suite.media.ID)
	suite.NoError(err)
	suite.Contains(grant.URL, suite.media.StorageKey)
}

func TestEntitlementServiceSuite(t *testing.T) {
	suite.Run(t, new(EntitlementServiceTestSuite))
}
