// internal/services/pricing_service_test.go
package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/bcdastro/backend/internal/models"
)

type PricingServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	pricing *PricingService
	creator *models.User
}

func (suite *PricingServiceTestSuite) SetupTest() {
	suite.db = setupTestDB(suite.T())
	suite.pricing = NewPricingService(suite.db)
	suite.creator = createTestUser(suite.T(), suite.db, models.UserTypeCreator)
}

func (suite *PricingServiceTestSuite) TestResolvePrice() {
	media := createTestMedia(suite.T(), suite.db, suite.creator.ID, 2500)

	cents, err := suite.pricing.ResolvePrice(media.ID)
	suite.NoError(err)
	suite.Equal(int64(2500), cents)
}

func (suite *PricingServiceTestSuite) TestResolvePriceUnknownMedia() {
	_, err := suite.pricing.ResolvePrice(uuid.New())
	suite.ErrorIs(err, ErrNotFound)
}

func (suite *PricingServiceTestSuite) TestResolvePriceUnpublishedMedia() {
	media := createTestMedia(suite.T(), suite.db, suite.creator.ID, 2500)
	suite.NoError(suite.db.Model(media).Update("status", models.MediaStatusDraft).Error)
	suite.pricing.Invalidate(media.ID)

	_, err := suite.pricing.ResolvePrice(media.ID)
	suite.ErrorIs(err, ErrNotFound)
}

func (suite *PricingServiceTestSuite) TestValidateDisplayPrice() {
	media := createTestMedia(suite.T(), suite.db, suite.creator.ID, 2500)

	cents, err := suite.pricing.ValidateDisplayPrice(media.ID, nil)
	suite.NoError(err)
	suite.Equal(int64(2500), cents)

	hint := int64(2500)
	cents, err = suite.pricing.ValidateDisplayPrice(media.ID, &hint)
	suite.NoError(err)
	suite.Equal(int64(2500), cents)

	stale := int64(1999)
	_, err = suite.pricing.ValidateDisplayPrice(media.ID, &stale)
	suite.ErrorIs(err, ErrPriceMismatch)
}

func (suite *PricingServiceTestSuite) TestCacheServesRepeatedLookups() {
	media := createTestMedia(suite.T(), suite.db, suite.creator.ID, 2500)

	cents, err := suite.pricing.ResolvePrice(media.ID)
	suite.NoError(err)
	suite.Equal(int64(2500), cents)

	// A direct price change behind the cache is invisible until the
	// entry is invalidated.
	suite.NoError(suite.db.Model(media).Update("price_cents", 9900).Error)

	cents, err = suite.pricing.ResolvePrice(media.ID)
	suite.NoError(err)
	suite.Equal(int64(2500), cents)

	suite.pricing.Invalidate(media.ID)
	cents, err = suite.pricing.ResolvePrice(media.ID)
	suite.NoError(err)
	suite.Equal(int64(9900), cents)
}

func TestPricingServiceSuite(t *testing.T) {
	suite.Run(t, new(PricingServiceTestSuite))
}
