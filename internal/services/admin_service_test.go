// internal/services/admin_service_test.go
package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/bcdastro/backend/internal/models"
)

type AdminServiceTestSuite struct {
	suite.Suite
	db  *gorm.DB
	svc *AdminService
}

func (suite *AdminServiceTestSuite) SetupTest() {
	suite.db = setupTestDB(suite.T())
	suite.svc = NewAdminService(suite.db, NewPricingService(suite.db))
}

func (suite *AdminServiceTestSuite) TestSetCommissionRates() {
	creator := createTestUser(suite.T(), suite.db, models.UserTypeCreator)

	fiat := 12.5
	user, err := suite.svc.SetCommissionRates(creator.ID, &SetCommissionRequest{
		FiatCommissionRate: &fiat,
	})
	suite.NoError(err)
	suite.Equal(12.5, user.FiatCommissionRate)
	// Untouched rate keeps its value
	suite.Equal(5.0, user.CryptoCommissionRate)

	crypto := 2.0
	user, err = suite.svc.SetCommissionRates(creator.ID, &SetCommissionRequest{
		CryptoCommissionRate: &crypto,
	})
	suite.NoError(err)
	suite.Equal(12.5, user.FiatCommissionRate)
	suite.Equal(2.0, user.CryptoCommissionRate)
}

func (suite *AdminServiceTestSuite) TestSetCommissionRatesValidation() {
	creator := createTestUser(suite.T(), suite.db, models.UserTypeCreator)

	_, err := suite.svc.SetCommissionRates(creator.ID, &SetCommissionRequest{})
	suite.Error(err)

	over := 150.0
	_, err = suite.svc.SetCommissionRates(creator.ID, &SetCommissionRequest{
		FiatCommissionRate: &over,
	})
	suite.Error(err)

	rate := 10.0
	_, err = suite.svc.SetCommissionRates(uuid.New(), &SetCommissionRequest{
		FiatCommissionRate: &rate,
	})
	suite.ErrorIs(err, ErrNotFound)
}

func TestAdminServiceSuite(t *testing.T) {
	suite.Run(t, new(AdminServiceTestSuite))
}
