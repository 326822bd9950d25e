// internal/services/auth_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/bcdastro/backend/internal/config"
	"github.com/bcdastro/backend/internal/models"
)

type AuthServiceTestSuite struct {
	suite.Suite
	db  *gorm.DB
	svc *AuthService
}

func (suite *AuthServiceTestSuite) SetupTest() {
	suite.db = setupTestDB(suite.T())
	cfg := testConfig()
	cfg.JWT = config.JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenTTL:  24,
		RefreshTokenTTL: 168,
	}
	suite.svc = NewAuthService(suite.db, cfg)
}

func registerRequest() *RegisterRequest {
	return &RegisterRequest{
		Username: "astrofan",
		Email:    "Astro.Fan@Example.com",
		Password: "TestPass123!",
		UserType: models.UserTypeBuyer,
	}
}

func (suite *AuthServiceTestSuite) TestRegisterNormalizesEmail() {
	resp, err := suite.svc.Register(registerRequest())
	suite.NoError(err)
	suite.Equal("astro.fan@example.com", resp.User.Email)
	suite.NotEmpty(resp.AccessToken)
	suite.NotEmpty(resp.RefreshToken)
	suite.Equal("Bearer", resp.TokenType)
}

func (suite *AuthServiceTestSuite) TestRegisterDuplicateEmailRejected() {
	_, err := suite.svc.Register(registerRequest())
	suite.NoError(err)

	dup := registerRequest()
	dup.Username = "anotheruser"
	dup.Email = "ASTRO.FAN@example.com"
	_, err = suite.svc.Register(dup)
	suite.Error(err)
}

func (suite *AuthServiceTestSuite) TestRegisterWeakPasswordRejected() {
	req := registerRequest()
	req.Password = "weak"
	_, err := suite.svc.Register(req)
	suite.Error(err)
}

func (suite *AuthServiceTestSuite) TestLogin() {
	_, err := suite.svc.Register(registerRequest())
	suite.NoError(err)

	resp, err := suite.svc.Login(&LoginRequest{
		Email:    "astro.fan@example.com",
		Password: "TestPass123!",
	})
	suite.NoError(err)
	suite.NotEmpty(resp.AccessToken)
	suite.NotNil(resp.User.LastLoginAt)

	var stored models.User
	suite.NoError(suite.db.First(&stored, "id = ?", resp.User.ID).Error)
	suite.NotNil(stored.LastLoginAt)

	_, err = suite.svc.Login(&LoginRequest{
		Email:    "astro.fan@example.com",
		Password: "WrongPass123!",
	})
	suite.Error(err)
}

func (suite *AuthServiceTestSuite) TestRefreshToken() {
	registered, err := suite.svc.Register(registerRequest())
	suite.NoError(err)

	refreshed, err := suite.svc.RefreshToken(registered.RefreshToken)
	suite.NoError(err)
	suite.NotEmpty(refreshed.AccessToken)
	suite.Equal(registered.User.ID, refreshed.User.ID)

	_, err = suite.svc.RefreshToken("garbage-token")
	suite.Error(err)
}

func (suite *AuthServiceTestSuite) TestLinkWallet() {
	registered, err := suite.svc.Register(registerRequest())
	suite.NoError(err)

	user, err := suite.svc.LinkWallet(registered.User.ID, &LinkWalletRequest{
		WalletAddress: "0xAbCd111111111111111111111111111111111111",
	})
	suite.NoError(err)
	suite.NotNil(user.WalletAddress)
	suite.Equal("0xabcd111111111111111111111111111111111111", *user.WalletAddress)
}

func (suite *AuthServiceTestSuite) TestLinkWalletRejectsDuplicate() {
	first, err := suite.svc.Register(registerRequest())
	suite.NoError(err)

	second := registerRequest()
	second.Username = "otherbuyer"
	second.Email = "other@example.com"
	registered, err := suite.svc.Register(second)
	suite.NoError(err)

	address := "0xAbCd111111111111111111111111111111111111"
	_, err = suite.svc.LinkWallet(first.User.ID, &LinkWalletRequest{WalletAddress: address})
	suite.NoError(err)

	_, err = suite.svc.LinkWallet(registered.User.ID, &LinkWalletRequest{WalletAddress: address})
	suite.Error(err)
}

func (suite *AuthServiceTestSuite) TestLinkWalletRejectsMalformedAddress() {
	registered, err := suite.svc.Register(registerRequest())
	suite.NoError(err)

	_, err = suite.svc.LinkWallet(registered.User.ID, &LinkWalletRequest{
		WalletAddress: "not-an-address",
	})
	suite.Error(err)
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
