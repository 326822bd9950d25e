// internal/services/purchase_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/bcdastro/backend/internal/config"
	"github.com/bcdastro/backend/internal/models"
	"github.com/bcdastro/backend/internal/utils"
)

// PurchaseService owns the purchase ledger. Every attempt gets a pending
// row before any provider is contacted, so a crash between the local
// write and the provider call leaves a reconcilable trace, never a
// charge without a row.
type PurchaseService struct {
	db       *gorm.DB
	cfg      *config.Config
	pricing  *PricingService
	gateways map[models.PaymentMethod]PaymentGateway
}

func NewPurchaseService(db *gorm.DB, cfg *config.Config, pricing *PricingService, gateways map[models.PaymentMethod]PaymentGateway) *PurchaseService {
	return &PurchaseService{
		db:       db,
		cfg:      cfg,
		pricing:  pricing,
		gateways: gateways,
	}
}

type InitiatePurchaseInput struct {
	BuyerID      uuid.UUID
	MediaID      uuid.UUID
	Method       models.PaymentMethod
	LicenseType  models.LicenseType
	DisplayCents *int64
}

// InitiatePurchaseResult is what the checkout endpoint returns: the
// ledger row plus the URL the buyer is sent to.
type InitiatePurchaseResult struct {
	Purchase    *models.Purchase            `json:"purchase"`
	CheckoutURL string                      `json:"checkout_url"`
	Crypto      *models.CryptoPaymentRecord `json:"crypto,omitempty"`
}

// InitiatePurchase validates the request against the authoritative
// price, writes the pending ledger row, then opens a provider checkout.
// Calling it again for the same (buyer, media, method) while a pending
// unexpired attempt exists resumes that attempt instead of opening a
// second provider session.
func (s *PurchaseService) InitiatePurchase(ctx context.Context, in InitiatePurchaseInput) (*InitiatePurchaseResult, error) {
	var media models.MediaAsset
	if err := s.db.Preload("Creator").First(&media, "id = ?", in.MediaID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load media: %w", err)
	}
	if media.Status != models.MediaStatusPublished {
		return nil, ErrNotFound
	}
	if media.CreatorID == in.BuyerID {
		return nil, fmt.Errorf("%w: cannot purchase own media", ErrForbidden)
	}
	if !media.AcceptsMethod(in.Method) {
		return nil, ErrMethodNotSupported
	}

	licenseType := in.LicenseType
	if licenseType == "" {
		licenseType = models.LicenseTypeStandard
	}

	amountCents, err := s.pricing.ValidateDisplayPrice(in.MediaID, in.DisplayCents)
	if err != nil {
		return nil, err
	}

	owned, err := s.hasCompletedStandard(in.BuyerID, in.MediaID)
	if err != nil {
		return nil, err
	}
	if owned && licenseType == models.LicenseTypeStandard {
		return nil, ErrAlreadyOwned
	}

	// Resume an in-flight attempt rather than opening a second session.
	if resumed, err := s.resumePending(in.BuyerID, in.MediaID, in.Method); err != nil {
		return nil, err
	} else if resumed != nil {
		return resumed, nil
	}

	var buyer models.User
	if err := s.db.First(&buyer, "id = ?", in.BuyerID).Error; err != nil {
		return nil, fmt.Errorf("failed to load buyer: %w", err)
	}

	feeRate := media.Creator.CommissionRate(in.Method)
	purchase := &models.Purchase{
		BuyerID:          in.BuyerID,
		MediaAssetID:     in.MediaID,
		LicenseType:      licenseType,
		Method:           in.Method,
		AmountCents:      amountCents,
		PlatformFeeCents: int64(math.Round(float64(amountCents) * feeRate / 100.0)),
		Status:           models.PurchaseStatusPending,
	}

	// Ledger first. The provider is only contacted once this row exists.
	if err := s.db.Create(purchase).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyOwned
		}
		return nil, fmt.Errorf("failed to create purchase: %w", err)
	}

	gateway, ok := s.gateways[in.Method]
	if !ok {
		s.markFailed(purchase.ID, "no gateway configured")
		return nil, ErrMethodNotSupported
	}

	session, err := gateway.CreateCheckout(ctx, CheckoutRequest{
		PurchaseID:  purchase.ID,
		MediaID:     in.MediaID,
		BuyerID:     in.BuyerID,
		BuyerEmail:  buyer.Email,
		AmountCents: amountCents,
		Currency:    "usd",
		Title:       media.Title,
	})
	if err != nil {
		s.markFailed(purchase.ID, "checkout session creation failed")
		if errors.Is(err, ErrGatewayUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	updates := map[string]interface{}{
		"provider_ref": session.ProviderRef,
		"checkout_url": session.URL,
	}
	if err := s.db.Model(&models.Purchase{}).Where("id = ?", purchase.ID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to record provider reference: %w", err)
	}
	purchase.ProviderRef = session.ProviderRef
	purchase.CheckoutURL = session.URL

	result := &InitiatePurchaseResult{Purchase: purchase, CheckoutURL: session.URL}

	if in.Method == models.PaymentMethodCrypto {
		expiresAt := time.Now().Add(time.Duration(s.cfg.Crypto.ChargeExpiryMinutes) * time.Minute)
		if session.ExpiresAt != nil {
			expiresAt = *session.ExpiresAt
		}
		record := &models.CryptoPaymentRecord{
			PurchaseID:     purchase.ID,
			ChargeID:       session.ProviderRef,
			CryptoCurrency: session.CryptoCurrency,
			CryptoAmount:   session.CryptoAmount,
			ExchangeRate:   session.ExchangeRate,
			WalletAddress:  session.WalletAddress,
			Status:         models.CryptoChargeStatusPending,
			ExpiresAt:      expiresAt,
		}
		if err := s.db.Create(record).Error; err != nil {
			return nil, fmt.Errorf("failed to create crypto payment record: %w", err)
		}
		result.Crypto = record
	}

	logrus.WithFields(logrus.Fields{
		"purchase_id":  purchase.ID,
		"media_id":     in.MediaID,
		"buyer_id":     in.BuyerID,
		"method":       in.Method,
		"amount_cents": amountCents,
	}).Info("Purchase initiated")

	return result, nil
}

// resumePending returns the buyer's pending unexpired attempt for the
// same media and method, if one exists. Expired crypto attempts are left
// for the sweeper.
func (s *PurchaseService) resumePending(buyerID, mediaID uuid.UUID, method models.PaymentMethod) (*InitiatePurchaseResult, error) {
	var purchase models.Purchase
	err := s.db.Preload("Crypto").
		Where("buyer_id = ? AND media_asset_id = ? AND method = ? AND status = ?",
			buyerID, mediaID, method, models.PurchaseStatusPending).
		Order("created_at DESC").
		First(&purchase).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to check pending purchases: %w", err)
	}
	if purchase.CheckoutURL == "" {
		// The provider call never completed for this row; let a fresh
		// attempt replace it.
		return nil, nil
	}
	if purchase.Crypto != nil && time.Now().After(purchase.Crypto.ExpiresAt) {
		return nil, nil
	}
	return &InitiatePurchaseResult{
		Purchase:    &purchase,
		CheckoutURL: purchase.CheckoutURL,
		Crypto:      purchase.Crypto,
	}, nil
}

func (s *PurchaseService) hasCompletedStandard(buyerID, mediaID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.Model(&models.Purchase{}).
		Where("buyer_id = ? AND media_asset_id = ? AND status = ? AND license_type = ?",
			buyerID, mediaID, models.PurchaseStatusCompleted, models.LicenseTypeStandard).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check ownership: %w", err)
	}
	return count > 0, nil
}

// markFailed moves a purchase out of pending after a local failure. The
// conditional predicate means a webhook that already completed the row
// wins; the failure mark then silently does nothing.
func (s *PurchaseService) markFailed(purchaseID uuid.UUID, reason string) {
	res := s.db.Model(&models.Purchase{}).
		Where("id = ? AND status = ?", purchaseID, models.PurchaseStatusPending).
		Updates(map[string]interface{}{
			"status":         models.PurchaseStatusFailed,
			"failure_reason": reason,
		})
	if res.Error != nil {
		logrus.WithError(res.Error).WithField("purchase_id", purchaseID).
			Error("Failed to mark purchase failed")
	}
}

// GetPurchase returns one purchase, scoped to its buyer unless the
// caller is an admin.
func (s *PurchaseService) GetPurchase(purchaseID, callerID uuid.UUID, isAdmin bool) (*models.Purchase, error) {
	var purchase models.Purchase
	err := s.db.Preload("Media").Preload("Crypto").First(&purchase, "id = ?", purchaseID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load purchase: %w", err)
	}
	if !isAdmin && purchase.BuyerID != callerID {
		return nil, ErrNotFound
	}
	return &purchase, nil
}

// ListPurchases returns the buyer's purchase history, newest first,
// optionally filtered by status.
func (s *PurchaseService) ListPurchases(buyerID uuid.UUID, status string, params utils.PaginationParams) (*utils.PaginationResult, error) {
	query := s.db.Model(&models.Purchase{}).Where("buyer_id = ?", buyerID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count purchases: %w", err)
	}

	var purchases []models.Purchase
	err := utils.ApplyPagination(query.Preload("Media").Preload("Crypto").Order("created_at DESC"), params).
		Find(&purchases).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}

	result := utils.CreatePaginationResult(purchases, total, params)
	return &result, nil
}

// ListAllPurchases is the admin view over the whole ledger.
func (s *PurchaseService) ListAllPurchases(status string, method string, params utils.PaginationParams) (*utils.PaginationResult, error) {
	query := s.db.Model(&models.Purchase{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if method != "" {
		query = query.Where("method = ?", method)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count purchases: %w", err)
	}

	var purchases []models.Purchase
	err := utils.ApplyPagination(query.Preload("Media").Preload("Buyer").Preload("Crypto").Order("created_at DESC"), params).
		Find(&purchases).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}

	result := utils.CreatePaginationResult(purchases, total, params)
	return &result, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
