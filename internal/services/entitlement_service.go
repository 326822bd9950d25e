// internal/services/entitlement_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/bcdastro/backend/internal/models"
)

const downloadURLTTL = 24 * time.Hour

// EntitlementService answers "may this user download this asset" and
// mints the signed delivery URL when the answer is yes. Entitlement is
// purely a function of the ledger: a completed purchase row is the only
// thing that grants access.
type EntitlementService struct {
	db      *gorm.DB
	storage *StorageService
}

func NewEntitlementService(db *gorm.DB, storage *StorageService) *EntitlementService {
	return &EntitlementService{db: db, storage: storage}
}

// IsEntitled reports whether the buyer holds any completed purchase for
// the asset. Pending and failed rows grant nothing.
func (s *EntitlementService) IsEntitled(buyerID, mediaID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.Model(&models.Purchase{}).
		Where("buyer_id = ? AND media_asset_id = ? AND status = ?",
			buyerID, mediaID, models.PurchaseStatusCompleted).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check entitlement: %w", err)
	}
	return count > 0, nil
}

// DownloadGrant is what the download endpoint redirects with.
type DownloadGrant struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// GetDownloadURL enforces the entitlement and the per-license download
// cap, then mints a presigned URL for the master file. The cap is
// consumed with a conditional increment so concurrent requests cannot
// overshoot it.
func (s *EntitlementService) GetDownloadURL(buyerID, mediaID uuid.UUID) (*DownloadGrant, error) {
	var media models.MediaAsset
	if err := s.db.First(&media, "id = ?", mediaID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load media: %w", err)
	}

	// The creator downloads their own masters without a purchase.
	if media.CreatorID != buyerID {
		purchase, err := s.consumeDownload(buyerID, mediaID)
		if err != nil {
			return nil, err
		}
		logrus.WithFields(logrus.Fields{
			"purchase_id": purchase.ID,
			"buyer_id":    buyerID,
			"media_id":    mediaID,
			"downloads":   purchase.DownloadCount + 1,
		}).Info("Download granted")
	}

	if media.StorageKey == "" {
		return nil, fmt.Errorf("media %s has no master file", mediaID)
	}

	url, err := s.storage.GeneratePresignedURL(media.StorageKey, downloadURLTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign download URL: %w", err)
	}

	if err := s.db.Model(&models.MediaAsset{}).
		Where("id = ?", mediaID).
		UpdateColumn("download_count", gorm.Expr("download_count + 1")).Error; err != nil {
		logrus.WithError(err).WithField("media_id", mediaID).
			Error("Failed to bump media download count")
	}

	return &DownloadGrant{URL: url, ExpiresAt: time.Now().Add(downloadURLTTL)}, nil
}

// consumeDownload finds the buyer's completed purchase and spends one
// download against its license cap.
func (s *EntitlementService) consumeDownload(buyerID, mediaID uuid.UUID) (*models.Purchase, error) {
	var purchase models.Purchase
	err := s.db.Where("buyer_id = ? AND media_asset_id = ? AND status = ?",
		buyerID, mediaID, models.PurchaseStatusCompleted).
		Order("created_at DESC").
		First(&purchase).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no completed purchase", ErrForbidden)
		}
		return nil, fmt.Errorf("failed to load purchase: %w", err)
	}

	maxDownloads := purchase.LicenseType.MaxDownloads()
	if maxDownloads == 0 {
		// Unlimited license, still count the download.
		err := s.db.Model(&models.Purchase{}).
			Where("id = ?", purchase.ID).
			UpdateColumn("download_count", gorm.Expr("download_count + 1")).Error
		if err != nil {
			return nil, fmt.Errorf("failed to count download: %w", err)
		}
		return &purchase, nil
	}

	res := s.db.Model(&models.Purchase{}).
		Where("id = ? AND download_count < ?", purchase.ID, maxDownloads).
		UpdateColumn("download_count", gorm.Expr("download_count + 1"))
	if res.Error != nil {
		return nil, fmt.Errorf("failed to count download: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrDownloadLimit
	}
	return &purchase, nil
}
