// internal/services/admin_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/bcdastro/backend/internal/models"
	"github.com/bcdastro/backend/internal/utils"
)

// AdminService covers the review queue and per-creator commission
// management.
type AdminService struct {
	db      *gorm.DB
	pricing *PricingService
}

type SetCommissionRequest struct {
	FiatCommissionRate   *float64 `json:"fiat_commission_rate,omitempty" validate:"omitempty,min=0,max=100"`
	CryptoCommissionRate *float64 `json:"crypto_commission_rate,omitempty" validate:"omitempty,min=0,max=100"`
}

func NewAdminService(db *gorm.DB, pricing *PricingService) *AdminService {
	return &AdminService{db: db, pricing: pricing}
}

// ApproveMedia publishes a pending asset.
func (s *AdminService) ApproveMedia(mediaID uuid.UUID) (*models.MediaAsset, error) {
	var media models.MediaAsset
	if err := s.db.First(&media, "id = ?", mediaID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load media: %w", err)
	}
	if media.Status != models.MediaStatusPending {
		return nil, errInput("only pending media can be approved")
	}

	media.Status = models.MediaStatusPublished
	if err := s.db.Model(&media).Update("status", models.MediaStatusPublished).Error; err != nil {
		return nil, fmt.Errorf("failed to approve media: %w", err)
	}

	logrus.WithField("media_id", mediaID).Info("Media approved and published")
	return &media, nil
}

// RejectMedia sends a pending asset back to draft.
func (s *AdminService) RejectMedia(mediaID uuid.UUID, reason string) (*models.MediaAsset, error) {
	var media models.MediaAsset
	if err := s.db.First(&media, "id = ?", mediaID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load media: %w", err)
	}
	if media.Status != models.MediaStatusPending {
		return nil, errInput("only pending media can be rejected")
	}

	if media.Metadata == nil {
		media.Metadata = make(models.JSONB)
	}
	media.Metadata["rejection_reason"] = reason
	media.Status = models.MediaStatusDraft
	if err := s.db.Save(&media).Error; err != nil {
		return nil, fmt.Errorf("failed to reject media: %w", err)
	}
	s.pricing.Invalidate(mediaID)

	logrus.WithFields(logrus.Fields{
		"media_id": mediaID,
		"reason":   reason,
	}).Info("Media rejected")
	return &media, nil
}

// ListPendingMedia is the review queue, oldest first.
func (s *AdminService) ListPendingMedia(params utils.PaginationParams) (*utils.PaginationResult, error) {
	query := s.db.Model(&models.MediaAsset{}).Where("status = ?", models.MediaStatusPending)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count pending media: %w", err)
	}

	var media []models.MediaAsset
	err := utils.ApplyPagination(query.Preload("Creator").Order("created_at ASC"), params).
		Find(&media).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending media: %w", err)
	}

	result := utils.CreatePaginationResult(media, total, params)
	return &result, nil
}

// SetCommissionRates adjusts a creator's per-method commission. New
// purchases pick the new rate up at initiation; completed ledger rows
// keep the fee they were created with.
func (s *AdminService) SetCommissionRates(userID uuid.UUID, req *SetCommissionRequest) (*models.User, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, &InputError{Msg: "validation failed", Err: err}
	}
	if req.FiatCommissionRate == nil && req.CryptoCommissionRate == nil {
		return nil, errInput("no commission rate supplied")
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if req.FiatCommissionRate != nil {
		user.FiatCommissionRate = *req.FiatCommissionRate
	}
	if req.CryptoCommissionRate != nil {
		user.CryptoCommissionRate = *req.CryptoCommissionRate
	}
	if err := s.db.Save(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to update commission rates: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id":     userID,
		"fiat_rate":   user.FiatCommissionRate,
		"crypto_rate": user.CryptoCommissionRate,
	}).Info("Commission rates updated")
	return &user, nil
}

// ListUsers is the admin user directory.
func (s *AdminService) ListUsers(userType string, params utils.PaginationParams) (*utils.PaginationResult, error) {
	query := s.db.Model(&models.User{})
	if userType != "" {
		query = query.Where("user_type = ?", userType)
	}
	if params.Search != "" {
		search := "%" + params.Search + "%"
		query = query.Where("username ILIKE ? OR email ILIKE ?", search, search)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	var users []models.User
	if err := utils.ApplyPagination(query.Order("created_at DESC"), params).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	result := utils.CreatePaginationResult(users, total, params)
	return &result, nil
}
