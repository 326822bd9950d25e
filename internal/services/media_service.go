// internal/services/media_service.go
package services

import (
	"errors"
	"fmt"
	"mime/multipart"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/bcdastro/backend/internal/models"
	"github.com/bcdastro/backend/internal/utils"
)

// MediaService manages the asset catalog: creation, master upload,
// review flow, and the published listings buyers browse.
type MediaService struct {
	db      *gorm.DB
	storage *StorageService
	pricing *PricingService
}

type CreateMediaRequest struct {
	Title         string                 `json:"title" validate:"required,min=3,max=255"`
	Description   string                 `json:"description" validate:"max=5000"`
	Category      string                 `json:"category" validate:"required,max=100"`
	MediaType     models.MediaType       `json:"media_type" validate:"required,oneof=photo video"`
	PriceCents    int64                  `json:"price_cents" validate:"required,min=100"`
	CardEnabled   *bool                  `json:"card_enabled,omitempty"`
	CryptoEnabled *bool                  `json:"crypto_enabled,omitempty"`
	Tags          []string               `json:"tags,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

type UpdateMediaRequest struct {
	Title         *string  `json:"title,omitempty" validate:"omitempty,min=3,max=255"`
	Description   *string  `json:"description,omitempty" validate:"omitempty,max=5000"`
	Category      *string  `json:"category,omitempty" validate:"omitempty,max=100"`
	PriceCents    *int64   `json:"price_cents,omitempty" validate:"omitempty,min=100"`
	CardEnabled   *bool    `json:"card_enabled,omitempty"`
	CryptoEnabled *bool    `json:"crypto_enabled,omitempty"`
	Tags          []string `json:"tags,omitempty"`
}

func NewMediaService(db *gorm.DB, storage *StorageService, pricing *PricingService) *MediaService {
	return &MediaService{db: db, storage: storage, pricing: pricing}
}

// CreateMedia creates a draft listing. Nothing is purchasable until the
// asset passes review and is published.
func (s *MediaService) CreateMedia(creatorID uuid.UUID, req *CreateMediaRequest) (*models.MediaAsset, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, &InputError{Msg: "validation failed", Err: err}
	}

	media := &models.MediaAsset{
		CreatorID:   creatorID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		MediaType:   req.MediaType,
		PriceCents:  req.PriceCents,
		Status:      models.MediaStatusDraft,
		Tags:        pq.StringArray(req.Tags),
		Metadata:    models.JSONB(req.Metadata),
	}
	if req.CardEnabled != nil {
		media.CardEnabled = *req.CardEnabled
	} else {
		media.CardEnabled = true
	}
	if req.CryptoEnabled != nil {
		media.CryptoEnabled = *req.CryptoEnabled
	} else {
		media.CryptoEnabled = true
	}

	if err := s.db.Create(media).Error; err != nil {
		return nil, fmt.Errorf("failed to create media: %w", err)
	}

	return media, nil
}

// UpdateMedia edits a listing the caller owns. A price change drops the
// cached price so the next checkout sees the new amount immediately.
func (s *MediaService) UpdateMedia(mediaID, callerID uuid.UUID, req *UpdateMediaRequest) (*models.MediaAsset, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, &InputError{Msg: "validation failed", Err: err}
	}

	media, err := s.getOwnedMedia(mediaID, callerID)
	if err != nil {
		return nil, err
	}

	priceChanged := false
	if req.Title != nil {
		media.Title = *req.Title
	}
	if req.Description != nil {
		media.Description = *req.Description
	}
	if req.Category != nil {
		media.Category = *req.Category
	}
	if req.PriceCents != nil && *req.PriceCents != media.PriceCents {
		media.PriceCents = *req.PriceCents
		priceChanged = true
	}
	if req.CardEnabled != nil {
		media.CardEnabled = *req.CardEnabled
	}
	if req.CryptoEnabled != nil {
		media.CryptoEnabled = *req.CryptoEnabled
	}
	if req.Tags != nil {
		media.Tags = pq.StringArray(req.Tags)
	}
	if !media.CardEnabled && !media.CryptoEnabled {
		return nil, errInput("at least one payment method must stay enabled")
	}

	if err := s.db.Save(media).Error; err != nil {
		return nil, fmt.Errorf("failed to update media: %w", err)
	}

	if priceChanged {
		s.pricing.Invalidate(mediaID)
	}

	return media, nil
}

// UploadMaster stores the full-resolution file under the private prefix
// and records its key on the asset.
func (s *MediaService) UploadMaster(mediaID, callerID uuid.UUID, file multipart.File, header *multipart.FileHeader) (*models.MediaAsset, error) {
	media, err := s.getOwnedMedia(mediaID, callerID)
	if err != nil {
		return nil, err
	}

	result, err := s.storage.UploadFile(file, header, s.storage.GetDefaultUploadOptions("media_masters"))
	if err != nil {
		return nil, fmt.Errorf("failed to upload master: %w", err)
	}

	if media.StorageKey != "" && media.StorageKey != result.Key {
		if err := s.storage.DeleteFile(media.StorageKey); err != nil {
			logrus.WithError(err).WithField("key", media.StorageKey).
				Warn("Failed to delete replaced master file")
		}
	}

	media.StorageKey = result.Key
	if err := s.db.Model(media).Update("storage_key", result.Key).Error; err != nil {
		return nil, fmt.Errorf("failed to record storage key: %w", err)
	}

	return media, nil
}

// UploadPreview stores the watermarked preview, which is public.
func (s *MediaService) UploadPreview(mediaID, callerID uuid.UUID, file multipart.File, header *multipart.FileHeader) (*models.MediaAsset, error) {
	media, err := s.getOwnedMedia(mediaID, callerID)
	if err != nil {
		return nil, err
	}

	result, err := s.storage.UploadFile(file, header, s.storage.GetDefaultUploadOptions("previews"))
	if err != nil {
		return nil, fmt.Errorf("failed to upload preview: %w", err)
	}

	media.PreviewURL = result.URL
	if err := s.db.Model(media).Update("preview_url", result.URL).Error; err != nil {
		return nil, fmt.Errorf("failed to record preview URL: %w", err)
	}

	return media, nil
}

// SubmitForReview moves a draft with an uploaded master into the review
// queue.
func (s *MediaService) SubmitForReview(mediaID, callerID uuid.UUID) (*models.MediaAsset, error) {
	media, err := s.getOwnedMedia(mediaID, callerID)
	if err != nil {
		return nil, err
	}
	if media.Status != models.MediaStatusDraft {
		return nil, errInput("only draft media can be submitted for review")
	}
	if media.StorageKey == "" {
		return nil, errInput("upload the master file before submitting")
	}

	media.Status = models.MediaStatusPending
	if err := s.db.Model(media).Update("status", models.MediaStatusPending).Error; err != nil {
		return nil, fmt.Errorf("failed to submit media: %w", err)
	}

	return media, nil
}

// GetMedia returns a single asset. Unpublished assets are visible only
// to their creator and admins.
func (s *MediaService) GetMedia(mediaID uuid.UUID, callerID uuid.UUID, isAdmin bool) (*models.MediaAsset, error) {
	var media models.MediaAsset
	err := s.db.Preload("Creator").First(&media, "id = ?", mediaID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load media: %w", err)
	}
	if media.Status != models.MediaStatusPublished && media.CreatorID != callerID && !isAdmin {
		return nil, ErrNotFound
	}
	return &media, nil
}

// ListPublished is the public catalog view.
func (s *MediaService) ListPublished(params utils.PaginationParams) (*utils.PaginationResult, error) {
	query := s.db.Model(&models.MediaAsset{}).Where("status = ?", models.MediaStatusPublished)
	if params.Search != "" {
		search := "%" + params.Search + "%"
		query = query.Where("title ILIKE ? OR description ILIKE ?", search, search)
	}
	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count media: %w", err)
	}

	var media []models.MediaAsset
	query = utils.ApplySort(query.Preload("Creator"), params,
		[]string{"created_at", "price_cents", "sales_count", "download_count"})
	if err := utils.ApplyPagination(query, params).Find(&media).Error; err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}

	result := utils.CreatePaginationResult(media, total, params)
	return &result, nil
}

// ListByCreator returns everything a creator owns, any status.
func (s *MediaService) ListByCreator(creatorID uuid.UUID, params utils.PaginationParams) (*utils.PaginationResult, error) {
	query := s.db.Model(&models.MediaAsset{}).Where("creator_id = ?", creatorID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count media: %w", err)
	}

	var media []models.MediaAsset
	if err := utils.ApplyPagination(query.Order("created_at DESC"), params).Find(&media).Error; err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}

	result := utils.CreatePaginationResult(media, total, params)
	return &result, nil
}

func (s *MediaService) getOwnedMedia(mediaID, callerID uuid.UUID) (*models.MediaAsset, error) {
	var media models.MediaAsset
	err := s.db.First(&media, "id = ?", mediaID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load media: %w", err)
	}
	if media.CreatorID != callerID {
		return nil, ErrForbidden
	}
	return &media, nil
}
