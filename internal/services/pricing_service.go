// internal/services/pricing_service.go
package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bcdastro/backend/internal/models"
)

const priceCacheTTL = time.Hour

type cachedPrice struct {
	cents    int64
	cachedAt time.Time
}

// PricingService is the single authority on what a media asset costs.
// Client-supplied amounts are display hints only and are revalidated
// against ResolvePrice before any charge is created.
type PricingService struct {
	db  *gorm.DB
	mu  sync.RWMutex
	ttl time.Duration

	cache map[uuid.UUID]cachedPrice
}

func NewPricingService(db *gorm.DB) *PricingService {
	return &PricingService{
		db:    db,
		ttl:   priceCacheTTL,
		cache: make(map[uuid.UUID]cachedPrice),
	}
}

// ResolvePrice returns the authoritative price in cents for a published
// media asset. A cache miss always falls back to the store, never to any
// client-provided value.
func (s *PricingService) ResolvePrice(mediaID uuid.UUID) (int64, error) {
	s.mu.RLock()
	entry, ok := s.cache[mediaID]
	s.mu.RUnlock()
	if ok && time.Since(entry.cachedAt) < s.ttl {
		return entry.cents, nil
	}

	var media models.MediaAsset
	err := s.db.Select("id", "price_cents", "status").First(&media, "id = ?", mediaID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("failed to load media price: %w", err)
	}
	if media.Status != models.MediaStatusPublished {
		return 0, ErrNotFound
	}

	s.mu.Lock()
	s.cache[mediaID] = cachedPrice{cents: media.PriceCents, cachedAt: time.Now()}
	s.mu.Unlock()

	return media.PriceCents, nil
}

// ValidateDisplayPrice checks a client-supplied amount against the
// authoritative price. A nil hint is accepted; a disagreeing hint aborts
// charge creation with ErrPriceMismatch.
func (s *PricingService) ValidateDisplayPrice(mediaID uuid.UUID, displayCents *int64) (int64, error) {
	price, err := s.ResolvePrice(mediaID)
	if err != nil {
		return 0, err
	}
	if displayCents != nil && *displayCents != price {
		return 0, ErrPriceMismatch
	}
	return price, nil
}

// Invalidate drops a cached price, used when a listing is edited.
func (s *PricingService) Invalidate(mediaID uuid.UUID) {
	s.mu.Lock()
	delete(s.cache, mediaID)
	s.mu.Unlock()
}
