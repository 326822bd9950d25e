// internal/services/expiry_sweeper.go
package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/bcdastro/backend/internal/config"
	"github.com/bcdastro/backend/internal/models"
)

// ExpirySweeper fails pending crypto purchases whose charge window has
// passed. The provider also emits charge:expired events, so the sweeper
// and the webhook race for the same rows; conditional updates make the
// race harmless in either order.
type ExpirySweeper struct {
	db       *gorm.DB
	interval time.Duration
}

func NewExpirySweeper(db *gorm.DB, cfg *config.Config) *ExpirySweeper {
	return &ExpirySweeper{
		db:       db,
		interval: time.Duration(cfg.Crypto.SweepIntervalSecs) * time.Second,
	}
}

// Run sweeps on a ticker until the context is cancelled.
func (s *ExpirySweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logrus.WithField("interval", s.interval).Info("Expiry sweeper started")
	for {
		select {
		case <-ctx.Done():
			logrus.Info("Expiry sweeper stopped")
			return
		case <-ticker.C:
			if n, err := s.SweepOnce(ctx); err != nil {
				logrus.WithError(err).Error("Expiry sweep failed")
			} else if n > 0 {
				logrus.WithField("expired", n).Info("Expired pending crypto purchases")
			}
		}
	}
}

// SweepOnce expires everything currently past its charge window and
// returns how many purchases were failed.
func (s *ExpirySweeper) SweepOnce(ctx context.Context) (int64, error) {
	now := time.Now()

	var records []models.CryptoPaymentRecord
	err := s.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", models.CryptoChargeStatusPending, now).
		Limit(500).
		Find(&records).Error
	if err != nil {
		return 0, err
	}

	var expired int64
	for _, record := range records {
		res := s.db.WithContext(ctx).Model(&models.Purchase{}).
			Where("id = ? AND status = ?", record.PurchaseID, models.PurchaseStatusPending).
			Updates(map[string]interface{}{
				"status":         models.PurchaseStatusFailed,
				"failure_reason": "charge expired",
			})
		if res.Error != nil {
			logrus.WithError(res.Error).WithField("purchase_id", record.PurchaseID).
				Error("Failed to expire purchase")
			continue
		}

		// Mark the record regardless; a purchase completed meanwhile
		// keeps its completed status and the record stays confirmed.
		err := s.db.WithContext(ctx).Model(&models.CryptoPaymentRecord{}).
			Where("id = ? AND status = ?", record.ID, models.CryptoChargeStatusPending).
			Update("status", models.CryptoChargeStatusExpired).Error
		if err != nil {
			logrus.WithError(err).WithField("charge_id", record.ChargeID).
				Error("Failed to expire crypto payment record")
		}

		if res.RowsAffected > 0 {
			expired++
		}
	}

	return expired, nil
}
