// internal/services/webhook_service.go
package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/webhook"
	"gorm.io/gorm"

	"github.com/bcdastro/backend/internal/config"
	"github.com/bcdastro/backend/internal/models"
	"github.com/bcdastro/backend/internal/utils"
)

// WebhookService reconciles provider events against the purchase ledger.
// The provider reference on the event is the join key; every state change
// goes through a conditional update so replays and races with the expiry
// sweeper resolve to exactly one terminal state.
type WebhookService struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewWebhookService(db *gorm.DB, cfg *config.Config) *WebhookService {
	return &WebhookService{db: db, cfg: cfg}
}

// HandleStripeEvent verifies the Stripe signature and applies the event.
// Unknown event types are acknowledged and ignored.
func (s *WebhookService) HandleStripeEvent(payload []byte, sigHeader string) error {
	event, err := webhook.ConstructEvent(payload, sigHeader, s.cfg.Payment.StripeWebhookSecret)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return fmt.Errorf("failed to parse checkout session: %w", err)
		}
		return s.completePurchase(session.ID, "", 0)

	case "checkout.session.expired", "checkout.session.async_payment_failed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return fmt.Errorf("failed to parse checkout session: %w", err)
		}
		return s.failPurchase(session.ID, string(event.Type))

	default:
		logrus.WithField("event_type", event.Type).Debug("Ignoring Stripe event")
		return nil
	}
}

type coinbaseWebhookEvent struct {
	Event struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			ID       string `json:"id"`
			Code     string `json:"code"`
			Payments []struct {
				TransactionID string `json:"transaction_id"`
				Status        string `json:"status"`
				Block         struct {
					ConfirmationsAccumulated int `json:"confirmations_accumulated"`
				} `json:"block"`
			} `json:"payments"`
		} `json:"data"`
	} `json:"event"`
}

// HandleCoinbaseEvent verifies the shared-secret HMAC and applies the
// charge event.
func (s *WebhookService) HandleCoinbaseEvent(payload []byte, signature string) error {
	if !utils.VerifyHMAC(payload, s.cfg.Payment.CoinbaseWebhookSecret, signature) {
		return ErrInvalidSignature
	}

	var event coinbaseWebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("failed to parse webhook event: %w", err)
	}

	chargeID := event.Event.Data.ID
	if chargeID == "" {
		return fmt.Errorf("webhook event missing charge id")
	}

	switch event.Event.Type {
	case "charge:confirmed":
		txHash := ""
		confirmations := 0
		for _, p := range event.Event.Data.Payments {
			if p.TransactionID != "" {
				txHash = p.TransactionID
				confirmations = p.Block.ConfirmationsAccumulated
			}
		}
		return s.completePurchase(chargeID, txHash, confirmations)

	case "charge:failed", "charge:expired":
		return s.failPurchase(chargeID, event.Event.Type)

	default:
		logrus.WithField("event_type", event.Event.Type).Debug("Ignoring Coinbase event")
		return nil
	}
}

// completePurchase moves the purchase identified by providerRef to
// completed. A replay, or an event arriving after the sweeper already
// failed the row, matches zero rows and is a no-op.
func (s *WebhookService) completePurchase(providerRef, txHash string, confirmations int) error {
	var purchase models.Purchase
	err := s.db.First(&purchase, "provider_ref = ?", providerRef).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", ErrUnknownReference, providerRef)
		}
		return fmt.Errorf("failed to load purchase: %w", err)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":       models.PurchaseStatusCompleted,
		"confirmed_at": &now,
	}
	if txHash != "" {
		updates["tx_hash"] = txHash
	}

	res := s.db.Model(&models.Purchase{}).
		Where("id = ? AND status = ?", purchase.ID, models.PurchaseStatusPending).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to complete purchase: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		logrus.WithFields(logrus.Fields{
			"purchase_id":  purchase.ID,
			"provider_ref": providerRef,
		}).Info("Purchase already terminal, ignoring completion event")
		return nil
	}

	if purchase.Method == models.PaymentMethodCrypto {
		err := s.db.Model(&models.CryptoPaymentRecord{}).
			Where("purchase_id = ?", purchase.ID).
			Updates(map[string]interface{}{
				"status":        models.CryptoChargeStatusConfirmed,
				"confirmations": confirmations,
			}).Error
		if err != nil {
			logrus.WithError(err).WithField("purchase_id", purchase.ID).
				Error("Failed to update crypto payment record")
		}
	}

	if err := s.db.Model(&models.MediaAsset{}).
		Where("id = ?", purchase.MediaAssetID).
		UpdateColumn("sales_count", gorm.Expr("sales_count + 1")).Error; err != nil {
		logrus.WithError(err).WithField("media_id", purchase.MediaAssetID).
			Error("Failed to bump sales count")
	}

	logrus.WithFields(logrus.Fields{
		"purchase_id":  purchase.ID,
		"provider_ref": providerRef,
		"method":       purchase.Method,
	}).Info("Purchase completed")
	return nil
}

// failPurchase moves the purchase identified by providerRef to failed.
// Completed purchases are never failed by a late event.
func (s *WebhookService) failPurchase(providerRef, reason string) error {
	var purchase models.Purchase
	err := s.db.First(&purchase, "provider_ref = ?", providerRef).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", ErrUnknownReference, providerRef)
		}
		return fmt.Errorf("failed to load purchase: %w", err)
	}

	res := s.db.Model(&models.Purchase{}).
		Where("id = ? AND status = ?", purchase.ID, models.PurchaseStatusPending).
		Updates(map[string]interface{}{
			"status":         models.PurchaseStatusFailed,
			"failure_reason": reason,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to mark purchase failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		logrus.WithFields(logrus.Fields{
			"purchase_id":  purchase.ID,
			"provider_ref": providerRef,
		}).Info("Purchase already terminal, ignoring failure event")
		return nil
	}

	if purchase.Method == models.PaymentMethodCrypto {
		recordStatus := models.CryptoChargeStatusFailed
		if reason == "charge:expired" {
			recordStatus = models.CryptoChargeStatusExpired
		}
		err := s.db.Model(&models.CryptoPaymentRecord{}).
			Where("purchase_id = ?", purchase.ID).
			Update("status", recordStatus).Error
		if err != nil {
			logrus.WithError(err).WithField("purchase_id", purchase.ID).
				Error("Failed to update crypto payment record")
		}
	}

	logrus.WithFields(logrus.Fields{
		"purchase_id":  purchase.ID,
		"provider_ref": providerRef,
		"reason":       reason,
	}).Info("Purchase failed")
	return nil
}
