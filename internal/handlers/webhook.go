// internal/handlers/webhook.go
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/bcdastro/backend/internal/services"
)

// Webhook endpoints sit outside the API envelope: providers only look
// at the status code. Signature failures are 401 and malformed payloads
// 400 so the provider retries; anything reconcilable, including events
// for references we no longer know, is acknowledged with 200 so the
// provider stops redelivering.
type WebhookHandler struct {
	webhookService *services.WebhookService
}

func NewWebhookHandler(webhookService *services.WebhookService) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
	}
}

const maxWebhookBodyBytes = 1 << 20 // 1MB

// POST /webhooks/stripe
func (h *WebhookHandler) HandleStripe(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	err = h.webhookService.HandleStripeEvent(payload, c.GetHeader("Stripe-Signature"))
	h.respond(c, err, "stripe")
}

// POST /webhooks/coinbase
func (h *WebhookHandler) HandleCoinbase(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	err = h.webhookService.HandleCoinbaseEvent(payload, c.GetHeader("X-CC-Webhook-Signature"))
	h.respond(c, err, "coinbase")
}

func (h *WebhookHandler) respond(c *gin.Context, err error, provider string) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"received": true})
	case errors.Is(err, services.ErrInvalidSignature):
		logrus.WithField("provider", provider).Warn("Webhook signature verification failed")
		c.Status(http.StatusUnauthorized)
	case errors.Is(err, services.ErrUnknownReference):
		// Nothing to reconcile against; acknowledge so the provider
		// does not retry forever.
		logrus.WithError(err).WithField("provider", provider).
			Warn("Webhook for unknown provider reference")
		c.JSON(http.StatusOK, gin.H{"received": true})
	default:
		logrus.WithError(err).WithField("provider", provider).Error("Webhook processing failed")
		c.Status(http.StatusBadRequest)
	}
}
