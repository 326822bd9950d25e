// internal/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/bcdastro/backend/internal/i18n"
	"github.com/bcdastro/backend/internal/services"
	"github.com/bcdastro/backend/internal/utils"
)

// respondServiceError maps the service layer's sentinel errors onto
// HTTP responses. resource names the i18n namespace for not-found
// messages ("media", "purchase", "user").
func respondServiceError(c *gin.Context, err error, resource string) {
	lang := utils.GetLangFromContext(c)

	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.NotFoundResponse(c, resource)
	case errors.Is(err, services.ErrUnauthorized):
		utils.UnauthorizedResponse(c, "")
	case errors.Is(err, services.ErrForbidden):
		utils.ForbiddenResponse(c, "")
	case errors.Is(err, services.ErrPriceMismatch):
		utils.ErrorResponse(c, http.StatusBadRequest, "PRICE_MISMATCH",
			i18n.T(lang, i18n.KeyPurchasePriceMismatch), nil)
	case errors.Is(err, services.ErrMethodNotSupported):
		utils.ErrorResponse(c, http.StatusBadRequest, "METHOD_NOT_SUPPORTED",
			i18n.T(lang, i18n.KeyPurchaseBadMethod), nil)
	case errors.Is(err, services.ErrAlreadyOwned):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyPurchaseAlreadyOwned))
	case errors.Is(err, services.ErrGatewayUnavailable):
		utils.ErrorResponse(c, http.StatusInternalServerError, "GATEWAY_UNAVAILABLE",
			i18n.T(lang, i18n.KeyPurchaseGatewayError), nil)
	case errors.Is(err, services.ErrDownloadLimit):
		utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyPurchaseLimitReached))
	default:
		var inputErr *services.InputError
		if errors.As(err, &inputErr) {
			utils.BadRequestResponse(c, inputErr.Error(), nil)
			return
		}
		// Anything else is an internal failure. The wrapped cause stays
		// in the logs; the client gets an opaque 500.
		logrus.WithError(err).Error("Unhandled service error")
		utils.InternalErrorResponse(c, "")
	}
}
