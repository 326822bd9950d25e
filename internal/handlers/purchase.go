// internal/handlers/purchase.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bcdastro/backend/internal/i18n"
	"github.com/bcdastro/backend/internal/models"
	"github.com/bcdastro/backend/internal/services"
	"github.com/bcdastro/backend/internal/utils"
)

type PurchaseHandler struct {
	purchaseService *services.PurchaseService
}

func NewPurchaseHandler(purchaseService *services.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{
		purchaseService: purchaseService,
	}
}

type initiatePurchaseRequest struct {
	MediaID      string             `json:"media_id" validate:"required,uuid"`
	Method       string             `json:"method" validate:"required,oneof=card crypto"`
	LicenseType  models.LicenseType `json:"license_type" validate:"omitempty,oneof=standard package exclusive"`
	DisplayCents *int64             `json:"display_cents,omitempty" validate:"omitempty,min=0"`
}

// POST /purchases
func (h *PurchaseHandler) InitiatePurchase(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req initiatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	mediaID, err := uuid.Parse(req.MediaID)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid media ID", nil)
		return
	}

	result, err := h.purchaseService.InitiatePurchase(c.Request.Context(), services.InitiatePurchaseInput{
		BuyerID:      userID,
		MediaID:      mediaID,
		Method:       models.PaymentMethod(req.Method),
		LicenseType:  req.LicenseType,
		DisplayCents: req.DisplayCents,
	})
	if err != nil {
		if errors.Is(err, services.ErrForbidden) {
			utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyPurchaseOwnMedia))
			return
		}
		respondServiceError(c, err, "media")
		return
	}

	utils.CreatedResponse(c, result)
}

// GET /purchases/:id
func (h *PurchaseHandler) GetPurchase(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	purchaseID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	isAdmin := false
	if userType, exists := utils.GetUserTypeFromContext(c); exists {
		isAdmin = userType == string(models.UserTypeAdmin)
	}

	purchase, err := h.purchaseService.GetPurchase(purchaseID, userID, isAdmin)
	if err != nil {
		respondServiceError(c, err, "purchase")
		return
	}

	utils.SuccessResponse(c, purchase)
}

// GET /purchases
func (h *PurchaseHandler) ListPurchases(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	status := c.Query("status")

	result, err := h.purchaseService.ListPurchases(userID, status, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, *result)
}
