// internal/handlers/admin.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/bcdastro/backend/internal/i18n"
	"github.com/bcdastro/backend/internal/services"
	"github.com/bcdastro/backend/internal/utils"
)

type AdminHandler struct {
	adminService    *services.AdminService
	purchaseService *services.PurchaseService
}

func NewAdminHandler(adminService *services.AdminService, purchaseService *services.PurchaseService) *AdminHandler {
	return &AdminHandler{
		adminService:    adminService,
		purchaseService: purchaseService,
	}
}

// GET /admin/media/pending
func (h *AdminHandler) ListPendingMedia(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	result, err := h.adminService.ListPendingMedia(params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, *result)
}

// PUT /admin/media/:id/approve
func (h *AdminHandler) ApproveMedia(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	mediaID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	media, err := h.adminService.ApproveMedia(mediaID)
	if err != nil {
		respondServiceError(c, err, "media")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyMediaApproved),
		"media":   media,
	})
}

// PUT /admin/media/:id/reject
func (h *AdminHandler) RejectMedia(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	mediaID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	media, err := h.adminService.RejectMedia(mediaID, req.Reason)
	if err != nil {
		respondServiceError(c, err, "media")
		return
	}

	utils.SuccessResponse(c, media)
}

// PUT /admin/users/:id/commission
func (h *AdminHandler) SetCommissionRates(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req services.SetCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	user, err := h.adminService.SetCommissionRates(userID, &req)
	if err != nil {
		respondServiceError(c, err, "user")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyAdminCommissionSaved),
		"user":    user,
	})
}

// GET /admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	result, err := h.adminService.ListUsers(c.Query("user_type"), params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, *result)
}

// GET /admin/purchases
func (h *AdminHandler) ListPurchases(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	result, err := h.purchaseService.ListAllPurchases(c.Query("status"), c.Query("method"), params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, *result)
}
