// internal/handlers/media.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bcdastro/backend/internal/i18n"
	"github.com/bcdastro/backend/internal/models"
	"github.com/bcdastro/backend/internal/services"
	"github.com/bcdastro/backend/internal/utils"
)

type MediaHandler struct {
	mediaService       *services.MediaService
	pricingService     *services.PricingService
	entitlementService *services.EntitlementService
}

func NewMediaHandler(mediaService *services.MediaService, pricingService *services.PricingService, entitlementService *services.EntitlementService) *MediaHandler {
	return &MediaHandler{
		mediaService:       mediaService,
		pricingService:     pricingService,
		entitlementService: entitlementService,
	}
}

// GET /media
func (h *MediaHandler) ListMedia(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	result, err := h.mediaService.ListPublished(params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, *result)
}

// GET /media/mine
func (h *MediaHandler) ListMyMedia(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	result, err := h.mediaService.ListByCreator(userID, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, *result)
}

// GET /media/:id
func (h *MediaHandler) GetMedia(c *gin.Context) {
	mediaID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	// Optional auth: anonymous callers see published media only.
	var callerID uuid.UUID
	isAdmin := false
	if userIDStr, exists := utils.GetUserIDFromContext(c); exists {
		callerID, _ = uuid.Parse(userIDStr)
		if userType, ok := utils.GetUserTypeFromContext(c); ok {
			isAdmin = userType == string(models.UserTypeAdmin)
		}
	}

	media, err := h.mediaService.GetMedia(mediaID, callerID, isAdmin)
	if err != nil {
		respondServiceError(c, err, "media")
		return
	}

	utils.SuccessResponse(c, media)
}

// GET /media/:id/price
//
// The price endpoint is what checkout pages poll, so the response is
// cacheable for a short window. The checkout itself always revalidates
// against the store.
func (h *MediaHandler) GetPrice(c *gin.Context) {
	mediaID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	cents, err := h.pricingService.ResolvePrice(mediaID)
	if err != nil {
		respondServiceError(c, err, "media")
		return
	}

	c.Header("Cache-Control", "public, max-age=60")
	utils.SuccessResponse(c, gin.H{
		"media_id":    mediaID,
		"price_cents": cents,
		"currency":    "usd",
	})
}

// POST /media
func (h *MediaHandler) CreateMedia(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.CreateMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	media, err := h.mediaService.CreateMedia(userID, &req)
	if err != nil {
		respondServiceError(c, err, "media")
		return
	}

	utils.CreatedResponse(c, media)
}

// PUT /media/:id
func (h *MediaHandler) UpdateMedia(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	mediaID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	media, err := h.mediaService.UpdateMedia(mediaID, userID, &req)
	if err != nil {
		respondServiceError(c, err, "media")
		return
	}

	utils.SuccessResponse(c, media)
}

// POST /media/:id/upload
func (h *MediaHandler) UploadMaster(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	mediaID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileUploadFailed), err.Error())
		return
	}
	defer file.Close()

	media, err := h.mediaService.UploadMaster(mediaID, userID, file, header)
	if err != nil {
		respondServiceError(c, err, "media")
		return
	}

	utils.SuccessResponse(c, media)
}

// POST /media/:id/preview
func (h *MediaHandler) UploadPreview(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	mediaID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileUploadFailed), err.Error())
		return
	}
	defer file.Close()

	media, err := h.mediaService.UploadPreview(mediaID, userID, file, header)
	if err != nil {
		respondServiceError(c, err, "media")
		return
	}

	utils.SuccessResponse(c, media)
}

// POST /media/:id/submit
func (h *MediaHandler) SubmitForReview(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	mediaID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	media, err := h.mediaService.SubmitForReview(mediaID, userID)
	if err != nil {
		respondServiceError(c, err, "media")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyMediaSubmitted),
		"media":   media,
	})
}

// GET /media/:id/download
//
// The entitlement gate. A completed purchase (or ownership) yields a
// 302 to a time-limited signed URL; everything else is a 403.
func (h *MediaHandler) Download(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	mediaID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	grant, err := h.entitlementService.GetDownloadURL(userID, mediaID)
	if err != nil {
		if errors.Is(err, services.ErrForbidden) {
			lang := utils.GetLangFromContext(c)
			utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyPurchaseNotEntitled))
			return
		}
		respondServiceError(c, err, "media")
		return
	}

	if c.Query("redirect") == "false" {
		utils.SuccessResponse(c, grant)
		return
	}
	c.Redirect(http.StatusFound, grant.URL)
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.BadRequestResponse(c, fmt.Sprintf("Invalid %s", name), nil)
		return uuid.Nil, false
	}
	return id, true
}
