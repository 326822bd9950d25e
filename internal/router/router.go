// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bcdastro/backend/internal/config"
	"github.com/bcdastro/backend/internal/handlers"
	"github.com/bcdastro/backend/internal/middleware"
	"github.com/bcdastro/backend/internal/models"
	"github.com/bcdastro/backend/internal/services"
	"github.com/bcdastro/backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	storageService, _ := services.NewStorageService(cfg)
	pricingService := services.NewPricingService(db)

	gateways := map[models.PaymentMethod]services.PaymentGateway{
		models.PaymentMethodCard:   services.NewStripeGateway(cfg),
		models.PaymentMethodCrypto: services.NewCoinbaseGateway(cfg, nil),
	}

	authService := services.NewAuthService(db, cfg)
	mediaService := services.NewMediaService(db, storageService, pricingService)
	purchaseService := services.NewPurchaseService(db, cfg, pricingService, gateways)
	webhookService := services.NewWebhookService(db, cfg)
	entitlementService := services.NewEntitlementService(db, storageService)
	adminService := services.NewAdminService(db, pricingService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	mediaHandler := handlers.NewMediaHandler(mediaService, pricingService, entitlementService)
	purchaseHandler := handlers.NewPurchaseHandler(purchaseService)
	webhookHandler := handlers.NewWebhookHandler(webhookService)
	adminHandler := handlers.NewAdminHandler(adminService, purchaseService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
		}

		// User routes
		users := v1.Group("/users")
		users.Use(middleware.AuthRequired())
		{
			users.PUT("/wallet", authHandler.LinkWallet)
		}

		// Media catalog routes
		media := v1.Group("/media")
		{
			media.GET("", middleware.OptionalAuth(), mediaHandler.ListMedia)
			media.GET("/:id", middleware.OptionalAuth(), mediaHandler.GetMedia)
			media.GET("/:id/price", mediaHandler.GetPrice)

			// Authenticated routes
			protected := media.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.GET("/mine", mediaHandler.ListMyMedia)
				protected.POST("", mediaHandler.CreateMedia)
				protected.PUT("/:id", mediaHandler.UpdateMedia)
				protected.POST("/:id/upload", middleware.UploadRateLimit(), mediaHandler.UploadMaster)
				protected.POST("/:id/preview", middleware.UploadRateLimit(), mediaHandler.UploadPreview)
				protected.POST("/:id/submit", mediaHandler.SubmitForReview)
				protected.GET("/:id/download", mediaHandler.Download)
			}
		}

		// Purchase routes
		purchases := v1.Group("/purchases")
		purchases.Use(middleware.AuthRequired())
		{
			purchases.POST("", middleware.PurchaseRateLimit(), purchaseHandler.InitiatePurchase)
			purchases.GET("", purchaseHandler.ListPurchases)
			purchases.GET("/:id", purchaseHandler.GetPurchase)
		}

		// Provider webhooks, signature-authenticated, no JWT
		webhooks := v1.Group("/webhooks")
		{
			webhooks.POST("/stripe", webhookHandler.HandleStripe)
			webhooks.POST("/coinbase", webhookHandler.HandleCoinbase)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			adminMedia := admin.Group("/media")
			{
				adminMedia.GET("/pending", adminHandler.ListPendingMedia)
				adminMedia.PUT("/:id/approve", adminHandler.ApproveMedia)
				adminMedia.PUT("/:id/reject", adminHandler.RejectMedia)
			}

			adminUsers := admin.Group("/users")
			{
				adminUsers.GET("", adminHandler.ListUsers)
				adminUsers.PUT("/:id/commission", adminHandler.SetCommissionRates)
			}

			adminPurchases := admin.Group("/purchases")
			{
				adminPurchases.GET("", adminHandler.ListPurchases)
			}
		}
	}

	// Static file serving (for development)
	if cfg.Environment == "development" {
		r.Static("/uploads", "./uploads")
	}

	return r
}
