package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"bizcard/internal/api/middleware"
	"bizcard/internal/auth"
	"bizcard/internal/config"
	"bizcard/internal/suggest"
)

// RegisterRoutes 注册 API 路由，不包含 /api 前缀。
func RegisterRoutes(
	router *gin.Engine,
	cfg *config.Config,
	db *gorm.DB,
	asynqClient *asynq.Client,
	authService *auth.Service,
	redisClient redis.UniversalClient,
	logger *slog.Logger,
	store ObjectStore,
	suggester suggest.ContentSuggester,
) {
	cardHandler := NewCardHandler(db, asynqClient, store, cfg.API.MaxCardsPerUser)
	authHandler := NewAuthHandler(db, authService, redisClient, logger,
		cfg.API.LoginRateLimitPerHour, cfg.API.LoginLockThreshold, cfg.API.LoginLockTTL(), cfg.API.CookieDomain)
	wsHandler := NewWsHandler(redisClient, authService, logger, cfg.API.AllowedOriginList())
	assetHandler := NewAssetHandler(store, logger, cfg.Scan.ClamdAddress, cfg.Scan.Enabled)
	suggestHandler := NewSuggestHandler(cardHandler, suggester, redisClient, logger)
	authMiddleware := middleware.AuthMiddleware(authService)

	v1 := router.Group("/v1")
	{
		v1.GET("/ws", wsHandler.HandleConnection)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authMiddleware, authHandler.Logout)
			authGroup.POST("/change-password", authMiddleware, authHandler.ChangePassword)
		}

		// Worker 回访的内部打印接口，使用共享密钥而非用户令牌。
		internalGroup := v1.Group("/cards/print")
		internalGroup.Use(middleware.InternalSecretMiddleware(cfg.API.InternalSecret))
		{
			internalGroup.GET("/:id", cardHandler.GetPrintCardData)
		}

		cardGroup := v1.Group("/cards")
		cardGroup.Use(authMiddleware)
		{
			cardGroup.POST("", cardHandler.CreateCard)
			cardGroup.GET("", cardHandler.ListCards)
			cardGroup.GET("/latest", cardHandler.GetLatestCard)
			cardGroup.GET("/design-options", cardHandler.GetDesignOptions)
			cardGroup.GET("/:id", cardHandler.GetCard)
			cardGroup.PUT("/:id", cardHandler.UpdateCard)
			cardGroup.DELETE("/:id", cardHandler.DeleteCard)

			cardGroup.GET("/:id/preview", cardHandler.PreviewCard)
			cardGroup.POST("/:id/export", cardHandler.ExportCard)
			cardGroup.GET("/:id/download-link", cardHandler.GetDownloadLink)

			cardGroup.POST("/:id/sections", cardHandler.AddSection)
			cardGroup.PUT("/:id/sections/reorder", cardHandler.ReorderSections)
			cardGroup.PUT("/:id/sections/:sectionId", cardHandler.UpdateSection)
			cardGroup.DELETE("/:id/sections/:sectionId", cardHandler.DeleteSection)
			cardGroup.PUT("/:id/sections/:sectionId/toggle", cardHandler.ToggleSection)

			cardGroup.POST("/:id/sections/:sectionId/items", cardHandler.AddServiceItem)
			cardGroup.PUT("/:id/sections/:sectionId/items/reorder", cardHandler.ReorderServiceItems)
			cardGroup.PUT("/:id/sections/:sectionId/items/:itemId", cardHandler.UpdateServiceItem)
			cardGroup.DELETE("/:id/sections/:sectionId/items/:itemId", cardHandler.DeleteServiceItem)

			cardGroup.PUT("/:id/personal-info", cardHandler.UpdatePersonalInfo)
			cardGroup.PUT("/:id/template", cardHandler.SetTemplate)
			cardGroup.PUT("/:id/theme", cardHandler.SetThemeColor)

			cardGroup.POST("/:id/social-links", cardHandler.AddSocialLink)
			cardGroup.PUT("/:id/social-links/reorder", cardHandler.ReorderSocialLinks)
			cardGroup.PUT("/:id/social-links/:linkId", cardHandler.UpdateSocialLink)
			cardGroup.DELETE("/:id/social-links/:linkId", cardHandler.DeleteSocialLink)

			cardGroup.POST("/:id/suggest/bio", suggestHandler.SuggestBio)
			cardGroup.POST("/:id/suggest/services", suggestHandler.SuggestServices)
		}

		assetGroup := v1.Group("/assets")
		assetGroup.Use(authMiddleware)
		{
			assetGroup.POST("/upload", assetHandler.UploadAsset)
			assetGroup.GET("/view", assetHandler.GetAssetURL)
			assetGroup.DELETE("/delete", assetHandler.DeleteAsset)
		}
	}
}
