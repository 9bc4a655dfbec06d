package http

import (
	"github.com/gin-gonic/gin"

	"github.com/cartcompare/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		products := v1.Group("/products")
		{
			products.GET("", handler.GetProducts)
			products.GET("/cheapest", handler.GetCheapest)
			products.GET("/:id", handler.GetProductByID)
		}

		admin := v1.Group("/admin")
		admin.Use(AdminAuthMiddleware(cfg.Admin.Token))
		{
			admin.GET("/unmapped", handler.AdminUnmapped)
			admin.GET("/unmapped/count", handler.AdminUnmappedCount)
			admin.POST("/map", handler.AdminMap)
			admin.GET("/audit", handler.AdminAudit)
		}
	}

	return router
}
