package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupRoutes sets up the API routes
func SetupRoutes(handler *Handler, logger *zap.Logger) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(Recovery(logger))
	router.Use(CORS())
	router.Use(Logger(logger))

	// Health check
	router.GET("/health", handler.HealthCheck)

	// API v1
	v1 := router.Group("/api/v1")
	{
		repos := v1.Group("/repos")
		{
			repos.GET("", handler.GetRepos)
			repos.POST("/refresh", handler.RefreshRepos)
			repos.DELETE("/load", handler.CancelLoad)
			repos.DELETE("/cache", handler.ClearCache)
			repos.GET("/summary", handler.GetSummary)
		}

		v1.GET("/state", handler.GetState)
		v1.GET("/config", handler.GetConfig)
		v1.PATCH("/config", handler.UpdateConfig)
	}

	return router
}
