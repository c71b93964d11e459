package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes sets up the API routes
func SetupRoutes(handler *Handler) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(RequestID())
	router.Use(Recovery(handler.logger))
	router.Use(CORS())
	router.Use(Logger(handler.logger))

	// Health check and metrics
	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/dashboard", handler.GetDashboard)

		users := v1.Group("/users/:username")
		{
			users.GET("", handler.GetUser)
			users.GET("/profile", handler.GetProfile)
			users.GET("/repos", handler.GetRepositories)
			users.GET("/languages", handler.GetLanguages)
			users.GET("/events", handler.GetEvents)
			users.GET("/contributions", handler.GetContributions)
		}
	}

	return router
}
