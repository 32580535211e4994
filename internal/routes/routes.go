package routes

import (
	"ngo_backend/internal/handlers"
	"ngo_backend/internal/logger"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все HTTP маршруты.
func RegisterRoutes(ginRouter *gin.Engine, appHandlers *handlers.AppHandlers) {
	// Регистрация HTTP API v1
	api := ginRouter.Group("/api/v1")
	{
		appHandlers.HealthHandler.RegisterRoutes(api)
		appHandlers.DonationHandler.RegisterRoutes(api)
	}
	logger.Info("HTTP routes registered", "count", len(ginRouter.Routes()))
}
