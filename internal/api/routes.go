package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/pushsync/internal/config"
	"github.com/example/pushsync/internal/core"
	"github.com/example/pushsync/internal/middleware"
)

// Services groups the core services the routes depend on.
type Services struct {
	Users         core.UserService
	Tokens        core.TokenService
	Notifications core.NotificationService
	Health        core.HealthService
}

// SetupRoutes registers the callables and the health check on router.
// Global middleware (logging, recovery, CORS) is expected to be applied already.
func SetupRoutes(
	router *gin.Engine,
	appConfig *config.Config,
	logger *zap.Logger,
	verifier middleware.TokenVerifier,
	services Services,
) {
	authMW := middleware.NewAuthMiddleware(verifier, logger)

	userHandler := NewUserHandler(services.Users, logger)
	tokenHandler := NewTokenHandler(services.Tokens, logger)
	notificationHandler := NewNotificationHandler(services.Notifications, logger)
	healthHandler := NewHealthHandler(services.Health)

	// Callables: POST /<name> with a {"data": ...} body.
	callables := router.Group("/", authMW.VerifyToken(), middleware.RequireAllowedUser(appConfig.AllowedEmails))
	{
		callables.POST("/getUserDetails", userHandler.GetUserDetails)
		callables.POST("/manageFcmToken", tokenHandler.ManageFcmToken)
		callables.POST("/sendTestNotification", notificationHandler.SendTestNotification)
		callables.POST("/updateUserSettings", userHandler.UpdateUserSettings)
	}

	router.GET("/healthCheck", healthHandler.HealthCheck)

	logger.Info("API routes configured",
		zap.Int("allowedEmails", len(appConfig.AllowedEmails)),
	)
}
