package router

import (
	"dms/internal/adapter/api/handler"
	"dms/internal/adapter/api/middleware"
	"dms/internal/infrastructure/ratelimit"

	"github.com/labstack/echo/v4"
)

// SetupAuthRouter initializes auth routes
func SetupAuthRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, limiter *ratelimit.RateLimiter) {
	authHandler := handler.GetAuthHandler()

	// Public routes
	e.POST("/v1/auth/login", authHandler.Login, middleware.RateLimit(limiter))

	// Protected routes
	protected := protectedGroup(e, "/v1/auth", authMiddleware, limiter)
	protected.GET("/me", authHandler.Me)
}
