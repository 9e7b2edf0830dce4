package router

import (
	"dms/internal/adapter/api/middleware"
	"dms/internal/infrastructure/ratelimit"

	"github.com/labstack/echo/v4"
)

func Setup(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, limiter *ratelimit.RateLimiter) {
	SetupAuthRouter(e, authMiddleware, limiter)
	SetupDeviceRouter(e, authMiddleware, limiter)
	SetupDistributionRouter(e, authMiddleware, limiter)
	SetupDefectRouter(e, authMiddleware, limiter)
	SetupReturnRouter(e, authMiddleware, limiter)
	SetupApprovalRouter(e, authMiddleware, limiter)
	SetupNotificationRouter(e, authMiddleware, limiter)
	SetupReportRouter(e, authMiddleware, limiter)
	SetupDashboardRouter(e, authMiddleware, limiter)
	SetupHealthRouter(e)
}

// protectedGroup authenticates first so the limiter can key on the actor.
func protectedGroup(e *echo.Echo, prefix string, authMiddleware *middleware.AuthMiddleware, limiter *ratelimit.RateLimiter) *echo.Group {
	group := e.Group(prefix)
	group.Use(authMiddleware.Authenticate)
	group.Use(middleware.RateLimit(limiter))
	return group
}
