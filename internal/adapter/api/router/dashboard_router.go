package router

import (
	"dms/internal/adapter/api/handler"
	"dms/internal/adapter/api/middleware"
	"dms/internal/domain/policy"
	"dms/internal/infrastructure/ratelimit"

	"github.com/labstack/echo/v4"
)

func SetupDashboardRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, limiter *ratelimit.RateLimiter) {
	dashboardHandler := handler.GetDashboardHandler()

	dashboard := protectedGroup(e, "/v1/dashboard", authMiddleware, limiter)
	dashboard.Use(middleware.Require(policy.OpViewDashboard))
	dashboard.GET("/stats", dashboardHandler.Stats)
	dashboard.GET("/recent-activities", dashboardHandler.RecentActivities)
	dashboard.GET("/alerts", dashboardHandler.Alerts)
}
