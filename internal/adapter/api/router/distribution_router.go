package router

import (
	"dms/internal/adapter/api/handler"
	"dms/internal/adapter/api/middleware"
	"dms/internal/domain/policy"
	"dms/internal/infrastructure/ratelimit"

	"github.com/labstack/echo/v4"
)

func SetupDistributionRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, limiter *ratelimit.RateLimiter) {
	distributionHandler := handler.GetDistributionHandler()

	distributions := protectedGroup(e, "/v1/distributions", authMiddleware, limiter)
	distributions.GET("", distributionHandler.ListDistributions, middleware.Require(policy.OpReadDistributions))
	distributions.POST("", distributionHandler.CreateDistribution, middleware.Require(policy.OpCreateDistribution))
	distributions.GET("/:id", distributionHandler.GetDistribution, middleware.Require(policy.OpReadDistributions))

	decide := middleware.Require(policy.OpDecideDistribution)
	distributions.POST("/:id/approve", distributionHandler.ApproveDistribution, decide)
	distributions.POST("/:id/reject", distributionHandler.RejectDistribution, decide)

	// Sender-side actions share the create capability.
	distributions.POST("/:id/dispatch", distributionHandler.DispatchDistribution, middleware.Require(policy.OpCreateDistribution))
	distributions.POST("/:id/cancel", distributionHandler.CancelDistribution, middleware.Require(policy.OpCancelDistribution))
}
