package router

import (
	"dms/internal/adapter/api/handler"
	"dms/internal/adapter/api/middleware"
	"dms/internal/domain/policy"
	"dms/internal/infrastructure/ratelimit"

	"github.com/labstack/echo/v4"
)

func SetupReturnRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, limiter *ratelimit.RateLimiter) {
	returnHandler := handler.GetReturnHandler()

	returns := protectedGroup(e, "/v1/returns", authMiddleware, limiter)
	returns.GET("", returnHandler.ListReturnRequests, middleware.Require(policy.OpReadReturns))
	returns.POST("", returnHandler.InitiateReturn, middleware.Require(policy.OpInitiateReturn))
	returns.GET("/:id", returnHandler.GetReturnRequest, middleware.Require(policy.OpReadReturns))
	returns.POST("/:id/advance", returnHandler.AdvanceReturn, middleware.Require(policy.OpAdvanceReturn))
	returns.POST("/:id/cancel", returnHandler.CancelReturn, middleware.Require(policy.OpInitiateReturn))
}
