package router

import (
	"dms/internal/adapter/api/handler"
	"dms/internal/adapter/api/middleware"
	"dms/internal/domain/policy"
	"dms/internal/infrastructure/ratelimit"

	"github.com/labstack/echo/v4"
)

func SetupDefectRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, limiter *ratelimit.RateLimiter) {
	defectHandler := handler.GetDefectHandler()

	defects := protectedGroup(e, "/v1/defects", authMiddleware, limiter)
	defects.GET("", defectHandler.ListDefectReports, middleware.Require(policy.OpReadDefects))
	defects.POST("", defectHandler.FileDefectReport, middleware.Require(policy.OpFileDefect))
	defects.GET("/:id", defectHandler.GetDefectReport, middleware.Require(policy.OpReadDefects))
	defects.POST("/:id/review", defectHandler.ReviewDefectReport, middleware.Require(policy.OpReviewDefect))
}
