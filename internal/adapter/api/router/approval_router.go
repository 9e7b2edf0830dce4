package router

import (
	"dms/internal/adapter/api/handler"
	"dms/internal/adapter/api/middleware"
	"dms/internal/domain/policy"
	"dms/internal/infrastructure/ratelimit"

	"github.com/labstack/echo/v4"
)

func SetupApprovalRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, limiter *ratelimit.RateLimiter) {
	approvalHandler := handler.GetApprovalHandler()

	approvals := protectedGroup(e, "/v1/approvals", authMiddleware, limiter)
	approvals.GET("/pending", approvalHandler.ListPending, middleware.Require(policy.OpViewApprovals))
}
