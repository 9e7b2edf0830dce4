package router

import (
	"dms/internal/adapter/api/handler"
	"dms/internal/adapter/api/middleware"
	"dms/internal/domain/policy"
	"dms/internal/infrastructure/ratelimit"

	"github.com/labstack/echo/v4"
)

func SetupReportRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, limiter *ratelimit.RateLimiter) {
	reportHandler := handler.GetReportHandler()

	reports := protectedGroup(e, "/v1/reports", authMiddleware, limiter)
	reports.GET("/inventory", reportHandler.Inventory, middleware.Require(policy.OpReadReports))
	reports.GET("/inventory.xlsx", reportHandler.ExportInventory, middleware.Require(policy.OpExportReports))
	reports.GET("/distribution-summary", reportHandler.DistributionSummary, middleware.Require(policy.OpReadReports))
	reports.GET("/defect-summary", reportHandler.DefectSummary, middleware.Require(policy.OpReadReports))
	reports.GET("/return-summary", reportHandler.ReturnSummary, middleware.Require(policy.OpReadReports))
}
