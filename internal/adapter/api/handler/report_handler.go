package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"dms/internal/adapter/api/middleware"
	"dms/internal/usecase"
	"dms/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportHandler struct {
	reportUseCase *usecase.ReportUseCase
}

func NewReportHandler(reportUseCase *usecase.ReportUseCase) *ReportHandler {
	return &ReportHandler{
		reportUseCase: reportUseCase,
	}
}

func (h *ReportHandler) Inventory(c echo.Context) error {
	report, err := h.reportUseCase.Inventory(c.Request().Context(), middleware.Actor(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, report)
}

func (h *ReportHandler) ExportInventory(c echo.Context) error {
	data, err := h.reportUseCase.ExportInventory(c.Request().Context(), middleware.Actor(c))
	if err != nil {
		return response.Error(c, err)
	}

	filename := fmt.Sprintf("inventory-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, xlsxContentType, data)
}

func (h *ReportHandler) DistributionSummary(c echo.Context) error {
	summary, err := h.reportUseCase.DistributionSummary(c.Request().Context(), middleware.Actor(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, summary)
}

func (h *ReportHandler) DefectSummary(c echo.Context) error {
	summary, err := h.reportUseCase.DefectSummary(c.Request().Context(), middleware.Actor(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, summary)
}

func (h *ReportHandler) ReturnSummary(c echo.Context) error {
	summary, err := h.reportUseCase.ReturnSummary(c.Request().Context(), middleware.Actor(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, summary)
}
