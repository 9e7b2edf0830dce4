package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"dms/internal/adapter/api/middleware"
	"dms/internal/usecase"
	"dms/pkg/response"
)

type DashboardHandler struct {
	dashboardUseCase *usecase.DashboardUseCase
}

func NewDashboardHandler(dashboardUseCase *usecase.DashboardUseCase) *DashboardHandler {
	return &DashboardHandler{
		dashboardUseCase: dashboardUseCase,
	}
}

func (h *DashboardHandler) Stats(c echo.Context) error {
	stats, err := h.dashboardUseCase.Stats(c.Request().Context(), middleware.Actor(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, stats)
}

func (h *DashboardHandler) RecentActivities(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	events, err := h.dashboardUseCase.RecentActivities(c.Request().Context(), middleware.Actor(c), limit)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, events)
}

func (h *DashboardHandler) Alerts(c echo.Context) error {
	alerts, err := h.dashboardUseCase.Alerts(c.Request().Context(), middleware.Actor(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, alerts)
}
