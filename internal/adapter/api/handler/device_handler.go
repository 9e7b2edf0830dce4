package handler

import (
	"github.com/labstack/echo/v4"

	"dms/internal/adapter/api/middleware"
	"dms/internal/usecase"
	"dms/pkg/response"
)

type DeviceHandler struct {
	workflow *usecase.WorkflowUseCase
}

func NewDeviceHandler(workflow *usecase.WorkflowUseCase) *DeviceHandler {
	return &DeviceHandler{
		workflow: workflow,
	}
}

func (h *DeviceHandler) RegisterDevice(c echo.Context) error {
	var req usecase.RegisterDeviceInput
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	device, err := h.workflow.RegisterDevice(c.Request().Context(), req, middleware.Actor(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, device)
}

func (h *DeviceHandler) ListDevices(c echo.Context) error {
	page, err := h.workflow.ListDevices(c.Request().Context(), listQuery(c), middleware.Actor(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, page.Items, page.Total, page.Page, page.PageSize)
}

func (h *DeviceHandler) GetDevice(c echo.Context) error {
	device, err := h.workflow.GetDevice(c.Request().Context(), c.Param("id"), middleware.Actor(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, device)
}

// TrackDevice looks a device up by MAC, serial or id (?q=) and returns its history.
func (h *DeviceHandler) TrackDevice(c echo.Context) error {
	trace, err := h.workflow.TrackDevice(c.Request().Context(), c.QueryParam("q"), middleware.Actor(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, trace)
}
