package handler

import (
	"github.com/labstack/echo/v4"

	"dms/internal/adapter/api/middleware"
	"dms/internal/usecase"
	"dms/pkg/response"
)

type DistributionHandler struct {
	workflow *usecase.WorkflowUseCase
}

func NewDistributionHandler(workflow *usecase.WorkflowUseCase) *DistributionHandler {
	return &DistributionHandler{
		workflow: workflow,
	}
}

type approveDistributionRequest struct {
	Notes string `json:"notes" validate:"max=1000"`
}

type rejectDistributionRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

func (h *DistributionHandler) CreateDistribution(c echo.Context) error {
	var req usecase.CreateDistributionInput
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	dist, err := h.workflow.CreateDistribution(c.Request().Context(), req, middleware.Actor(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, dist)
}

func (h *DistributionHandler) ListDistributions(c echo.Context) error {
	page, err := h.workflow.ListDistributions(c.Request().Context(), listQuery(c), middleware.Actor(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, page.Items, page.Total, page.Page, page.PageSize)
}

func (h *DistributionHandler) GetDistribution(c echo.Context) error {
	dist, err := h.workflow.GetDistribution(c.Request().Context(), c.Param("id"), middleware.Actor(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, dist)
}

func (h *DistributionHandler) ApproveDistribution(c echo.Context) error {
	var req approveDistributionRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	dist, err := h.workflow.ApproveDistribution(c.Request().Context(), c.Param("id"), req.Notes, middleware.Actor(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, dist)
}

func (h *DistributionHandler) RejectDistribution(c echo.Context) error {
	var req rejectDistributionRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	dist, err := h.workflow.RejectDistribution(c.Request().Context(), c.Param("id"), req.Reason, middleware.Actor(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, dist)
}

func (h *DistributionHandler) DispatchDistribution(c echo.Context) error {
	dist, err := h.workflow.DispatchDistribution(c.Request().Context(), c.Param("id"), middleware.Actor(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, dist)
}

func (h *DistributionHandler) CancelDistribution(c echo.Context) error {
	dist, err := h.workflow.CancelDistribution(c.Request().Context(), c.Param("id"), middleware.Actor(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, dist)
}
