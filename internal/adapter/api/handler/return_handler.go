package handler

import (
	"github.com/labstack/echo/v4"

	"dms/internal/adapter/api/middleware"
	"dms/internal/usecase"
	"dms/pkg/response"
)

type ReturnHandler struct {
	workflow *usecase.WorkflowUseCase
}

func NewReturnHandler(workflow *usecase.WorkflowUseCase) *ReturnHandler {
	return &ReturnHandler{
		workflow: workflow,
	}
}

func (h *ReturnHandler) InitiateReturn(c echo.Context) error {
	var req usecase.InitiateReturnInput
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	ret, err := h.workflow.InitiateReturn(c.Request().Context(), req, middleware.Actor(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, ret)
}

func (h *ReturnHandler) ListReturnRequests(c echo.Context) error {
	page, err := h.workflow.ListReturnRequests(c.Request().Context(), listQuery(c), middleware.Actor(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, page.Items, page.Total, page.Page, page.PageSize)
}

func (h *ReturnHandler) GetReturnRequest(c echo.Context) error {
	ret, err := h.workflow.GetReturnRequest(c.Request().Context(), c.Param("id"), middleware.Actor(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, ret)
}

func (h *ReturnHandler) AdvanceReturn(c echo.Context) error {
	var req decisionRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	ret, err := h.workflow.AdvanceReturn(c.Request().Context(), c.Param("id"), req.Decision, req.Comments, middleware.Actor(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, ret)
}

func (h *ReturnHandler) CancelReturn(c echo.Context) error {
	ret, err := h.workflow.CancelReturn(c.Request().Context(), c.Param("id"), middleware.Actor(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, ret)
}
