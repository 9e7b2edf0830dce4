package handler

import (
	"github.com/labstack/echo/v4"

	"dms/internal/adapter/api/middleware"
	"dms/internal/usecase"
	"dms/pkg/response"
)

type DefectHandler struct {
	workflow *usecase.WorkflowUseCase
}

func NewDefectHandler(workflow *usecase.WorkflowUseCase) *DefectHandler {
	return &DefectHandler{
		workflow: workflow,
	}
}

func (h *DefectHandler) FileDefectReport(c echo.Context) error {
	var req usecase.FileDefectInput
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	report, err := h.workflow.FileDefectReport(c.Request().Context(), req, middleware.Actor(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, report)
}

func (h *DefectHandler) ListDefectReports(c echo.Context) error {
	page, err := h.workflow.ListDefectReports(c.Request().Context(), listQuery(c), middleware.Actor(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, page.Items, page.Total, page.Page, page.PageSize)
}

func (h *DefectHandler) GetDefectReport(c echo.Context) error {
	report, err := h.workflow.GetDefectReport(c.Request().Context(), c.Param("id"), middleware.Actor(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, report)
}

func (h *DefectHandler) ReviewDefectReport(c echo.Context) error {
	var req decisionRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	report, err := h.workflow.ReviewDefectReport(c.Request().Context(), c.Param("id"), req.Decision, req.Comments, middleware.Actor(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, report)
}
