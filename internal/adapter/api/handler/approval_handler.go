package handler

import (
	"github.com/labstack/echo/v4"

	"dms/internal/adapter/api/middleware"
	"dms/internal/usecase"
	"dms/pkg/response"
)

type ApprovalHandler struct {
	workflow *usecase.WorkflowUseCase
}

func NewApprovalHandler(workflow *usecase.WorkflowUseCase) *ApprovalHandler {
	return &ApprovalHandler{
		workflow: workflow,
	}
}

// ListPending returns everything waiting on the caller's role.
func (h *ApprovalHandler) ListPending(c echo.Context) error {
	items, err := h.workflow.PendingApprovals(c.Request().Context(), middleware.Actor(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, items)
}
