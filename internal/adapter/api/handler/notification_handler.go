package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"dms/internal/adapter/api/middleware"
	"dms/internal/usecase"
	"dms/pkg/response"
)

type NotificationHandler struct {
	notificationUseCase *usecase.NotificationUseCase
}

func NewNotificationHandler(notificationUseCase *usecase.NotificationUseCase) *NotificationHandler {
	return &NotificationHandler{
		notificationUseCase: notificationUseCase,
	}
}

func (h *NotificationHandler) ListNotifications(c echo.Context) error {
	unreadOnly, _ := strconv.ParseBool(c.QueryParam("unread"))

	items, err := h.notificationUseCase.List(c.Request().Context(), middleware.Actor(c), unreadOnly)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, items)
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	n, err := h.notificationUseCase.MarkRead(c.Request().Context(), middleware.Actor(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, n)
}

func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	count, err := h.notificationUseCase.UnreadCount(c.Request().Context(), middleware.Actor(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, count)
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	result, err := h.notificationUseCase.MarkAllRead(c.Request().Context(), middleware.Actor(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, result)
}
