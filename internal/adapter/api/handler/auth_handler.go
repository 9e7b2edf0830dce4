package handler

import (
	"github.com/labstack/echo/v4"

	"dms/internal/adapter/api/middleware"
	"dms/internal/usecase"
	"dms/pkg/response"
)

type AuthHandler struct {
	authUseCase *usecase.AuthUseCase
}

func NewAuthHandler(authUseCase *usecase.AuthUseCase) *AuthHandler {
	return &AuthHandler{
		authUseCase: authUseCase,
	}
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req usecase.LoginInput
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	result, err := h.authUseCase.Login(c.Request().Context(), req)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, result)
}

func (h *AuthHandler) Me(c echo.Context) error {
	profile, err := h.authUseCase.Me(c.Request().Context(), middleware.Actor(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, profile)
}
