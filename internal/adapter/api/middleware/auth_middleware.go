package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"dms/internal/domain/entity"
	"dms/internal/domain/policy"
	"dms/internal/usecase"
	"dms/pkg/errors"
	"dms/pkg/logger"
	"dms/pkg/response"
)

const actorKey = "actor"

type AuthMiddleware struct {
	verifier usecase.TokenVerifier
}

func NewAuthMiddleware(verifier usecase.TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
	}
}

func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return response.Error(c, errors.Unauthorized("Authorization header is required", nil))
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			return response.Error(c, errors.Unauthorized("Invalid authorization format", nil))
		}

		actor, err := m.verifier.Verify(c.Request().Context(), parts[1])
		if err != nil {
			logger.Debug("Token rejected: %v", err)
			if _, ok := errors.As(err); ok {
				return response.Error(c, err)
			}
			return response.Error(c, errors.Unauthorized("Invalid or expired token", err))
		}

		c.Set(actorKey, actor)
		return next(c)
	}
}

// Require rejects callers whose role may not perform operation. Use cases
// check again with the full entity in hand; this only fails fast.
func Require(operation policy.Operation) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor := Actor(c)
			if actor == nil {
				return response.Error(c, errors.Unauthorized("Authentication required", nil))
			}
			if !policy.Allowed(actor.Role, operation) {
				return response.Error(c, errors.Authorization("Role "+string(actor.Role)+" is not allowed to perform "+string(operation)))
			}
			return next(c)
		}
	}
}

// Actor returns the authenticated actor, or nil on public routes.
func Actor(c echo.Context) *entity.Actor {
	actor, _ := c.Get(actorKey).(*entity.Actor)
	return actor
}

// SetActor stores the authenticated actor for downstream handlers.
func SetActor(c echo.Context, actor *entity.Actor) {
	c.Set(actorKey, actor)
}
