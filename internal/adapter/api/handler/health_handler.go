package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"dms/internal/domain/repository"
	"dms/pkg/errors"
)

type HealthHandler struct {
	store  repository.Store
	driver string
}

var healthHandler *HealthHandler

func NewHealthHandler(store repository.Store, driver string) *HealthHandler {
	return &HealthHandler{
		store:  store,
		driver: driver,
	}
}

func SetupHealthHandler(store repository.Store, driver string) {
	healthHandler = NewHealthHandler(store, driver)
}

func GetHealthHandler() *HealthHandler {
	return healthHandler
}

func (h *HealthHandler) CheckHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "Server is running",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// CheckStoreHealth performs a lookup that must come back empty; anything but
// NotFound means the store is unreachable.
func (h *HealthHandler) CheckStoreHealth(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	_, err := h.store.GetDevice(ctx, "health-check")
	if err != nil && !errors.Is(err, errors.CodeNotFound) {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "Store connection failed",
			"driver": h.driver,
			"error":  err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "Store connected successfully",
		"driver": h.driver,
	})
}
