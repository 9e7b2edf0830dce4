package router

import (
	"dms/internal/adapter/api/handler"
	"dms/internal/adapter/api/middleware"
	"dms/internal/domain/policy"
	"dms/internal/infrastructure/ratelimit"

	"github.com/labstack/echo/v4"
)

func SetupDeviceRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, limiter *ratelimit.RateLimiter) {
	deviceHandler := handler.GetDeviceHandler()

	devices := protectedGroup(e, "/v1/devices", authMiddleware, limiter)
	devices.GET("", deviceHandler.ListDevices, middleware.Require(policy.OpReadDevices))
	devices.POST("", deviceHandler.RegisterDevice, middleware.Require(policy.OpRegisterDevice))
	devices.GET("/track", deviceHandler.TrackDevice, middleware.Require(policy.OpReadDevices))
	devices.GET("/:id", deviceHandler.GetDevice, middleware.Require(policy.OpReadDevices))
}
