// Package router registers HTTP routes and the middleware each group needs.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/class-meetup-checkin/internal/handler"
	"github.com/iliyamo/class-meetup-checkin/internal/monitoring"
)

// RegisterRoutes registers unauthenticated operational endpoints.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
	e.GET("/metrics", echo.WrapHandler(monitoring.Handler()))
}
