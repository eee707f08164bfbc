package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/class-meetup-checkin/internal/config"
	"github.com/iliyamo/class-meetup-checkin/internal/handler"
	"github.com/iliyamo/class-meetup-checkin/internal/middleware"
)

// RegisterTickets registers the scanner endpoints and cancellation under
// /v1/tickets.  Every route needs a valid JWT; the scan routes are also
// rate limited per scanner.  Which scanners may check a ticket in is
// decided per ticket by the verifier, not by role.
func RegisterTickets(e *echo.Echo, h *handler.TicketHandler, jwtSecret string, rl config.RateLimitConfig, rdb *redis.Client) {
	g := e.Group("/v1/tickets", middleware.JWTAuth(jwtSecret))

	limit := middleware.NewTokenBucket(rl, rdb)
	g.POST("/checkin", h.CheckIn, limit)
	g.POST("/validate", h.Validate, limit)

	g.POST("/:id/cancel", h.Cancel)
}
