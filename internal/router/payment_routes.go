package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/class-meetup-checkin/internal/config"
	"github.com/iliyamo/class-meetup-checkin/internal/handler"
	"github.com/iliyamo/class-meetup-checkin/internal/middleware"
)

// RegisterPayments registers the public breakdown endpoint behind the
// Redis response cache.
func RegisterPayments(e *echo.Echo, h *handler.PaymentHandler, cc config.CacheConfig, rdb *redis.Client) {
	e.GET("/v1/payments/breakdown", h.GetBreakdown, middleware.NewRedisCache(cc, rdb))
}

// RegisterAdmin registers platform settings routes for ADMIN users.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
	g := e.Group("/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleAdmin),
	)
	g.GET("/settings/commission", h.GetCommission)
	g.PUT("/settings/commission", h.PutCommission)
}
