package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// RoleAdmin may change platform settings.
const RoleAdmin = "ADMIN"

// RequireRole rejects requests whose role claim is not one of roles with
// 403.  It must run after JWTAuth.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[strings.ToUpper(r)] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !allowed[Role(c)] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
