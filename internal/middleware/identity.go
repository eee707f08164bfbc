package middleware

import "github.com/labstack/echo/v4"

// Context keys set by JWTAuth.
const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// UserID returns the authenticated user id, or "" on public routes.
func UserID(c echo.Context) string {
	s, _ := c.Get(ctxUserID).(string)
	return s
}

// Role returns the authenticated user's role, upper-cased.
func Role(c echo.Context) string {
	s, _ := c.Get(ctxRole).(string)
	return s
}
