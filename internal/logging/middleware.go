package logging

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// HeaderRequestID is echoed back on every response.
const HeaderRequestID = echo.HeaderXRequestID

// RequestLogger attaches a request-scoped logger to the request context
// and logs one line per request once the handler returns.
func RequestLogger(base *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			rid := req.Header.Get(HeaderRequestID)
			if rid == "" || len(rid) > 64 {
				rid = uuid.NewString()
			}
			c.Response().Header().Set(HeaderRequestID, rid)

			l := base.With(zap.String("request_id", rid))
			c.SetRequest(req.WithContext(WithLogger(req.Context(), l)))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("route", c.Path()),
				zap.Int("status", c.Response().Status),
				zap.Duration("latency", time.Since(start)),
				zap.String("remote_ip", c.RealIP()),
			}
			if auth := req.Header.Get(echo.HeaderAuthorization); auth != "" {
				fields = append(fields, zap.String("authorization", MaskAuthorization(auth)))
			}
			if uid, ok := c.Get("user_id").(string); ok && uid != "" {
				fields = append(fields, zap.String("user_id", uid))
			}
			switch status := c.Response().Status; {
			case status >= 500:
				l.Error("request", append(fields, zap.Error(err))...)
			case status >= 400:
				l.Warn("request", fields...)
			default:
				l.Info("request", fields...)
			}
			return nil
		}
	}
}
