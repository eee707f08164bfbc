package logging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMaskAuthorization(t *testing.T) {
	assert.Equal(t, "Bearer ****1234", MaskAuthorization("Bearer abcdef1234"))
	assert.Equal(t, "****", MaskAuthorization("abc"))
	assert.Equal(t, "", MaskAuthorization("  "))
}

func TestFromContext(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := zap.New(core)

	FromContext(WithLogger(context.Background(), l)).Info("hello")
	require.Equal(t, 1, logs.Len())

	assert.NotNil(t, FromContext(context.Background()))
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	e := echo.New()
	e.Use(RequestLogger(zap.New(core)))

	var fromHandler *zap.Logger
	e.GET("/v1/things/:id", func(c echo.Context) error {
		fromHandler = FromContext(c.Request().Context())
		c.Set("user_id", "usr_1")
		return c.NoContent(http.StatusNoContent)
	})
	e.GET("/boom", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "down")
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/things/7", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer secret-token-9876")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	rid := rec.Header().Get(HeaderRequestID)
	assert.NotEmpty(t, rid)
	require.NotNil(t, fromHandler)

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/v1/things/:id", fields["route"])
	assert.Equal(t, "Bearer ****9876", fields["authorization"])
	assert.Equal(t, "usr_1", fields["user_id"])
	assert.Equal(t, rid, fields["request_id"])

	req = httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set(HeaderRequestID, "given-id")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "given-id", rec.Header().Get(HeaderRequestID))

	entries = logs.FilterMessage("request").All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
}
