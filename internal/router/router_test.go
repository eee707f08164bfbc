package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/class-meetup-checkin/internal/config"
	"github.com/iliyamo/class-meetup-checkin/internal/handler"
	"github.com/iliyamo/class-meetup-checkin/internal/model"
	"github.com/iliyamo/class-meetup-checkin/internal/payment"
	"github.com/iliyamo/class-meetup-checkin/internal/ticket"
)

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }

type noVerifier struct{}

func (noVerifier) CheckIn(context.Context, string, string) (ticket.Result, error) {
	return ticket.Result{}, ticket.ErrTicketNotFound
}

func (noVerifier) Validate(context.Context, string, string) (ticket.Result, error) {
	return ticket.Result{}, ticket.ErrTicketNotFound
}

type noCanceller struct{}

func (noCanceller) Cancel(context.Context, string, string) (model.Ticket, error) {
	return model.Ticket{}, nil
}

type noSettings struct{}

func (noSettings) Current(context.Context) (model.PlatformSetting, error) {
	return model.PlatformSetting{}, nil
}

func (noSettings) Update(context.Context, decimal.Decimal, string) error { return nil }

func newServer() *echo.Echo {
	e := echo.New()
	RegisterRoutes(e, okPinger{})
	RegisterTickets(e, handler.NewTicketHandler(noVerifier{}, noCanceller{}), "secret", config.RateLimitConfig{}, nil)
	RegisterPayments(e, handler.NewPaymentHandler(payment.NewCalculator(nil, nil)), config.CacheConfig{}, nil)
	RegisterAdmin(e, handler.NewAdminHandler(noSettings{}), "secret")
	return e
}

func TestRoutesRegistered(t *testing.T) {
	got := map[string]bool{}
	for _, r := range newServer().Routes() {
		got[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /healthz",
		"GET /readyz",
		"GET /metrics",
		"GET /v1/payments/breakdown",
		"POST /v1/tickets/checkin",
		"POST /v1/tickets/validate",
		"POST /v1/tickets/:id/cancel",
		"GET /v1/admin/settings/commission",
		"PUT /v1/admin/settings/commission",
	} {
		assert.True(t, got[want], want)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	e := newServer()
	for _, r := range []struct{ method, path string }{
		{http.MethodPost, "/v1/tickets/checkin"},
		{http.MethodPost, "/v1/tickets/validate"},
		{http.MethodPost, "/v1/tickets/t1/cancel"},
		{http.MethodPut, "/v1/admin/settings/commission"},
	} {
		req := httptest.NewRequest(r.method, r.path, strings.NewReader(`{}`))
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, r.path)
	}
}

func TestPublicBreakdown(t *testing.T) {
	rec := httptest.NewRecorder()
	newServer().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/payments/breakdown?amount=100", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"payoutAmount":93.00`)
}
