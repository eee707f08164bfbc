package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/class-meetup-checkin/internal/logging"
	"github.com/iliyamo/class-meetup-checkin/internal/middleware"
	"github.com/iliyamo/class-meetup-checkin/internal/model"
	"github.com/iliyamo/class-meetup-checkin/internal/payment"
	"github.com/iliyamo/class-meetup-checkin/internal/repository"
	"github.com/iliyamo/class-meetup-checkin/internal/service"
)

// CommissionAdmin is implemented by *service.CommissionSettings.
type CommissionAdmin interface {
	Current(ctx context.Context) (model.PlatformSetting, error)
	Update(ctx context.Context, percent decimal.Decimal, adminID string) error
}

// AdminHandler exposes platform settings to administrators.
type AdminHandler struct {
	Settings CommissionAdmin
}

func NewAdminHandler(s CommissionAdmin) *AdminHandler {
	if s == nil {
		panic("nil settings passed to NewAdminHandler")
	}
	return &AdminHandler{Settings: s}
}

type commissionView struct {
	CommissionPercent json.Number `json:"commissionPercent"`
	Source            string      `json:"source"` // "settings" or "default"
	UpdatedBy         *string     `json:"updatedBy,omitempty"`
	UpdatedAt         *time.Time  `json:"updatedAt,omitempty"`
}

// GetCommission handles GET /v1/admin/settings/commission.
func (h *AdminHandler) GetCommission(c echo.Context) error {
	s, err := h.Settings.Current(c.Request().Context())
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusOK, commissionView{
			CommissionPercent: json.Number(payment.DefaultCommissionPercent.String()),
			Source:            "default",
		})
	}
	if err != nil {
		logging.FromContext(c.Request().Context()).Error("read commission setting", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	p, err := decimal.NewFromString(s.Value)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "stored commission is not a number"})
	}
	at := s.UpdatedAt
	return c.JSON(http.StatusOK, commissionView{
		CommissionPercent: json.Number(p.String()),
		Source:            "settings",
		UpdatedBy:         s.UpdatedBy,
		UpdatedAt:         &at,
	})
}

// PutCommission handles PUT /v1/admin/settings/commission with body
// {"commissionPercent": 5.5}.
func (h *AdminHandler) PutCommission(c echo.Context) error {
	var body struct {
		CommissionPercent json.Number `json:"commissionPercent"`
	}
	if err := c.Bind(&body); err != nil || body.CommissionPercent == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "commissionPercent is required"})
	}
	p, err := decimal.NewFromString(body.CommissionPercent.String())
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "commissionPercent must be a number"})
	}

	err = h.Settings.Update(c.Request().Context(), p, middleware.UserID(c))
	switch {
	case errors.Is(err, service.ErrInvalidPercent):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "commissionPercent must be between 0 and 100"})
	case err != nil:
		logging.FromContext(c.Request().Context()).Error("update commission setting", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "commissionPercent": json.Number(p.String())})
}
