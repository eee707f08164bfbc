package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/class-meetup-checkin/internal/payment"
)

// BreakdownCalculator is implemented by *payment.Calculator.
type BreakdownCalculator interface {
	Breakdown(ctx context.Context, gross decimal.Decimal) payment.Breakdown
}

// PaymentHandler serves the public breakdown endpoint.
type PaymentHandler struct {
	Calc BreakdownCalculator
}

func NewPaymentHandler(calc BreakdownCalculator) *PaymentHandler {
	if calc == nil {
		panic("nil calculator passed to NewPaymentHandler")
	}
	return &PaymentHandler{Calc: calc}
}

// breakdownResponse renders money with exactly two decimals as JSON
// numbers.
type breakdownResponse struct {
	ClassID           string      `json:"classId,omitempty"`
	MeetupID          string      `json:"meetupId,omitempty"`
	GrossAmount       json.Number `json:"grossAmount"`
	VenueRent         json.Number `json:"venueRent"`
	VenueRentLabel    string      `json:"venueRentLabel"`
	CommissionPercent json.Number `json:"commissionPercent"`
	CommissionAmount  json.Number `json:"commissionAmount"`
	ProcessingFee     json.Number `json:"processingFee"`
	NetAmount         json.Number `json:"netAmount"`
	PayoutAmount      json.Number `json:"payoutAmount"`
}

// maxAmount bounds the gross amount the public endpoint accepts.  The
// exponent is checked before any arithmetic so 1e1000000 never expands.
var maxAmount = decimal.NewFromInt(1_000_000_000)

const maxAmountLen = 32

func money(d decimal.Decimal) json.Number { return json.Number(d.StringFixed(2)) }

// GetBreakdown handles GET /v1/payments/breakdown?amount=.  amount must
// be a positive decimal no larger than maxAmount; classId or meetupId, at
// most one, is echoed back.
func (h *PaymentHandler) GetBreakdown(c echo.Context) error {
	raw := strings.TrimSpace(c.QueryParam("amount"))
	if raw == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount is required"})
	}
	if len(raw) > maxAmountLen {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount is too long"})
	}
	gross, err := decimal.NewFromString(raw)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be a decimal number"})
	}
	if exp := gross.Exponent(); exp > 9 || exp < -maxAmountLen {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount is out of range"})
	}
	if !gross.IsPositive() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be greater than zero"})
	}
	if gross.GreaterThan(maxAmount) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must not exceed " + maxAmount.String()})
	}
	classID := strings.TrimSpace(c.QueryParam("classId"))
	meetupID := strings.TrimSpace(c.QueryParam("meetupId"))
	if classID != "" && meetupID != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "specify classId or meetupId, not both"})
	}

	b := h.Calc.Breakdown(c.Request().Context(), gross)
	return c.JSON(http.StatusOK, breakdownResponse{
		ClassID:           classID,
		MeetupID:          meetupID,
		GrossAmount:       money(b.GrossAmount),
		VenueRent:         money(b.VenueRent),
		VenueRentLabel:    b.VenueRentLabel,
		CommissionPercent: json.Number(b.CommissionPercent.String()),
		CommissionAmount:  money(b.CommissionAmount),
		ProcessingFee:     money(b.ProcessingFee),
		NetAmount:         money(b.NetAmount),
		PayoutAmount:      money(b.PayoutAmount),
	})
}
