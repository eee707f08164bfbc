package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/class-meetup-checkin/internal/logging"
	"github.com/iliyamo/class-meetup-checkin/internal/middleware"
	"github.com/iliyamo/class-meetup-checkin/internal/model"
	"github.com/iliyamo/class-meetup-checkin/internal/repository"
	"github.com/iliyamo/class-meetup-checkin/internal/ticket"
)

// TicketVerifier is implemented by *ticket.Verifier.
type TicketVerifier interface {
	CheckIn(ctx context.Context, raw, scannerID string) (ticket.Result, error)
	Validate(ctx context.Context, raw, scannerID string) (ticket.Result, error)
}

// TicketCanceller is implemented by *repository.TicketRepo.
type TicketCanceller interface {
	Cancel(ctx context.Context, id, ownerID string) (model.Ticket, error)
}

// TicketHandler serves the scanner endpoints and ticket cancellation.
// Routes are expected to sit behind JWTAuth.
type TicketHandler struct {
	Verifier TicketVerifier
	Tickets  TicketCanceller
}

// NewTicketHandler panics on nil dependencies.
func NewTicketHandler(v TicketVerifier, tickets TicketCanceller) *TicketHandler {
	if v == nil || tickets == nil {
		panic("nil dependency passed to NewTicketHandler")
	}
	return &TicketHandler{Verifier: v, Tickets: tickets}
}

type scanRequest struct {
	QRCodeData string `json:"qrCodeData"`
}

type ticketSummary struct {
	ID           string     `json:"id"`
	TicketNumber string     `json:"ticketNumber"`
	Status       string     `json:"status"`
	UsedAt       *time.Time `json:"usedAt"`
}

func summarize(t model.Ticket) ticketSummary {
	return ticketSummary{ID: t.ID, TicketNumber: t.TicketNumber, Status: t.Status, UsedAt: t.UsedAt}
}

// CheckIn handles POST /v1/tickets/checkin.  On success the ticket is
// USED and the response carries the ticket and its owner.
func (h *TicketHandler) CheckIn(c echo.Context) error {
	return h.scan(c, true)
}

// Validate handles POST /v1/tickets/validate.  Nothing is written; the
// response also carries the class or meetup summary.
func (h *TicketHandler) Validate(c echo.Context) error {
	return h.scan(c, false)
}

func (h *TicketHandler) scan(c echo.Context, commit bool) error {
	scanner := middleware.UserID(c)
	if scanner == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body scanRequest
	if err := c.Bind(&body); err != nil || strings.TrimSpace(body.QRCodeData) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"error":   ticket.CodeInvalidFormat,
			"message": "qrCodeData is required",
		})
	}

	ctx := c.Request().Context()
	var (
		res ticket.Result
		err error
	)
	if commit {
		res, err = h.Verifier.CheckIn(ctx, body.QRCodeData, scanner)
	} else {
		res, err = h.Verifier.Validate(ctx, body.QRCodeData, scanner)
	}
	if err != nil {
		return rejection(c, err)
	}

	out := echo.Map{
		"success": true,
		"ticket":  summarize(res.Ticket),
		"owner":   res.Owner,
	}
	if !commit {
		out["event"] = res.Event
	}
	return c.JSON(http.StatusOK, out)
}

// rejection renders a verification failure as {success:false, error:<code>}
// plus whatever context the rejection carries.
func rejection(c echo.Context, err error) error {
	code := ticket.Code(err)
	body := echo.Map{"success": false, "error": code}

	var rej *ticket.RejectionError
	if errors.As(err, &rej) {
		if rej.UsedAt != nil {
			body["checkedInAt"] = rej.UsedAt.UTC()
		}
		if rej.ExpiresAt != nil {
			body["expiresAt"] = rej.ExpiresAt.UTC()
		}
	}

	var status int
	switch code {
	case ticket.CodeTicketNotFound:
		status = http.StatusNotFound
	case ticket.CodeForbidden:
		status = http.StatusForbidden
	case ticket.CodeInternal:
		logging.FromContext(c.Request().Context()).Error("ticket verification failed", zap.Error(err))
		status = http.StatusInternalServerError
	default:
		status = http.StatusBadRequest
	}
	if status != http.StatusInternalServerError {
		body["message"] = err.Error()
	}
	return c.JSON(status, body)
}

// Cancel handles POST /v1/tickets/:id/cancel.  Only the ticket owner may
// cancel, and only while the ticket is ISSUED.
func (h *TicketHandler) Cancel(c echo.Context) error {
	owner := middleware.UserID(c)
	if owner == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}

	t, err := h.Tickets.Cancel(c.Request().Context(), id, owner)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "ticket is no longer issued"})
	default:
		logging.FromContext(c.Request().Context()).Error("cancel ticket", zap.String("ticket_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	logging.FromContext(c.Request().Context()).Info("ticket cancelled",
		zap.String("ticket_id", t.ID), zap.String("owner_id", owner))
	return c.JSON(http.StatusOK, echo.Map{"success": true, "ticket": summarize(t)})
}
