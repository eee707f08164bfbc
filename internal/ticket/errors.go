package ticket

import (
	"errors"
	"fmt"
	"time"
)

// Verification failures.  Each one is terminal for the request that hit it.
var (
	ErrInvalidFormat    = errors.New("invalid ticket format")
	ErrInvalidSignature = errors.New("invalid ticket signature")
	ErrTicketNotFound   = errors.New("ticket not found")
	ErrAlreadyUsed      = errors.New("ticket already used")
	ErrCancelled        = errors.New("ticket cancelled")
	ErrExpired          = errors.New("ticket expired")
	ErrForbidden        = errors.New("not authorized to check in this ticket")
)

// Reason codes returned to clients.
const (
	CodeInvalidFormat    = "INVALID_FORMAT"
	CodeInvalidSignature = "INVALID_SIGNATURE"
	CodeTicketNotFound   = "TICKET_NOT_FOUND"
	CodeAlreadyUsed      = "ALREADY_USED"
	CodeCancelled        = "CANCELLED"
	CodeExpired          = "EXPIRED"
	CodeForbidden        = "FORBIDDEN"
	CodeInternal         = "INTERNAL"
)

var codes = []struct {
	err  error
	code string
}{
	{ErrInvalidFormat, CodeInvalidFormat},
	{ErrInvalidSignature, CodeInvalidSignature},
	{ErrTicketNotFound, CodeTicketNotFound},
	{ErrAlreadyUsed, CodeAlreadyUsed},
	{ErrCancelled, CodeCancelled},
	{ErrExpired, CodeExpired},
	{ErrForbidden, CodeForbidden},
}

// Code maps a verification error to its reason code.  Errors outside the
// taxonomy map to CodeInternal.
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}

// RejectionError is a domain-state rejection of an existing ticket
// (already used, cancelled, expired).  It carries the context a client
// needs to explain the rejection.
type RejectionError struct {
	Reason    error
	TicketID  string
	UsedAt    *time.Time
	ExpiresAt *time.Time
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("ticket %s: %v", e.TicketID, e.Reason)
}

func (e *RejectionError) Unwrap() error { return e.Reason }
