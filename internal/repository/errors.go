// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers and the check-in verifier to distinguish between different
// failure scenarios without depending on database/sql.
package repository

import (
	"database/sql"
	"errors"
)

// ErrNotFound is returned when the requested row does not exist.
// Repositories translate sql.ErrNoRows into this value.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an update cannot be performed
// because the row is no longer in the expected state, such as
// cancelling a ticket that was already checked in. Handlers should
// translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// notFound maps sql.ErrNoRows to ErrNotFound and passes other errors through.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
