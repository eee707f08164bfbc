package repository

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"time"

	"github.com/iliyamo/class-meetup-checkin/internal/model"
)

// TicketRepo provides data access to the tickets table.  Tickets are
// looked up by their exact signed payload string; the indexed
// payload_sha256 column narrows the search and the binary-collated
// signed_payload column confirms the byte-for-byte match.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo returns a TicketRepo bound to the provided database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// DB exposes the underlying handle for transactions.
func (r *TicketRepo) DB() *sql.DB { return r.db }

const ticketColumns = `id, ticket_number, owner_user_id, class_id, meetup_id, status,
       expires_at, used_at, signed_payload, created_at`

// PayloadDigest is the hex SHA-256 of a signed payload, used as the
// lookup index.
func PayloadDigest(payload string) string {
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(s rowScanner) (model.Ticket, error) {
	var (
		t         model.Ticket
		classID   sql.NullString
		meetupID  sql.NullString
		expiresAt sql.NullTime
		usedAt    sql.NullTime
	)
	if err := s.Scan(&t.ID, &t.TicketNumber, &t.OwnerUserID, &classID, &meetupID, &t.Status,
		&expiresAt, &usedAt, &t.SignedPayload, &t.CreatedAt); err != nil {
		return model.Ticket{}, err
	}
	if classID.Valid {
		t.ClassID = &classID.String
	}
	if meetupID.Valid {
		t.MeetupID = &meetupID.String
	}
	if expiresAt.Valid {
		ts := expiresAt.Time.UTC()
		t.ExpiresAt = &ts
	}
	if usedAt.Valid {
		ts := usedAt.Time.UTC()
		t.UsedAt = &ts
	}
	return t, nil
}

// Create inserts a newly issued ticket.
func (r *TicketRepo) Create(ctx context.Context, t model.Ticket) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tickets (id, ticket_number, owner_user_id, class_id, meetup_id, status,
		                      expires_at, signed_payload, payload_sha256, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.TicketNumber, t.OwnerUserID, nullString(t.ClassID), nullString(t.MeetupID), t.Status,
		nullTime(t.ExpiresAt), t.SignedPayload, PayloadDigest(t.SignedPayload), t.CreatedAt.UTC())
	return err
}

// FindBySignedPayload returns the ticket whose stored payload equals
// payload exactly.  It returns ErrNotFound when there is none.
func (r *TicketRepo) FindBySignedPayload(ctx context.Context, payload string) (model.Ticket, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets
		 WHERE payload_sha256 = ? AND signed_payload = ? LIMIT 1`,
		PayloadDigest(payload), payload)
	t, err := scanTicket(row)
	if err != nil {
		return model.Ticket{}, notFound(err)
	}
	return t, nil
}

// GetByID fetches a ticket by id.
func (r *TicketRepo) GetByID(ctx context.Context, id string) (model.Ticket, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = ? LIMIT 1`, id)
	t, err := scanTicket(row)
	if err != nil {
		return model.Ticket{}, notFound(err)
	}
	return t, nil
}

// ConditionalUpdateStatus sets status to next only while the row is still
// in expected.  The check and the write happen in one UPDATE statement,
// so two concurrent callers cannot both succeed.  usedAt is written when
// non-nil and left unchanged otherwise.
func (r *TicketRepo) ConditionalUpdateStatus(ctx context.Context, id, expected, next string, usedAt *time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tickets SET status = ?, used_at = COALESCE(?, used_at)
		 WHERE id = ? AND status = ?`,
		next, nullTime(usedAt), id, expected)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Cancel moves an ISSUED ticket owned by ownerID to CANCELLED.  It
// returns ErrNotFound for unknown tickets, ErrForbidden when the ticket
// belongs to someone else and ErrConflict when it is no longer ISSUED.
func (r *TicketRepo) Cancel(ctx context.Context, id, ownerID string) (model.Ticket, error) {
	t, err := r.GetByID(ctx, id)
	if err != nil {
		return model.Ticket{}, err
	}
	if t.OwnerUserID != ownerID {
		return model.Ticket{}, ErrForbidden
	}
	ok, err := r.ConditionalUpdateStatus(ctx, id, model.TicketIssued, model.TicketCancelled, nil)
	if err != nil {
		return model.Ticket{}, err
	}
	if !ok {
		return model.Ticket{}, ErrConflict
	}
	t.Status = model.TicketCancelled
	return t, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
