package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/class-meetup-checkin/internal/model"
)

var ticketCols = []string{"id", "ticket_number", "owner_user_id", "class_id", "meetup_id", "status",
	"expires_at", "used_at", "signed_payload", "created_at"}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func TestTicketRepo_FindBySignedPayload(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTicketRepo(db)

	raw := `{"classId":"cls_1","userId":"usr_1","timestamp":1,"hash":"ab"}`
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM tickets\s+WHERE payload_sha256 = \? AND signed_payload = \?`).
		WithArgs(PayloadDigest(raw), raw).
		WillReturnRows(sqlmock.NewRows(ticketCols).
			AddRow("t1", "TKT-1", "usr_1", "cls_1", nil, model.TicketIssued, nil, nil, raw, created))

	got, err := repo.FindBySignedPayload(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "t1", got.ID)
	require.NotNil(t, got.ClassID)
	assert.Equal(t, "cls_1", *got.ClassID)
	assert.Nil(t, got.MeetupID)
	assert.Nil(t, got.UsedAt)
	assert.Equal(t, raw, got.SignedPayload)
}

func TestTicketRepo_FindBySignedPayload_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTicketRepo(db)

	mock.ExpectQuery(`FROM tickets`).WillReturnError(sql.ErrNoRows)

	_, err := repo.FindBySignedPayload(context.Background(), "{}")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTicketRepo_ConditionalUpdateStatus(t *testing.T) {
	now := time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC)
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{"won", 1, true},
		{"lost", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMock(t)
			repo := NewTicketRepo(db)

			mock.ExpectExec(`UPDATE tickets SET status = \?, used_at = COALESCE\(\?, used_at\)\s+WHERE id = \? AND status = \?`).
				WithArgs(model.TicketUsed, now, "t1", model.TicketIssued).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			ok, err := repo.ConditionalUpdateStatus(context.Background(), "t1", model.TicketIssued, model.TicketUsed, &now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestTicketRepo_ConditionalUpdateStatus_Error(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTicketRepo(db)

	boom := errors.New("deadlock")
	mock.ExpectExec(`UPDATE tickets`).WillReturnError(boom)

	_, err := repo.ConditionalUpdateStatus(context.Background(), "t1", model.TicketIssued, model.TicketUsed, nil)
	assert.ErrorIs(t, err, boom)
}

func TestTicketRepo_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTicketRepo(db)

	meetup := "mt_1"
	tk := model.Ticket{
		ID:            "t2",
		TicketNumber:  "TKT-2",
		OwnerUserID:   "usr_2",
		MeetupID:      &meetup,
		Status:        model.TicketIssued,
		SignedPayload: `{"meetupId":"mt_1"}`,
		CreatedAt:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	mock.ExpectExec(`INSERT INTO tickets`).
		WithArgs("t2", "TKT-2", "usr_2", nil, "mt_1", model.TicketIssued, nil,
			tk.SignedPayload, PayloadDigest(tk.SignedPayload), tk.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), tk))
}

func TestTicketRepo_Cancel(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	row := func(status string) *sqlmock.Rows {
		return sqlmock.NewRows(ticketCols).
			AddRow("t1", "TKT-1", "usr_1", "cls_1", nil, status, nil, nil, "{}", created)
	}

	t.Run("owner cancels issued ticket", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(`FROM tickets WHERE id = \?`).WithArgs("t1").WillReturnRows(row(model.TicketIssued))
		mock.ExpectExec(`UPDATE tickets`).
			WithArgs(model.TicketCancelled, nil, "t1", model.TicketIssued).
			WillReturnResult(sqlmock.NewResult(0, 1))

		got, err := NewTicketRepo(db).Cancel(context.Background(), "t1", "usr_1")
		require.NoError(t, err)
		assert.Equal(t, model.TicketCancelled, got.Status)
	})

	t.Run("someone else's ticket", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(`FROM tickets WHERE id = \?`).WithArgs("t1").WillReturnRows(row(model.TicketIssued))

		_, err := NewTicketRepo(db).Cancel(context.Background(), "t1", "usr_9")
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("already used", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(`FROM tickets WHERE id = \?`).WithArgs("t1").WillReturnRows(row(model.TicketUsed))
		mock.ExpectExec(`UPDATE tickets`).WillReturnResult(sqlmock.NewResult(0, 0))

		_, err := NewTicketRepo(db).Cancel(context.Background(), "t1", "usr_1")
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("unknown ticket", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(`FROM tickets WHERE id = \?`).WithArgs("nope").WillReturnError(sql.ErrNoRows)

		_, err := NewTicketRepo(db).Cancel(context.Background(), "nope", "usr_1")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPayloadDigest_IsCaseSensitive(t *testing.T) {
	assert.NotEqual(t, PayloadDigest(`{"a":"x"}`), PayloadDigest(`{"a":"X"}`))
	assert.Len(t, PayloadDigest(""), 64)
}
