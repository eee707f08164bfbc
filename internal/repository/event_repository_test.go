package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/class-meetup-checkin/internal/model"
)

var eventCols = []string{"id", "title", "starts_at", "lead", "venue_id", "owner_id"}

func TestEventRepo_ClassByID(t *testing.T) {
	db, mock := newMock(t)
	starts := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM classes c\s+LEFT JOIN venues v`).WithArgs("cls_1").
		WillReturnRows(sqlmock.NewRows(eventCols).AddRow("cls_1", "Salsa", starts, "usr_instructor", "ven_1", "usr_venue"))

	ev, err := NewEventRepo(db).ClassByID(context.Background(), "cls_1")
	require.NoError(t, err)
	assert.Equal(t, model.EventClass, ev.Kind)
	assert.Equal(t, "usr_instructor", ev.LeadUserID)
	require.NotNil(t, ev.VenueOwnerID)
	assert.True(t, ev.AuthorizesScanner("usr_venue"))
	assert.Equal(t, starts, *ev.StartsAt)
}

func TestEventRepo_MeetupWithoutVenue(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`FROM meetups m`).WithArgs("mt_1").
		WillReturnRows(sqlmock.NewRows(eventCols).AddRow("mt_1", "Board games", nil, "usr_host", nil, nil))

	ev, err := NewEventRepo(db).MeetupByID(context.Background(), "mt_1")
	require.NoError(t, err)
	assert.Equal(t, model.EventMeetup, ev.Kind)
	assert.Nil(t, ev.VenueID)
	assert.Nil(t, ev.StartsAt)
	assert.True(t, ev.AuthorizesScanner("usr_host"))
	assert.False(t, ev.AuthorizesScanner("usr_venue"))
}

func TestEventRepo_NotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`FROM classes`).WillReturnError(sql.ErrNoRows)

	_, err := NewEventRepo(db).ClassByID(context.Background(), "gone")
	assert.ErrorIs(t, err, ErrNotFound)
}
