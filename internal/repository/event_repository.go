package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/class-meetup-checkin/internal/model"
)

// EventRepo reads classes and meetups together with the owner of the
// venue they are held in.  Both lookups return model.EventRef, which is
// everything the check-in flow needs to authorize a scanner.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo constructs an EventRepo with the provided DB handle.
func NewEventRepo(db *sql.DB) *EventRepo {
	return &EventRepo{db: db}
}

// ClassByID loads a class; LeadUserID is the instructor.
func (r *EventRepo) ClassByID(ctx context.Context, id string) (model.EventRef, error) {
	const q = `SELECT c.id, c.title, c.starts_at, c.instructor_id, c.venue_id, v.owner_id
	           FROM classes c
	           LEFT JOIN venues v ON v.id = c.venue_id
	           WHERE c.id = ?`
	return r.scanEvent(ctx, model.EventClass, q, id)
}

// MeetupByID loads a meetup; LeadUserID is the host.
func (r *EventRepo) MeetupByID(ctx context.Context, id string) (model.EventRef, error) {
	const q = `SELECT m.id, m.title, m.starts_at, m.host_id, m.venue_id, v.owner_id
	           FROM meetups m
	           LEFT JOIN venues v ON v.id = m.venue_id
	           WHERE m.id = ?`
	return r.scanEvent(ctx, model.EventMeetup, q, id)
}

func (r *EventRepo) scanEvent(ctx context.Context, kind, q, id string) (model.EventRef, error) {
	var (
		ev       = model.EventRef{Kind: kind}
		startsAt sql.NullTime
		venueID  sql.NullString
		ownerID  sql.NullString
	)
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&ev.ID, &ev.Title, &startsAt, &ev.LeadUserID, &venueID, &ownerID); err != nil {
		return model.EventRef{}, notFound(err)
	}
	if startsAt.Valid {
		ts := startsAt.Time.UTC()
		ev.StartsAt = &ts
	}
	if venueID.Valid {
		ev.VenueID = &venueID.String
	}
	if ownerID.Valid {
		ev.VenueOwnerID = &ownerID.String
	}
	return ev, nil
}
