package model

import "time"

// Event kinds a ticket can reference.
const (
	EventClass  = "class"
	EventMeetup = "meetup"
)

// EventRef is the read model the check-in flow needs about the class or
// meetup a ticket points at.  For a class, LeadUserID is the instructor;
// for a meetup it is the host.  VenueOwnerID is the user who owns the
// venue the event takes place in, when the event has a venue.
type EventRef struct {
	Kind         string     `json:"kind"`
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	StartsAt     *time.Time `json:"startsAt,omitempty"`
	LeadUserID   string     `json:"-"`
	VenueID      *string    `json:"venueId,omitempty"`
	VenueOwnerID *string    `json:"-"`
}

// AuthorizesScanner reports whether userID may check tickets in for the
// event: the instructor or host, or the owner of the venue.
func (e EventRef) AuthorizesScanner(userID string) bool {
	if userID == "" {
		return false
	}
	if e.LeadUserID == userID {
		return true
	}
	return e.VenueOwnerID != nil && *e.VenueOwnerID == userID
}
