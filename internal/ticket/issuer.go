package ticket

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/class-meetup-checkin/internal/model"
)

// IssueRequest describes the enrollment or meetup membership a ticket is
// issued for.  Exactly one of ClassID and MeetupID must be set.
type IssueRequest struct {
	EnrollmentID   string
	MeetupMemberID string
	ClassID        string
	MeetupID       string
	UserID         string
	ExpiresAt      *time.Time
}

// Issuer creates signed tickets in the ISSUED state.
type Issuer struct {
	secret string
	now    func() time.Time
}

// NewIssuer returns an Issuer signing with secret.
func NewIssuer(secret string) *Issuer {
	return &Issuer{secret: secret, now: func() time.Time { return time.Now().UTC() }}
}

// Issue builds a new ticket.  The caller persists it.
func (i *Issuer) Issue(req IssueRequest) (model.Ticket, error) {
	now := i.now()
	_, raw, err := Sign(Payload{
		EnrollmentID:   req.EnrollmentID,
		MeetupMemberID: req.MeetupMemberID,
		ClassID:        req.ClassID,
		MeetupID:       req.MeetupID,
		UserID:         req.UserID,
		Timestamp:      now.UnixMilli(),
	}, i.secret)
	if err != nil {
		return model.Ticket{}, err
	}

	id := uuid.New()
	t := model.Ticket{
		ID:            id.String(),
		TicketNumber:  ticketNumber(id),
		OwnerUserID:   req.UserID,
		Status:        model.TicketIssued,
		ExpiresAt:     req.ExpiresAt,
		SignedPayload: raw,
		CreatedAt:     now,
	}
	if req.ClassID != "" {
		classID := req.ClassID
		t.ClassID = &classID
	} else {
		meetupID := req.MeetupID
		t.MeetupID = &meetupID
	}
	return t, nil
}

// ticketNumber derives a short printable number from the ticket id.
func ticketNumber(id uuid.UUID) string {
	return "TKT-" + strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:10])
}
