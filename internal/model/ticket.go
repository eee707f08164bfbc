package model

import "time"

// Ticket statuses.  USED and CANCELLED are terminal for check-in.
// Expiry is evaluated against ExpiresAt and never stored as a status.
const (
	TicketIssued    = "ISSUED"
	TicketUsed      = "USED"
	TicketCancelled = "CANCELLED"
)

// Ticket is an admission pass for a class enrollment or a meetup
// membership.  Exactly one of ClassID and MeetupID is set.  The
// SignedPayload is the serialized string embedded in the ticket's QR
// code and is the lookup key used at check-in.
//
// Fields:
//  ID            – opaque primary key.
//  TicketNumber  – human readable number printed on the ticket.
//  OwnerUserID   – user who holds the ticket.
//  ClassID       – class the ticket admits to (nil for meetups).
//  MeetupID      – meetup the ticket admits to (nil for classes).
//  Status        – ISSUED, USED or CANCELLED.
//  ExpiresAt     – optional expiry; after it the ticket is rejected.
//  UsedAt        – set once when the ticket is checked in.
//  SignedPayload – exact QR string produced at issuance.
//  CreatedAt     – creation timestamp.
type Ticket struct {
	ID            string     // tickets.id
	TicketNumber  string     // tickets.ticket_number
	OwnerUserID   string     // tickets.owner_user_id
	ClassID       *string    // tickets.class_id (nullable)
	MeetupID      *string    // tickets.meetup_id (nullable)
	Status        string     // tickets.status
	ExpiresAt     *time.Time // tickets.expires_at (nullable)
	UsedAt        *time.Time // tickets.used_at (nullable)
	SignedPayload string     // tickets.signed_payload
	CreatedAt     time.Time  // tickets.created_at
}

// IsExpired reports whether the ticket has an expiry strictly before now.
func (t Ticket) IsExpired(now time.Time) bool {
	return t.ExpiresAt != nil && now.After(*t.ExpiresAt)
}
