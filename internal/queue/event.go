// Package queue defines message payloads exchanged over the message broker
// and the consumer that records them.
package queue

// CheckInQueueName is the durable queue check-in events are published to.
const CheckInQueueName = "ticket.checked_in"

// TicketCheckedInEvent is published after a ticket moves to USED.  It
// carries enough for audit logging without querying the primary database.
type TicketCheckedInEvent struct {
	TicketID      string `json:"ticket_id"`
	TicketNumber  string `json:"ticket_number"`
	OwnerUserID   string `json:"owner_user_id"`
	ScannerUserID string `json:"scanner_user_id"`
	EventKind     string `json:"event_kind"`
	EventID       string `json:"event_id"`
	EventTitle    string `json:"event_title"`
	CheckedInAt   string `json:"checked_in_at"` // RFC 3339, UTC
}
