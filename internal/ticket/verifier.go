package ticket

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/class-meetup-checkin/internal/model"
	"github.com/iliyamo/class-meetup-checkin/internal/monitoring"
	"github.com/iliyamo/class-meetup-checkin/internal/repository"
)

// Store is the ticket persistence the verifier needs.  Lookups that find
// nothing return repository.ErrNotFound.
type Store interface {
	// FindBySignedPayload matches the stored QR string byte for byte.
	FindBySignedPayload(ctx context.Context, payload string) (model.Ticket, error)
	// ConditionalUpdateStatus moves the ticket from expected to next only
	// if it is still in expected, and reports whether it did.
	ConditionalUpdateStatus(ctx context.Context, id, expected, next string, usedAt *time.Time) (bool, error)
}

// Events resolves the class or meetup a ticket references.
type Events interface {
	ClassByID(ctx context.Context, id string) (model.EventRef, error)
	MeetupByID(ctx context.Context, id string) (model.EventRef, error)
}

// Profiles loads public user profiles.
type Profiles interface {
	PublicProfile(ctx context.Context, userID string) (model.PublicProfile, error)
}

// CheckInNotifier is told about every committed check-in.  Failures are
// logged and never undo the check-in.
type CheckInNotifier interface {
	TicketCheckedIn(ctx context.Context, t model.Ticket, event model.EventRef, scannerID string) error
}

// Result is a successful verification.
type Result struct {
	Ticket    model.Ticket
	Owner     model.PublicProfile
	Event     model.EventRef
	Committed bool
}

// Verifier validates scanned tickets and performs check-in.
type Verifier struct {
	secret   string
	store    Store
	events   Events
	profiles Profiles
	notifier CheckInNotifier
	log      *zap.Logger
	now      func() time.Time
}

// Option customizes a Verifier.
type Option func(*Verifier)

// WithClock overrides the time source used for expiry and usedAt.
func WithClock(now func() time.Time) Option { return func(v *Verifier) { v.now = now } }

// WithNotifier registers a check-in notifier.
func WithNotifier(n CheckInNotifier) Option { return func(v *Verifier) { v.notifier = n } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(v *Verifier) { v.log = l } }

// NewVerifier builds a Verifier.  secret must be the key tickets were
// signed with.
func NewVerifier(secret string, store Store, events Events, profiles Profiles, opts ...Option) *Verifier {
	if store == nil || events == nil || profiles == nil {
		panic("nil dependency passed to NewVerifier")
	}
	v := &Verifier{
		secret:   secret,
		store:    store,
		events:   events,
		profiles: profiles,
		log:      zap.NewNop(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(v)
	}
	return v
}

// CheckIn verifies raw and marks the ticket USED.
func (v *Verifier) CheckIn(ctx context.Context, raw, scannerID string) (Result, error) {
	return v.Verify(ctx, raw, scannerID, true)
}

// Validate verifies raw without changing the ticket.
func (v *Verifier) Validate(ctx context.Context, raw, scannerID string) (Result, error) {
	return v.Verify(ctx, raw, scannerID, false)
}

// Verify runs, in order: payload parsing, signature check, lookup by
// the exact serialized string, status and expiry evaluation, scanner
// authorization, and, when commit is set, the guarded ISSUED to USED
// transition.  The first failing step ends the request.
func (v *Verifier) Verify(ctx context.Context, raw, scannerID string, commit bool) (res Result, err error) {
	mode := "validate"
	if commit {
		mode = "checkin"
	}
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = Code(err)
		}
		monitoring.TrackVerification(mode, outcome)
		monitoring.ObserveVerification(mode, time.Since(start).Seconds())
	}()

	if _, err := VerifySignature(raw, v.secret); err != nil {
		return Result{}, err
	}

	t, err := v.store.FindBySignedPayload(ctx, raw)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Result{}, ErrTicketNotFound
		}
		return Result{}, fmt.Errorf("load ticket: %w", err)
	}

	// used_at is stored with millisecond precision.
	now := v.now().Truncate(time.Millisecond)
	if err := v.checkState(t, now); err != nil {
		return Result{}, err
	}

	event, err := v.loadEvent(ctx, t)
	if err != nil {
		return Result{}, err
	}
	if !event.AuthorizesScanner(scannerID) {
		return Result{}, ErrForbidden
	}

	if commit {
		if t, err = v.commit(ctx, t, now); err != nil {
			return Result{}, err
		}
		v.log.Info("ticket checked in",
			zap.String("ticket_id", t.ID),
			zap.String("ticket_number", t.TicketNumber),
			zap.String("scanner_id", scannerID),
			zap.String("event_kind", event.Kind),
			zap.String("event_id", event.ID))
		if v.notifier != nil {
			if nerr := v.notifier.TicketCheckedIn(ctx, t, event, scannerID); nerr != nil {
				v.log.Warn("check-in notification failed", zap.String("ticket_id", t.ID), zap.Error(nerr))
			}
		}
	}

	return Result{
		Ticket:    t,
		Owner:     v.owner(ctx, t.OwnerUserID),
		Event:     event,
		Committed: commit,
	}, nil
}

// checkState rejects tickets that can no longer be checked in.
func (v *Verifier) checkState(t model.Ticket, now time.Time) error {
	switch t.Status {
	case model.TicketUsed:
		return &RejectionError{Reason: ErrAlreadyUsed, TicketID: t.ID, UsedAt: t.UsedAt}
	case model.TicketCancelled:
		return &RejectionError{Reason: ErrCancelled, TicketID: t.ID}
	}
	if t.IsExpired(now) {
		return &RejectionError{Reason: ErrExpired, TicketID: t.ID, ExpiresAt: t.ExpiresAt}
	}
	return nil
}

// loadEvent resolves the ticket's class or meetup.  A missing event
// leaves nobody authorized to scan the ticket.
func (v *Verifier) loadEvent(ctx context.Context, t model.Ticket) (model.EventRef, error) {
	var (
		ev  model.EventRef
		err error
	)
	switch {
	case t.ClassID != nil:
		ev, err = v.events.ClassByID(ctx, *t.ClassID)
	case t.MeetupID != nil:
		ev, err = v.events.MeetupByID(ctx, *t.MeetupID)
	default:
		return model.EventRef{}, ErrForbidden
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.EventRef{}, ErrForbidden
		}
		return model.EventRef{}, fmt.Errorf("load event: %w", err)
	}
	return ev, nil
}

// commit performs the guarded transition.  Losing the race to another
// scanner is reported as AlreadyUsed with the winner's usedAt.
func (v *Verifier) commit(ctx context.Context, t model.Ticket, now time.Time) (model.Ticket, error) {
	ok, err := v.store.ConditionalUpdateStatus(ctx, t.ID, model.TicketIssued, model.TicketUsed, &now)
	if err != nil {
		return model.Ticket{}, fmt.Errorf("mark ticket used: %w", err)
	}
	if ok {
		t.Status = model.TicketUsed
		t.UsedAt = &now
		return t, nil
	}

	current, err := v.store.FindBySignedPayload(ctx, t.SignedPayload)
	if err != nil {
		return model.Ticket{}, fmt.Errorf("reload ticket: %w", err)
	}
	if current.Status == model.TicketCancelled {
		return model.Ticket{}, &RejectionError{Reason: ErrCancelled, TicketID: current.ID}
	}
	return model.Ticket{}, &RejectionError{Reason: ErrAlreadyUsed, TicketID: current.ID, UsedAt: current.UsedAt}
}

// owner loads the ticket holder's profile.  Failures fall back to a bare
// profile so a committed check-in is still reported as successful.
func (v *Verifier) owner(ctx context.Context, userID string) model.PublicProfile {
	p, err := v.profiles.PublicProfile(ctx, userID)
	if err != nil {
		v.log.Warn("owner profile unavailable", zap.String("user_id", userID), zap.Error(err))
		return model.PublicProfile{ID: userID}
	}
	return p
}
