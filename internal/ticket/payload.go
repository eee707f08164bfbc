// Package ticket implements signed QR ticket payloads and the check-in
// state machine that redeems them.
package ticket

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Payload is the content of a ticket's QR code.  ClassID and MeetupID are
// mutually exclusive.  EnrollmentID accompanies class tickets and
// MeetupMemberID accompanies meetup tickets.  Timestamp is the issuance
// time in Unix milliseconds.
type Payload struct {
	EnrollmentID   string
	MeetupMemberID string
	ClassID        string
	MeetupID       string
	UserID         string
	Timestamp      int64
	Hash           string
}

// canonical is the signed content.  Field order is part of the wire
// format: enrollmentId, meetupMemberId, classId, meetupId, userId,
// timestamp.  Absent optional fields are omitted, not null.
type canonical struct {
	EnrollmentID   string `json:"enrollmentId,omitempty"`
	MeetupMemberID string `json:"meetupMemberId,omitempty"`
	ClassID        string `json:"classId,omitempty"`
	MeetupID       string `json:"meetupId,omitempty"`
	UserID         string `json:"userId"`
	Timestamp      int64  `json:"timestamp"`
}

// signed is the QR string layout: the canonical fields followed by hash.
type signed struct {
	canonical
	Hash string `json:"hash"`
}

// wire is the strict decoding shape.  Pointers distinguish absent fields
// from empty ones.
type wire struct {
	EnrollmentID   *string `json:"enrollmentId"`
	MeetupMemberID *string `json:"meetupMemberId"`
	ClassID        *string `json:"classId"`
	MeetupID       *string `json:"meetupId"`
	UserID         *string `json:"userId"`
	Timestamp      *int64  `json:"timestamp"`
	Hash           *string `json:"hash"`
}

var knownFields = map[string]struct{}{
	"enrollmentId":   {},
	"meetupMemberId": {},
	"classId":        {},
	"meetupId":       {},
	"userId":         {},
	"timestamp":      {},
	"hash":           {},
}

func (p Payload) canonical() canonical {
	return canonical{
		EnrollmentID:   p.EnrollmentID,
		MeetupMemberID: p.MeetupMemberID,
		ClassID:        p.ClassID,
		MeetupID:       p.MeetupID,
		UserID:         p.UserID,
		Timestamp:      p.Timestamp,
	}
}

// EventKind returns "class" or "meetup" depending on the reference set.
func (p Payload) EventKind() string {
	if p.ClassID != "" {
		return "class"
	}
	return "meetup"
}

// marshal encodes v compactly without HTML escaping and without the
// trailing newline json.Encoder appends.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// CanonicalBytes returns the bytes the hash is computed over.
func (p Payload) CanonicalBytes() ([]byte, error) {
	return marshal(p.canonical())
}

// ComputeHash returns the lowercase hex HMAC-SHA256 of the canonical
// serialization keyed by secret.
func ComputeHash(p Payload, secret string) (string, error) {
	msg, err := p.CanonicalBytes()
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(msg)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Sign fills in p.Hash and returns the serialized QR string.
func Sign(p Payload, secret string) (Payload, string, error) {
	if err := p.validate(); err != nil {
		return Payload{}, "", err
	}
	h, err := ComputeHash(p, secret)
	if err != nil {
		return Payload{}, "", err
	}
	p.Hash = h
	raw, err := p.Serialize()
	if err != nil {
		return Payload{}, "", err
	}
	return p, raw, nil
}

// Serialize returns the QR string for an already signed payload.
func (p Payload) Serialize() (string, error) {
	b, err := marshal(signed{canonical: p.canonical(), Hash: p.Hash})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ParsePayload decodes raw strictly.  Unknown fields, trailing data,
// wrong types, empty values and a missing or ambiguous event reference
// all yield ErrInvalidFormat.
func ParsePayload(raw string) (Payload, error) {
	dec := json.NewDecoder(strings.NewReader(raw))

	var fields map[string]json.RawMessage
	if err := dec.Decode(&fields); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Payload{}, fmt.Errorf("%w: trailing data", ErrInvalidFormat)
	}
	// encoding/json matches keys case-insensitively; the wire format does not.
	for k, v := range fields {
		if _, ok := knownFields[k]; !ok {
			return Payload{}, fmt.Errorf("%w: unknown field %q", ErrInvalidFormat, k)
		}
		if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return Payload{}, fmt.Errorf("%w: %s is null", ErrInvalidFormat, k)
		}
	}

	var w wire
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	for name, f := range map[string]*string{
		"enrollmentId":   w.EnrollmentID,
		"meetupMemberId": w.MeetupMemberID,
		"classId":        w.ClassID,
		"meetupId":       w.MeetupID,
	} {
		if f != nil && *f == "" {
			return Payload{}, fmt.Errorf("%w: %s is empty", ErrInvalidFormat, name)
		}
	}
	if w.UserID == nil || w.Timestamp == nil || w.Hash == nil {
		return Payload{}, fmt.Errorf("%w: userId, timestamp and hash are required", ErrInvalidFormat)
	}
	if _, err := hex.DecodeString(*w.Hash); err != nil || len(*w.Hash) != sha256.Size*2 {
		return Payload{}, fmt.Errorf("%w: hash must be %d hex characters", ErrInvalidFormat, sha256.Size*2)
	}

	p := Payload{
		EnrollmentID:   deref(w.EnrollmentID),
		MeetupMemberID: deref(w.MeetupMemberID),
		ClassID:        deref(w.ClassID),
		MeetupID:       deref(w.MeetupID),
		UserID:         *w.UserID,
		Timestamp:      *w.Timestamp,
		Hash:           *w.Hash,
	}
	if err := p.validate(); err != nil {
		return Payload{}, err
	}
	return p, nil
}

func (p Payload) validate() error {
	if p.UserID == "" {
		return fmt.Errorf("%w: userId is empty", ErrInvalidFormat)
	}
	if p.Timestamp <= 0 {
		return fmt.Errorf("%w: timestamp must be positive", ErrInvalidFormat)
	}
	if (p.ClassID == "") == (p.MeetupID == "") {
		return fmt.Errorf("%w: exactly one of classId and meetupId is required", ErrInvalidFormat)
	}
	return nil
}

// VerifySignature parses raw and checks its hash against a fresh HMAC
// computed with secret.  The comparison is constant time.
func VerifySignature(raw, secret string) (Payload, error) {
	p, err := ParsePayload(raw)
	if err != nil {
		return Payload{}, err
	}
	want, err := ComputeHash(p, secret)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if !hmac.Equal([]byte(want), []byte(p.Hash)) {
		return Payload{}, ErrInvalidSignature
	}
	return p, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
