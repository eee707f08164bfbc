package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/class-meetup-checkin/internal/ticket"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVerifyCommand(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("TICKET_QR_SECRET", "cli-secret")

	_, raw, err := ticket.Sign(ticket.Payload{MeetupMemberID: "mm_1", MeetupID: "mt_1", UserID: "usr_1", Timestamp: 1}, "cli-secret")
	require.NoError(t, err)

	out, err := run(t, "verify", "--qr", raw)
	require.NoError(t, err)
	assert.Contains(t, out, "signature ok (meetup)")
	assert.Contains(t, out, `{"meetupMemberId":"mm_1","meetupId":"mt_1","userId":"usr_1","timestamp":1}`)

	t.Setenv("TICKET_QR_SECRET", "rotated")
	out, err = run(t, "verify", "--qr", raw)
	assert.ErrorIs(t, err, ticket.ErrInvalidSignature)
	assert.Contains(t, out, ticket.CodeInvalidSignature)
}

func TestVerifyCommand_RefusesWeakSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("TICKET_QR_SECRET", "")

	_, err := run(t, "verify", "--qr", "{}")
	assert.Error(t, err)
}

func TestIssueCommand_FlagValidation(t *testing.T) {
	_, err := run(t, "issue", "--user", "usr_1", "--class", "c", "--meetup", "m")
	assert.Error(t, err)

	_, err = run(t, "issue", "--class", "c")
	assert.Error(t, err)
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET", "jwt")
	out, err := run(t, "token", "--user", "usr_admin", "--role", "ADMIN")
	require.NoError(t, err)
	assert.Len(t, bytes.Split(bytes.TrimSpace([]byte(out)), []byte(".")), 3)

	t.Setenv("JWT_SECRET", "")
	_, err = run(t, "token", "--user", "usr_admin")
	assert.Error(t, err)
}
