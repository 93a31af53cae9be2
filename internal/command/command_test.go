package command

import (
	"testing"
	"time"

	"github.com/jason-s-yu/walletfriends/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRequestID(t *testing.T) {
	cases := map[string]models.RequestID{
		`{"id":42}`:                  42,
		`{"id":"42"}`:                42,
		` {"id": 7, "extra": true} `: 7,
		`{"id":"  9 "}`:              9,
		`{"id":9223372036854775807}`: 9223372036854775807,
	}
	for msg, want := range cases {
		got, err := DecodeRequestID(msg)
		require.NoError(t, err, msg)
		assert.Equal(t, want, got, msg)
	}
}

func TestDecodeRequestIDMalformed(t *testing.T) {
	bad := []string{
		"",
		"not json",
		"42",
		`["id",42]`,
		`{"id":42`,
		`{}`,
		`{"id":null}`,
		`{"id":""}`,
		`{"id":"abc"}`,
		`{"id":0}`,
		`{"id":-3}`,
		`{"id":4.5}`,
		`{"id":{"nested":1}}`,
		`{"ID_":1}`,
		`{"ID":42}`,
		`{"Id":"42"}`,
		`{"iD":7}`,
	}
	for _, msg := range bad {
		_, err := DecodeRequestID(msg)
		assert.ErrorIs(t, err, ErrMalformedCommand, "message %q", msg)
	}
}

func TestDecodeRequestIDDeterministic(t *testing.T) {
	a, errA := DecodeRequestID(`{"id":"17"}`)
	b, errB := DecodeRequestID(`{"id":"17"}`)
	require.NoError(t, errA)
	require.NoError(t, errB)
	assert.Equal(t, a, b)
}

func TestDecodeInvite(t *testing.T) {
	wallet, err := DecodeInvite(`{"to_wallet":" 0xB "}`)
	require.NoError(t, err)
	assert.Equal(t, "0xB", wallet)

	for _, msg := range []string{`{}`, `{"to_wallet":""}`, `nope`, `{"to_wallet":5}`} {
		_, err := DecodeInvite(msg)
		assert.ErrorIs(t, err, ErrMalformedCommand, "message %q", msg)
	}
}

func TestDecodeProfile(t *testing.T) {
	name, err := DecodeProfile(`{"username":" alice "}`)
	require.NoError(t, err)
	assert.Equal(t, "alice", name)

	for _, msg := range []string{"", `alice`, `{}`, `{"username":""}`, `{"username":"   "}`, `{"username":7}`, `{"Username":"alice"}`} {
		_, err := DecodeProfile(msg)
		assert.ErrorIs(t, err, ErrMalformedCommand, "message %q", msg)
	}
}

func TestDecodeAction(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	window := 5 * time.Minute

	require.NoError(t, DecodeAction(`{"action":"session","issued_at":1700000000}`, ActionSession, now, window))
	require.NoError(t, DecodeAction(`{"action":"session","issued_at":1699999760}`, ActionSession, now, window))
	require.NoError(t, DecodeAction(`{"action":"delete_user","issued_at":1700000100}`, ActionDeleteUser, now, window))

	// a request id envelope is not a session request
	for _, msg := range []string{
		`{"id":42}`,
		`login`,
		`{"action":"session"}`,
		`{"action":"session","issued_at":"soon"}`,
		`{"action":"delete_user","issued_at":1700000000}`,
		`{"Action":"session","issued_at":1700000000}`,
	} {
		err := DecodeAction(msg, ActionSession, now, window)
		assert.ErrorIs(t, err, ErrMalformedCommand, "message %q", msg)
	}

	err := DecodeAction(`{"action":"session","issued_at":1699990000}`, ActionSession, now, window)
	assert.ErrorIs(t, err, ErrStaleCommand)
	err = DecodeAction(`{"action":"session","issued_at":1700009999}`, ActionSession, now, window)
	assert.ErrorIs(t, err, ErrStaleCommand)
}
