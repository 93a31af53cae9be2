// Package command decodes the JSON payloads that callers sign before mutating friend requests.
//
// The decoder always receives the exact message bytes that were covered by the signature, so
// the intent that is executed is the intent that was signed. Keys are matched exactly.
package command

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jason-s-yu/walletfriends/internal/models"
)

var (
	// ErrMalformedCommand is returned when a signed message does not carry the expected fields.
	ErrMalformedCommand = errors.New("malformed command")
	// ErrStaleCommand is returned when a signed action was issued outside the accepted window.
	ErrStaleCommand = errors.New("stale command")
)

// Actions that must be signed as {"action":<name>,"issued_at":<unix seconds>}.
const (
	ActionSession    = "session"
	ActionDeleteUser = "delete_user"
)

// DecodeRequestID extracts the friend request id from a signed message such as {"id":42}.
// The id may be a JSON number or a numeric string and must be positive.
func DecodeRequestID(message string) (models.RequestID, error) {
	fields, err := decodeFields(message)
	if err != nil {
		return 0, err
	}
	raw := bytes.TrimSpace(fields["id"])
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, fmt.Errorf("%w: missing id", ErrMalformedCommand)
	}

	var text string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, fmt.Errorf("%w: invalid id: %v", ErrMalformedCommand, err)
		}
		text = strings.TrimSpace(text)
	} else {
		text = string(raw)
	}
	if text == "" {
		return 0, fmt.Errorf("%w: empty id", ErrMalformedCommand)
	}

	id, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: id %q is not an integer", ErrMalformedCommand, text)
	}
	if id <= 0 {
		return 0, fmt.Errorf("%w: id must be positive", ErrMalformedCommand)
	}
	return models.RequestID(id), nil
}

// DecodeInvite extracts the recipient wallet from a signed message such as {"to_wallet":"0x.."}.
func DecodeInvite(message string) (string, error) {
	fields, err := decodeFields(message)
	if err != nil {
		return "", err
	}
	wallet, err := stringField(fields, "to_wallet")
	if err != nil {
		return "", err
	}
	return wallet, nil
}

// DecodeProfile extracts the username from a signed registration message such as
// {"username":"alice"}. The username must be a non-blank string.
func DecodeProfile(message string) (string, error) {
	fields, err := decodeFields(message)
	if err != nil {
		return "", err
	}
	return stringField(fields, "username")
}

// DecodeAction checks that message is a signed request for action issued within window of now.
func DecodeAction(message, action string, now time.Time, window time.Duration) error {
	fields, err := decodeFields(message)
	if err != nil {
		return err
	}
	got, err := stringField(fields, "action")
	if err != nil {
		return err
	}
	if got != action {
		return fmt.Errorf("%w: expected action %q, got %q", ErrMalformedCommand, action, got)
	}

	raw := bytes.TrimSpace(fields["issued_at"])
	if len(raw) == 0 {
		return fmt.Errorf("%w: missing issued_at", ErrMalformedCommand)
	}
	issuedAt, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: issued_at must be unix seconds", ErrMalformedCommand)
	}

	skew := now.Sub(time.Unix(issuedAt, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > window {
		return fmt.Errorf("%w: issued %s away from now", ErrStaleCommand, skew.Truncate(time.Second))
	}
	return nil
}

// decodeFields unmarshals message into its top-level keys, requiring a single JSON object.
func decodeFields(message string) (map[string]json.RawMessage, error) {
	trimmed := strings.TrimSpace(message)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, fmt.Errorf("%w: payload is not a JSON object", ErrMalformedCommand)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCommand, err)
	}
	return fields, nil
}

// stringField returns the trimmed string stored under key, which must be present and non-blank.
func stringField(fields map[string]json.RawMessage, key string) (string, error) {
	raw, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("%w: missing %s", ErrMalformedCommand, key)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%w: %s must be a string", ErrMalformedCommand, key)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: empty %s", ErrMalformedCommand, key)
	}
	return s, nil
}
