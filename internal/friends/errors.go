package friends

import (
	"errors"

	"github.com/jason-s-yu/walletfriends/internal/identity"
)

var (
	// ErrIdentityMismatch covers both an unresolvable signer and an undecodable signed payload.
	ErrIdentityMismatch = identity.ErrIdentityMismatch

	// ErrNotFound is returned when the store yields no result set at all for a listing.
	ErrNotFound = errors.New("not found")

	// ErrNotParticipant is returned in participant-enforcing mode when the caller is neither
	// side of the targeted request.
	ErrNotParticipant = errors.New("caller is not a participant of the friend request")

	ErrSelfRequest      = errors.New("cannot send a friend request to yourself")
	ErrAlreadyRequested = errors.New("friend request already exists")
	ErrUnknownRecipient = errors.New("recipient wallet is not registered")
)
