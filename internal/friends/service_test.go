package friends_test

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/walletfriends/internal/command"
	"github.com/jason-s-yu/walletfriends/internal/friends"
	"github.com/jason-s-yu/walletfriends/internal/friends/friendstest"
	"github.com/jason-s-yu/walletfriends/internal/identity"
	"github.com/jason-s-yu/walletfriends/internal/models"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sig = "0xsig"

type fixture struct {
	store    *friendstest.Store
	notifier *friendstest.Notifier
	svc      *friends.Service
	alice    uuid.UUID
	bob      uuid.UUID
}

func newFixture(t *testing.T, enforce bool) *fixture {
	t.Helper()
	store := friendstest.NewStore()
	notifier := &friendstest.Notifier{}
	logger, _ := test.NewNullLogger()

	f := &fixture{
		store:    store,
		notifier: notifier,
		alice:    store.AddUser("0xA"),
		bob:      store.AddUser("0xB"),
	}
	f.svc = friends.NewService(identity.NewResolver(store, nil, 0, logger), store, friends.Options{
		EnforceParticipant: enforce,
		Notifier:           notifier,
		Logger:             logger,
	})
	return f
}

func signed(msg string) friends.SignedCommand {
	return friends.SignedCommand{Signature: sig, Message: msg}
}

// TestAcceptScenario: A has one pending request to B with id 42, accepts it, and B shows up
// as a friend.
func TestAcceptScenario(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.store.Seed(models.FriendRequest{ID: 42, FromUserID: f.alice, ToUserID: f.bob})

	pending, err := f.svc.GetPendingRequests(ctx, "0xA")
	require.NoError(t, err)
	assert.Equal(t, []models.FriendTarget{{ToUserID: f.bob}}, pending)

	ok, err := f.svc.AcceptFriendRequest(ctx, "0xA", signed(`{"id":42}`))
	require.NoError(t, err)
	assert.True(t, ok)

	row, exists := f.store.Request(42)
	require.True(t, exists)
	assert.Equal(t, models.StatusAccepted, row.Status)

	friendsList, err := f.svc.GetUserFriends(ctx, "0xA")
	require.NoError(t, err)
	assert.Equal(t, []models.FriendTarget{{ToUserID: f.bob}}, friendsList)

	pending, err = f.svc.GetPendingRequests(ctx, "0xA")
	require.NoError(t, err)
	assert.Empty(t, pending)

	events := f.notifier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, models.EventRequestAccepted, events[0].Type)
	assert.Equal(t, models.RequestID(42), events[0].RequestID)
}

func TestFriendsAreDirected(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.store.Seed(models.FriendRequest{FromUserID: f.alice, ToUserID: f.bob, Status: models.StatusAccepted})

	bobFriends, err := f.svc.GetUserFriends(ctx, "0xB")
	require.NoError(t, err)
	assert.Empty(t, bobFriends)
}

func TestUnknownSignerIsMismatchEverywhere(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.store.Seed(models.FriendRequest{ID: 1, FromUserID: f.alice, ToUserID: f.bob})

	_, err := f.svc.GetUserFriends(ctx, "0xUNKNOWN")
	assert.ErrorIs(t, err, friends.ErrIdentityMismatch)

	_, err = f.svc.GetPendingRequests(ctx, "0xUNKNOWN")
	assert.ErrorIs(t, err, friends.ErrIdentityMismatch)

	ok, err := f.svc.CancelRequestOrRemoveFriend(ctx, "0xUNKNOWN", signed(`{"id":1}`))
	assert.ErrorIs(t, err, friends.ErrIdentityMismatch)
	assert.False(t, ok)

	ok, err = f.svc.AcceptFriendRequest(ctx, "0xUNKNOWN", signed(`{"id":1}`))
	assert.ErrorIs(t, err, friends.ErrIdentityMismatch)
	assert.False(t, ok)

	_, err = f.svc.SendFriendRequest(ctx, "0xUNKNOWN", signed(`{"to_wallet":"0xB"}`))
	assert.ErrorIs(t, err, friends.ErrIdentityMismatch)

	_, exists := f.store.Request(1)
	assert.True(t, exists, "failed calls must not mutate")
}

func TestAmbiguousWalletIsMismatch(t *testing.T) {
	f := newFixture(t, false)
	f.store.AddUser("0xA")

	_, err := f.svc.GetUserFriends(context.Background(), "0xA")
	assert.ErrorIs(t, err, friends.ErrIdentityMismatch)
}

func TestMalformedMessageIsMismatch(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	for _, msg := range []string{"", "not json", `{}`, `{"id":""}`, `{"id":"x"}`, `[42]`} {
		ok, err := f.svc.CancelRequestOrRemoveFriend(ctx, "0xA", signed(msg))
		assert.False(t, ok)
		assert.ErrorIs(t, err, friends.ErrIdentityMismatch, "cancel %q", msg)
		assert.NotErrorIs(t, err, command.ErrMalformedCommand, "cancel %q", msg)

		ok, err = f.svc.AcceptFriendRequest(ctx, "0xA", signed(msg))
		assert.False(t, ok)
		assert.ErrorIs(t, err, friends.ErrIdentityMismatch, "accept %q", msg)
		assert.NotErrorIs(t, err, command.ErrMalformedCommand, "accept %q", msg)
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	req := f.store.Seed(models.FriendRequest{FromUserID: f.alice, ToUserID: f.bob})
	msg := signed(`{"id":` + idString(req.ID) + `}`)

	ok, err := f.svc.CancelRequestOrRemoveFriend(ctx, "0xA", msg)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.CancelRequestOrRemoveFriend(ctx, "0xA", msg)
	require.NoError(t, err)
	assert.False(t, ok)

	// accepting a deleted request reports false too
	ok, err = f.svc.AcceptFriendRequest(ctx, "0xA", msg)
	require.NoError(t, err)
	assert.False(t, ok)

	events := f.notifier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, models.EventRequestRemoved, events[0].Type)
	assert.ElementsMatch(t, []uuid.UUID{f.alice, f.bob}, events[0].Recipients())
}

func TestCancelUnknownID(t *testing.T) {
	f := newFixture(t, false)

	ok, err := f.svc.CancelRequestOrRemoveFriend(context.Background(), "0xA", signed(`{"id":999}`))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, f.notifier.Events())
}

func TestRemoveAcceptedFriend(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	req := f.store.Seed(models.FriendRequest{FromUserID: f.alice, ToUserID: f.bob, Status: models.StatusAccepted})

	ok, err := f.svc.CancelRequestOrRemoveFriend(ctx, "0xB", signed(`{"id":"`+idString(req.ID)+`"}`))
	require.NoError(t, err)
	assert.True(t, ok)

	list, err := f.svc.GetUserFriends(ctx, "0xA")
	require.NoError(t, err)
	assert.Empty(t, list)
}

// TestReacceptIsIdempotentSuccess pins the re-accept policy: accepting an already accepted
// request reports true and leaves the row accepted.
func TestReacceptIsIdempotentSuccess(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	req := f.store.Seed(models.FriendRequest{FromUserID: f.alice, ToUserID: f.bob})
	msg := signed(`{"id":` + idString(req.ID) + `}`)

	for i := 0; i < 2; i++ {
		ok, err := f.svc.AcceptFriendRequest(ctx, "0xA", msg)
		require.NoError(t, err)
		assert.True(t, ok, "accept #%d", i+1)
	}
	row, _ := f.store.Request(req.ID)
	assert.Equal(t, models.StatusAccepted, row.Status)
}

// TestOwnershipNotEnforcedByDefault documents the known gap: a registered wallet that is not a
// participant can still cancel someone else's request.
func TestOwnershipNotEnforcedByDefault(t *testing.T) {
	f := newFixture(t, false)
	f.store.AddUser("0xC")
	req := f.store.Seed(models.FriendRequest{FromUserID: f.alice, ToUserID: f.bob})

	ok, err := f.svc.CancelRequestOrRemoveFriend(context.Background(), "0xC", signed(`{"id":`+idString(req.ID)+`}`))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOwnershipEnforced(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	f.store.AddUser("0xC")
	req := f.store.Seed(models.FriendRequest{FromUserID: f.alice, ToUserID: f.bob})
	msg := signed(`{"id":` + idString(req.ID) + `}`)

	ok, err := f.svc.CancelRequestOrRemoveFriend(ctx, "0xC", msg)
	assert.ErrorIs(t, err, friends.ErrNotParticipant)
	assert.False(t, ok)

	ok, err = f.svc.AcceptFriendRequest(ctx, "0xC", msg)
	assert.ErrorIs(t, err, friends.ErrNotParticipant)
	assert.False(t, ok)

	ok, err = f.svc.AcceptFriendRequest(ctx, "0xB", msg)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.CancelRequestOrRemoveFriend(ctx, "0xA", msg)
	require.NoError(t, err)
	assert.True(t, ok)

	// gone: false, not an ownership error
	ok, err = f.svc.CancelRequestOrRemoveFriend(ctx, "0xC", msg)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPendingEmptyVersusNotFound(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	pending, err := f.svc.GetPendingRequests(ctx, "0xA")
	require.NoError(t, err)
	assert.NotNil(t, pending)
	assert.Empty(t, pending)

	f.store.NilLists = true
	_, err = f.svc.GetPendingRequests(ctx, "0xA")
	assert.ErrorIs(t, err, friends.ErrNotFound)
}

func TestStoreErrorsPropagate(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	storeErr := errors.New("connection reset")
	f.store.Err = storeErr

	_, err := f.svc.GetUserFriends(ctx, "0xA")
	assert.ErrorIs(t, err, storeErr)
	assert.NotErrorIs(t, err, friends.ErrIdentityMismatch)

	_, err = f.svc.CancelRequestOrRemoveFriend(ctx, "0xA", signed(`{"id":1}`))
	assert.ErrorIs(t, err, storeErr)
}

func TestSendFriendRequest(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	row, err := f.svc.SendFriendRequest(ctx, "0xA", signed(`{"to_wallet":"0xB"}`))
	require.NoError(t, err)
	assert.Equal(t, f.alice, row.FromUserID)
	assert.Equal(t, f.bob, row.ToUserID)
	assert.Equal(t, models.StatusPending, row.Status)

	_, err = f.svc.SendFriendRequest(ctx, "0xA", signed(`{"to_wallet":"0xB"}`))
	assert.ErrorIs(t, err, friends.ErrAlreadyRequested)

	_, err = f.svc.SendFriendRequest(ctx, "0xA", signed(`{"to_wallet":"0xA"}`))
	assert.ErrorIs(t, err, friends.ErrSelfRequest)

	_, err = f.svc.SendFriendRequest(ctx, "0xA", signed(`{"to_wallet":"0xNOBODY"}`))
	assert.ErrorIs(t, err, friends.ErrUnknownRecipient)

	_, err = f.svc.SendFriendRequest(ctx, "0xA", signed(`{"id":1}`))
	assert.ErrorIs(t, err, friends.ErrIdentityMismatch)

	events := f.notifier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, models.EventRequestSent, events[0].Type)
}

func TestNotifierFailureDoesNotFailMutation(t *testing.T) {
	f := newFixture(t, false)
	f.notifier.Err = errors.New("redis down")
	req := f.store.Seed(models.FriendRequest{FromUserID: f.alice, ToUserID: f.bob})

	ok, err := f.svc.AcceptFriendRequest(context.Background(), "0xA", signed(`{"id":`+idString(req.ID)+`}`))
	require.NoError(t, err)
	assert.True(t, ok)
}

func idString(id models.RequestID) string {
	return strconv.FormatInt(int64(id), 10)
}
