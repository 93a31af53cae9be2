// Package friends implements the signer-authenticated friend request lifecycle.
//
// Every operation starts from a verified signer, a wallet address that upstream signature
// middleware has already authenticated. Mutations additionally carry the signed message, which
// is decoded to find the request being acted on.
//
// Cancel and accept do not, by default, check that the signer is a participant of the targeted
// request. Any registered wallet can cancel or accept any request id it knows. Set
// Options.EnforceParticipant to close that gap.
package friends

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/walletfriends/internal/command"
	"github.com/jason-s-yu/walletfriends/internal/database"
	"github.com/jason-s-yu/walletfriends/internal/models"
	"github.com/sirupsen/logrus"
)

// Resolver maps a verified wallet address to a user id.
type Resolver interface {
	Resolve(ctx context.Context, wallet string) (uuid.UUID, error)
}

// Accessor is the CRUD surface over friend requests.
type Accessor interface {
	ListByRequesterAndStatus(ctx context.Context, userID uuid.UUID, status models.FriendStatus) ([]models.FriendRequest, error)
	GetByID(ctx context.Context, id models.RequestID) (models.FriendRequest, bool, error)
	DeleteByID(ctx context.Context, id models.RequestID) (models.FriendRequest, bool, error)
	UpdateStatusByID(ctx context.Context, id models.RequestID, status models.FriendStatus) (models.FriendRequest, bool, error)
	Insert(ctx context.Context, from, to uuid.UUID) (models.FriendRequest, error)
}

// Notifier receives an event after every successful mutation.
type Notifier interface {
	Notify(ctx context.Context, ev models.FriendEvent) error
}

// SignedCommand is the raw signature and the exact message it covers.
type SignedCommand struct {
	Signature string
	Message   string
}

type Options struct {
	EnforceParticipant bool
	Notifier           Notifier
	Logger             logrus.FieldLogger
}

// Service is stateless apart from its collaborators and safe for concurrent use.
type Service struct {
	resolver Resolver
	store    Accessor
	enforce  bool
	notifier Notifier
	logger   logrus.FieldLogger
}

func NewService(resolver Resolver, store Accessor, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		resolver: resolver,
		store:    store,
		enforce:  opts.EnforceParticipant,
		notifier: opts.Notifier,
		logger:   logger,
	}
}

// GetUserFriends returns the accepted requests sent by the signer. Friendship is a directed
// edge: requests the signer received are not included.
func (s *Service) GetUserFriends(ctx context.Context, signer string) ([]models.FriendTarget, error) {
	userID, err := s.resolver.Resolve(ctx, signer)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.ListByRequesterAndStatus(ctx, userID, models.StatusAccepted)
	if err != nil {
		return nil, err
	}
	return targets(rows), nil
}

// GetPendingRequests returns the pending requests sent by the signer. An empty slice means
// there are none; ErrNotFound means the store produced no result set.
func (s *Service) GetPendingRequests(ctx context.Context, signer string) ([]models.FriendTarget, error) {
	userID, err := s.resolver.Resolve(ctx, signer)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.ListByRequesterAndStatus(ctx, userID, models.StatusPending)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		return nil, ErrNotFound
	}
	return targets(rows), nil
}

// CancelRequestOrRemoveFriend deletes the request named by the signed message. It reports
// false when no such request exists, so repeating it is harmless.
func (s *Service) CancelRequestOrRemoveFriend(ctx context.Context, signer string, cmd SignedCommand) (bool, error) {
	id, proceed, err := s.target(ctx, signer, cmd)
	if err != nil || !proceed {
		return false, err
	}

	row, removed, err := s.store.DeleteByID(ctx, id)
	if err != nil {
		return false, err
	}
	s.logger.WithFields(logrus.Fields{
		"signer":     signer,
		"request_id": id,
		"removed":    removed,
	}).Debug("cancel friend request")

	if removed {
		s.notify(ctx, models.EventRequestRemoved, row)
	}
	return removed, nil
}

// AcceptFriendRequest marks the request named by the signed message as accepted. Accepting an
// already accepted request succeeds again; a missing request reports false.
func (s *Service) AcceptFriendRequest(ctx context.Context, signer string, cmd SignedCommand) (bool, error) {
	id, proceed, err := s.target(ctx, signer, cmd)
	if err != nil || !proceed {
		return false, err
	}

	row, updated, err := s.store.UpdateStatusByID(ctx, id, models.StatusAccepted)
	if err != nil {
		return false, err
	}
	s.logger.WithFields(logrus.Fields{
		"signer":     signer,
		"request_id": id,
		"updated":    updated,
	}).Debug("accept friend request")

	if updated {
		s.notify(ctx, models.EventRequestAccepted, row)
	}
	return updated, nil
}

// SendFriendRequest creates a pending request from the signer to the wallet named in the
// signed message {"to_wallet": "..."}.
func (s *Service) SendFriendRequest(ctx context.Context, signer string, cmd SignedCommand) (models.FriendRequest, error) {
	fromID, err := s.resolver.Resolve(ctx, signer)
	if err != nil {
		return models.FriendRequest{}, err
	}
	wallet, err := command.DecodeInvite(cmd.Message)
	if err != nil {
		return models.FriendRequest{}, fmt.Errorf("%w: %v", ErrIdentityMismatch, err)
	}
	toID, err := s.resolver.Resolve(ctx, wallet)
	if errors.Is(err, ErrIdentityMismatch) {
		return models.FriendRequest{}, ErrUnknownRecipient
	}
	if err != nil {
		return models.FriendRequest{}, err
	}
	if fromID == toID {
		return models.FriendRequest{}, ErrSelfRequest
	}

	row, err := s.store.Insert(ctx, fromID, toID)
	switch {
	case errors.Is(err, database.ErrDuplicateRequest):
		return models.FriendRequest{}, ErrAlreadyRequested
	case errors.Is(err, database.ErrSameUser):
		return models.FriendRequest{}, ErrSelfRequest
	case err != nil:
		return models.FriendRequest{}, err
	}

	s.notify(ctx, models.EventRequestSent, row)
	return row, nil
}

// target resolves the signer and decodes the request id. proceed is false when
// participant enforcement finds that the request does not exist.
func (s *Service) target(ctx context.Context, signer string, cmd SignedCommand) (models.RequestID, bool, error) {
	userID, err := s.resolver.Resolve(ctx, signer)
	if err != nil {
		return 0, false, err
	}
	id, err := command.DecodeRequestID(cmd.Message)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", ErrIdentityMismatch, err)
	}
	if !s.enforce {
		return id, true, nil
	}

	row, ok, err := s.store.GetByID(ctx, id)
	if err != nil {
		return 0, false, err
	}
	if !ok {
		return id, false, nil
	}
	if !row.HasParticipant(userID) {
		return 0, false, ErrNotParticipant
	}
	return id, true, nil
}

func (s *Service) notify(ctx context.Context, eventType string, row models.FriendRequest) {
	if s.notifier == nil {
		return
	}
	ev := models.FriendEvent{
		Type:       eventType,
		RequestID:  row.ID,
		FromUserID: row.FromUserID,
		ToUserID:   row.ToUserID,
		Timestamp:  time.Now().UnixMilli(),
	}
	if err := s.notifier.Notify(ctx, ev); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"event":      eventType,
			"request_id": row.ID,
		}).Warn("failed to publish friend event")
	}
}

func targets(rows []models.FriendRequest) []models.FriendTarget {
	out := make([]models.FriendTarget, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.FriendTarget{ToUserID: r.ToUserID})
	}
	return out
}
