// Package friendstest provides in-memory stand-ins for the Postgres stores, for use in tests.
package friendstest

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/walletfriends/internal/database"
	"github.com/jason-s-yu/walletfriends/internal/models"
)

// Store is an in-memory users + friend_requests pair. It satisfies identity.UserLookup and
// friends.Accessor with the same semantics as the Postgres stores.
type Store struct {
	mu       sync.Mutex
	users    []models.User
	requests map[models.RequestID]models.FriendRequest
	nextID   models.RequestID

	// Err, when set, is returned by every call.
	Err error
	// NilLists makes ListByRequesterAndStatus return a nil slice.
	NilLists bool
}

func NewStore() *Store {
	return &Store{
		requests: make(map[models.RequestID]models.FriendRequest),
		nextID:   1,
	}
}

// AddUser registers a user for wallet and returns its id. Adding the same wallet twice creates
// an ambiguous mapping, which the resolver must reject.
func (s *Store) AddUser(wallet string) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := models.User{ID: uuid.New(), WalletAddress: wallet, CreatedAt: time.Now()}
	s.users = append(s.users, u)
	return u.ID
}

// Seed stores req as-is. A zero ID is replaced with the next free id.
func (s *Store) Seed(req models.FriendRequest) models.FriendRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.ID == 0 {
		req.ID = s.nextID
	}
	if req.ID >= s.nextID {
		s.nextID = req.ID + 1
	}
	if req.Status == "" {
		req.Status = models.StatusPending
	}
	s.requests[req.ID] = req
	return req
}

// Request returns the stored row for id.
func (s *Store) Request(id models.RequestID) (models.FriendRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	return r, ok
}

func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for _, u := range s.users {
		if u.WalletAddress == user.WalletAddress {
			return database.ErrWalletTaken
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	s.users = append(s.users, *user)
	return nil
}

// GetUserByWallet returns pgx.ErrNoRows for an unknown wallet, like the Postgres store.
func (s *Store) GetUserByWallet(_ context.Context, wallet string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, u := range s.users {
		if u.WalletAddress == wallet {
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

// DeleteUserByWallet removes every user under wallet along with their friend requests.
func (s *Store) DeleteUserByWallet(_ context.Context, wallet string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	gone := make(map[uuid.UUID]bool)
	kept := s.users[:0]
	for _, u := range s.users {
		if u.WalletAddress == wallet {
			gone[u.ID] = true
			continue
		}
		kept = append(kept, u)
	}
	s.users = kept
	for id, r := range s.requests {
		if gone[r.FromUserID] || gone[r.ToUserID] {
			delete(s.requests, id)
		}
	}
	return len(gone) > 0, nil
}

func (s *Store) UserIDsByWallet(_ context.Context, wallet string) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var ids []uuid.UUID
	for _, u := range s.users {
		if u.WalletAddress == wallet {
			ids = append(ids, u.ID)
		}
		if len(ids) == 2 {
			break
		}
	}
	return ids, nil
}

func (s *Store) ListByRequesterAndStatus(_ context.Context, userID uuid.UUID, status models.FriendStatus) ([]models.FriendRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if s.NilLists {
		return nil, nil
	}
	out := make([]models.FriendRequest, 0)
	for _, r := range s.requests {
		if r.FromUserID == userID && r.Status == status {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) GetByID(_ context.Context, id models.RequestID) (models.FriendRequest, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return models.FriendRequest{}, false, s.Err
	}
	r, ok := s.requests[id]
	return r, ok, nil
}

func (s *Store) DeleteByID(_ context.Context, id models.RequestID) (models.FriendRequest, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return models.FriendRequest{}, false, s.Err
	}
	r, ok := s.requests[id]
	if !ok {
		return models.FriendRequest{}, false, nil
	}
	delete(s.requests, id)
	return r, true, nil
}

func (s *Store) UpdateStatusByID(_ context.Context, id models.RequestID, status models.FriendStatus) (models.FriendRequest, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return models.FriendRequest{}, false, s.Err
	}
	r, ok := s.requests[id]
	if !ok {
		return models.FriendRequest{}, false, nil
	}
	r.Status = status
	r.UpdatedAt = time.Now()
	s.requests[id] = r
	return r, true, nil
}

func (s *Store) Insert(_ context.Context, from, to uuid.UUID) (models.FriendRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return models.FriendRequest{}, s.Err
	}
	if from == to {
		return models.FriendRequest{}, database.ErrSameUser
	}
	for _, r := range s.requests {
		if r.FromUserID == from && r.ToUserID == to {
			return models.FriendRequest{}, database.ErrDuplicateRequest
		}
	}
	now := time.Now()
	r := models.FriendRequest{
		ID:         s.nextID,
		FromUserID: from,
		ToUserID:   to,
		Status:     models.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.requests[r.ID] = r
	s.nextID++
	return r, nil
}

// Notifier records every event it is handed.
type Notifier struct {
	mu     sync.Mutex
	events []models.FriendEvent
	Err    error
}

func (n *Notifier) Notify(_ context.Context, ev models.FriendEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return n.Err
}

func (n *Notifier) Events() []models.FriendEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]models.FriendEvent(nil), n.events...)
}
