// internal/database/friend.go

package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jason-s-yu/walletfriends/internal/models"
)

var (
	// ErrDuplicateRequest is returned by Insert when a request between the pair already exists.
	ErrDuplicateRequest = errors.New("friend request already exists")
	// ErrSameUser is returned by Insert when from and to are the same user.
	ErrSameUser = errors.New("friend request must be between two different users")
)

const friendColumns = `id, from_user_id, to_user_id, status, created_at, updated_at`

// FriendStore is the typed accessor for the friend_requests table. Every method issues exactly
// one statement; store errors are returned as-is.
type FriendStore struct {
	db DBTX
}

func NewFriendStore(db DBTX) *FriendStore {
	return &FriendStore{db: db}
}

// ListByRequesterAndStatus returns the requests sent by userID that are currently in status.
// The result is never nil on success.
func (s *FriendStore) ListByRequesterAndStatus(ctx context.Context, userID uuid.UUID, status models.FriendStatus) ([]models.FriendRequest, error) {
	q := `
		SELECT ` + friendColumns + `
		FROM friend_requests
		WHERE from_user_id=$1 AND status=$2
	`
	rows, err := s.db.Query(ctx, q, userID, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fs := make([]models.FriendRequest, 0)
	for rows.Next() {
		f, err := scanFriendRequest(rows)
		if err != nil {
			return nil, err
		}
		fs = append(fs, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return fs, nil
}

// GetByID returns the request with id. ok is false when no such row exists.
func (s *FriendStore) GetByID(ctx context.Context, id models.RequestID) (models.FriendRequest, bool, error) {
	q := `SELECT ` + friendColumns + ` FROM friend_requests WHERE id=$1`
	f, err := scanFriendRequest(s.db.QueryRow(ctx, q, int64(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.FriendRequest{}, false, nil
	}
	if err != nil {
		return models.FriendRequest{}, false, err
	}
	return f, true, nil
}

// DeleteByID hard deletes the request. removed is true iff a row was deleted, in which case
// the deleted row is returned.
func (s *FriendStore) DeleteByID(ctx context.Context, id models.RequestID) (models.FriendRequest, bool, error) {
	q := `
		DELETE FROM friend_requests
		WHERE id=$1
		RETURNING ` + friendColumns
	f, err := scanFriendRequest(s.db.QueryRow(ctx, q, int64(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.FriendRequest{}, false, nil
	}
	if err != nil {
		return models.FriendRequest{}, false, err
	}
	return f, true, nil
}

// UpdateStatusByID sets the status of the request. updated is true iff a row matched the id;
// setting a row to the status it already has still counts as updated.
func (s *FriendStore) UpdateStatusByID(ctx context.Context, id models.RequestID, status models.FriendStatus) (models.FriendRequest, bool, error) {
	if !status.Valid() {
		return models.FriendRequest{}, false, fmt.Errorf("invalid friend status %q", status)
	}
	q := `
		UPDATE friend_requests
		SET status=$2, updated_at=NOW()
		WHERE id=$1
		RETURNING ` + friendColumns
	f, err := scanFriendRequest(s.db.QueryRow(ctx, q, int64(id), string(status)))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.FriendRequest{}, false, nil
	}
	if err != nil {
		return models.FriendRequest{}, false, err
	}
	return f, true, nil
}

// Insert creates a pending request from -> to. An existing request for the same pair is
// never modified; ErrDuplicateRequest is returned instead.
func (s *FriendStore) Insert(ctx context.Context, from, to uuid.UUID) (models.FriendRequest, error) {
	if from == to {
		return models.FriendRequest{}, ErrSameUser
	}
	q := `
		INSERT INTO friend_requests (from_user_id, to_user_id, status)
		VALUES ($1, $2, 'pending')
		ON CONFLICT (from_user_id, to_user_id) DO NOTHING
		RETURNING ` + friendColumns

	var f models.FriendRequest
	err := pgx.BeginTxFunc(ctx, s.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var scanErr error
		f, scanErr = scanFriendRequest(tx.QueryRow(ctx, q, from, to))
		return scanErr
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return models.FriendRequest{}, ErrDuplicateRequest
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23514" {
		return models.FriendRequest{}, ErrSameUser
	}
	if err != nil {
		return models.FriendRequest{}, fmt.Errorf("failed to insert friend request: %w", err)
	}
	return f, nil
}

func scanFriendRequest(row pgx.Row) (models.FriendRequest, error) {
	var (
		f      models.FriendRequest
		id     int64
		status string
	)
	if err := row.Scan(&id, &f.FromUserID, &f.ToUserID, &status, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return models.FriendRequest{}, err
	}
	f.ID = models.RequestID(id)
	f.Status = models.FriendStatus(status)
	return f, nil
}
