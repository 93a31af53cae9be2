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

// ErrWalletTaken is returned by CreateUser when the wallet address is already registered.
var ErrWalletTaken = errors.New("wallet address already registered")

// UserStore reads and registers rows in the users table.
type UserStore struct {
	db DBTX
}

func NewUserStore(db DBTX) *UserStore {
	return &UserStore{db: db}
}

// UserIDsByWallet returns the ids of users registered with wallet. At most two ids are
// returned, which is enough for callers to tell a unique match from an ambiguous one.
func (s *UserStore) UserIDsByWallet(ctx context.Context, wallet string) ([]uuid.UUID, error) {
	q := `
		SELECT id
		FROM users
		WHERE wallet_address=$1
		LIMIT 2
	`
	rows, err := s.db.Query(ctx, q, wallet)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetUserByWallet returns the full user row for wallet, or pgx.ErrNoRows.
func (s *UserStore) GetUserByWallet(ctx context.Context, wallet string) (*models.User, error) {
	var u models.User
	q := `
	SELECT id, wallet_address, username, created_at
	FROM users
	WHERE wallet_address=$1
	`
	err := s.db.QueryRow(ctx, q, wallet).Scan(&u.ID, &u.WalletAddress, &u.Username, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// DeleteUserByWallet removes the user registered under wallet. Their friend requests go with
// them through ON DELETE CASCADE. It reports whether a row was removed.
func (s *UserStore) DeleteUserByWallet(ctx context.Context, wallet string) (bool, error) {
	q := `DELETE FROM users WHERE wallet_address=$1`
	tag, err := s.db.Exec(ctx, q, wallet)
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// CreateUser inserts user, assigning a fresh id when none is set.
func (s *UserStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate user id: %w", err)
		}
		user.ID = id
	}

	q := `INSERT INTO users (id, wallet_address, username)
	      VALUES ($1, $2, $3)
	      RETURNING created_at`

	err := pgx.BeginTxFunc(ctx, s.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, q, user.ID, user.WalletAddress, user.Username).Scan(&user.CreatedAt)
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrWalletTaken
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}
