// Package identity maps verified wallet addresses to internal user ids.
package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrIdentityMismatch means the caller's wallet does not resolve to exactly one user, or the
// payload they signed is inconsistent with them. Both cases are reported the same way.
var ErrIdentityMismatch = errors.New("mismatch payload")

// UserLookup returns the ids of users registered under a wallet address.
type UserLookup interface {
	UserIDsByWallet(ctx context.Context, wallet string) ([]uuid.UUID, error)
}

// Cache stores successful wallet resolutions.
type Cache interface {
	Get(ctx context.Context, wallet string) (uuid.UUID, bool, error)
	Set(ctx context.Context, wallet string, id uuid.UUID, ttl time.Duration) error
	Forget(ctx context.Context, wallet string) error
}

type Resolver struct {
	lookup UserLookup
	cache  Cache
	ttl    time.Duration
	logger logrus.FieldLogger
}

// NewResolver builds a Resolver. cache may be nil.
func NewResolver(lookup UserLookup, cache Cache, ttl time.Duration, logger logrus.FieldLogger) *Resolver {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Resolver{lookup: lookup, cache: cache, ttl: ttl, logger: logger}
}

// Resolve returns the single user registered under wallet. Zero or several matches yield
// ErrIdentityMismatch; lookup errors are returned unchanged.
func (r *Resolver) Resolve(ctx context.Context, wallet string) (uuid.UUID, error) {
	if wallet == "" {
		return uuid.Nil, ErrIdentityMismatch
	}

	if r.cache != nil {
		id, ok, err := r.cache.Get(ctx, wallet)
		if err != nil {
			r.logger.WithError(err).WithField("wallet", wallet).Warn("wallet cache read failed")
		} else if ok {
			return id, nil
		}
	}

	ids, err := r.lookup.UserIDsByWallet(ctx, wallet)
	if err != nil {
		return uuid.Nil, err
	}
	if len(ids) != 1 {
		return uuid.Nil, ErrIdentityMismatch
	}

	if r.cache != nil && r.ttl > 0 {
		if err := r.cache.Set(ctx, wallet, ids[0], r.ttl); err != nil {
			r.logger.WithError(err).WithField("wallet", wallet).Warn("wallet cache write failed")
		}
	}
	return ids[0], nil
}

// Forget evicts any cached resolution for wallet. It must be called after the wallet's user
// row is removed, or Resolve keeps returning the old id until the entry expires.
func (r *Resolver) Forget(ctx context.Context, wallet string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Forget(ctx, wallet); err != nil {
		r.logger.WithError(err).WithField("wallet", wallet).Warn("wallet cache evict failed")
	}
}
