// internal/cache/redis.go
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// walletKeyPrefix namespaces wallet -> user id entries.
const walletKeyPrefix = "walletfriends:wallet:"

// Connect creates a Redis client for addr/db and verifies it with a ping.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// WalletCache stores resolved wallet -> user id mappings with a TTL.
type WalletCache struct {
	rdb *redis.Client
}

func NewWalletCache(rdb *redis.Client) *WalletCache {
	return &WalletCache{rdb: rdb}
}

// Get returns the cached id for wallet. ok is false on a miss.
func (c *WalletCache) Get(ctx context.Context, wallet string) (uuid.UUID, bool, error) {
	val, err := c.rdb.Get(ctx, walletKeyPrefix+wallet).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to GET wallet %s: %w", wallet, err)
	}
	id, err := uuid.Parse(val)
	if err != nil {
		// a corrupt entry is a miss; it gets overwritten on the next Set
		return uuid.Nil, false, nil
	}
	return id, true, nil
}

func (c *WalletCache) Set(ctx context.Context, wallet string, id uuid.UUID, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, walletKeyPrefix+wallet, id.String(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to SET wallet %s: %w", wallet, err)
	}
	return nil
}

// Forget drops the cached mapping for wallet.
func (c *WalletCache) Forget(ctx context.Context, wallet string) error {
	return c.rdb.Del(ctx, walletKeyPrefix+wallet).Err()
}
