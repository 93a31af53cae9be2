package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{
		"PORT", "DATABASE_URL", "DB_MIGRATE", "REDIS_ADDR", "REDIS_DB", "FRIEND_EVENTS_CHANNEL",
		"RESOLVER_CACHE_TTL", "TOKEN_EXPIRE_TIME", "ENFORCE_PARTICIPANT", "LOG_LEVEL",
		"SESSION_KEY_PATH", "SIGNED_MESSAGE_WINDOW", "ALLOWED_ORIGINS",
		"POSTGRES_USER", "POSTGRES_PASSWORD", "PG_HOST", "PG_PORT", "PG_DATABASE",
	} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres://:@localhost:5432/", cfg.DatabaseURL)
	assert.False(t, cfg.Migrate)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, "friend_events", cfg.EventsChannel)
	assert.Equal(t, 5*time.Minute, cfg.ResolverCacheTTL)
	assert.Equal(t, 72*time.Hour, cfg.TokenExpire)
	assert.Empty(t, cfg.SessionKeyPath)
	assert.Equal(t, 5*time.Minute, cfg.MessageWindow)
	assert.Empty(t, cfg.AllowedOrigins)
	assert.False(t, cfg.EnforceParticipant)
	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/friends")
	t.Setenv("DB_MIGRATE", "true")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("RESOLVER_CACHE_TTL", "30s")
	t.Setenv("TOKEN_EXPIRE_TIME", "24h")
	t.Setenv("SESSION_KEY_PATH", "/run/secrets/session.key")
	t.Setenv("SIGNED_MESSAGE_WINDOW", "30s")
	t.Setenv("ALLOWED_ORIGINS", "app.example.com, *.example.org,,")
	t.Setenv("ENFORCE_PARTICIPANT", "1")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "postgres://u:p@db:5432/friends", cfg.DatabaseURL)
	assert.True(t, cfg.Migrate)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 30*time.Second, cfg.ResolverCacheTTL)
	assert.Equal(t, 24*time.Hour, cfg.TokenExpire)
	assert.Equal(t, "/run/secrets/session.key", cfg.SessionKeyPath)
	assert.Equal(t, 30*time.Second, cfg.MessageWindow)
	assert.Equal(t, []string{"app.example.com", "*.example.org"}, cfg.AllowedOrigins)
	assert.True(t, cfg.EnforceParticipant)
	assert.Equal(t, logrus.DebugLevel, cfg.LogLevel)
}

func TestTokenExpireNever(t *testing.T) {
	t.Setenv("RESOLVER_CACHE_TTL", "")
	t.Setenv("SIGNED_MESSAGE_WINDOW", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("TOKEN_EXPIRE_TIME", "never")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Zero(t, cfg.TokenExpire)
}

func TestLoadRejectsBadDurations(t *testing.T) {
	t.Setenv("RESOLVER_CACHE_TTL", "")
	t.Setenv("SIGNED_MESSAGE_WINDOW", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("TOKEN_EXPIRE_TIME", "soon")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("TOKEN_EXPIRE_TIME", "never")
	t.Setenv("RESOLVER_CACHE_TTL", "forever")
	_, err = Load()
	assert.Error(t, err)
}
