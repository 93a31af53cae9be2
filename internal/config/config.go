// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Config holds everything the server reads from the environment at startup.
// Values are typically provided via a .env file loaded by godotenv/autoload.
type Config struct {
	Port string

	DatabaseURL string
	Migrate     bool

	// RedisAddr empty disables the wallet cache and the cross-instance event bus.
	RedisAddr     string
	RedisDB       int
	EventsChannel string

	ResolverCacheTTL time.Duration

	// TokenExpire of 0 means session tokens never expire. Defaults to 72h.
	TokenExpire time.Duration
	// SessionKeyPath points at a shared ed25519 key. Empty means a random per-process key.
	SessionKeyPath string
	// MessageWindow bounds how far issued_at in a signed session or delete request may be from now.
	MessageWindow time.Duration

	// AllowedOrigins are extra host patterns accepted on the websocket handshake.
	AllowedOrigins []string

	// EnforceParticipant makes cancel/accept verify the caller is a party to the request.
	EnforceParticipant bool

	LogLevel logrus.Level
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        databaseURL(),
		Migrate:            getEnvBool("DB_MIGRATE", false),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		EventsChannel:      getEnv("FRIEND_EVENTS_CHANNEL", "friend_events"),
		EnforceParticipant: getEnvBool("ENFORCE_PARTICIPANT", false),
		SessionKeyPath:     os.Getenv("SESSION_KEY_PATH"),
		AllowedOrigins:     splitList(os.Getenv("ALLOWED_ORIGINS")),
	}

	ttl, err := time.ParseDuration(getEnv("RESOLVER_CACHE_TTL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse RESOLVER_CACHE_TTL: %w", err)
	}
	cfg.ResolverCacheTTL = ttl

	cfg.TokenExpire, err = parseTokenExpireTime(getEnv("TOKEN_EXPIRE_TIME", "72h"))
	if err != nil {
		return nil, err
	}

	cfg.MessageWindow, err = time.ParseDuration(getEnv("SIGNED_MESSAGE_WINDOW", "5m"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse SIGNED_MESSAGE_WINDOW: %w", err)
	}

	cfg.LogLevel, err = logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse LOG_LEVEL: %w", err)
	}

	return cfg, nil
}

// databaseURL prefers DATABASE_URL and falls back to the individual POSTGRES_/PG_ variables.
func databaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		os.Getenv("POSTGRES_USER"),
		os.Getenv("POSTGRES_PASSWORD"),
		getEnv("PG_HOST", "localhost"),
		getEnv("PG_PORT", "5432"),
		os.Getenv("PG_DATABASE"),
	)
}

// parseTokenExpireTime accepts "never", "0" or any time.ParseDuration string.
func parseTokenExpireTime(duration string) (time.Duration, error) {
	if duration == "never" || duration == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(duration)
	if err != nil {
		return 0, fmt.Errorf("failed to parse token expire time: %w", err)
	}
	return d, nil
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// splitList splits a comma separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvBool(key string, def bool) bool {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return v
}
