// internal/auth/session.go
package auth

import (
	"crypto/ed25519"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Sessions issues and verifies the auth_token JWTs handed out after a wallet proves ownership
// with a signed message. The token subject is the wallet address.
type Sessions struct {
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey

	// expire of 0 means tokens never expire.
	expire time.Duration
}

// NewSessions generates a fresh ed25519 key pair at runtime. Tokens it issues are only
// accepted by this process.
func NewSessions(expire time.Duration) (*Sessions, error) {
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}
	return NewSessionsFromKey(priv, expire), nil
}

// NewSessionsFromKey uses priv to sign tokens and its public half to verify them.
func NewSessionsFromKey(priv ed25519.PrivateKey, expire time.Duration) *Sessions {
	return &Sessions{
		privateKey: priv,
		publicKey:  priv.Public().(ed25519.PublicKey),
		expire:     expire,
	}
}

// NewSessionsFromPath reads a raw ed25519 key from path, either a 32-byte seed or a 64-byte
// private key. Instances sharing the file accept each other's tokens.
func NewSessionsFromPath(path string, expire time.Duration) (*Sessions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read session key file: %w", err)
	}

	var priv ed25519.PrivateKey
	switch len(data) {
	case ed25519.SeedSize:
		priv = ed25519.NewKeyFromSeed(data)
	case ed25519.PrivateKeySize:
		priv = ed25519.NewKeyFromSeed(data[:ed25519.SeedSize])
	default:
		return nil, fmt.Errorf("session key file %s has %d bytes, want %d or %d",
			path, len(data), ed25519.SeedSize, ed25519.PrivateKeySize)
	}
	return NewSessionsFromKey(priv, expire), nil
}

// MaxAge returns the cookie max-age in seconds (0 for session cookies).
func (s *Sessions) MaxAge() int {
	return int(s.expire.Seconds())
}

// CreateJWT creates a signed JWT token with "sub" = wallet and an exp claim when expiry is set.
func (s *Sessions) CreateJWT(wallet string) (string, error) {
	claims := jwt.MapClaims{
		"sub": wallet,
		"iat": time.Now().Unix(),
	}
	if s.expire > 0 {
		claims["exp"] = time.Now().Add(s.expire).Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(s.privateKey)
}

// AuthenticateJWT verifies a JWT string, returns the "sub" field if valid, else an error.
func (s *Sessions) AuthenticateJWT(tokenString string) (string, error) {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.publicKey, nil
	})
	if err != nil {
		return "", fmt.Errorf("jwt parse error: %w", err)
	}
	if !t.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid jwt claims")
	}

	wallet, ok := claims["sub"].(string)
	if !ok || wallet == "" {
		return "", fmt.Errorf("missing sub in jwt")
	}
	return wallet, nil
}
