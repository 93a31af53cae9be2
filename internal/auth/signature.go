// internal/auth/signature.go
package auth

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// ed25519Scheme is the single-key authentication scheme byte appended to the public key
// before hashing it into an account address.
const ed25519Scheme = 0x00

var ErrInvalidSignature = errors.New("invalid signature")

// AddressFromPublicKey derives the 0x-prefixed account address for an ed25519 public key.
func AddressFromPublicKey(pub ed25519.PublicKey) string {
	h := sha3.New256()
	h.Write(pub)
	h.Write([]byte{ed25519Scheme})
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

// VerifySignedMessage checks that signatureHex is a valid signature of the exact message bytes
// under publicKeyHex and returns the wallet address of the signer.
func VerifySignedMessage(publicKeyHex, signatureHex, message string) (string, error) {
	pub, err := decodeHex(publicKeyHex)
	if err != nil {
		return "", fmt.Errorf("%w: public key: %v", ErrInvalidSignature, err)
	}
	if len(pub) != ed25519.PublicKeySize {
		return "", fmt.Errorf("%w: public key must be %d bytes", ErrInvalidSignature, ed25519.PublicKeySize)
	}
	sig, err := decodeHex(signatureHex)
	if err != nil {
		return "", fmt.Errorf("%w: signature: %v", ErrInvalidSignature, err)
	}
	if len(sig) != ed25519.SignatureSize {
		return "", fmt.Errorf("%w: signature must be %d bytes", ErrInvalidSignature, ed25519.SignatureSize)
	}
	if !ed25519.Verify(ed25519.PublicKey(pub), []byte(message), sig) {
		return "", ErrInvalidSignature
	}
	return AddressFromPublicKey(ed25519.PublicKey(pub)), nil
}

// SignMessage signs message and returns the hex-encoded public key and signature. It is the
// client-side counterpart of VerifySignedMessage.
func SignMessage(priv ed25519.PrivateKey, message string) (publicKeyHex, signatureHex string) {
	pub := priv.Public().(ed25519.PublicKey)
	return "0x" + hex.EncodeToString(pub), "0x" + hex.EncodeToString(ed25519.Sign(priv, []byte(message)))
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if s == "" {
		return nil, errors.New("empty value")
	}
	return hex.DecodeString(s)
}
