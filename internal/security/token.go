package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/blake2b"
)

const SessionTokenBytes = 32

// NewSessionToken returns SessionTokenBytes of entropy hex encoded
// (64 characters).
func NewSessionToken() (string, error) {
	return newSessionTokenFrom(rand.Reader)
}

func newSessionTokenFrom(r io.Reader) (string, error) {
	buf := make([]byte, SessionTokenBytes)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("read token entropy: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// FingerprintToken is a stable, non-reversible key for a bearer token, used
// wherever a token would otherwise be written to logs or cache keys.
func FingerprintToken(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
