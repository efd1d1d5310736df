package strategy

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// stateTokenBytes is 192 bits of entropy, 48 hex characters on the wire.
const stateTokenBytes = 24

// GenerateState returns a new random, URL-safe state token.
func GenerateState() (string, error) {
	b := make([]byte, stateTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// VerifyState reports whether received matches expected. Empty values never match.
func VerifyState(expected, received string) bool {
	if expected == "" || received == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(received)) == 1
}
