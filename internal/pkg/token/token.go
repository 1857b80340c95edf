package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// tokenBytes is the entropy of verification and reset tokens. 20 random
// bytes hex-encode to a 40-character token; collisions are treated as
// negligible, so no uniqueness check against the store is made.
const tokenBytes = 20

// New generates a cryptographically random hex token for email
// verification and password reset links.
func New() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
