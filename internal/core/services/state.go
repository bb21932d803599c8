package services

import (
	"crypto/rand"
	"encoding/base64"
)

// stateBytes is the entropy of the OAuth state parameter.
const stateBytes = 32

// generateState creates a random state parameter for CSRF protection.
func generateState() (string, error) {
	bytes := make([]byte, stateBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
