package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/oauth2"
)

const (
	verifierEntropyBytes = 96
	verifierMaxLength    = 128
)

// Challenge is a PKCE verifier with its S256 challenge. It lives for a single login attempt.
type Challenge struct {
	Verifier  string
	Challenge string
}

// NewChallenge generates a random URL-safe verifier and derives its challenge.
func NewChallenge() (Challenge, error) {
	buf := make([]byte, verifierEntropyBytes)
	if _, err := rand.Read(buf); err != nil {
		return Challenge{}, fmt.Errorf("failed to generate code verifier: %w", err)
	}

	verifier := base64.RawURLEncoding.EncodeToString(buf)
	if len(verifier) > verifierMaxLength {
		verifier = verifier[:verifierMaxLength]
	}

	return Challenge{
		Verifier:  verifier,
		Challenge: ChallengeFromVerifier(verifier),
	}, nil
}

// ChallengeFromVerifier returns base64url(SHA-256(verifier)) without padding.
func ChallengeFromVerifier(verifier string) string {
	return oauth2.S256ChallengeFromVerifier(verifier)
}
