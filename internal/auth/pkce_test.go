package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"regexp"
	"testing"
)

var base64URLNoPad = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func TestNewChallenge(t *testing.T) {
	c, err := NewChallenge()
	if err != nil {
		t.Fatalf("NewChallenge() error = %v", err)
	}

	if len(c.Verifier) != verifierMaxLength {
		t.Errorf("len(Verifier) = %d, want %d", len(c.Verifier), verifierMaxLength)
	}
	if !base64URLNoPad.MatchString(c.Verifier) {
		t.Errorf("Verifier %q is not URL-safe", c.Verifier)
	}
	if c.Challenge != ChallengeFromVerifier(c.Verifier) {
		t.Error("Challenge does not match Verifier")
	}

	other, err := NewChallenge()
	if err != nil {
		t.Fatalf("NewChallenge() error = %v", err)
	}
	if other.Verifier == c.Verifier {
		t.Error("two verifiers should not be equal")
	}
}

func TestChallengeFromVerifier(t *testing.T) {
	// RFC 7636 appendix B.
	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	want := "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"

	got := ChallengeFromVerifier(verifier)
	if got != want {
		t.Errorf("ChallengeFromVerifier() = %q, want %q", got, want)
	}
	if ChallengeFromVerifier(verifier) != got {
		t.Error("challenge derivation is not deterministic")
	}

	if len(got) != base64.RawURLEncoding.EncodedLen(sha256.Size) {
		t.Errorf("len(challenge) = %d, want %d", len(got), base64.RawURLEncoding.EncodedLen(sha256.Size))
	}
	if !base64URLNoPad.MatchString(got) {
		t.Errorf("challenge %q is not base64url without padding", got)
	}
}
