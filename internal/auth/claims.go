package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo is what the access token says about its holder. The signature is
// not verified; the portal does that.
type TokenInfo struct {
	ExpiresAt time.Time
	Subject   string
	Username  string
}

// DescribeToken reads the claims of a JWT access token.
func DescribeToken(accessToken string) (TokenInfo, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return TokenInfo{}, fmt.Errorf("failed to parse access token: %w", err)
	}

	var info TokenInfo
	info.Subject, _ = claims.GetSubject()
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	if name, ok := claims["preferred_username"].(string); ok {
		info.Username = name
	}
	return info, nil
}
