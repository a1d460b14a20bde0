// Package models defines data structures and domain types.
package models

import "time"

// TokenRecord is the persisted credential set of one portal login.
// It is replaced as a whole whenever a new login completes.
type TokenRecord struct {
	ExpiresAt    time.Time
	AccessToken  string
	RefreshToken string
}

// IsValid reports whether the record is complete and expires strictly after now.
func (t *TokenRecord) IsValid(now time.Time) bool {
	if t == nil || t.AccessToken == "" || t.RefreshToken == "" {
		return false
	}
	return t.ExpiresAt.After(now)
}
