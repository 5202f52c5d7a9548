package entity

import "time"

// ResetToken is the stored half of a password reset handshake. Only the
// SHA-256 digest of the value mailed to the user is kept; the digest and the
// expiry are always set or cleared together.
type ResetToken struct {
	Digest    string
	ExpiresAt time.Time
}

// IsActive reports whether the token can still be consumed at now.
func (t *ResetToken) IsActive(now time.Time) bool {
	return t != nil && t.Digest != "" && now.Before(t.ExpiresAt)
}
