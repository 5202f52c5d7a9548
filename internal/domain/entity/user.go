// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is an LMS account: one per person, identified by email, holding the
// credential used for email/password sign-in and any pending password reset.
type User struct {
	ID           uuid.UUID   // The Global Unique Identifier (GUID) for the account.
	Name         string      // The display name shown in the LMS.
	Email        string      // Login identifier, stored normalized (see NormalizeEmail).
	PasswordHash string      // bcrypt digest. Empty when loaded through a public read path.
	Role         Role        // student, instructor or admin.
	ResetToken   *ResetToken // Outstanding password reset, nil when none is pending.
	CreatedAt    time.Time   // Timestamp of when this account was created.
	UpdatedAt    time.Time   // Timestamp of the last modification to this account.
}

// HasPendingReset reports whether the account holds a reset token that is still usable at now.
func (u *User) HasPendingReset(now time.Time) bool {
	return u.ResetToken != nil && u.ResetToken.IsActive(now)
}

// NormalizeEmail trims and lower-cases an email so that uniqueness and lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
