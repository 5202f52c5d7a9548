// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"
	"time"

	"edusmart/internal/domain/entity"

	"github.com/google/uuid"
)

var (
	// ErrUserNotFound is a domain-specific error returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")

	// ErrResetTokenNotFound is returned when no account holds an active reset token with the given digest.
	// Wrong and expired tokens are not distinguished.
	ErrResetTokenNotFound = errors.New("reset token not found or expired")
)

// UserRepository defines the standard operations for user persistence.
// The application layer will depend on this interface, not the concrete implementation.
type UserRepository interface {
	// FindByID retrieves a single user by their unique ID. PasswordHash is left empty.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)

	// FindByEmail retrieves a single user by normalized email. PasswordHash is left empty.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// FindCredentials retrieves a user by normalized email including the password hash.
	// Reads go to the primary so a freshly changed password is always seen.
	FindCredentials(ctx context.Context, email string) (*entity.User, error)

	// Create persists a new user entity to the storage.
	Create(ctx context.Context, user *entity.User) error

	// Update modifies name, email, role and, when non-empty, the password hash.
	Update(ctx context.Context, user *entity.User) error

	// SetResetToken stores a reset token on the account, replacing any pending one.
	SetResetToken(ctx context.Context, userID uuid.UUID, token *entity.ResetToken) error

	// ClearResetToken removes the pending reset token only if it still has the given digest.
	ClearResetToken(ctx context.Context, userID uuid.UUID, digest string) error

	// FindByResetDigest returns the account whose reset token matches digest and is unexpired at now.
	FindByResetDigest(ctx context.Context, digest string, now time.Time) (*entity.User, error)

	// ConsumeResetToken atomically sets passwordHash and clears the reset token of the
	// account matching digest whose token is still unexpired at now.
	// At most one concurrent caller can succeed for the same digest.
	ConsumeResetToken(ctx context.Context, digest string, now time.Time, passwordHash string) (*entity.User, error)

	// PurgeExpiredResetTokens clears every reset token that expired at or before now and returns how many were cleared.
	PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}
