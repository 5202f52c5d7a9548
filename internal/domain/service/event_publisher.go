package service

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PasswordResetNotification is the payload the notifier delivers to the account owner.
// ResetURL embeds the plaintext reset value and must never be logged or persisted.
type PasswordResetNotification struct {
	RequestID string    `json:"request_id,omitempty"` // For distributed tracing
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	ResetURL  string    `json:"reset_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Notifier delivers password reset links out of band (mail, message queue).
type Notifier interface {
	// NotifyPasswordReset hands the notification to the delivery channel.
	// An error means the owner will not receive the link.
	NotifyPasswordReset(ctx context.Context, notification *PasswordResetNotification) error

	// Close releases any resources held by the notifier
	Close() error
}
