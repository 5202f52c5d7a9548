package usecase

import (
	"context"
	"time"
)

// RequestPasswordResetInput names the account that forgot its password.
type RequestPasswordResetInput struct {
	Email string
}

// ResetPasswordInput carries the value from the reset link and the new password.
type ResetPasswordInput struct {
	ResetToken string
	Password   string
}

// ResetPasswordOutput holds a fresh session token for the account.
type ResetPasswordOutput struct {
	Token string
}

// PasswordResetUsecase runs the reset token handshake.
type PasswordResetUsecase interface {
	// RequestPasswordReset issues a reset token and hands the link to the notifier.
	// Unknown emails yield ErrUserNotFound. A delivery failure clears the token and yields ErrDeliveryFailed.
	RequestPasswordReset(ctx context.Context, input *RequestPasswordResetInput) error

	// ResetPassword consumes a token once. Wrong and expired tokens both yield ErrResetTokenInvalid.
	ResetPassword(ctx context.Context, input *ResetPasswordInput) (*ResetPasswordOutput, error)

	// PurgeExpired clears expired tokens and reports how many were removed.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
