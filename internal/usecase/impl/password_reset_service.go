package impl

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"edusmart/config"
	deliverycontext "edusmart/internal/delivery/context"
	"edusmart/internal/domain/entity"
	domainerrors "edusmart/internal/domain/errors"
	"edusmart/internal/domain/repository"
	"edusmart/internal/domain/service"
	"edusmart/internal/infra/metrics"
	"edusmart/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const resetPathPrefix = "/auth/reset-password/"

// passwordResetService implements the PasswordResetUsecase interface.
type passwordResetService struct {
	userRepo     repository.UserRepository
	hasher       service.PasswordHasher
	tokenService service.TokenService
	generator    service.ResetTokenGenerator
	notifier     service.Notifier
	frontendURL  string
	ttl          time.Duration
	now          func() time.Time
	logger       *slog.Logger
}

// PasswordResetServiceParams holds dependencies for PasswordResetService, injected by Fx.
type PasswordResetServiceParams struct {
	fx.In

	UserRepo     repository.UserRepository
	Hasher       service.PasswordHasher
	TokenService service.TokenService
	Generator    service.ResetTokenGenerator
	Notifier     service.Notifier
	Config       *config.Config
	Logger       *slog.Logger
}

// NewPasswordResetService is the constructor for passwordResetService.
func NewPasswordResetService(params PasswordResetServiceParams) usecase.PasswordResetUsecase {
	return &passwordResetService{
		userRepo:     params.UserRepo,
		hasher:       params.Hasher,
		tokenService: params.TokenService,
		generator:    params.Generator,
		notifier:     params.Notifier,
		frontendURL:  strings.TrimRight(params.Config.App.FrontendURL, "/"),
		ttl:          params.Config.ResetTokenTTL(),
		now:          time.Now,
		logger:       params.Logger,
	}
}

func (srv *passwordResetService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// RequestPasswordReset stores the digest of a fresh reset value and mails the value.
// Unknown emails are reported as ErrUserNotFound, which tells callers whether an account exists.
func (srv *passwordResetService) RequestPasswordReset(ctx context.Context, input *usecase.RequestPasswordResetInput) error {
	email := entity.NormalizeEmail(input.Email)

	user, err := srv.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			srv.log(ctx).Info("Password reset requested for unknown email", slog.String("email", email))
			metrics.RecordResetRequest(metrics.OutcomeFailure)

			return errors.Wrap(domainerrors.ErrUserNotFound, "password reset requested for unknown email")
		}
		metrics.RecordResetRequest(metrics.OutcomeError)

		return errors.Wrap(err, "failed to find user for password reset")
	}

	plain, digest, err := srv.generator.Generate()
	if err != nil {
		metrics.RecordResetRequest(metrics.OutcomeError)

		return errors.Wrap(err, "failed to generate reset token")
	}

	expiresAt := srv.now().Add(srv.ttl)
	if err := srv.userRepo.SetResetToken(ctx, user.ID, &entity.ResetToken{Digest: digest, ExpiresAt: expiresAt}); err != nil {
		metrics.RecordResetRequest(metrics.OutcomeError)

		return errors.Wrap(err, "failed to store reset token")
	}

	notification := &service.PasswordResetNotification{
		RequestID: deliverycontext.GetRequestIDFromContext(ctx),
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		ResetURL:  srv.frontendURL + resetPathPrefix + plain,
		ExpiresAt: expiresAt,
	}

	if err := srv.notifier.NotifyPasswordReset(ctx, notification); err != nil {
		srv.log(ctx).Error("Password reset delivery failed", slog.Any("userID", user.ID), slog.Any("error", err))

		// Only our own token is removed; a newer request for the same account is left intact.
		if clearErr := srv.userRepo.ClearResetToken(ctx, user.ID, digest); clearErr != nil {
			srv.log(ctx).Error("Failed to clear undelivered reset token", slog.Any("userID", user.ID), slog.Any("error", clearErr))
		}
		metrics.RecordResetRequest(metrics.OutcomeError)

		return errors.Wrap(domainerrors.ErrDeliveryFailed, err.Error())
	}

	metrics.RecordResetRequest(metrics.OutcomeSuccess)
	srv.log(ctx).Info("Password reset issued", slog.Any("userID", user.ID), slog.Time("expiresAt", expiresAt))

	return nil
}

// ResetPassword exchanges a reset value for a new password and a session token.
func (srv *passwordResetService) ResetPassword(ctx context.Context, input *usecase.ResetPasswordInput) (*usecase.ResetPasswordOutput, error) {
	if strings.TrimSpace(input.ResetToken) == "" {
		metrics.RecordResetConsumed(metrics.OutcomeFailure)

		return nil, errors.Wrap(domainerrors.ErrResetTokenInvalid, "empty reset token")
	}
	if err := srv.hasher.ValidatePasswordStrength(input.Password); err != nil {
		metrics.RecordResetConsumed(metrics.OutcomeFailure)

		return nil, errors.Wrap(domainerrors.ErrValidationFailed, err.Error())
	}

	digest := srv.generator.Digest(input.ResetToken)
	now := srv.now()

	// Cheap lookup first so garbage tokens never cost a bcrypt round.
	if _, err := srv.userRepo.FindByResetDigest(ctx, digest, now); err != nil {
		return nil, srv.rejectReset(ctx, err)
	}

	hashedPassword, err := srv.hasher.Hash(input.Password)
	if err != nil {
		metrics.RecordResetConsumed(metrics.OutcomeError)

		return nil, errors.Wrap(err, "failed to hash new password")
	}

	user, err := srv.userRepo.ConsumeResetToken(ctx, digest, now, hashedPassword)
	if err != nil {
		return nil, srv.rejectReset(ctx, err)
	}

	token, err := srv.tokenService.GenerateToken(user.ID, user.Role.String())
	if err != nil {
		metrics.RecordResetConsumed(metrics.OutcomeError)

		return nil, errors.Wrap(err, "failed to generate token")
	}

	metrics.RecordResetConsumed(metrics.OutcomeSuccess)
	srv.log(ctx).Info("Password reset completed", slog.Any("userID", user.ID))

	return &usecase.ResetPasswordOutput{Token: token}, nil
}

func (srv *passwordResetService) rejectReset(ctx context.Context, err error) error {
	if errors.Is(err, repository.ErrResetTokenNotFound) {
		srv.log(ctx).Warn("Password reset rejected", slog.String("reason", "unknown or expired token"))
		metrics.RecordResetConsumed(metrics.OutcomeFailure)

		return errors.Wrap(domainerrors.ErrResetTokenInvalid, "reset token rejected")
	}
	metrics.RecordResetConsumed(metrics.OutcomeError)

	return errors.Wrap(err, "failed to consume reset token")
}

// PurgeExpired clears expired reset tokens.
func (srv *passwordResetService) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	purged, err := srv.userRepo.PurgeExpiredResetTokens(ctx, now)
	if err != nil {
		return 0, errors.Wrap(err, "failed to purge expired reset tokens")
	}

	metrics.RecordResetTokensPurged(purged)
	srv.log(ctx).Info("Expired reset tokens purged", slog.Int64("count", purged))

	return purged, nil
}
