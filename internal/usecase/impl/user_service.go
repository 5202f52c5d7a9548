// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"strings"
	"sync"

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

// timingEqualizer is hashed once and checked against when the email is unknown,
// so unknown accounts cost the same bcrypt work as wrong passwords.
const timingEqualizer = "edusmart-login-timing-equalizer"

// userService implements the UserUsecase interface.
type userService struct {
	txManager    repository.TransactionManager
	userRepo     repository.UserRepository
	hasher       service.PasswordHasher
	tokenService service.TokenService
	logger       *slog.Logger

	dummyHash func() string
}

// UserServiceParams holds dependencies for UserService, injected by Fx.
type UserServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	UserRepo     repository.UserRepository
	Hasher       service.PasswordHasher
	TokenService service.TokenService
	Logger       *slog.Logger
}

// NewUserService is the constructor for userService. It receives all dependencies as interfaces.
func NewUserService(params UserServiceParams) usecase.UserUsecase {
	return &userService{
		txManager:    params.TxManager,
		userRepo:     params.UserRepo,
		hasher:       params.Hasher,
		tokenService: params.TokenService,
		logger:       params.Logger,
		dummyHash: sync.OnceValue(func() string {
			hash, _ := params.Hasher.Hash(timingEqualizer)

			return hash
		}),
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *userService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// RegisterUser creates a student account with a freshly hashed password and signs it in.
func (srv *userService) RegisterUser(ctx context.Context, input *usecase.RegisterUserInput) (*usecase.AuthOutput, error) {
	email := entity.NormalizeEmail(input.Email)
	name := strings.TrimSpace(input.Name)
	srv.log(ctx).Info("Starting registration", slog.String("email", email))

	if name == "" || email == "" {
		return nil, errors.Wrap(domainerrors.ErrValidationFailed, "name and email are required")
	}
	if err := srv.hasher.ValidatePasswordStrength(input.Password); err != nil {
		srv.log(ctx).Warn("Password validation failed during registration", slog.String("email", email), slog.Any("error", err))
		metrics.RecordRegistration(metrics.OutcomeFailure)

		return nil, errors.Wrap(domainerrors.ErrValidationFailed, err.Error())
	}

	hashedPassword, err := srv.hasher.Hash(input.Password)
	if err != nil {
		srv.log(ctx).Error("Failed to hash password during registration", slog.Any("error", err))
		metrics.RecordRegistration(metrics.OutcomeError)

		return nil, errors.Wrap(err, "failed to hash password during registration")
	}

	newUser := &entity.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         entity.DefaultRole,
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.NewUserRepository()

		_, findErr := userRepo.FindByEmail(ctx, email)
		if findErr == nil {
			return errors.Wrap(domainerrors.ErrUserAlreadyExists, "email already registered")
		}
		if !errors.Is(findErr, repository.ErrUserNotFound) {
			return errors.Wrap(findErr, "failed to check existing user")
		}

		// The unique index still decides a race between two registrations.
		return userRepo.Create(ctx, newUser)
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrUserAlreadyExists) {
			srv.log(ctx).Warn("Registration rejected, email already registered", slog.String("email", email))
			metrics.RecordRegistration(metrics.OutcomeFailure)

			return nil, err
		}
		srv.log(ctx).Error("Failed to execute registration transaction", slog.String("email", email), slog.Any("error", err))
		metrics.RecordRegistration(metrics.OutcomeError)

		return nil, errors.Wrap(err, "failed to execute user registration transaction")
	}

	token, err := srv.tokenService.GenerateToken(newUser.ID, newUser.Role.String())
	if err != nil {
		metrics.RecordRegistration(metrics.OutcomeError)

		return nil, errors.Wrap(err, "failed to generate token")
	}

	metrics.RecordRegistration(metrics.OutcomeSuccess)
	srv.log(ctx).Debug("Registration completed", slog.Any("userID", newUser.ID))

	return &usecase.AuthOutput{User: publicUser(newUser), Token: token}, nil
}

// Login checks the credential against the primary and issues a session token.
func (srv *userService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.AuthOutput, error) {
	email := entity.NormalizeEmail(input.Email)
	srv.log(ctx).Debug("Starting user login", slog.String("email", email))

	user, err := srv.userRepo.FindCredentials(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			srv.hasher.Check(input.Password, srv.dummyHash())
			srv.log(ctx).Warn("Login failed", slog.String("email", email), slog.String("reason", "unknown email"))
			metrics.RecordLogin(metrics.OutcomeFailure)

			return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "login failed")
		}
		srv.log(ctx).Error("Login failed", slog.String("email", email), slog.Any("error", err))
		metrics.RecordLogin(metrics.OutcomeError)

		return nil, errors.Wrap(err, "failed to load login credentials from primary")
	}

	// bcrypt is CPU-bound, kept outside any transaction.
	if !srv.hasher.Check(input.Password, user.PasswordHash) {
		srv.log(ctx).Warn("Login failed", slog.String("email", email), slog.String("reason", "password mismatch"))
		metrics.RecordLogin(metrics.OutcomeFailure)

		return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "login failed")
	}

	token, err := srv.tokenService.GenerateToken(user.ID, user.Role.String())
	if err != nil {
		metrics.RecordLogin(metrics.OutcomeError)

		return nil, errors.Wrap(err, "failed to generate token")
	}

	metrics.RecordLogin(metrics.OutcomeSuccess)
	srv.log(ctx).Debug("User logged in successfully", slog.Any("userID", user.ID))

	return &usecase.AuthOutput{User: publicUser(user), Token: token}, nil
}

// publicUser strips the credential and reset state before a user leaves the usecase layer.
func publicUser(user *entity.User) *entity.User {
	copied := *user
	copied.PasswordHash = ""
	copied.ResetToken = nil

	return &copied
}
