package impl

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"edusmart/config"
	"edusmart/internal/domain/repository"
	"edusmart/internal/domain/service"
	"edusmart/internal/infra/auth"
	"edusmart/internal/infra/persistence/memory"
	"edusmart/internal/usecase"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testFrontendURL = "http://localhost:5173"

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig() *config.Config {
	cfg := &config.Config{
		Auth: &config.AuthConfig{BcryptCost: bcrypt.MinCost},
	}
	cfg.SecretKey.Access = "test_access_secret_key_very_long_for_testing"
	cfg.App.FrontendURL = testFrontendURL + "/"

	return cfg
}

// mockNotifier records reset notifications.
type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyPasswordReset(ctx context.Context, notification *service.PasswordResetNotification) error {
	args := m.Called(ctx, notification)

	return args.Error(0)
}

func (m *mockNotifier) Close() error {
	return nil
}

// failingTxManager fails every transaction before running it.
type failingTxManager struct {
	err error
}

func (f *failingTxManager) Execute(context.Context, func(repository.RepositoryFactory) error) error {
	return f.err
}

// serviceFixtures wires every usecase on the memory store with real hashing and tokens.
type serviceFixtures struct {
	store        *memory.Store
	hasher       service.PasswordHasher
	tokenService service.TokenService
	generator    service.ResetTokenGenerator
	notifier     *mockNotifier
	users        usecase.UserUsecase
	resets       *passwordResetService
	profiles     usecase.ProfileUsecase
}

func newServiceFixtures(t *testing.T) *serviceFixtures {
	t.Helper()

	cfg := newTestConfig()
	logger := newDiscardLogger()
	store := memory.NewStore()
	txManager := memory.NewTransactionManager(store)
	hasher := auth.NewBcryptHasher(cfg)
	tokenService, err := auth.NewJWTService(cfg)
	require.NoError(t, err)
	generator := auth.NewResetTokenGenerator()
	notifier := &mockNotifier{}

	resets := NewPasswordResetService(PasswordResetServiceParams{
		UserRepo:     store,
		Hasher:       hasher,
		TokenService: tokenService,
		Generator:    generator,
		Notifier:     notifier,
		Config:       cfg,
		Logger:       logger,
	}).(*passwordResetService)

	return &serviceFixtures{
		store:        store,
		hasher:       hasher,
		tokenService: tokenService,
		generator:    generator,
		notifier:     notifier,
		users: NewUserService(UserServiceParams{
			TxManager:    txManager,
			UserRepo:     store,
			Hasher:       hasher,
			TokenService: tokenService,
			Logger:       logger,
		}),
		resets: resets,
		profiles: NewProfileService(ProfileServiceParams{
			TxManager: txManager,
			UserRepo:  store,
			Hasher:    hasher,
			Logger:    logger,
		}),
	}
}

func (f *serviceFixtures) register(t *testing.T, name, email, password string) *usecase.AuthOutput {
	t.Helper()

	out, err := f.users.RegisterUser(context.Background(), &usecase.RegisterUserInput{Name: name, Email: email, Password: password})
	require.NoError(t, err)

	return out
}

// captureResets makes the notifier succeed and returns the delivered notifications.
func (f *serviceFixtures) captureResets() *[]*service.PasswordResetNotification {
	var delivered []*service.PasswordResetNotification
	f.notifier.On("NotifyPasswordReset", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			delivered = append(delivered, args.Get(1).(*service.PasswordResetNotification))
		}).
		Return(nil)

	return &delivered
}

func (f *serviceFixtures) setNow(now time.Time) {
	f.resets.now = func() time.Time { return now }
}
