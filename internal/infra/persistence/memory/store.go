// Package memory is an in-process credential store for development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"edusmart/internal/domain/entity"
	domainerrors "edusmart/internal/domain/errors"
	"edusmart/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Store keeps accounts in a map guarded by one mutex.
// Each compare-and-set method runs under the lock, which gives the same single-winner
// guarantee as the conditional UPDATE in the postgres store. Transactions hold the
// same lock for their whole duration, so no write can interleave with one.
type Store struct {
	mu   sync.Mutex
	data accounts
}

// accounts is the unlocked view of the store. Callers must hold Store.mu.
type accounts struct {
	users map[uuid.UUID]*entity.User
	now   func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		data: accounts{
			users: make(map[uuid.UUID]*entity.User),
			now:   time.Now,
		},
	}
}

// NewUserRepository returns the store as a repository.UserRepository.
func NewUserRepository(s *Store) repository.UserRepository {
	return s
}

// FindByID retrieves a single user by their unique ID.
func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.data.FindByID(ctx, id)
}

// FindByEmail retrieves a single user by normalized email.
func (s *Store) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.data.FindByEmail(ctx, email)
}

// FindCredentials retrieves a user including the password hash.
func (s *Store) FindCredentials(ctx context.Context, email string) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.data.FindCredentials(ctx, email)
}

// Create persists a new user entity.
func (s *Store) Create(ctx context.Context, user *entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.data.Create(ctx, user)
}

// Update writes name, email, role and, when set, the password hash.
func (s *Store) Update(ctx context.Context, user *entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.data.Update(ctx, user)
}

// SetResetToken replaces any pending reset token.
func (s *Store) SetResetToken(ctx context.Context, userID uuid.UUID, token *entity.ResetToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.data.SetResetToken(ctx, userID, token)
}

// ClearResetToken removes the pending reset token if it still carries digest.
func (s *Store) ClearResetToken(ctx context.Context, userID uuid.UUID, digest string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.data.ClearResetToken(ctx, userID, digest)
}

// FindByResetDigest returns the account holding an active token with digest.
func (s *Store) FindByResetDigest(ctx context.Context, digest string, now time.Time) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.data.FindByResetDigest(ctx, digest, now)
}

// ConsumeResetToken swaps the password and clears the token under the lock.
func (s *Store) ConsumeResetToken(ctx context.Context, digest string, now time.Time, passwordHash string) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.data.ConsumeResetToken(ctx, digest, now, passwordHash)
}

// PurgeExpiredResetTokens clears every token that expired at or before now.
func (s *Store) PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.data.PurgeExpiredResetTokens(ctx, now)
}

func (a *accounts) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	user, ok := a.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}

	return publicCopy(user), nil
}

func (a *accounts) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	user := a.byEmail(entity.NormalizeEmail(email))
	if user == nil {
		return nil, repository.ErrUserNotFound
	}

	return publicCopy(user), nil
}

func (a *accounts) FindCredentials(_ context.Context, email string) (*entity.User, error) {
	user := a.byEmail(entity.NormalizeEmail(email))
	if user == nil {
		return nil, repository.ErrUserNotFound
	}

	return cloneUser(user), nil
}

func (a *accounts) Create(_ context.Context, user *entity.User) error {
	if user.PasswordHash == "" {
		return domainerrors.ErrUserCreationFailed.WrapMessage("password hash is required")
	}

	email := entity.NormalizeEmail(user.Email)
	if a.byEmail(email) != nil {
		return domainerrors.ErrUserAlreadyExists.WrapMessage("email already exists")
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := a.now()
	user.Email = email
	user.CreatedAt = now
	user.UpdatedAt = now

	a.users[user.ID] = cloneUser(user)

	return nil
}

func (a *accounts) Update(_ context.Context, user *entity.User) error {
	stored, ok := a.users[user.ID]
	if !ok {
		return repository.ErrUserNotFound
	}

	email := entity.NormalizeEmail(user.Email)
	if other := a.byEmail(email); other != nil && other.ID != user.ID {
		return domainerrors.ErrUserAlreadyExists.WrapMessage("email already exists")
	}

	stored.Name = user.Name
	stored.Email = email
	stored.Role = user.Role
	if user.PasswordHash != "" {
		stored.PasswordHash = user.PasswordHash
	}
	stored.UpdatedAt = a.now()
	user.UpdatedAt = stored.UpdatedAt

	return nil
}

func (a *accounts) SetResetToken(_ context.Context, userID uuid.UUID, token *entity.ResetToken) error {
	if token == nil || token.Digest == "" {
		return errors.New("reset token must carry a digest")
	}

	stored, ok := a.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}

	copied := *token
	stored.ResetToken = &copied
	stored.UpdatedAt = a.now()

	return nil
}

func (a *accounts) ClearResetToken(_ context.Context, userID uuid.UUID, digest string) error {
	stored, ok := a.users[userID]
	if !ok || stored.ResetToken == nil || stored.ResetToken.Digest != digest {
		return nil
	}

	stored.ResetToken = nil
	stored.UpdatedAt = a.now()

	return nil
}

func (a *accounts) FindByResetDigest(_ context.Context, digest string, now time.Time) (*entity.User, error) {
	user := a.byActiveDigest(digest, now)
	if user == nil {
		return nil, repository.ErrResetTokenNotFound
	}

	return publicCopy(user), nil
}

func (a *accounts) ConsumeResetToken(_ context.Context, digest string, now time.Time, passwordHash string) (*entity.User, error) {
	user := a.byActiveDigest(digest, now)
	if user == nil {
		return nil, repository.ErrResetTokenNotFound
	}

	user.PasswordHash = passwordHash
	user.ResetToken = nil
	user.UpdatedAt = now

	return publicCopy(user), nil
}

func (a *accounts) PurgeExpiredResetTokens(_ context.Context, now time.Time) (int64, error) {
	var purged int64
	for _, user := range a.users {
		if user.ResetToken != nil && !user.ResetToken.IsActive(now) {
			user.ResetToken = nil
			user.UpdatedAt = now
			purged++
		}
	}

	return purged, nil
}

func (a *accounts) byEmail(email string) *entity.User {
	for _, user := range a.users {
		if user.Email == email {
			return user
		}
	}

	return nil
}

func (a *accounts) byActiveDigest(digest string, now time.Time) *entity.User {
	if digest == "" {
		return nil
	}
	for _, user := range a.users {
		if user.ResetToken != nil && user.ResetToken.Digest == digest && user.ResetToken.IsActive(now) {
			return user
		}
	}

	return nil
}

// snapshot deep-copies every account.
func (a *accounts) snapshot() map[uuid.UUID]*entity.User {
	copied := make(map[uuid.UUID]*entity.User, len(a.users))
	for id, user := range a.users {
		copied[id] = cloneUser(user)
	}

	return copied
}

func cloneUser(user *entity.User) *entity.User {
	copied := *user
	if user.ResetToken != nil {
		token := *user.ResetToken
		copied.ResetToken = &token
	}

	return &copied
}

func publicCopy(user *entity.User) *entity.User {
	copied := cloneUser(user)
	copied.PasswordHash = ""

	return copied
}
