package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"edusmart/internal/domain/entity"
	domainerrors "edusmart/internal/domain/errors"
	"edusmart/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUser(email string) *entity.User {
	return &entity.User{
		Name:         "Ann",
		Email:        email,
		PasswordHash: "$2a$04$hash",
		Role:         entity.RoleStudent,
	}
}

func TestStore_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	user := newUser(" Ann@X.com")
	require.NoError(t, store.Create(ctx, user))
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "ann@x.com", user.Email)

	byEmail, err := store.FindByEmail(ctx, "ANN@x.com")
	require.NoError(t, err)
	assert.Empty(t, byEmail.PasswordHash)

	creds, err := store.FindCredentials(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, "$2a$04$hash", creds.PasswordHash)

	byID, err := store.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann", byID.Name)

	_, err = store.FindByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestStore_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	first := newUser("ann@x.com")
	require.NoError(t, store.Create(ctx, first))

	dup := newUser("ANN@x.com")
	dup.PasswordHash = "$2a$04$other"
	err := store.Create(ctx, dup)
	assert.True(t, errors.Is(err, domainerrors.ErrUserAlreadyExists))

	creds, err := store.FindCredentials(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, "$2a$04$hash", creds.PasswordHash)
}

func TestStore_ReturnedValuesAreCopies(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	user := newUser("ann@x.com")
	require.NoError(t, store.Create(ctx, user))

	user.Name = "mutated"
	loaded, err := store.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann", loaded.Name)
}

func TestStore_Update(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	ann := newUser("ann@x.com")
	bob := newUser("bob@x.com")
	require.NoError(t, store.Create(ctx, ann))
	require.NoError(t, store.Create(ctx, bob))

	err := store.Update(ctx, &entity.User{ID: ann.ID, Name: "Ann", Email: "BOB@x.com", Role: entity.RoleStudent})
	assert.True(t, errors.Is(err, domainerrors.ErrUserAlreadyExists))

	require.NoError(t, store.Update(ctx, &entity.User{ID: ann.ID, Name: "Annie", Email: "annie@x.com", Role: entity.RoleStudent}))
	creds, err := store.FindCredentials(ctx, "annie@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Annie", creds.Name)
	assert.Equal(t, "$2a$04$hash", creds.PasswordHash, "empty hash leaves the credential untouched")

	err = store.Update(ctx, &entity.User{ID: uuid.New(), Email: "x@x.com"})
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestStore_ResetTokenLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	user := newUser("ann@x.com")
	require.NoError(t, store.Create(ctx, user))
	now := time.Now()

	require.NoError(t, store.SetResetToken(ctx, user.ID, &entity.ResetToken{Digest: "d1", ExpiresAt: now.Add(time.Minute)}))
	require.NoError(t, store.SetResetToken(ctx, user.ID, &entity.ResetToken{Digest: "d2", ExpiresAt: now.Add(time.Minute)}))

	_, err := store.FindByResetDigest(ctx, "d1", now)
	assert.ErrorIs(t, err, repository.ErrResetTokenNotFound)

	require.NoError(t, store.ClearResetToken(ctx, user.ID, "d1"))
	found, err := store.FindByResetDigest(ctx, "d2", now)
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	consumed, err := store.ConsumeResetToken(ctx, "d2", now, "$2a$04$new")
	require.NoError(t, err)
	assert.Nil(t, consumed.ResetToken)
	assert.Empty(t, consumed.PasswordHash)

	_, err = store.ConsumeResetToken(ctx, "d2", now, "$2a$04$again")
	assert.ErrorIs(t, err, repository.ErrResetTokenNotFound)

	creds, err := store.FindCredentials(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, "$2a$04$new", creds.PasswordHash)
}

func TestStore_ExpiredTokens(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	user := newUser("ann@x.com")
	require.NoError(t, store.Create(ctx, user))
	now := time.Now()

	require.NoError(t, store.SetResetToken(ctx, user.ID, &entity.ResetToken{Digest: "old", ExpiresAt: now.Add(-time.Second)}))

	_, err := store.ConsumeResetToken(ctx, "old", now, "$2a$04$new")
	assert.ErrorIs(t, err, repository.ErrResetTokenNotFound)

	purged, err := store.PurgeExpiredResetTokens(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	loaded, err := store.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded.ResetToken)
}

func TestStore_ConcurrentConsumeSucceedsOnce(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	user := newUser("ann@x.com")
	require.NoError(t, store.Create(ctx, user))
	now := time.Now()
	require.NoError(t, store.SetResetToken(ctx, user.ID, &entity.ResetToken{Digest: "race", ExpiresAt: now.Add(time.Minute)}))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.ConsumeResetToken(ctx, "race", now, "$2a$04$x"); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestTransactionManager_Rollback(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	txManager := NewTransactionManager(store)
	sentinel := errors.New("boom")

	err := txManager.Execute(ctx, func(f repository.RepositoryFactory) error {
		require.NoError(t, f.NewUserRepository().Create(ctx, newUser("ann@x.com")))

		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	_, err = store.FindByEmail(ctx, "ann@x.com")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	err = txManager.Execute(ctx, func(f repository.RepositoryFactory) error {
		return f.NewUserRepository().Create(ctx, newUser("ann@x.com"))
	})
	require.NoError(t, err)

	_, err = store.FindByEmail(ctx, "ann@x.com")
	assert.NoError(t, err)
}

func TestTransactionManager_RollbackKeepsConsumedToken(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	txManager := NewTransactionManager(store)
	now := time.Now()

	user := newUser("ann@x.com")
	require.NoError(t, store.Create(ctx, user))
	require.NoError(t, store.SetResetToken(ctx, user.ID, &entity.ResetToken{Digest: "d1", ExpiresAt: now.Add(10 * time.Minute)}))

	entered := make(chan struct{})
	release := make(chan struct{})
	txDone := make(chan error, 1)
	go func() {
		txDone <- txManager.Execute(ctx, func(f repository.RepositoryFactory) error {
			_, _ = f.NewUserRepository().FindByEmail(ctx, "ann@x.com")
			close(entered)
			<-release

			return domainerrors.ErrUserAlreadyExists
		})
	}()
	<-entered

	consumeDone := make(chan error, 1)
	go func() {
		_, err := store.ConsumeResetToken(ctx, "d1", now, "$2a$04$first")
		consumeDone <- err
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)

	assert.ErrorIs(t, <-txDone, domainerrors.ErrUserAlreadyExists)
	require.NoError(t, <-consumeDone)

	_, err := store.ConsumeResetToken(ctx, "d1", now, "$2a$04$second")
	assert.ErrorIs(t, err, repository.ErrResetTokenNotFound)

	stored, err := store.FindCredentials(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, "$2a$04$first", stored.PasswordHash)
	assert.Nil(t, stored.ResetToken)
}
