package impl

import (
	"context"
	"testing"

	domainerrors "edusmart/internal/domain/errors"
	"edusmart/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string {
	return &s
}

func TestProfileService_GetProfile(t *testing.T) {
	f := newServiceFixtures(t)
	registered := f.register(t, "Ann", "ann@x.com", "secret1")

	user, err := f.profiles.GetProfile(context.Background(), registered.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann", user.Name)
	assert.Equal(t, "ann@x.com", user.Email)
	assert.Empty(t, user.PasswordHash)
}

func TestProfileService_GetProfile_NotFound(t *testing.T) {
	f := newServiceFixtures(t)

	_, err := f.profiles.GetProfile(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrUserNotFound))
}

func TestProfileService_UpdateProfile(t *testing.T) {
	f := newServiceFixtures(t)
	ctx := context.Background()
	registered := f.register(t, "Ann", "ann@x.com", "secret1")
	before, err := f.store.FindCredentials(ctx, "ann@x.com")
	require.NoError(t, err)

	updated, err := f.profiles.UpdateProfile(ctx, registered.User.ID, &usecase.UpdateProfileInput{Name: ptr("Ann Lee"), Email: ptr("Ann.Lee@X.com")})
	require.NoError(t, err)
	assert.Equal(t, "Ann Lee", updated.Name)
	assert.Equal(t, "ann.lee@x.com", updated.Email)
	assert.Empty(t, updated.PasswordHash)

	after, err := f.store.FindCredentials(ctx, "ann.lee@x.com")
	require.NoError(t, err)
	assert.Equal(t, before.PasswordHash, after.PasswordHash)
}

func TestProfileService_UpdateProfile_Password(t *testing.T) {
	f := newServiceFixtures(t)
	ctx := context.Background()
	registered := f.register(t, "Ann", "ann@x.com", "secret1")

	_, err := f.profiles.UpdateProfile(ctx, registered.User.ID, &usecase.UpdateProfileInput{Password: ptr("newpass1")})
	require.NoError(t, err)

	_, err = f.users.Login(ctx, &usecase.LoginInput{Email: "ann@x.com", Password: "newpass1"})
	require.NoError(t, err)

	_, err = f.profiles.UpdateProfile(ctx, registered.User.ID, &usecase.UpdateProfileInput{Password: ptr("123")})
	assert.True(t, errors.Is(err, domainerrors.ErrValidationFailed))
}

func TestProfileService_UpdateProfile_EmailTaken(t *testing.T) {
	f := newServiceFixtures(t)
	ctx := context.Background()
	ann := f.register(t, "Ann", "ann@x.com", "secret1")
	f.register(t, "Bob", "bob@x.com", "secret1")

	_, err := f.profiles.UpdateProfile(ctx, ann.User.ID, &usecase.UpdateProfileInput{Email: ptr("BOB@x.com")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrUserAlreadyExists))

	user, err := f.profiles.GetProfile(ctx, ann.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "ann@x.com", user.Email)
}

func TestProfileService_UpdateProfile_NotFound(t *testing.T) {
	f := newServiceFixtures(t)

	_, err := f.profiles.UpdateProfile(context.Background(), uuid.New(), &usecase.UpdateProfileInput{Name: ptr("Ghost")})
	assert.True(t, errors.Is(err, domainerrors.ErrUserNotFound))
}
