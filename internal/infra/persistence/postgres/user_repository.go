// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"
	"time"

	"edusmart/internal/domain/entity"
	domainerrors "edusmart/internal/domain/errors"
	"edusmart/internal/domain/repository"
	"edusmart/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/dbresolver"
)

// publicColumns is every column except the password hash.
var publicColumns = []string{
	"id", "name", "email", "role", "reset_token_digest", "reset_token_expires_at", "created_at", "updated_at",
}

// userRepository implements the domain.UserRepository interface using GORM.
type userRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewUserRepository is the constructor for userRepository.
// It returns the repository as a domain.UserRepository interface, adhering to dependency inversion.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{
		db:  db,
		now: time.Now,
	}
}

// FindByID retrieves a single user by their unique ID.
func (repo *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var userM model.UserModel
	err := repo.db.WithContext(ctx).
		Select(publicColumns).
		Where("id = ?", id).
		First(&userM).Error
	if err != nil {
		return nil, repo.notFoundOr(err, "failed to find user by id")
	}

	return toUserDomain(&userM), nil
}

// FindByEmail retrieves a single user by their normalized email address.
func (repo *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var userM model.UserModel
	err := repo.db.WithContext(ctx).
		Select(publicColumns).
		Where("email = ?", entity.NormalizeEmail(email)).
		First(&userM).Error
	if err != nil {
		return nil, repo.notFoundOr(err, "failed to find user by email")
	}

	return toUserDomain(&userM), nil
}

// FindCredentials loads the password hash from the primary.
func (repo *userRepository) FindCredentials(ctx context.Context, email string) (*entity.User, error) {
	var userM model.UserModel
	err := repo.db.WithContext(ctx).
		Clauses(dbresolver.Write).
		Where("email = ?", entity.NormalizeEmail(email)).
		First(&userM).Error
	if err != nil {
		return nil, repo.notFoundOr(err, "failed to find user credentials")
	}

	return toUserDomain(&userM), nil
}

// Create persists a new user entity to the database.
func (repo *userRepository) Create(ctx context.Context, user *entity.User) error {
	userM := fromUserDomain(user)
	if userM.ID == uuid.Nil {
		userM.ID = uuid.New()
	}

	if err := repo.db.WithContext(ctx).Create(userM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrUserAlreadyExists.WrapMessage("email already exists")
		}
		if isNotNullConstraintViolation(err) || isCheckConstraintViolation(err) {
			return domainerrors.ErrUserCreationFailed.WrapMessage("invalid user record")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create user")
	}

	user.ID = userM.ID
	user.CreatedAt = userM.CreatedAt
	user.UpdatedAt = userM.UpdatedAt

	return nil
}

// Update writes name, email and role. The password hash is written only when set on the entity.
func (repo *userRepository) Update(ctx context.Context, user *entity.User) error {
	updatedAt := repo.now()
	values := map[string]any{
		"name":       user.Name,
		"email":      entity.NormalizeEmail(user.Email),
		"role":       user.Role.String(),
		"updated_at": updatedAt,
	}
	if user.PasswordHash != "" {
		values["password_hash"] = user.PasswordHash
	}

	result := repo.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Where("id = ?", user.ID).
		Updates(values)
	if err := result.Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrUserAlreadyExists.WrapMessage("email already exists")
		}
		if isNotNullConstraintViolation(err) || isCheckConstraintViolation(err) {
			return domainerrors.ErrUserUpdateFailed.WrapMessage("invalid user record")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to update user")
	}
	if result.RowsAffected == 0 {
		return repository.ErrUserNotFound
	}

	user.UpdatedAt = updatedAt

	return nil
}

// SetResetToken overwrites any pending reset token in a single statement.
func (repo *userRepository) SetResetToken(ctx context.Context, userID uuid.UUID, token *entity.ResetToken) error {
	if token == nil || token.Digest == "" {
		return errors.New("reset token must carry a digest")
	}

	result := repo.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"reset_token_digest":     token.Digest,
			"reset_token_expires_at": token.ExpiresAt,
			"updated_at":             repo.now(),
		})
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to set reset token")
	}
	if result.RowsAffected == 0 {
		return repository.ErrUserNotFound
	}

	return nil
}

// ClearResetToken removes the pending reset token if it still carries digest.
// A token already replaced or consumed is left alone.
func (repo *userRepository) ClearResetToken(ctx context.Context, userID uuid.UUID, digest string) error {
	err := repo.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Where("id = ? AND reset_token_digest = ?", userID, digest).
		Updates(map[string]any{
			"reset_token_digest":     nil,
			"reset_token_expires_at": nil,
			"updated_at":             repo.now(),
		}).Error
	if err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to clear reset token")
	}

	return nil
}

// FindByResetDigest looks up an active reset token on the primary.
func (repo *userRepository) FindByResetDigest(ctx context.Context, digest string, now time.Time) (*entity.User, error) {
	var userM model.UserModel
	err := repo.db.WithContext(ctx).
		Clauses(dbresolver.Write).
		Select(publicColumns).
		Where("reset_token_digest = ? AND reset_token_expires_at > ?", digest, now).
		First(&userM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrResetTokenNotFound
		}

		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to find reset token")
	}

	return toUserDomain(&userM), nil
}

// ConsumeResetToken swaps the password and clears the token in one conditional UPDATE ... RETURNING.
func (repo *userRepository) ConsumeResetToken(ctx context.Context, digest string, now time.Time, passwordHash string) (*entity.User, error) {
	var updated []model.UserModel
	result := repo.db.WithContext(ctx).
		Model(&updated).
		Clauses(clause.Returning{}).
		Where("reset_token_digest = ? AND reset_token_expires_at > ?", digest, now).
		Updates(map[string]any{
			"password_hash":          passwordHash,
			"reset_token_digest":     nil,
			"reset_token_expires_at": nil,
			"updated_at":             now,
		})
	if result.Error != nil {
		return nil, domainerrors.NewDatabaseExecuteError(result.Error, "failed to consume reset token")
	}
	if result.RowsAffected == 0 || len(updated) == 0 {
		return nil, repository.ErrResetTokenNotFound
	}

	user := toUserDomain(&updated[0])
	user.PasswordHash = ""

	return user, nil
}

// PurgeExpiredResetTokens clears every token whose expiry has passed.
func (repo *userRepository) PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	result := repo.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Where("reset_token_expires_at <= ?", now).
		Updates(map[string]any{
			"reset_token_digest":     nil,
			"reset_token_expires_at": nil,
			"updated_at":             now,
		})
	if result.Error != nil {
		return 0, domainerrors.NewDatabaseExecuteError(result.Error, "failed to purge expired reset tokens")
	}

	return result.RowsAffected, nil
}

func (repo *userRepository) notFoundOr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repository.ErrUserNotFound
	}

	return domainerrors.NewDatabaseExecuteError(err, msg)
}

// --- Mapper Functions ---

// toUserDomain converts a GORM UserModel to a domain User entity.
func toUserDomain(data *model.UserModel) *entity.User {
	if data == nil {
		return nil
	}

	user := &entity.User{
		ID:           data.ID,
		Name:         data.Name,
		Email:        data.Email,
		PasswordHash: data.PasswordHash,
		Role:         entity.RoleFromString(data.Role),
		CreatedAt:    data.CreatedAt,
		UpdatedAt:    data.UpdatedAt,
	}
	if data.ResetTokenDigest != nil && data.ResetTokenExpiresAt != nil {
		user.ResetToken = &entity.ResetToken{
			Digest:    *data.ResetTokenDigest,
			ExpiresAt: *data.ResetTokenExpiresAt,
		}
	}

	return user
}

// fromUserDomain converts a domain User entity to a GORM UserModel for persistence.
func fromUserDomain(data *entity.User) *model.UserModel {
	if data == nil {
		return nil
	}

	userM := &model.UserModel{
		ID:           data.ID,
		Name:         data.Name,
		Email:        entity.NormalizeEmail(data.Email),
		PasswordHash: data.PasswordHash,
		Role:         data.Role.String(),
		CreatedAt:    data.CreatedAt,
		UpdatedAt:    data.UpdatedAt,
	}
	if data.ResetToken != nil {
		digest := data.ResetToken.Digest
		expiresAt := data.ResetToken.ExpiresAt
		userM.ResetTokenDigest = &digest
		userM.ResetTokenExpiresAt = &expiresAt
	}

	return userM
}
