package handler

import (
	"edusmart/internal/domain/entity"

	"github.com/google/uuid"
)

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	ResetToken string `param:"resettoken" json:"-"`
	Password   string `json:"password" validate:"required"`
}

type updateProfileRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=100"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password"`
}

// profileResponse is the public view of an account.
type profileResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  string    `json:"role"`
}

type authResponse struct {
	profileResponse
	Token string `json:"token"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type sentResponse struct {
	Sent bool `json:"sent"`
}

type purgeResponse struct {
	Purged int64 `json:"purged"`
}

func toProfileResponse(user *entity.User) profileResponse {
	return profileResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role.String(),
	}
}
