package handler

import (
	"log/slog"
	"net/http"

	"edusmart/internal/delivery/api/response"
	deliverycontext "edusmart/internal/delivery/context"
	domainerrors "edusmart/internal/domain/errors"
	"edusmart/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// UserHandler serves the authenticated account's own profile.
type UserHandler struct {
	uc     usecase.ProfileUsecase
	logger *slog.Logger
}

// NewUserHandler is the constructor for UserHandler, injected by Fx.
func NewUserHandler(uc usecase.ProfileUsecase, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		uc:     uc,
		logger: logger,
	}
}

// GetProfile returns the current account.
func (h *UserHandler) GetProfile(c echo.Context) error {
	userID, err := deliverycontext.GetUserID(c)
	if err != nil {
		return errors.Wrap(domainerrors.ErrUnauthenticated, err.Error())
	}

	user, err := h.uc.GetProfile(c.Request().Context(), userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toProfileResponse(user))
}

// UpdateProfile changes name, email or password of the current account.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	userID, err := deliverycontext.GetUserID(c)
	if err != nil {
		return errors.Wrap(domainerrors.ErrUnauthenticated, err.Error())
	}

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid profile input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.uc.UpdateProfile(c.Request().Context(), userID, &usecase.UpdateProfileInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toProfileResponse(user))
}
