package handler

import (
	"net/http"
	"time"

	"edusmart/internal/delivery/api/response"
	"edusmart/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// AdminHandler exposes maintenance operations to administrators.
type AdminHandler struct {
	resetUC usecase.PasswordResetUsecase
}

// NewAdminHandler is the constructor for AdminHandler.
func NewAdminHandler(resetUC usecase.PasswordResetUsecase) *AdminHandler {
	return &AdminHandler{resetUC: resetUC}
}

// PurgeResetTokens clears reset tokens that have already expired.
func (h *AdminHandler) PurgeResetTokens(c echo.Context) error {
	purged, err := h.resetUC.PurgeExpired(c.Request().Context(), time.Now())
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, purgeResponse{Purged: purged})
}
