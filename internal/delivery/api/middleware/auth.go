// Package middleware holds the API-only echo middleware.
package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	deliverycontext "edusmart/internal/delivery/context"
	domainerrors "edusmart/internal/domain/errors"
	"edusmart/internal/domain/service"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const bearerPrefix = "Bearer "

// AuthMiddleware validates session tokens on protected routes.
type AuthMiddleware struct {
	tokenService service.TokenService
	logger       *slog.Logger
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(tokenService service.TokenService, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{tokenService: tokenService, logger: logger}
}

// Authenticate requires a valid Bearer token and stores its subject and role on the context.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			return errors.Wrap(domainerrors.ErrUnauthenticated, "missing bearer token")
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
		if tokenString == "" {
			return errors.Wrap(domainerrors.ErrUnauthenticated, "empty bearer token")
		}

		claims, err := m.tokenService.ValidateToken(tokenString)
		if err != nil {
			// The reason stays in the log; the caller only sees UNAUTHENTICATED.
			deliverycontext.GetLoggerOrDefault(c.Request().Context(), m.logger).Warn("Rejected session token",
				slog.String("path", c.Path()),
				slog.String("reason", err.Error()),
			)

			return errors.Wrap(domainerrors.ErrUnauthenticated, err.Error())
		}

		deliverycontext.SetUser(c, claims.UserID, claims.Role)

		return next(c)
	}
}

// RequireRole rejects authenticated accounts whose role is not one of roles.
// It must run after Authenticate.
func (m *AuthMiddleware) RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := deliverycontext.GetUserRole(c)
			for _, allowed := range roles {
				if role == allowed {
					return next(c)
				}
			}

			return echo.NewHTTPError(http.StatusForbidden, "Permission denied")
		}
	}
}
