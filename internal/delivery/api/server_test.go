package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"edusmart/config"
	apimiddleware "edusmart/internal/delivery/api/middleware"
	"edusmart/internal/delivery/api/router"
	"edusmart/internal/delivery/api/router/handler"
	"edusmart/internal/domain/service"
	"edusmart/internal/infra/auth"
	"edusmart/internal/infra/persistence/memory"
	"edusmart/internal/usecase/impl"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const frontendURL = "http://localhost:3000"

// capturingNotifier keeps every reset link instead of mailing it.
type capturingNotifier struct {
	mu   sync.Mutex
	urls []string
	err  error
}

func (n *capturingNotifier) NotifyPasswordReset(_ context.Context, notification *service.PasswordResetNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.urls = append(n.urls, notification.ResetURL)

	return nil
}

func (n *capturingNotifier) Close() error {
	return nil
}

func (n *capturingNotifier) lastToken(t *testing.T) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.urls)

	last := n.urls[len(n.urls)-1]
	require.True(t, strings.HasPrefix(last, frontendURL+"/auth/reset-password/"))

	return strings.TrimPrefix(last, frontendURL+"/auth/reset-password/")
}

type testApp struct {
	echo         *echo.Echo
	notifier     *capturingNotifier
	tokenService service.TokenService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	cfg := &config.Config{
		Auth:    &config.AuthConfig{BcryptCost: bcrypt.MinCost},
		Metrics: &config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
	cfg.HTTP.MaxRequestBodySize = "100KB"
	cfg.SecretKey.Access = "end-to-end-test-secret"
	cfg.App.FrontendURL = frontendURL

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()
	txManager := memory.NewTransactionManager(store)
	hasher := auth.NewBcryptHasher(cfg)
	tokenService, err := auth.NewJWTService(cfg)
	require.NoError(t, err)
	notifier := &capturingNotifier{}

	userUC := impl.NewUserService(impl.UserServiceParams{
		TxManager: txManager, UserRepo: store, Hasher: hasher, TokenService: tokenService, Logger: logger,
	})
	resetUC := impl.NewPasswordResetService(impl.PasswordResetServiceParams{
		UserRepo: store, Hasher: hasher, TokenService: tokenService, Generator: auth.NewResetTokenGenerator(),
		Notifier: notifier, Config: cfg, Logger: logger,
	})
	profileUC := impl.NewProfileService(impl.ProfileServiceParams{
		TxManager: txManager, UserRepo: store, Hasher: hasher, Logger: logger,
	})

	e := NewEcho(cfg, logger, router.RouterParams{
		AuthHandler:    handler.NewAuthHandler(handler.AuthHandlerParams{UserUC: userUC, ResetUC: resetUC, Logger: logger}),
		UserHandler:    handler.NewUserHandler(profileUC, logger),
		AdminHandler:   handler.NewAdminHandler(resetUC),
		AuthMiddleware: apimiddleware.NewAuthMiddleware(tokenService, logger),
		Config:         cfg,
	})

	return &testApp{echo: e, notifier: notifier, tokenService: tokenService}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
	Meta struct {
		RequestID string `json:"request_id"`
	} `json:"meta"`
}

type authData struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  string    `json:"role"`
	Token string    `json:"token"`
}

func (a *testApp) do(t *testing.T, method, path, bearer string, body any) (int, *envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	a.echo.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}

	return rec.Code, &env
}

func decodeData[T any](t *testing.T, env *envelope) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))

	return out
}

func TestAPI_PasswordResetScenario(t *testing.T) {
	app := newTestApp(t)

	status, env := app.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Ann", "email": "ann@x.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, status)
	registered := decodeData[authData](t, env)
	assert.Equal(t, "student", registered.Role)
	assert.Equal(t, "ann@x.com", registered.Email)
	assert.NotEmpty(t, registered.Token)
	assert.NotEmpty(t, env.Meta.RequestID)

	status, env = app.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ann@x.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, decodeData[authData](t, env).Token)

	status, env = app.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ann@x.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "INVALID_CREDENTIALS", env.Error.Code)

	status, env = app.do(t, http.MethodPost, "/api/auth/forgotpassword", "", map[string]string{"email": "ann@x.com"})
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"sent":true}`, string(env.Data))
	resetToken := app.notifier.lastToken(t)

	status, env = app.do(t, http.MethodPut, "/api/auth/resetpassword/"+resetToken, "", map[string]string{"password": "secret2"})
	require.Equal(t, http.StatusOK, status)
	reset := decodeData[authData](t, env)
	claims, err := app.tokenService.ValidateToken(reset.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, claims.UserID)

	status, env = app.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ann@x.com", "password": "secret1"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "INVALID_CREDENTIALS", env.Error.Code)

	status, _ = app.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ann@x.com", "password": "secret2"})
	assert.Equal(t, http.StatusOK, status)

	status, env = app.do(t, http.MethodPut, "/api/auth/resetpassword/"+resetToken, "", map[string]string{"password": "secret3"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "RESET_TOKEN_INVALID", env.Error.Code)
	assert.Equal(t, "Invalid or expired token", env.Error.Message)
}

func TestAPI_RegistrationErrors(t *testing.T) {
	app := newTestApp(t)

	status, _ := app.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Ann", "email": "a@x.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, status)

	status, env := app.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Other", "email": "A@x.com", "password": "secret2",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "USER_ALREADY_EXISTS", env.Error.Code)

	status, env = app.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Bob", "email": "not-an-email", "password": "secret1",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
	assert.Contains(t, env.Error.Details, "email")

	status, env = app.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Bob", "email": "bob@x.com", "password": "123",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
}

func TestAPI_ForgotPasswordErrors(t *testing.T) {
	app := newTestApp(t)

	status, env := app.do(t, http.MethodPost, "/api/auth/forgotpassword", "", map[string]string{"email": "ghost@x.com"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "USER_NOT_FOUND", env.Error.Code)

	status, _ = app.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Ann", "email": "a@x.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, status)

	app.notifier.err = assert.AnError
	status, env = app.do(t, http.MethodPost, "/api/auth/forgotpassword", "", map[string]string{"email": "a@x.com"})
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "EMAIL_DELIVERY_FAILED", env.Error.Code)
	assert.Equal(t, "Email could not be sent", env.Error.Message)
}

func TestAPI_Profile(t *testing.T) {
	app := newTestApp(t)

	status, env := app.do(t, http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHENTICATED", env.Error.Code)

	status, env = app.do(t, http.MethodGet, "/api/users/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHENTICATED", env.Error.Code)

	status, env = app.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Ann", "email": "a@x.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, status)
	token := decodeData[authData](t, env).Token

	status, env = app.do(t, http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	profile := decodeData[authData](t, env)
	assert.Equal(t, "Ann", profile.Name)
	assert.Empty(t, profile.Token)

	status, env = app.do(t, http.MethodPut, "/api/users/me", token, map[string]string{"name": "Ann Lee"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Ann Lee", decodeData[authData](t, env).Name)
	assert.NotContains(t, string(env.Data), "password")
}

func TestAPI_AdminPurgeRequiresAdmin(t *testing.T) {
	app := newTestApp(t)

	studentToken, err := app.tokenService.GenerateToken(uuid.New(), "student")
	require.NoError(t, err)
	status, _ := app.do(t, http.MethodPost, "/api/admin/reset-tokens/purge", studentToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	adminToken, err := app.tokenService.GenerateToken(uuid.New(), "admin")
	require.NoError(t, err)
	status, env := app.do(t, http.MethodPost, "/api/admin/reset-tokens/purge", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"purged":0}`, string(env.Data))
}

func TestAPI_HealthAndMetrics(t *testing.T) {
	app := newTestApp(t)

	status, env := app.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, string(env.Data))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	app.echo.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "edusmart_http_requests_total")
}
