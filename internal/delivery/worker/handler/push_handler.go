package handler

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"edusmart/config"
	deliverycontext "edusmart/internal/delivery/context"
	"edusmart/internal/domain/constants"
	"edusmart/internal/domain/service"
	"edusmart/internal/infra/metrics"
	"edusmart/internal/infra/pubsub"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"google.golang.org/api/idtoken"
)

// tokenValidator checks a Google-signed OIDC token for audience.
type tokenValidator func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// PushHandler receives Pub/Sub pushes carrying password reset notifications and mails them.
type PushHandler struct {
	verifyPushAuth bool
	audience       string
	validateToken  tokenValidator
	mailer         service.Notifier
	now            func() time.Time
	logger         *slog.Logger
}

// PushHandlerParams holds dependencies for the PushHandler
type PushHandlerParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
	Mailer service.Notifier
}

// NewPushHandler creates a new Pub/Sub push handler
func NewPushHandler(params PushHandlerParams) *PushHandler {
	h := &PushHandler{
		validateToken: idtoken.Validate,
		mailer:        params.Mailer,
		now:           time.Now,
		logger:        params.Logger,
	}
	if params.Config.MailWorker != nil {
		h.verifyPushAuth = params.Config.MailWorker.VerifyPushAuth
		h.audience = params.Config.MailWorker.Audience
	}

	return h
}

// HandlePush handles incoming Pub/Sub push messages.
// 2xx acknowledges the message; any other status makes the broker redeliver it.
func (h *PushHandler) HandlePush(c echo.Context) error {
	ctx := c.Request().Context()

	if h.verifyPushAuth {
		if err := h.verifyPubSubToken(c.Request()); err != nil {
			h.logger.Warn("[Worker] Invalid Pub/Sub token", slog.Any("error", err))

			return c.NoContent(http.StatusUnauthorized)
		}
	}

	var pushMsg pubsub.PubSubPushMessage
	if err := c.Bind(&pushMsg); err != nil {
		h.logger.Error("[Worker] Failed to parse push message", slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	if eventType := pushMsg.Message.Attributes[constants.AttributeEventType]; eventType != "" && eventType != constants.EventTypePasswordReset {
		h.logger.Warn("[Worker] Ignoring unexpected event type", slog.String("event_type", eventType))

		return c.NoContent(http.StatusOK)
	}

	data, err := base64.StdEncoding.DecodeString(pushMsg.Message.Data)
	if err != nil {
		h.logger.Error("[Worker] Failed to decode message data", slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	notification, err := pubsub.DecodeNotification(data)
	if err != nil {
		h.logger.Error("[Worker] Failed to parse password reset notification", slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	requestID := h.extractRequestID(ctx, &pushMsg, notification)
	reqLogger := h.logger.With(slog.String("request_id", requestID))
	ctx = deliverycontext.WithRequestID(ctx, requestID)
	ctx = deliverycontext.WithLogger(ctx, reqLogger)

	if !notification.ExpiresAt.IsZero() && !h.now().Before(notification.ExpiresAt) {
		reqLogger.Info("[Worker] Dropping expired password reset link",
			slog.String("message_id", pushMsg.Message.MessageID),
			slog.String("user_id", notification.UserID.String()),
		)
		metrics.RecordMailDelivery(metrics.OutcomeFailure)

		return c.NoContent(http.StatusOK)
	}

	if err := h.mailer.NotifyPasswordReset(ctx, notification); err != nil {
		reqLogger.Error("[Worker] Failed to send password reset mail",
			slog.String("message_id", pushMsg.Message.MessageID),
			slog.Any("error", err),
		)

		metrics.RecordMailDelivery(metrics.OutcomeError)

		return c.NoContent(http.StatusServiceUnavailable)
	}

	metrics.RecordMailDelivery(metrics.OutcomeSuccess)
	reqLogger.Info("[Worker] Password reset mail sent",
		slog.String("message_id", pushMsg.Message.MessageID),
		slog.String("user_id", notification.UserID.String()),
	)

	return c.NoContent(http.StatusOK)
}

// extractRequestID prefers message attributes, then the payload, then the inbound request.
func (h *PushHandler) extractRequestID(ctx context.Context, pushMsg *pubsub.PubSubPushMessage, notification *service.PasswordResetNotification) string {
	if requestID := pushMsg.Message.Attributes[constants.AttributeRequestID]; requestID != "" {
		return requestID
	}

	if notification.RequestID != "" {
		return notification.RequestID
	}

	if requestID := deliverycontext.GetRequestIDFromContext(ctx); requestID != "" {
		return requestID
	}

	return uuid.New().String()
}

// verifyPubSubToken verifies the JWT token from Google Pub/Sub push requests
// Reference: https://cloud.google.com/pubsub/docs/push#authenticating_standard_push_requests
func (h *PushHandler) verifyPubSubToken(req *http.Request) error {
	authHeader := req.Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		return errors.New("missing authorization header")
	}

	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return errors.New("invalid authorization header format")
	}
	token := strings.TrimPrefix(authHeader, bearerPrefix)

	audience := h.audience
	if audience == "" {
		scheme := "https"
		if req.TLS == nil {
			scheme = "http"
		}
		audience = scheme + "://" + req.Host + req.URL.Path
	}

	payload, err := h.validateToken(req.Context(), token, audience)
	if err != nil {
		return errors.Wrap(err, "failed to validate token")
	}

	if payload.Issuer != "accounts.google.com" && payload.Issuer != "https://accounts.google.com" {
		return errors.Errorf("invalid issuer: %s", payload.Issuer)
	}

	if emailVerified, ok := payload.Claims["email_verified"].(bool); ok && !emailVerified {
		return errors.New("email not verified")
	}

	return nil
}
