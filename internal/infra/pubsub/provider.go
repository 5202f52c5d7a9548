package pubsub

import (
	"context"
	"log/slog"

	"edusmart/config"
	"edusmart/internal/domain/constants"
	"edusmart/internal/domain/service"
	"edusmart/internal/infra/mail"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// noopNotifier is used when no notifier provider is configured.
// It records that a reset was requested but delivers nothing.
type noopNotifier struct {
	logger *slog.Logger
}

func (p *noopNotifier) NotifyPasswordReset(ctx context.Context, notification *service.PasswordResetNotification) error {
	p.logger.WarnContext(ctx, "[NoopNotifier] Delivery disabled, password reset link dropped",
		slog.String("user_id", notification.UserID.String()),
	)

	return nil
}

func (p *noopNotifier) Close() error {
	return nil
}

// NotifierParams holds dependencies for Notifier, injected by Fx
type NotifierParams struct {
	fx.In

	Lc     fx.Lifecycle
	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

// NewNotifier creates a Notifier based on configuration
func NewNotifier(params NotifierParams) (service.Notifier, error) {
	notifier, err := Build(params.Ctx, params.Config, params.Logger)
	if err != nil {
		return nil, err
	}

	params.Lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			params.Logger.Info("Closing Notifier")

			return notifier.Close()
		},
	})

	return notifier, nil
}

// Build selects the notifier for notifier.provider without lifecycle wiring.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (service.Notifier, error) {
	notifierCfg := cfg.Notifier
	if notifierCfg == nil || notifierCfg.Provider == "" {
		logger.Info("Notifier not configured, using no-op notifier")

		return &noopNotifier{logger: logger}, nil
	}

	switch notifierCfg.Provider {
	case constants.NotifierProviderSMTP:
		mailer, err := mail.NewSMTPMailer(cfg.SMTP, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("Using SMTP notifier")

		return mailer, nil

	case constants.NotifierProviderLocal:
		if notifierCfg.LocalEndpoint == "" {
			return nil, errors.New("local endpoint is required for local provider")
		}
		logger.Info("Using local HTTP publisher for notifications",
			slog.String("endpoint", notifierCfg.LocalEndpoint),
		)

		return NewLocalHTTPPublisher(notifierCfg.LocalEndpoint, logger), nil

	case constants.NotifierProviderGoogle:
		if notifierCfg.ProjectID == "" {
			return nil, errors.New("project ID is required for google provider")
		}
		if notifierCfg.TopicID == "" {
			return nil, errors.New("topic ID is required for google provider")
		}
		logger.Info("Using Google Pub/Sub publisher",
			slog.String("project_id", notifierCfg.ProjectID),
			slog.String("topic_id", notifierCfg.TopicID),
		)

		return NewGooglePubSubPublisher(ctx, notifierCfg.ProjectID, notifierCfg.TopicID, logger)

	case constants.NotifierProviderMemory:
		url := notifierCfg.TopicURL
		if url == "" {
			url = constants.DefaultMemoryTopicURL
		}
		mailer, err := mail.NewSMTPMailer(cfg.SMTP, logger)
		if err != nil {
			return nil, errors.Wrap(err, "memory provider relays to smtp")
		}
		logger.Info("Using in-process topic publisher relaying to SMTP", slog.String("topic_url", url))

		return NewTopicPublisher(ctx, url, mailer, logger)

	default:
		return nil, errors.Errorf("unknown notifier provider: %s", notifierCfg.Provider)
	}
}

// Module provides the notifier FX module
//
//nolint:gochecknoglobals
var Module = fx.Options(
	fx.Provide(NewNotifier),
)
