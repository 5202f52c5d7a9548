package main

import (
	"context"
	"log/slog"
	"os"

	"edusmart/config"
	"edusmart/internal/delivery"
	"edusmart/internal/delivery/worker"
	"edusmart/internal/delivery/worker/handler"
	"edusmart/internal/domain/service"
	logs "edusmart/internal/infra/log"
	"edusmart/internal/infra/mail"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle
	fx.Shutdowner

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectService(),
		injectHandler(),
		injectDelivery(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			newMailer,
		),
	)
}

// newMailer delivers pushed notifications over SMTP.
func newMailer(cfg *config.Config, logger *slog.Logger) (service.Notifier, error) {
	if cfg.SMTP == nil {
		return nil, errors.New("smtp configuration is required by the mail worker")
	}

	mailer, err := mail.NewSMTPMailer(cfg.SMTP, logger)
	if err != nil {
		return nil, err
	}

	return mailer, nil
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewPushHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				worker.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))

				if shutdownErr := params.Shutdown(); shutdownErr != nil {
					slog.Error("Failed to shutdown gracefully", slog.Any("error", shutdownErr))
					os.Exit(1)
				}
			}
		}()
	}
}
