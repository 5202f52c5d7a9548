// Package mail delivers password reset links by SMTP.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"edusmart/config"
	"edusmart/internal/domain/service"

	"github.com/pkg/errors"
	gomail "github.com/wneessen/go-mail"
)

const (
	resetSubject       = "Password Reset Request"
	defaultSMTPPort    = 587
	defaultSendTimeout = 10 * time.Second
)

// sender is the part of *gomail.Client the mailer uses.
type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*gomail.Msg) error
}

// SMTPMailer implements service.Notifier by sending a plain-text mail.
type SMTPMailer struct {
	client  sender
	from    string
	timeout time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

// NewSMTPMailer builds a mailer from the smtp config section.
func NewSMTPMailer(cfg *config.SMTPConfig, logger *slog.Logger) (*SMTPMailer, error) {
	if cfg == nil || cfg.Host == "" {
		return nil, errors.New("smtp host is required")
	}
	if cfg.From == "" {
		return nil, errors.New("smtp from address is required")
	}

	port := cfg.Port
	if port == 0 {
		port = defaultSMTPPort
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}

	opts := []gomail.Option{
		gomail.WithPort(port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(timeout),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create smtp client")
	}

	return &SMTPMailer{
		client:  client,
		from:    cfg.From,
		timeout: timeout,
		now:     time.Now,
		logger:  logger,
	}, nil
}

// NotifyPasswordReset sends the reset link to the account owner.
func (m *SMTPMailer) NotifyPasswordReset(ctx context.Context, notification *service.PasswordResetNotification) error {
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}

	msg, err := m.compose(notification)
	if err != nil {
		return err
	}

	sendCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if err := m.client.DialAndSendWithContext(sendCtx, msg); err != nil {
		return errors.Wrap(err, "failed to send password reset mail")
	}

	m.logger.Info("Password reset mail sent",
		slog.String("user_id", notification.UserID.String()),
		slog.String("request_id", notification.RequestID),
	)

	return nil
}

// Close is a no-op; every mail uses its own connection.
func (m *SMTPMailer) Close() error {
	return nil
}

func (m *SMTPMailer) compose(n *service.PasswordResetNotification) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, errors.Wrap(err, "invalid sender address")
	}
	if err := msg.To(n.Email); err != nil {
		return nil, errors.Wrap(err, "invalid recipient address")
	}
	msg.Subject(resetSubject)
	msg.SetDateWithValue(m.now())
	msg.SetMessageID()

	name := strings.TrimSpace(n.Name)
	if name == "" {
		name = "there"
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Hi %s,\r\n\r\n", name)
	body.WriteString("You are receiving this email because you (or someone else) has requested the reset of a password.\r\n")
	fmt.Fprintf(&body, "Please open the following link to choose a new password:\r\n\r\n%s\r\n\r\n", n.ResetURL)
	if !n.ExpiresAt.IsZero() {
		fmt.Fprintf(&body, "The link expires at %s.\r\n", n.ExpiresAt.UTC().Format(time.RFC1123))
	}
	body.WriteString("If you did not request this, you can ignore this email.\r\n")
	msg.SetBodyString(gomail.TypeTextPlain, body.String())

	return msg, nil
}
