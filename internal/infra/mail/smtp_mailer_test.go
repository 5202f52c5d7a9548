package mail

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"edusmart/config"
	"edusmart/internal/domain/service"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "github.com/wneessen/go-mail"
)

type capturingSender struct {
	err       error
	messages  []*gomail.Msg
	deadlines []bool
}

func (s *capturingSender) DialAndSendWithContext(ctx context.Context, messages ...*gomail.Msg) error {
	_, hasDeadline := ctx.Deadline()
	s.deadlines = append(s.deadlines, hasDeadline)
	s.messages = append(s.messages, messages...)

	return s.err
}

func newTestMailer(t *testing.T, sendErr error) (*SMTPMailer, *capturingSender) {
	t.Helper()

	mailer, err := NewSMTPMailer(&config.SMTPConfig{Host: "localhost", Port: 1025, From: "noreply@edusmart.com"}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	sender := &capturingSender{err: sendErr}
	mailer.client = sender
	mailer.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	return mailer, sender
}

func render(t *testing.T, msg *gomail.Msg) string {
	t.Helper()

	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)

	return buf.String()
}

func TestNewSMTPMailer_Validation(t *testing.T) {
	_, err := NewSMTPMailer(nil, slog.Default())
	assert.Error(t, err)

	_, err = NewSMTPMailer(&config.SMTPConfig{Host: "localhost"}, slog.Default())
	assert.Error(t, err)

	mailer, err := NewSMTPMailer(&config.SMTPConfig{Host: "mail.example.com", From: "a@b.c"}, slog.Default())
	require.NoError(t, err)
	assert.NotNil(t, mailer.client)
	assert.Equal(t, defaultSendTimeout, mailer.timeout)

	mailer, err = NewSMTPMailer(&config.SMTPConfig{Host: "mail.example.com", From: "a@b.c", Timeout: 3 * time.Second}, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, mailer.timeout)
}

func TestSMTPMailer_NotifyPasswordReset(t *testing.T) {
	mailer, sender := newTestMailer(t, nil)

	notification := &service.PasswordResetNotification{
		RequestID: "req-1",
		UserID:    uuid.New(),
		Email:     "ann@x.com",
		Name:      "Ann",
		ResetURL:  "http://localhost:5173/auth/reset-password/abc123",
		ExpiresAt: time.Date(2026, 1, 2, 3, 14, 5, 0, time.UTC),
	}
	require.NoError(t, mailer.NotifyPasswordReset(context.Background(), notification))

	require.Len(t, sender.messages, 1)
	msg := sender.messages[0]
	require.Len(t, msg.GetTo(), 1)
	assert.Equal(t, "ann@x.com", msg.GetTo()[0].Address)
	require.Len(t, msg.GetFrom(), 1)
	assert.Equal(t, "noreply@edusmart.com", msg.GetFrom()[0].Address)

	raw := render(t, msg)
	assert.Contains(t, raw, "Subject: Password Reset Request")
	assert.Contains(t, raw, "Message-ID: <")
	assert.Contains(t, raw, "Hi Ann,")
	assert.Contains(t, raw, "http://localhost:5173/auth/reset-password/abc123")
}

func TestSMTPMailer_SendIsBoundedByTimeout(t *testing.T) {
	mailer, sender := newTestMailer(t, nil)

	err := mailer.NotifyPasswordReset(context.Background(), &service.PasswordResetNotification{
		Email:    "ann@x.com",
		ResetURL: "http://x/auth/reset-password/v",
	})
	require.NoError(t, err)
	assert.Equal(t, []bool{true}, sender.deadlines)
}

func TestSMTPMailer_SendFailure(t *testing.T) {
	mailer, _ := newTestMailer(t, errors.New("connection refused"))

	err := mailer.NotifyPasswordReset(context.Background(), &service.PasswordResetNotification{
		Email:    "ann@x.com",
		ResetURL: "http://x/auth/reset-password/v",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSMTPMailer_RejectsHeaderInjection(t *testing.T) {
	mailer, sender := newTestMailer(t, nil)

	err := mailer.NotifyPasswordReset(context.Background(), &service.PasswordResetNotification{
		Email:    "ann@x.com\r\nBcc: eve@x.com",
		ResetURL: "http://x/auth/reset-password/v",
	})
	assert.Error(t, err)
	assert.Empty(t, sender.messages)
}

func TestSMTPMailer_CanceledContext(t *testing.T) {
	mailer, sender := newTestMailer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := mailer.NotifyPasswordReset(ctx, &service.PasswordResetNotification{Email: "ann@x.com", ResetURL: "u"})
	assert.Error(t, err)
	assert.Empty(t, sender.messages)
}
