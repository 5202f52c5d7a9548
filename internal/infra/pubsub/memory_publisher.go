package pubsub

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"edusmart/internal/domain/lifecycle"
	"edusmart/internal/domain/service"
	"edusmart/internal/errors"

	gcpubsub "gocloud.dev/pubsub"
	_ "gocloud.dev/pubsub/mempubsub" // registers mem:// topics
)

// relayRetryDelay is how long the relay waits after a failed delivery before
// taking the next message, so a down mail server is not hammered.
const relayRetryDelay = time.Second

// topicPublisher implements Notifier on a portable gocloud topic.
// A subscription on the same URL is drained in the background and every
// message is handed to deliver, so mem:// topics work without a separate worker.
type topicPublisher struct {
	topic        *gcpubsub.Topic
	subscription *gcpubsub.Subscription
	deliver      service.Notifier
	now          func() time.Time
	logger       *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewTopicPublisher opens the topic at url and starts relaying its messages to deliver.
func NewTopicPublisher(ctx context.Context, url string, deliver service.Notifier, logger *slog.Logger) (service.Notifier, error) {
	if deliver == nil {
		return nil, errors.New("topic publisher requires a delivery notifier")
	}

	topic, err := gcpubsub.OpenTopic(ctx, url)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open topic %s", url)
	}

	// mem:// subscriptions only see messages sent after they are opened.
	subscription, err := gcpubsub.OpenSubscription(ctx, url)
	if err != nil {
		_ = topic.Shutdown(ctx)

		return nil, errors.Wrapf(err, "failed to open subscription %s", url)
	}

	relayCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p := &topicPublisher{
		topic:        topic,
		subscription: subscription,
		deliver:      deliver,
		now:          time.Now,
		logger:       logger,
		cancel:       cancel,
	}

	p.wg.Add(1)
	go p.relay(relayCtx)

	return p, nil
}

// NotifyPasswordReset sends the notification on the topic.
func (p *topicPublisher) NotifyPasswordReset(ctx context.Context, notification *service.PasswordResetNotification) error {
	data, attributes, err := encodeNotification(notification)
	if err != nil {
		return err
	}

	if err := p.topic.Send(ctx, &gcpubsub.Message{Body: data, Metadata: attributes}); err != nil {
		return errors.WithStack(err)
	}

	p.logger.Debug("[TopicPubSub] Password reset sent",
		slog.String("user_id", notification.UserID.String()),
	)

	return nil
}

func (p *topicPublisher) relay(ctx context.Context) {
	defer p.wg.Done()

	for {
		msg, err := p.subscription.Receive(ctx)
		if err != nil {
			if ctx.Err() == nil {
				p.logger.Error("[TopicPubSub] Subscription stopped", slog.Any("error", err))
			}

			return
		}

		if err := p.handle(ctx, msg); err != nil {
			p.logger.Error("[TopicPubSub] Delivery failed, message will be redelivered", slog.Any("error", err))
			if msg.Nackable() {
				msg.Nack()
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(relayRetryDelay):
			}

			continue
		}
		msg.Ack()
	}
}

// handle delivers one message. Undecodable and expired messages are dropped.
func (p *topicPublisher) handle(ctx context.Context, msg *gcpubsub.Message) error {
	notification, err := DecodeNotification(msg.Body)
	if err != nil {
		p.logger.Warn("[TopicPubSub] Dropping undecodable message", slog.Any("error", err))

		return nil
	}

	if !notification.ExpiresAt.IsZero() && !p.now().Before(notification.ExpiresAt) {
		p.logger.Warn("[TopicPubSub] Dropping expired password reset link",
			slog.String("user_id", notification.UserID.String()),
		)

		return nil
	}

	return p.deliver.NotifyPasswordReset(ctx, notification)
}

// Close stops the relay, then shuts the topic, the subscription and the deliverer down.
func (p *topicPublisher) Close() error {
	p.cancel()
	p.wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), lifecycle.DefaultTimeout)
	defer cancel()

	return errors.WithStack(errors.Join(
		p.topic.Shutdown(ctx),
		p.subscription.Shutdown(ctx),
		p.deliver.Close(),
	))
}
