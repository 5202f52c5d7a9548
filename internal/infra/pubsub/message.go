package pubsub

import (
	"encoding/json"

	"edusmart/internal/domain/constants"
	"edusmart/internal/domain/service"

	"github.com/pkg/errors"
)

// PubSubPushMessage represents the structure of a Pub/Sub push message
// This mimics the format Google Pub/Sub uses when pushing to HTTP endpoints
type PubSubPushMessage struct {
	Message struct {
		Data        string            `json:"data"`
		Attributes  map[string]string `json:"attributes,omitempty"`
		MessageID   string            `json:"messageId"`
		PublishTime string            `json:"publishTime"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// encodeNotification serializes a notification and the attributes used for routing and tracing.
func encodeNotification(notification *service.PasswordResetNotification) ([]byte, map[string]string, error) {
	data, err := json.Marshal(notification)
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}

	attributes := map[string]string{
		constants.AttributeEventType: constants.EventTypePasswordReset,
		constants.AttributeUserID:    notification.UserID.String(),
	}
	if notification.RequestID != "" {
		attributes[constants.AttributeRequestID] = notification.RequestID
	}

	return data, attributes, nil
}

// DecodeNotification parses a payload produced by any publisher in this package.
func DecodeNotification(data []byte) (*service.PasswordResetNotification, error) {
	var notification service.PasswordResetNotification
	if err := json.Unmarshal(data, &notification); err != nil {
		return nil, errors.Wrap(err, "invalid password reset payload")
	}
	if notification.Email == "" || notification.ResetURL == "" {
		return nil, errors.New("password reset payload is missing email or reset url")
	}

	return &notification, nil
}
