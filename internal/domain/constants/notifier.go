package constants

// Notifier providers selectable through notifier.provider.
const (
	NotifierProviderSMTP   = "smtp"
	NotifierProviderLocal  = "local"
	NotifierProviderGoogle = "google"
	NotifierProviderMemory = "memory"
)

// DefaultMemoryTopicURL is used by the memory provider when notifier.topicUrl is empty.
const DefaultMemoryTopicURL = "mem://password-resets"

// Message attribute keys set on every published password reset notification.
const (
	AttributeUserID    = "user_id"
	AttributeRequestID = "request_id"
	AttributeEventType = "event_type"

	EventTypePasswordReset = "password_reset"
)
