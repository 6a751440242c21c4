package notify

import (
	"context"
	"fmt"

	"spendwatch-hq/saturn/pkg/alerting"
)

// Message is an alert ready for delivery.
type Message struct {
	// Title is a short subject line, e.g. "Daily spend warning".
	Title string `json:"title"`

	// Body is the full human-readable alert text.
	Body string `json:"body"`

	// Level is the alert severity, used by senders that support it.
	Level alerting.Level `json:"level"`
}

// Notifier delivers messages to the user.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// NotificationError wraps a delivery failure. It is always non-fatal to the
// caller's evaluation pass.
type NotificationError struct {
	Sender string
	Cause  error
}

// Error implements the error interface.
func (e *NotificationError) Error() string {
	return fmt.Sprintf("notification error [sender=%s]: %v", e.Sender, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *NotificationError) Unwrap() error {
	return e.Cause
}

// NewNotificationError creates a new NotificationError.
func NewNotificationError(sender string, cause error) *NotificationError {
	return &NotificationError{Sender: sender, Cause: cause}
}
