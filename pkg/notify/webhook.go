package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// WebhookConfig configures HTTP delivery.
type WebhookConfig struct {
	// URL is the endpoint the message is posted to.
	URL string `yaml:"url"`

	// Headers are added to every request, e.g. an Authorization header.
	Headers map[string]string `yaml:"headers"`

	// Timeout bounds a single delivery attempt. Default: 10 seconds.
	Timeout time.Duration `yaml:"timeout"`
}

// WebhookNotifier posts messages as JSON to an HTTP endpoint.
type WebhookNotifier struct {
	config WebhookConfig
	client *http.Client
	logger *slog.Logger
}

// NewWebhookNotifier creates a webhook notifier.
func NewWebhookNotifier(config WebhookConfig) (*WebhookNotifier, error) {
	if config.URL == "" {
		return nil, errors.New("webhook url cannot be empty")
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	return &WebhookNotifier{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: slog.Default().With("component", "notify.webhook"),
	}, nil
}

// Send posts the message. Any non-2xx response counts as a failure.
func (n *WebhookNotifier) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return NewNotificationError("webhook", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.config.URL, bytes.NewReader(payload))
	if err != nil {
		return NewNotificationError("webhook", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range n.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Warn("Webhook delivery failed", "url", n.config.URL, "error", err)
		return NewNotificationError("webhook", err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		n.logger.Warn("Webhook returned error status", "url", n.config.URL, "status", resp.StatusCode)
		return NewNotificationError("webhook", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	n.logger.Debug("Notification delivered", "url", n.config.URL, "title", msg.Title)
	return nil
}

// MultiNotifier fans a message out to several senders. Send returns a
// joined error if any sender failed, after attempting all of them.
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier creates a fan-out notifier.
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

// Send delivers to every configured sender.
func (n *MultiNotifier) Send(ctx context.Context, msg Message) error {
	var errs []error
	for _, notifier := range n.notifiers {
		if err := notifier.Send(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogNotifier writes messages to the structured log. It is the default
// sender when no external delivery is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a log-only notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{logger: slog.Default().With("component", "notify.log")}
}

// Send logs the message at a level matching its severity.
func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	n.logger.Warn("ALERT", "level", msg.Level, "title", msg.Title, "body", msg.Body)
	return nil
}
