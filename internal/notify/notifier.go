// Package notify dispatches report notifications to the configured channels.
// Delivery is not implemented: every channel logs what it would send.
package notify

import (
	"context"
	"errors"
	"log/slog"

	"github-sentinel/internal/config"
	serrors "github-sentinel/internal/errors"
	"github-sentinel/internal/model"
)

var (
	errNoRecipient   = errors.New("no recipient address")
	errNotConfigured = errors.New("channel target is not configured")
)

// Notifier sends messages through notification channels.
type Notifier struct {
	cfg    config.NotificationConfig
	logger *slog.Logger
}

func New(cfg config.NotificationConfig, logger *slog.Logger) *Notifier {
	return &Notifier{cfg: cfg, logger: logger}
}

// Send delivers subject and body through every channel. A failing channel does
// not stop the others; the first failure is returned as *errors.NotificationError.
func (n *Notifier) Send(ctx context.Context, channels []model.NotificationChannel, subject, body, recipient string) error {
	var firstErr error
	for _, ch := range channels {
		if err := n.send(ctx, ch, subject, body, recipient); err != nil {
			n.logger.Error("Failed to send notification", "channel", ch, "error", err)
			if firstErr == nil {
				firstErr = &serrors.NotificationError{Channel: string(ch), Err: err}
			}
		}
	}
	return firstErr
}

func (n *Notifier) send(ctx context.Context, ch model.NotificationChannel, subject, body, recipient string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logger := n.logger.With("channel", ch, "subject", subject, "bytes", len(body))

	switch ch {
	case model.ChannelEmail:
		if recipient == "" {
			return errNoRecipient
		}
		logger.Info("Would send email", "to", recipient, "smtp_host", n.cfg.SMTPHost, "smtp_port", n.cfg.SMTPPort)
	case model.ChannelSlack:
		if n.cfg.SlackWebhookURL == "" && n.cfg.SlackToken == "" {
			return errNotConfigured
		}
		logger.Info("Would send Slack message", "webhook_configured", n.cfg.SlackWebhookURL != "")
	case model.ChannelWebhook:
		if n.cfg.WebhookURL == "" {
			return errNotConfigured
		}
		logger.Info("Would send webhook", "url", n.cfg.WebhookURL)
	case model.ChannelDiscord:
		if n.cfg.DiscordWebhookURL == "" {
			return errNotConfigured
		}
		logger.Info("Would send Discord message")
	default:
		logger.Warn("Unsupported notification channel")
	}
	return nil
}
