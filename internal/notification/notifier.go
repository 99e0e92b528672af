package notification

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/stanstork/condo-notify/internal/models"
)

// TransitionEvent describes one applied status change.
type TransitionEvent struct {
	Notification models.Notification
	From         models.NotificationStatus
	To           models.NotificationStatus
	Actor        models.Actor
	At           time.Time
}

type Notifier interface {
	Notify(ctx context.Context, evt TransitionEvent) error
}

func sanitizeRecipients(recipients []string) []string {
	var cleaned []string
	for _, recipient := range recipients {
		if trimmed := strings.TrimSpace(recipient); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}

func logNotifyError(logger zerolog.Logger, err error, channel string, evt TransitionEvent) {
	if err == nil {
		return
	}
	logger.Warn().
		Err(err).
		Int("notification_id", evt.Notification.ID).
		Str("from", evt.From.Slug()).
		Str("to", evt.To.Slug()).
		Str("channel", channel).
		Msg("failed to deliver transition notification")
}
