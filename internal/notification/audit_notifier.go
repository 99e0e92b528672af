package notification

import (
	"context"

	"github.com/rs/zerolog"
)

// AuditNotifier writes every transition to the structured log.
type AuditNotifier struct {
	logger zerolog.Logger
}

func NewAuditNotifier(logger zerolog.Logger) *AuditNotifier {
	return &AuditNotifier{
		logger: logger.With().Str("notifier", "audit").Logger(),
	}
}

func (n *AuditNotifier) Notify(_ context.Context, evt TransitionEvent) error {
	n.logger.Info().
		Int("notification_id", evt.Notification.ID).
		Str("titulo", evt.Notification.Title).
		Str("from", evt.From.Slug()).
		Str("to", evt.To.Slug()).
		Int("actor_id", evt.Actor.UserID).
		Str("actor_role", string(evt.Actor.Role)).
		Time("at", evt.At).
		Msg("notification status changed")
	return nil
}

func (n *AuditNotifier) String() string {
	return "AuditNotifier"
}
