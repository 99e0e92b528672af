package authz

import (
	"context"
	"net/http"

	"github.com/stanstork/condo-notify/internal/models"
)

type contextKey string

const actorKey contextKey = "actor"

// WithActor stores the authenticated actor on the context.
func WithActor(ctx context.Context, actor models.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

func ActorFromContext(ctx context.Context) (models.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(models.Actor)
	if !ok || actor.UserID <= 0 || !models.IsValidRole(actor.Role) {
		return models.Actor{}, false
	}
	return actor, true
}

func ActorFromRequest(r *http.Request) (models.Actor, bool) {
	return ActorFromContext(r.Context())
}
