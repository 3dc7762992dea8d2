package alarm

import (
	"context"

	"google.golang.org/grpc/metadata"

	domain "github.com/viktoriya-kutsarova/project-gravity/internal/domain/alarm"
)

// Metadata keys carrying the calling actor.
const (
	hostnameKey = "x-gravity-hostname"
	usernameKey = "x-gravity-username"
)

// WithActor attaches actor to outgoing call metadata.
func WithActor(ctx context.Context, actor *domain.Actor) context.Context {
	if actor.IsZero() {
		return ctx
	}

	return metadata.AppendToOutgoingContext(ctx,
		hostnameKey, actor.Hostname,
		usernameKey, actor.Username,
	)
}

// ActorFromContext reads the calling actor from incoming metadata.
func ActorFromContext(ctx context.Context) *domain.Actor {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil
	}

	actor := &domain.Actor{
		Hostname: first(md.Get(hostnameKey)),
		Username: first(md.Get(usernameKey)),
	}

	if actor.IsZero() {
		return nil
	}

	return actor
}

// first returns the first value or an empty string.
func first(values []string) string {
	if len(values) == 0 {
		return ""
	}

	return values[0]
}
