package auth

import "context"

// Actor identifies the user on whose behalf an operation runs.
type Actor struct {
	ID   string
	Name string
}

// Channel values recorded in role metadata.
const (
	ChannelHTTP = "http"
	ChannelCLI  = "cli"
)

type actorContextKey struct{}

// WithActor stores the acting user on the context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext returns the acting user, if any.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	if !ok || actor.ID == "" {
		return Actor{}, false
	}
	return actor, true
}

type channelContextKey struct{}

// WithChannel records which surface (http, cli) initiated the operation.
func WithChannel(ctx context.Context, channel string) context.Context {
	return context.WithValue(ctx, channelContextKey{}, channel)
}

// ChannelFromContext returns the initiating surface, defaulting to "api".
func ChannelFromContext(ctx context.Context) string {
	if ch, ok := ctx.Value(channelContextKey{}).(string); ok && ch != "" {
		return ch
	}
	return "api"
}
