package core

import "context"

type actorCtxKey struct{}

// Actor is the verified caller of a service operation.
type Actor struct {
	ID       int
	Username string
	IsAdmin  bool
}

// WithActor returns a copy of ctx carrying the verified caller.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorCtxKey{}, actor)
}

// ActorFromContext returns the caller stored by WithActor.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorCtxKey{}).(Actor)
	return actor, ok && actor.ID != 0
}

// RequireActor fails with ErrUnauthorized when ctx carries no verified caller.
func RequireActor(ctx context.Context) (Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return Actor{}, ErrUnauthorized
	}
	return actor, nil
}
