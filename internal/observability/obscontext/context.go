package obscontext

import "context"

type contextKey string

const (
	requestIDKey  contextKey = "request_id"
	actorRoleKey  contextKey = "actor_role"
	terminalIDKey contextKey = "terminal_id"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	value, _ := ctx.Value(requestIDKey).(string)
	return value
}

func WithActorRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, actorRoleKey, role)
}

func ActorRoleFromContext(ctx context.Context) string {
	value, _ := ctx.Value(actorRoleKey).(string)
	return value
}

func WithTerminalID(ctx context.Context, terminalID string) context.Context {
	return context.WithValue(ctx, terminalIDKey, terminalID)
}

func TerminalIDFromContext(ctx context.Context) string {
	value, _ := ctx.Value(terminalIDKey).(string)
	return value
}
