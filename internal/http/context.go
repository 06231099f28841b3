package http

import (
	"context"
	"log/slog"

	"github.com/example/callboard/internal/application"
	"github.com/example/callboard/internal/logging"
)

type contextKey string

const userContextKey contextKey = "user"

// ContextWithUser returns a derived context carrying the authenticated account.
func ContextWithUser(ctx context.Context, user application.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext extracts the authenticated account from context if available.
func UserFromContext(ctx context.Context) (application.User, bool) {
	user, ok := ctx.Value(userContextKey).(application.User)
	return user, ok
}

// ContextWithLogger attaches a request-scoped logger to the context.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext returns the request-scoped logger, or nil.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}
