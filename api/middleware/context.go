package middleware

import (
	"context"

	"github.com/freshmart/storefront-backend/pkg/auth/session"
)

type contextKey string

const ctxSession contextKey = "session"

// WithSession injects the request's session into the context.
func WithSession(ctx context.Context, sess *session.Session) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSession, sess)
}

func SessionFromContext(ctx context.Context) *session.Session {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxSession).(*session.Session); ok {
		return v
	}
	return nil
}

// CurrentUser returns the logged-in user, or nil for anonymous visitors.
func CurrentUser(ctx context.Context) *session.User {
	sess := SessionFromContext(ctx)
	if sess == nil {
		return nil
	}
	return sess.State.User
}
