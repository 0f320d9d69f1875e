package middleware

import (
	"context"

	"github.com/seojindev/idhub-backend/internal/identity"
)

type contextKey string

const (
	ctxPrincipal contextKey = "principal"
	ctxSessionID contextKey = "session_id"
)

// PrincipalFromContext returns the authenticated principal, or nil when the
// request is anonymous.
func PrincipalFromContext(ctx context.Context) *identity.Principal {
	if ctx == nil {
		return nil
	}
	if p, ok := ctx.Value(ctxPrincipal).(*identity.Principal); ok {
		return p
	}
	return nil
}

// SessionIDFromContext returns the session id backing the principal.
func SessionIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSessionID).(string); ok {
		return v
	}
	return ""
}

// WithPrincipal seeds the context with the resolved principal and session id.
func WithPrincipal(ctx context.Context, principal *identity.Principal, sessionID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxPrincipal, principal)
	return context.WithValue(ctx, ctxSessionID, sessionID)
}
