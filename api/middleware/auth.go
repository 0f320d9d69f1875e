package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/seojindev/idhub-backend/internal/identity"
	"github.com/seojindev/idhub-backend/pkg/config"
	"github.com/seojindev/idhub-backend/pkg/logger"
	"github.com/seojindev/idhub-backend/pkg/session"
)

type sessionReader interface {
	Get(ctx context.Context, sessionID string, dest any) error
}

// SessionAuth resolves the session cookie into a principal and seeds the
// request context. Requests without a valid session pass through anonymous;
// the authorization layer decides whether that is acceptable per path.
func SessionAuth(cfg config.SessionConfig, sessions sessionReader, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cfg.CookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			var principal identity.Principal
			if err := sessions.Get(ctx, cookie.Value, &principal); err != nil {
				if !errors.Is(err, session.ErrNoSession) && logg != nil {
					logg.Warn(logg.WithField(ctx, "error", err.Error()), "session.lookup_failed")
				}
				// stale or unknown cookie, treat as anonymous
				next.ServeHTTP(w, r)
				return
			}

			ctx = WithPrincipal(ctx, &principal, cookie.Value)
			if logg != nil {
				ctx = logg.WithUserID(ctx, principal.UserID.String())
				ctx = logg.WithRole(ctx, principal.Role.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
