package middleware

import (
	"net/http"

	"github.com/seojindev/idhub-backend/api/responses"
	"github.com/seojindev/idhub-backend/internal/authz"
	"github.com/seojindev/idhub-backend/pkg/enums"
	pkgerrors "github.com/seojindev/idhub-backend/pkg/errors"
	"github.com/seojindev/idhub-backend/pkg/logger"
	"github.com/seojindev/idhub-backend/pkg/metrics"
)

// Authorize evaluates the path protection policy against the request's
// principal. It sits after SessionAuth so anonymous requests arrive with a
// nil principal.
func Authorize(policy *authz.Policy, authMetrics *metrics.AuthMetrics, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			decision := policy.Evaluate(PrincipalFromContext(ctx), r.URL.Path)
			if decision.Allowed {
				next.ServeHTTP(w, r)
				return
			}

			authMetrics.ObserveDenial(decision.Rule)
			if logg != nil {
				logg.Warn(logg.WithField(ctx, "rule", decision.Rule), "authz.denied")
			}
			responses.WriteError(ctx, logg, w, decision.Err)
		})
	}
}

// RequireRole guards a route subtree with an exact role check. It is a
// belt-and-suspenders layer under the path policy for handlers mounted
// outside the protected prefixes.
func RequireRole(role enums.Role, logg *logger.Logger) func(http.Handler) http.Handler {
	return RequireAnyRole(logg, role)
}

// RequireAnyRole guards a route subtree, accepting any of the given roles.
func RequireAnyRole(logg *logger.Logger, roles ...enums.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := PrincipalFromContext(r.Context())
			if principal == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
				return
			}
			if !principal.HasAnyRole(roles...) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "insufficient role"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
