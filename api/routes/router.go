package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/seojindev/idhub-backend/api/controllers"
	"github.com/seojindev/idhub-backend/api/middleware"
	"github.com/seojindev/idhub-backend/internal/auth"
	"github.com/seojindev/idhub-backend/internal/authz"
	"github.com/seojindev/idhub-backend/internal/oauth"
	"github.com/seojindev/idhub-backend/internal/users"
	"github.com/seojindev/idhub-backend/pkg/config"
	"github.com/seojindev/idhub-backend/pkg/enums"
	"github.com/seojindev/idhub-backend/pkg/logger"
	"github.com/seojindev/idhub-backend/pkg/metrics"
)

type pinger interface {
	Ping(context.Context) error
}

type rateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
}

type sessionReader interface {
	Get(ctx context.Context, sessionID string, dest any) error
}

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           pinger
	Redis        pinger
	RateLimiter  rateLimiterStore
	Sessions     sessionReader
	AuthService  auth.Service
	UsersService users.Service
	OAuthClient  *oauth.Client
	Metrics      *metrics.AuthMetrics
	Registry     *prometheus.Registry
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.ExtraOrigins),
		middleware.SessionAuth(cfg.Session, deps.Sessions, logg),
		middleware.Authorize(authz.DefaultPolicy(), deps.Metrics, logg),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginUsernameLimit,
		cfg.AuthRateLimit.TrustProxyHeaders,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		0,
		cfg.AuthRateLimit.TrustProxyHeaders,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, deps.RateLimiter, logg)).
			Post("/register", controllers.AuthRegister(deps.AuthService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, deps.RateLimiter, logg)).
			Post("/login", controllers.AuthLogin(deps.AuthService, cfg.Session, logg))
		r.Post("/logout", controllers.AuthLogout(deps.AuthService, cfg.Session, logg))
	})

	r.Route("/api/v1/oauth/{provider}", func(r chi.Router) {
		r.Get("/authorize", controllers.OAuthAuthorize(deps.OAuthClient, cfg.OAuth, logg))
		r.Get("/callback", controllers.OAuthCallback(deps.AuthService, deps.OAuthClient, cfg.OAuth, cfg.Session, logg))
	})

	r.Route("/api/v1/user", func(r chi.Router) {
		r.Get("/me", controllers.UserMe(logg))
	})

	r.Route("/api/v1/manager", func(r chi.Router) {
		r.Use(middleware.RequireAnyRole(logg, enums.RoleAdmin, enums.RoleManager))
		r.Get("/reports/accounts", controllers.ManagerAccountReport(deps.UsersService, logg))
	})

	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(middleware.RequireRole(enums.RoleAdmin, logg))
		r.Get("/users", controllers.AdminListUsers(deps.UsersService, logg))
		r.Get("/users/{userId}", controllers.AdminGetUser(deps.UsersService, logg))
		r.Patch("/users/{userId}/role", controllers.AdminUpdateUserRole(deps.UsersService, logg))
		r.Patch("/users/{userId}/active", controllers.AdminSetUserActive(deps.UsersService, logg))
	})

	return r
}
