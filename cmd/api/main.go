package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/seojindev/idhub-backend/api/routes"
	"github.com/seojindev/idhub-backend/internal/auth"
	"github.com/seojindev/idhub-backend/internal/identity"
	"github.com/seojindev/idhub-backend/internal/oauth"
	"github.com/seojindev/idhub-backend/internal/users"
	"github.com/seojindev/idhub-backend/pkg/config"
	"github.com/seojindev/idhub-backend/pkg/db"
	"github.com/seojindev/idhub-backend/pkg/env"
	"github.com/seojindev/idhub-backend/pkg/logger"
	"github.com/seojindev/idhub-backend/pkg/metrics"
	"github.com/seojindev/idhub-backend/pkg/migrate"
	"github.com/seojindev/idhub-backend/pkg/redis"
	"github.com/seojindev/idhub-backend/pkg/session"
	"go.uber.org/multierr"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server exited with error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		closeErr := dbClient.Close()
		return multierr.Append(err, closeErr)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		closeErr := dbClient.Close()
		return multierr.Append(err, closeErr)
	}

	sessionManager, err := session.NewManager(redisClient, cfg.Session)
	if err != nil {
		return multierr.Combine(err, redisClient.Close(), dbClient.Close())
	}

	userRepo := users.NewRepository(dbClient.DB())

	usersService, err := users.NewService(userRepo)
	if err != nil {
		return multierr.Combine(err, redisClient.Close(), dbClient.Close())
	}

	registry := prometheus.NewRegistry()
	authMetrics := metrics.NewAuthMetrics(registry)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		Resolver:       identity.NewResolver(userRepo, cfg.Password, logg),
		SessionManager: sessionManager,
		PasswordConfig: cfg.Password,
		Metrics:        authMetrics,
		Logger:         logg,
	})
	if err != nil {
		return multierr.Combine(err, redisClient.Close(), dbClient.Close())
	}

	router := routes.NewRouter(routes.Deps{
		Config:       cfg,
		Logger:       logg,
		DB:           dbClient,
		Redis:        redisClient,
		RateLimiter:  redisClient,
		Sessions:     sessionManager,
		AuthService:  authService,
		UsersService: usersService,
		OAuthClient:  oauth.NewClient(cfg.OAuth),
		Metrics:      authMetrics,
		Registry:     registry,
	})

	addr := ":" + env.Get("PORT", cfg.App.Port)

	startCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(startCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	var runErr error
	select {
	case err := <-serveErr:
		runErr = err
	case <-ctx.Done():
		logg.Info(context.Background(), "shutdown signal received, draining connections")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		runErr = server.Shutdown(shutdownCtx)
		<-serveErr
	}

	return multierr.Combine(runErr, redisClient.Close(), dbClient.Close())
}
