package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"findspot-server/internal/auth"
	"findspot-server/internal/config"
	"findspot-server/internal/db"
	"findspot-server/internal/items"
	"findspot-server/internal/maintenance"
	"findspot-server/internal/observability"
	"findspot-server/internal/users"
)

type Options struct {
	LoadDotEnv bool
}

// Runtime is the fully wired service: an http.Handler behind the gate and
// observability middleware, plus hooks to run the sweeper and shut down.
type Runtime struct {
	Handler http.Handler
	Sweeper *auth.Sweeper
	Close   func() error
}

func Build(options Options) (*Runtime, error) {
	cfg, err := config.Load(options.LoadDotEnv)
	if err != nil {
		return nil, err
	}

	logger := observability.NewLogger()

	if err := observability.InitSentry(cfg.SentryDSN, cfg.AppEnv); err != nil {
		logger.Error("init_sentry_failed", map[string]any{"error": err.Error()})
	}

	database, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	database.SetMaxOpenConns(cfg.DBMaxOpenConns)
	database.SetMaxIdleConns(cfg.DBMaxIdleConns)
	database.SetConnMaxLifetime(cfg.DBConnMaxLifetime)
	database.SetConnMaxIdleTime(cfg.DBConnMaxIdleTime)

	if err := database.Ping(); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if cfg.RunMigrations {
		if err := db.RunMigrations(database); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	userRepo := users.NewRepository(database)
	itemRepo := items.NewRepository(database)

	codec := auth.NewCodec(cfg.JWTSecret, cfg.AccessTokenTTL)
	refreshStore := auth.NewStore(database, cfg.RefreshTokenTTL)
	authenticator := auth.NewAuthenticator(userRepo)
	sessionService := auth.NewService(authenticator, codec, refreshStore)
	authHandler := auth.NewHandler(sessionService, auth.CookieConfig{
		Name: cfg.RefreshCookieName,
		Path: cfg.RefreshCookiePath,
	})

	userHandler := users.NewHandler(userRepo, refreshStore)
	itemHandler := items.NewHandler(itemRepo, userRepo)
	cleanupHandler := maintenance.NewCleanupHandler(refreshStore, logger, cfg.CronSecret, cfg.SweepBatchSize)

	loginLimiter := auth.NewLoginRateLimiter(cfg.LoginRateLimitMax, cfg.LoginRateLimitWindow)

	mux := http.NewServeMux()
	mux.Handle("POST /api/auth/login", loginLimiter.Middleware(http.HandlerFunc(authHandler.Login)))
	mux.HandleFunc("POST /api/auth/register", userHandler.Register)
	mux.HandleFunc("POST /api/auth/refresh-token", authHandler.Refresh)
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)

	mux.HandleFunc("POST /api/items/lost", itemHandler.ReportLost)
	mux.HandleFunc("POST /api/items/found", itemHandler.ReportFound)
	mux.HandleFunc("GET /api/items/lost", itemHandler.ListLost)
	mux.HandleFunc("GET /api/items/found", itemHandler.ListFound)
	mux.HandleFunc("GET /api/items/my-items", itemHandler.MyItems)
	mux.HandleFunc("GET /api/items/my-lost", itemHandler.MyLost)
	mux.HandleFunc("GET /api/items/my-found", itemHandler.MyFound)
	mux.HandleFunc("GET /api/items/my-resolved", itemHandler.MyResolved)
	mux.HandleFunc("GET /api/items/{id}", itemHandler.GetItem)
	mux.HandleFunc("PUT /api/items/{id}", itemHandler.UpdateItem)
	mux.HandleFunc("DELETE /api/items/{id}", itemHandler.DeleteItem)
	mux.HandleFunc("POST /api/items/{id}/status", itemHandler.UpdateStatus)
	mux.HandleFunc("POST /api/items/{id}/reopen", itemHandler.ReopenItem)

	mux.HandleFunc("GET /api/users/profile", userHandler.GetProfile)
	mux.HandleFunc("PUT /api/users/profile", userHandler.UpdateProfile)
	mux.HandleFunc("GET /api/users/stats", userHandler.GetStats)
	mux.HandleFunc("PUT /api/users/change-password", userHandler.ChangePassword)
	mux.HandleFunc("GET /api/users/settings", userHandler.GetSettings)
	mux.HandleFunc("PUT /api/users/settings/notifications", userHandler.UpdateNotificationSettings)
	mux.HandleFunc("PUT /api/users/settings/privacy", userHandler.UpdatePrivacySettings)
	mux.HandleFunc("PUT /api/users/settings/display", userHandler.UpdateDisplaySettings)
	mux.HandleFunc("POST /api/users/items/{id}/save", userHandler.SaveItem)
	mux.HandleFunc("GET /api/users/saved-items", userHandler.SavedItems)
	mux.HandleFunc("DELETE /api/users/account", userHandler.DeleteAccount)

	mux.HandleFunc("GET /internal/maintenance/cleanup", cleanupHandler.Handle)
	mux.HandleFunc("POST /internal/maintenance/cleanup", cleanupHandler.Handle)
	mux.HandleFunc("GET /health", healthHandler(database))

	// The gate wraps the whole mux: no handler is reachable without passing
	// the route policy.
	gate := auth.NewGate(auth.DefaultPolicy(), codec, logger)
	handler := observability.RecoverMiddleware(logger,
		observability.RequestLoggingMiddleware(logger,
			gate.Middleware(mux)))

	sweeper := auth.NewSweeper(refreshStore, logger, cfg.SweepInterval, cfg.SweepBatchSize)

	return &Runtime{
		Handler: handler,
		Sweeper: sweeper,
		Close: func() error {
			observability.FlushSentry()
			return database.Close()
		},
	}, nil
}

func healthHandler(database *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]any{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)}
		if err := database.PingContext(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body = map[string]any{"status": "degraded", "time": time.Now().UTC().Format(time.RFC3339)}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}
