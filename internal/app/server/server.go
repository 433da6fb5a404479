package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"timeoff/internal/domain/audit"
	"timeoff/internal/domain/auth"
	"timeoff/internal/domain/balance"
	"timeoff/internal/domain/notifications"
	"timeoff/internal/domain/reports"
	"timeoff/internal/domain/settings"
	"timeoff/internal/domain/vacation"
	"timeoff/internal/platform/config"
	"timeoff/internal/platform/db"
	"timeoff/internal/platform/email"
	"timeoff/internal/platform/metrics"
	"timeoff/internal/requestctx"
	"timeoff/internal/transport/http/api"
	adminhandler "timeoff/internal/transport/http/handlers/admin"
	authhandler "timeoff/internal/transport/http/handlers/auth"
	notificationshandler "timeoff/internal/transport/http/handlers/notifications"
	reportshandler "timeoff/internal/transport/http/handlers/reports"
	vacationhandler "timeoff/internal/transport/http/handlers/vacation"
	"timeoff/internal/transport/http/middleware"
)

type App struct {
	Config config.Config
	DB     *pgxpool.Pool
	Router chi.Router
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, "migrations"); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	app := &App{Config: cfg, DB: pool}
	app.Router = app.buildRouter()
	return app, nil
}

func (a *App) buildRouter() chi.Router {
	cfg := a.Config

	authStore := auth.NewStore(a.DB)
	settingsSvc := settings.NewService(settings.NewStore(a.DB))
	ledger := balance.NewLedger(a.DB)
	vacationSvc := vacation.NewService(vacation.NewStore(a.DB), ledger, settingsSvc)
	notifySvc := notifications.New(notifications.NewStore(a.DB), email.New(cfg), cfg.EmailEnabled, cfg.EmailFrom)
	auditSvc := audit.New(a.DB)
	reportsSvc := reports.NewService(reports.NewStore(a.DB))

	collector := metrics.New()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(collector))
	r.Use(middleware.Recoverer)
	r.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	r.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	r.Use(middleware.Auth(cfg.JWTSecret))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, map[string]any{"status": "ok"}, requestctx.GetRequestID(r.Context()))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.DB.Ping(ctx); err != nil {
			api.Fail(w, http.StatusServiceUnavailable, "not_ready", "database unreachable", requestctx.GetRequestID(r.Context()))
			return
		}
		api.Success(w, map[string]any{"status": "ready"}, requestctx.GetRequestID(r.Context()))
	})
	if cfg.MetricsEnabled {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.RequireAdmin)
			r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
				api.Success(w, collector.Snapshot(), requestctx.GetRequestID(r.Context()))
			})
		})
	}

	r.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(authStore, cfg.JWTSecret).RegisterRoutes(r)
		vacationhandler.NewHandler(vacationSvc, ledger, notifySvc, auditSvc).RegisterRoutes(r)
		adminhandler.NewHandler(authStore, ledger, settingsSvc, auditSvc).RegisterRoutes(r)
		reportshandler.NewHandler(reportsSvc).RegisterRoutes(r)
		notificationshandler.NewHandler(notifySvc).RegisterRoutes(r)
	})

	return r
}

// Run builds the application from the environment and serves it until
// SIGINT or SIGTERM, then drains in-flight requests before exiting.
func Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.Load()
	app, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.DB.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", cfg.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
