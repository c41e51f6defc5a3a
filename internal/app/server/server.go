package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"leavedesk/internal/domain/audit"
	"leavedesk/internal/domain/directory"
	"leavedesk/internal/domain/leave"
	"leavedesk/internal/domain/notifications"
	"leavedesk/internal/platform/config"
	"leavedesk/internal/platform/db"
	"leavedesk/internal/platform/jobs"
	"leavedesk/internal/platform/metrics"
	"leavedesk/internal/transport/http/api"
	audithandler "leavedesk/internal/transport/http/handlers/audit"
	directoryhandler "leavedesk/internal/transport/http/handlers/directory"
	leavehandler "leavedesk/internal/transport/http/handlers/leave"
	notificationshandler "leavedesk/internal/transport/http/handlers/notifications"
	"leavedesk/internal/transport/http/middleware"
)

// Services bundles every service the router needs. Tests assemble it over
// in-memory stores; New wires it over Postgres.
type Services struct {
	Config      config.Config
	Registry    *leave.Registry
	Workflow    *leave.Workflow
	Ledger      *leave.Ledger
	Accruals    *leave.AccrualEngine
	Adjustments *leave.AdjustmentRecorder
	Balances    leave.BalanceStore
	Directory   directory.StoreAPI
	Audit       *audit.Service
	Notify      *notifications.Service
	Jobs        *jobs.Service
	Metrics     *metrics.Collector
	Ready       func(ctx context.Context) error
}

type App struct {
	Config   config.Config
	Pool     *pgxpool.Pool
	Router   http.Handler
	Jobs     *jobs.Service
	Services Services
}

func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
}

// New connects to Postgres, runs migrations and seeds, and wires the full
// application.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
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

	leaveStore := leave.NewStore(pool)
	dirStore := directory.NewStore(pool)
	auditSvc := audit.New(audit.NewStore(pool))
	notifySvc := notifications.New(notifications.NewStore(pool))
	collector := metrics.New()

	registry := leave.NewRegistry(leaveStore)
	ledger := leave.NewLedger(leaveStore, leaveStore)
	if cfg.MetricsEnabled {
		ledger.Metrics = collector
	}
	workflow := leave.NewWorkflow(leaveStore, registry, ledger, dirStore, decimal.NewFromInt(int64(cfg.HoursPerDay)))
	accruals := leave.NewAccrualEngine(registry, dirStore, ledger, leaveStore)
	adjustments := leave.NewAdjustmentRecorder(leaveStore, ledger, cfg.AdjustmentReasonMinLen)

	jobsSvc := jobs.New(pool, accruals, dirStore, cfg.AccrualInterval)

	services := Services{
		Config:      cfg,
		Registry:    registry,
		Workflow:    workflow,
		Ledger:      ledger,
		Accruals:    accruals,
		Adjustments: adjustments,
		Balances:    leaveStore,
		Directory:   dirStore,
		Audit:       auditSvc,
		Notify:      notifySvc,
		Jobs:        jobsSvc,
		Metrics:     collector,
		Ready: func(ctx context.Context) error {
			return pool.Ping(ctx)
		},
	}

	return &App{
		Config:   cfg,
		Pool:     pool,
		Router:   NewRouter(services),
		Jobs:     jobsSvc,
		Services: services,
	}, nil
}

func NewRouter(s Services) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(s.Config.Environment == "production"))
	router.Use(middleware.BodyLimit(s.Config.MaxBodyBytes))
	router.Use(middleware.Auth(s.Config.JWTSecret))
	if s.Config.RateLimitPerMinute > 0 {
		router.Use(middleware.RateLimit(s.Config.RateLimitPerMinute, time.Minute))
	}
	if s.Config.MetricsEnabled && s.Metrics != nil {
		router.Use(middleware.Metrics(s.Metrics))
	}

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if s.Ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := s.Ready(ctx); err != nil {
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if s.Config.MetricsEnabled && s.Metrics != nil {
		router.Get("/metricsz", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, s.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		leaveHandler := &leavehandler.Handler{
			Registry:    s.Registry,
			Workflow:    s.Workflow,
			Accruals:    s.Accruals,
			Adjustments: s.Adjustments,
			Balances:    s.Balances,
			Directory:   s.Directory,
			Notify:      s.Notify,
			Audit:       s.Audit,
			Jobs:        s.Jobs,
		}
		leaveHandler.RegisterRoutes(r)

		dirHandler := &directoryhandler.Handler{Store: s.Directory, Audit: s.Audit}
		dirHandler.RegisterRoutes(r)

		auditHandler := &audithandler.Handler{Audit: s.Audit}
		auditHandler.RegisterRoutes(r)

		notifyHandler := &notificationshandler.Handler{Notify: s.Notify}
		notifyHandler.RegisterRoutes(r)
	})

	return router
}
