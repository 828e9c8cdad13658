package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"regie/internal/domain/audit"
	"regie/internal/domain/auth"
	"regie/internal/domain/charges"
	"regie/internal/domain/compensation"
	"regie/internal/platform/config"
	"regie/internal/platform/db"
	"regie/internal/platform/events"
	"regie/internal/platform/metrics"
	audithandler "regie/internal/transport/http/handlers/audit"
	chargeshandler "regie/internal/transport/http/handlers/charges"
	compensationhandler "regie/internal/transport/http/handlers/compensation"
	"regie/internal/transport/http/middleware"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type AuditService interface {
	chargeshandler.AuditRecorder
	audithandler.Lister
}

// Deps are the collaborators the HTTP router is built from.
type Deps struct {
	Config       config.Config
	Logger       *zap.Logger
	Metrics      *metrics.Collector
	DB           Pinger
	Charges      chargeshandler.Service
	Compensation compensationhandler.Service
	Audit        AuditService
	Idempotency  chargeshandler.IdempotencyStore
}

type App struct {
	Config  config.Config
	Logger  *zap.Logger
	DB      *pgxpool.Pool
	Events  events.Publisher
	Metrics *metrics.Collector
	Router  http.Handler
}

// New connects to Postgres, applies migrations when enabled and wires the
// services behind the router.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	book := charges.DefaultRateBook()
	if cfg.ChargesRatesFile != "" {
		loaded, err := charges.LoadRateBook(cfg.ChargesRatesFile)
		if err != nil {
			return nil, fmt.Errorf("load rate book: %w", err)
		}
		book = loaded
		logger.Info("rate book loaded", zap.String("file", cfg.ChargesRatesFile), zap.Int("schedules", len(book.Schedules())))
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if cfg.RunMigrations {
		applied, err := db.Migrate(ctx, pool, db.Migrations())
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
		logger.Info("migrations applied", zap.Strings("versions", applied))
	}

	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.New()
	}
	publisher := events.New(cfg.KafkaBrokers, cfg.KafkaTopic)
	if len(cfg.KafkaBrokers) > 0 {
		logger.Info("publishing charges events", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}

	compensationService := compensation.NewService(compensation.NewStore(pool))
	chargesService := charges.NewService(
		charges.NewStore(pool),
		compensationService,
		charges.WithRateBook(book),
		charges.WithPeriodFilter(cfg.ChargesFilterByPeriod),
		charges.WithPublisher(publisher),
		charges.WithRecorder(collector),
		charges.WithLogger(logger.Named("charges")),
	)

	router := NewRouter(Deps{
		Config:       cfg,
		Logger:       logger,
		Metrics:      collector,
		DB:           pool,
		Charges:      chargesService,
		Compensation: compensationService,
		Audit:        audit.New(pool),
		Idempotency:  middleware.NewIdempotencyStore(pool),
	})

	return &App{
		Config:  cfg,
		Logger:  logger,
		DB:      pool,
		Events:  publisher,
		Metrics: collector,
		Router:  router,
	}, nil
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	perms := auth.StaticPermissions{}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger.Named("http"), deps.Metrics))
	router.Use(middleware.Recoverer(logger))
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if deps.DB != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := deps.DB.Ping(ctx); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if deps.Metrics != nil {
		router.Handle("/metrics", deps.Metrics.Handler())
	}

	limiterLog := middleware.WithRateLimitLogger(logger.Named("ratelimit"))
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute, limiterLog))
		r.Use(middleware.MutationRateLimit(cfg.RateLimitPerMinute, time.Minute, limiterLog))

		compensationhandler.NewHandler(deps.Compensation, perms, deps.Audit, logger).RegisterRoutes(r)
		chargeshandler.NewHandler(deps.Charges, perms, deps.Audit, deps.Idempotency, logger).RegisterRoutes(r)
		if deps.Audit != nil {
			audithandler.NewHandler(deps.Audit, perms, logger).RegisterRoutes(r)
		}
	})

	return router
}

// Run serves until ctx is cancelled, then drains in-flight requests for at
// most Config.ShutdownTimeout.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	a.Logger.Info("server listening", zap.String("addr", a.Config.Addr), zap.String("env", a.Config.Environment))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (a *App) Close() {
	if a.Events != nil {
		if err := a.Events.Close(); err != nil {
			a.Logger.Warn("close event publisher", zap.Error(err))
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
