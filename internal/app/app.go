// Package app wires the application: it builds every component from config
// and database handles, and runs the HTTP server with its background
// session sweeper.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/karthik2365/data-cleaning/internal/api"
	"github.com/karthik2365/data-cleaning/internal/config"
	"github.com/karthik2365/data-cleaning/internal/domain"
	"github.com/karthik2365/data-cleaning/internal/generate"
	"github.com/karthik2365/data-cleaning/internal/ingest"
	"github.com/karthik2365/data-cleaning/internal/metrics"
	"github.com/karthik2365/data-cleaning/internal/repository"
	"github.com/karthik2365/data-cleaning/internal/sandbox"
	"github.com/karthik2365/data-cleaning/internal/service/session"
	"github.com/karthik2365/data-cleaning/internal/service/transform"
)

// Deps holds the external dependencies that main() must provide: config,
// the audit database handles, and the root logger.
type Deps struct {
	Cfg     *config.Config
	WriteDB *sql.DB
	ReadDB  *sql.DB
	Logger  *slog.Logger
}

// App is the fully-wired application.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *session.Store
	sweeper *session.Sweeper
	server  *http.Server
}

// New builds every component from deps. The collaborator client is the
// OpenAI-compatible endpoint when one is configured, otherwise the
// rule-based fallback.
func New(ctx context.Context, deps Deps) (*App, error) {
	cfg := deps.Cfg
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Validate the embedded API document up front so a bad build fails at
	// startup, not on the first /openapi.json request.
	if _, err := api.LoadOpenAPI(ctx); err != nil {
		return nil, fmt.Errorf("openapi document: %w", err)
	}

	store := session.NewStore(cfg.SessionTTL, logger)
	rt := sandbox.New(sandbox.Options{
		MaxSteps: cfg.ExecMaxSteps,
		Timeout:  cfg.ExecTimeout,
		MaxRows:  int(cfg.MaxProcessRows),
	}, logger)
	ingester := ingest.New(cfg.MaxUploadBytes, logger)

	var gen domain.Generator
	if cfg.Gen.Enabled() {
		gen = generate.NewClient(generate.Config{
			Endpoint: cfg.Gen.Endpoint,
			Model:    cfg.Gen.Model,
			APIKey:   cfg.Gen.APIKey,
			Timeout:  cfg.Gen.Timeout,
		}, logger)
		logger.Info("code generation enabled", "endpoint", cfg.Gen.Endpoint, "model", cfg.Gen.Model)
	} else {
		gen = generate.NewRuleBased()
		logger.Info("code generation running rule-based, set GEN_ENDPOINT to use a model")
	}

	recipes, err := transform.LoadRecipes()
	if err != nil {
		return nil, fmt.Errorf("load recipes: %w", err)
	}

	auditRepo := repository.NewAuditStore(deps.WriteDB, deps.ReadDB)
	m := metrics.New(store.Len)

	svc := transform.NewService(transform.Options{
		Store:      store,
		Ingester:   ingester,
		Sandbox:    rt,
		Gen:        gen,
		Audit:      auditRepo,
		Metrics:    m,
		Recipes:    recipes,
		SampleRows: cfg.SampleRows,
		Logger:     logger,
	})

	handler := api.NewHandler(svc, cfg.MaxUploadBytes, logger)
	router := api.NewRouter(handler, logger, api.RouterConfig{
		CORSOrigins:    cfg.CORSAllowedOrigins,
		RateRPS:        cfg.RateLimitRPS,
		RateBurst:      cfg.RateLimitBurst,
		MetricsHandler: m.Handler(),
	})

	return &App{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		sweeper: session.NewSweeper(store, auditRepo, logger),
		server: &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Run starts the sweeper and the HTTP server and blocks until ctx is
// cancelled or a termination signal arrives, then shuts down in order:
// stop accepting requests, stop the sweeper, drop live sessions.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.sweeper.Start(a.cfg.SweepEvery); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", a.cfg.ListenAddr, "env", a.cfg.Env)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.sweeper.Stop()
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http shutdown", "error", err)
	}
	a.sweeper.Stop()
	if n := a.store.Clear(); n > 0 {
		a.logger.Info("dropped live sessions", "count", n)
	}
	return nil
}
