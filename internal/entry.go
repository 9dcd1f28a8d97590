// Package internal provides the main application initialization and runtime logic.
package internal

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
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/Leocrydis/SENomexLayers/internal/api"
	"github.com/Leocrydis/SENomexLayers/internal/automation"
	"github.com/Leocrydis/SENomexLayers/internal/batch"
	"github.com/Leocrydis/SENomexLayers/internal/cache"
	"github.com/Leocrydis/SENomexLayers/internal/mcpserver"
	"github.com/Leocrydis/SENomexLayers/internal/partfs"
	"github.com/Leocrydis/SENomexLayers/internal/propstore"
	"github.com/Leocrydis/SENomexLayers/internal/reader"
	"github.com/Leocrydis/SENomexLayers/internal/sse"
)

// components wires the property-retrieval stack. Everything that talks to
// the automation server funnels through the single exclusive worker.
type components struct {
	parts    *partfs.FS
	worker   *automation.Worker
	locator  *automation.Locator
	cache    *cache.Cache // nil when disabled
	resolver *batch.Resolver
	svc      *api.Service
}

func buildComponents(cfg *Config, logger *slog.Logger) (*components, error) {
	parts, err := partfs.New(cfg.Search.Root, cfg.Search.Extensions)
	if err != nil {
		return nil, fmt.Errorf("init search root: %w", err)
	}

	connector := &automation.COMConnector{ProgID: cfg.Automation.ProgID}
	worker, err := automation.NewWorker(connector.ThreadHook())
	if err != nil {
		return nil, fmt.Errorf("init worker: %w", err)
	}

	locator := automation.NewLocator(connector, cfg.Automation.Headless, logger)
	guard := automation.NewGuard(automation.CallPolicy{
		Backoff:    cfg.Automation.Backoff(),
		MaxRetries: cfg.Automation.MaxRetries,
	}, logger)

	var propCache *cache.Cache
	if cfg.Cache.Enabled {
		propCache, err = cache.Open(cfg.Cache.Path)
		if err != nil {
			worker.Close()
			return nil, fmt.Errorf("init cache: %w", err)
		}
	}

	rd := reader.New(propstore.NewCompoundOpener(), locator, guard, propCache, logger)
	resolver := batch.New(parts, rd, cfg.Search.Prefix, logger)
	svc := api.NewService(worker, resolver, rd, parts)

	return &components{
		parts:    parts,
		worker:   worker,
		locator:  locator,
		cache:    propCache,
		resolver: resolver,
		svc:      svc,
	}, nil
}

// close releases the automation handle on the worker thread (the apartment
// it belongs to), stops the worker, and closes the cache.
func (c *components) close() {
	_ = c.worker.Do(context.Background(), func(context.Context) error {
		c.locator.Release()
		return nil
	})
	c.worker.Close()
	if c.cache != nil {
		if err := c.cache.Close(); err != nil {
			slog.Warn("close cache", slog.String("error", err.Error()))
		}
	}
}

// newLogger initializes the structured JSON logger. Batch and MCP modes log
// to stderr because stdout carries result lines / protocol frames.
func newLogger(cfg *Config, toStderr bool) *slog.Logger {
	w := os.Stdout
	if toStderr {
		w = os.Stderr
	}
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// RunBatch resolves the configured identifiers once and prints one line per
// matched property to the output writer, in identifier input order. Per-file
// failures are logged and skipped; only precondition violations abort.
func RunBatch(ctx context.Context, opts ...Option) error {
	app := &application{out: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	if len(app.identifiers) == 0 {
		return fmt.Errorf("at least one part identifier is required")
	}

	cfg := app.config
	logger := newLogger(cfg, true)

	logger.Info("Configuration loaded",
		slog.String("search_root", cfg.Search.Root),
		slog.String("prefix", cfg.Search.Prefix),
		slog.Int("identifiers", len(app.identifiers)),
		slog.String("log_level", cfg.App.LogLevel.String()))

	comps, err := buildComponents(cfg, logger)
	if err != nil {
		return err
	}
	defer comps.close()

	var res batch.Result
	err = comps.worker.Do(ctx, func(ctx context.Context) error {
		r, resolveErr := comps.resolver.Resolve(ctx, app.identifiers)
		res = r
		return resolveErr
	})
	if err != nil {
		return fmt.Errorf("batch failed: %w", err)
	}

	for _, m := range res.Matches {
		fmt.Fprintln(app.out, m.Line())
	}

	if len(res.Diagnostics) == len(app.identifiers) {
		return fmt.Errorf("no identifier could be processed (%d failures)", len(res.Diagnostics))
	}
	return nil
}

// RunMCP serves the resolver tools over MCP stdio transport.
func RunMCP(_ context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config
	logger := newLogger(cfg, true)

	comps, err := buildComponents(cfg, logger)
	if err != nil {
		return err
	}
	defer comps.close()

	logger.Info("MCP server starting on stdio")
	return mcpserver.New(comps.svc).ServeStdio()
}

// Run starts serve mode: the HTTP API, the SSE event stream, and (when the
// cache is enabled) the search-root watcher that keeps the cache honest.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config
	logger := newLogger(cfg, false)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("search_root", cfg.Search.Root),
		slog.Bool("cache_enabled", cfg.Cache.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	comps, err := buildComponents(cfg, logger)
	if err != nil {
		return err
	}
	defer comps.close()

	// SSE broker.
	broker := sse.NewBroker()
	defer broker.Close()

	// Build API router.
	apiRouter := api.NewRouter(comps.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the search root so cached property reads never go stale.
	if comps.cache != nil {
		g.Go(func() error {
			return cache.Watch(gCtx, comps.cache, comps.parts.Root(), comps.parts.Extensions(), logger,
				func(kind, path string) {
					broker.PublishPartEvent(kind, path)
				})
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
