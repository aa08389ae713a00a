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
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/docsauthor/internal/api"
	"github.com/starford/docsauthor/internal/authoring"
	"github.com/starford/docsauthor/internal/history"
	"github.com/starford/docsauthor/internal/redirect"
	"github.com/starford/docsauthor/internal/sse"
	"github.com/starford/docsauthor/internal/template"
	"github.com/starford/docsauthor/internal/watcher"
)

// App holds the wired components shared by every command.
type App struct {
	cfg    *Config
	logger *slog.Logger
	db     *history.DB
	gen    *redirect.Generator
	svc    *authoring.Service
	broker *sse.Broker
}

// New wires the application from the given options. The caller must Close
// the returned App.
func New(opts ...Option) (*App, error) {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}

	cfg := app.config

	logger := app.logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}
	slog.SetDefault(logger)

	logger.Debug("Configuration loaded",
		slog.String("workspace_root", cfg.Workspace.Root),
		slog.String("authoring_home", cfg.Authoring.Home),
		slog.String("history_path", cfg.History.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if err := os.MkdirAll(filepath.Dir(cfg.History.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	db, err := history.Open(cfg.History.Path)
	if err != nil {
		return nil, fmt.Errorf("init history: %w", err)
	}

	a := &App{cfg: cfg, logger: logger, db: db}

	a.gen = redirect.NewGenerator(cfg.Authoring.RedirectsPath(),
		redirect.WithWorkers(cfg.Redirect.Workers),
		redirect.WithRecorder(db),
		redirect.WithLogger(logger))

	pub := app.publisher
	if pub == nil {
		a.broker = sse.NewBroker(2 * time.Second)
		pub = a.broker
	}

	a.svc = authoring.NewService(authoring.Deps{
		Root:         cfg.Workspace.Root,
		Home:         cfg.Authoring.Home,
		TemplatesDir: cfg.Authoring.TemplatesPath(),
		Generator:    a.gen,
		Ledger:       db,
		Templates: template.NewDownloader(cfg.Template.BaseURL, cfg.Template.Repo, cfg.Template.Branch,
			&http.Client{Timeout: cfg.Template.Timeout}, logger),
		Publisher: pub,
		Logger:    logger,
	})

	return a, nil
}

// Config returns the configuration the App was built with.
func (a *App) Config() *Config { return a.cfg }

// Service returns the authoring service.
func (a *App) Service() *authoring.Service { return a.svc }

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger { return a.logger }

// Close releases the history database and the SSE broker.
func (a *App) Close() error {
	if a.broker != nil {
		a.broker.Close()
	}
	return a.db.Close()
}

// Watch recomputes a dry-run redirect plan whenever Markdown files below root
// change, until ctx is cancelled. An empty root uses the configured workspace.
func (a *App) Watch(ctx context.Context, root string, cb watcher.PlanCallback) error {
	if root == "" {
		root = a.cfg.Workspace.Root
	}
	repo, err := redirect.OpenRepo(root)
	if err != nil {
		return err
	}
	return watcher.Watch(ctx, a.gen, repo.Root(), a.cfg.Redirect.WatchDebounce, a.logger, cb)
}

// Run wires the application and serves the HTTP API until a shutdown signal
// arrives or ctx is cancelled.
func Run(ctx context.Context, opts ...Option) error {
	a, err := New(opts...)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.Serve(ctx)
}

// Serve runs the HTTP API, the SSE endpoint and, when a workspace is
// configured, the redirect watcher.
func (a *App) Serve(ctx context.Context) error {
	if a.broker == nil {
		return fmt.Errorf("serve requires the SSE broker")
	}
	cfg := a.cfg
	logger := a.logger

	apiRouter := api.NewRouter(a.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, a.broker)

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
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := a.svc.History(r.Context(), 1); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.Bool("auth", cfg.Auth.AuthEnabled()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the workspace and push dry-run plans to SSE clients.
	if cfg.Workspace.Root != "" {
		g.Go(func() error {
			if err := a.Watch(gCtx, "", a.svc.PublishPlan); err != nil {
				logger.Warn("watcher disabled", slog.String("error", err.Error()))
			}
			return nil
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
		defer signal.Stop(quit)

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

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")
