// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/marca/internal/analysis"
	"github.com/starford/marca/internal/api"
	"github.com/starford/marca/internal/cache"
	"github.com/starford/marca/internal/mcpserver"
	"github.com/starford/marca/internal/registry"
	"github.com/starford/marca/internal/scoring"
	"github.com/starford/marca/internal/session"
)

// stack is the wired dependency graph shared by the HTTP and MCP front ends.
type stack struct {
	logger   *slog.Logger
	level    *slog.LevelVar
	engine   *scoring.Engine
	sessions *session.Manager
	service  *analysis.Service
}

func newApplication(opts []Option) (*application, error) {
	app := &application{logOutput: os.Stdout, version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

func build(cfg *Config, out io.Writer) *stack {
	level := new(slog.LevelVar)
	level.Set(cfg.App.LogLevel)
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	rc := cfg.Registry
	httpClient := registry.NewHTTPClient(rc.Timeout, rc.MaxRedirects)

	sessions := session.NewManager(session.Config{
		EntryURL:       rc.EntryURL,
		UserAgent:      rc.UserAgent,
		AcceptLanguage: rc.AcceptLanguage,
		TTL:            rc.SessionTTL,
		Timeout:        rc.Timeout,
	}, httpClient, session.WithLogger(logger))

	client := registry.NewClient(registry.Config{
		SearchURL:       rc.SearchURL,
		Referer:         rc.EntryURL,
		UserAgent:       rc.UserAgent,
		CaptchaAttempts: rc.CaptchaAttempts,
		CaptchaDelay:    rc.CaptchaDelay,
	}, httpClient, sessions,
		registry.WithParser(registry.NewHTMLParser(rc.Selectors)),
		registry.WithLogger(logger),
	)

	engine := scoring.NewEngine(cfg.Scoring.Policy())
	responses := cache.New(cfg.Cache.TTL, cache.WithLogger(logger))

	return &stack{
		logger:   logger,
		level:    level,
		engine:   engine,
		sessions: sessions,
		service:  analysis.NewService(client, responses, engine, sessions, logger),
	}
}

// apply swaps in the parts of cfg that may change at runtime.
func (s *stack) apply(cfg *Config) {
	s.level.Set(cfg.App.LogLevel)
	s.engine.SetPolicy(cfg.Scoring.Policy())
	s.logger.Info("Configuration applied",
		slog.String("log_level", cfg.App.LogLevel.String()),
		slog.Int("active_statuses", len(cfg.Scoring.ActiveStatuses)),
		slog.Int("opposition_statuses", len(cfg.Scoring.OppositionStatuses)))
}

// watch starts the config watcher in g when enabled.
func (s *stack) watch(ctx context.Context, g *errgroup.Group, app *application) {
	if !app.config.Watch.Enabled || app.configPath == "" {
		return
	}
	cw, err := NewConfigWatcher(app.configPath, s.logger)
	if err != nil {
		s.logger.Warn("config watcher disabled", slog.String("error", err.Error()))
		return
	}
	g.Go(func() error {
		return cw.Run(ctx, s.apply)
	})
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	s := build(cfg, app.logOutput)
	logger := s.logger

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("registry_search_url", cfg.Registry.SearchURL),
		slog.Duration("cache_ttl", cfg.Cache.TTL),
		slog.Bool("watch", cfg.Watch.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           api.NewRouter(s.service, cfg.App.HTTP.CORS.AllowedOrigins, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	s.watch(gCtx, g, app)

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Prime the registry session without holding up the listener.
	g.Go(func() error {
		s.service.Prime(gCtx)
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

// RunMCP serves the MCP tools on stdin/stdout. Logs go to stderr.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	// stdout carries the protocol.
	if app.logOutput == os.Stdout {
		app.logOutput = os.Stderr
	}
	s := build(app.config, app.logOutput)

	g, gCtx := errgroup.WithContext(ctx)
	s.watch(gCtx, g, app)

	srv := mcpserver.New(s.service, s.engine, app.version)
	g.Go(func() error {
		s.logger.Info("MCP server starting on stdio")
		if err := srv.ServeStdio(); err != nil {
			return fmt.Errorf("MCP server error: %w", err)
		}
		return errShutdown
	})
	g.Go(func() error {
		s.service.Prime(gCtx)
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		s.logger.Error("MCP server stopped", slog.String("error", err.Error()))
		return err
	}
	return nil
}

// errShutdown ends the run group once the front end has stopped, so
// background goroutines such as the config watcher exit too.
var errShutdown = errors.New("shutdown")
