package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gitstow/gitstow/internal/api"
	gh "github.com/gitstow/gitstow/internal/github"
)

// Runner glues together the HTTP surface and the GitHub client factory.
// Every request carries its own bearer credential, so the runner holds no
// per-user state.
type Runner struct {
	cfg     Config
	log     *slog.Logger
	factory gh.Factory
}

// NewRunner constructs a Runner with the supplied configuration.
func NewRunner(cfg Config) (*Runner, error) {
	logger, err := NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	return &Runner{
		cfg:     cfg,
		log:     logger,
		factory: gh.NewRESTFactory(cfg.GitHubBaseURL, cfg.GitHubUploadURL),
	}, nil
}

// NewRunnerWithDeps constructs a Runner with injected dependencies for testing.
func NewRunnerWithDeps(cfg Config, log *slog.Logger, factory gh.Factory) *Runner {
	return &Runner{cfg: cfg, log: log, factory: factory}
}

// Run serves the API until ctx is cancelled, then shuts down gracefully.
func (r *Runner) Run(ctx context.Context) error {
	server := api.NewServer(r.factory, r.log)

	httpServer := &http.Server{
		Addr:    r.cfg.ListenAddr,
		Handler: server.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		if r.log != nil {
			r.log.Info("listening", "addr", r.cfg.ListenAddr)
		}
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), r.cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	if r.log != nil {
		r.log.Info("server stopped")
	}
	return nil
}
