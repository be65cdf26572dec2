package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
)

const (
	shutdownTimeout = 10 * time.Second
	flushTimeout    = 2 * time.Second
)

var serveCmd = &cli.Command{
	Name:  "serve",
	Usage: "Start the HTTP server",
	Action: func(ctx context.Context, cmd *cli.Command) error {
		cfg, logger, db, err := openDatabase(ctx, cmd)
		if err != nil {
			return cli.Exit(err, 1)
		}

		app, err := newApplication(ctx, cfg, logger, db)
		if err != nil {
			_ = db.Close()
			return cli.Exit(err, 1)
		}

		router, err := app.setupRouter()
		if err != nil {
			app.cleanup()
			return cli.Exit(err, 1)
		}

		return app.startHTTPServer(ctx, router)
	},
}

// startHTTPServer serves router until ctx is canceled or the process is
// signaled, then shuts down gracefully.
func (app *application) startHTTPServer(ctx context.Context, router http.Handler) error {
	defer app.cleanup()

	server := &http.Server{
		Addr:              app.config.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info("starting server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		app.logger.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	app.logger.Info("server shutdown completed")
	return nil
}
