package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/acejarvis/cash-or-card/backend/internal/config"
	"github.com/acejarvis/cash-or-card/backend/internal/database"
	"github.com/acejarvis/cash-or-card/backend/internal/server"
)

const shutdownTimeout = 10 * time.Second

func serveRun(cmd *cobra.Command, _ []string, cfg *config.Config) {
	logger := commonRun(cfg)
	if err := serve(cmd.Context(), cfg, logger); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := database.New(cfg.Database, logger.With("component", "database"))
	if err != nil {
		return err
	}
	defer db.Close()

	srv, err := server.New(cfg, db, logger)
	if err != nil {
		return err
	}
	httpServer := srv.HTTPServer()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Run: func(cmd *cobra.Command, args []string) {
			serveRun(cmd, args, mustConfig(cmd))
		},
	}
}
