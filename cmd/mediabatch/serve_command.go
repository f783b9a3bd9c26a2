package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/Lllllllleong/mediabatchflow/internal/api"
	"github.com/Lllllllleong/mediabatchflow/internal/bootstrap"
)

const shutdownTimeout = 30 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the batch API and run batches in the background",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			rt, err := bootstrap.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := rt.Close(); cerr != nil {
					slog.Error("Failed to close runtime", "error", cerr)
				}
			}()

			return serve(cmd.Context(), rt, net.JoinHostPort("", cfg.Port))
		},
	}
	cmd.Flags().StringVar(&port, "port", "8000", "HTTP listen port")
	return cmd
}

// serve blocks until ctx is cancelled, then drains HTTP and the active run.
func serve(ctx context.Context, rt *bootstrap.Runtime, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewHandler(rt.Orchestrator),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Batch API listening.", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down.")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown failed", "error", err)
	}
	if err := rt.Orchestrator.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("batch shutdown: %w", err)
	}
	return nil
}
