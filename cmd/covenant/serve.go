package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpAdapter "github.com/aretw0/covenant/pkg/adapters/http"
	"github.com/aretw0/covenant/pkg/observability"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve [contract]",
		Short: "Serve a contract over HTTP",
		Long:  `Exposes every method as POST /methods/{name}, with the ABI, OpenAPI document, stored state and Prometheus metrics.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("port") {
				port = a.cfg.HTTP.Port
			}

			metrics := observability.NewMetrics()
			rt, closeStore, err := a.runtime(firstArg(args),
				observability.Hooks(metrics.Hooks(), observability.LogHooks(a.logger)))
			if err != nil {
				return err
			}
			defer closeStore()

			handler, err := httpAdapter.NewHandler(rt,
				httpAdapter.WithLogger(a.logger),
				httpAdapter.WithRateLimit(a.cfg.HTTP.RateLimit, a.cfg.HTTP.Burst),
				httpAdapter.WithMetrics(metrics.Handler()),
			)
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              fmt.Sprintf(":%d", port),
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// Channel to listen for errors coming from the listener.
			serverErrors := make(chan error, 1)
			go func() {
				a.logger.Info("Starting Covenant Server", "addr", srv.Addr, "contract", rt.ABI().Name)
				serverErrors <- srv.ListenAndServe()
			}()

			select {
			case err := <-serverErrors:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("server error: %w", err)
			case <-ctx.Done():
				a.logger.Info("Shutdown signal received")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					_ = srv.Close()
					return fmt.Errorf("graceful shutdown did not complete: %w", err)
				}
				a.logger.Info("Covenant Server stopped gracefully")
				return nil
			}
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "Port to listen on")
	return cmd
}
