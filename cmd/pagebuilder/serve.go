package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/pagebuilder"
	"github.com/aretw0/pagebuilder/internal/cli"
	httpAdapter "github.com/aretw0/pagebuilder/pkg/adapters/http"
	"github.com/aretw0/pagebuilder/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Starts the HTTP API: per-document event dispatch, save and load,
a server-sent event stream of collection diffs, and Prometheus metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("port") {
				port = a.cfg.HTTP.Port
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			metrics := observability.NewMetrics(reg)
			streams := httpAdapter.NewStreamManager(a.logger)

			mgr, err := a.manager(cmd.Context(), metrics.Hooks(), streams.Hooks())
			if err != nil {
				return err
			}
			api := httpAdapter.NewServer(mgr,
				httpAdapter.WithLogger(a.logger),
				httpAdapter.WithStreams(streams),
				httpAdapter.WithVersion(pagebuilder.Version),
				httpAdapter.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})),
			)

			sigCtx := cli.NewSignalContext(cmd.Context())
			defer sigCtx.Cancel()

			go func() {
				if err := api.WatchStore(sigCtx); err != nil {
					a.logger.Warn("store watch stopped", "err", err)
				}
			}()

			srv := &http.Server{
				Addr:              fmt.Sprintf(":%d", port),
				Handler:           api.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			serverErrors := make(chan error, 1)
			go func() {
				a.logger.Info("HTTP server listening", "address", srv.Addr, "backend", a.cfg.Store.Backend)
				serverErrors <- srv.ListenAndServe()
			}()

			select {
			case err := <-serverErrors:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-sigCtx.Done():
				a.logger.Info("shutting down", "signal", sigCtx.Signal())
				ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := srv.Shutdown(ctx); err != nil {
					_ = srv.Close()
					return fmt.Errorf("graceful shutdown did not complete in %v: %w", shutdownTimeout, err)
				}
				return nil
			}
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "Port to listen on (default from config)")
	return cmd
}
