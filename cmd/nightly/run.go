package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"nightly/internal/config"
	"nightly/internal/dispatcher"
	"nightly/internal/observability"
	"nightly/internal/pipeline"
	"nightly/internal/step"
	"nightly/internal/step/docker"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <machine>",
		Short: "Run the nightly pipeline for a machine",
		Args:  machineArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runPipeline(cmd.Context(), args[0])
		},
	}
}

func runPipeline(ctx context.Context, machineName string) error {
	cfg := config.LoadPipelineConfig()
	machines, err := loadMachines(cfg)
	if err != nil {
		return err
	}

	metrics, metricsHandler, err := observability.NewMetrics(ctx)
	if err != nil {
		return err
	}
	stopMetrics := startMetricsServer(cfg, metricsHandler)
	defer stopMetrics()

	runner, err := newRunner(cfg)
	if err != nil {
		return err
	}
	defer runner.Close()

	disp := newDispatcher(cfg, metrics)
	driver := pipeline.NewDriver(cfg, machines, runner, disp, metrics)
	runErr := driver.Run(ctx, machineName)

	closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := disp.Close(closeCtx); err != nil {
		slog.Warn("dispatcher shutdown error", "error", err)
	}
	stats := disp.Stats()
	slog.Info("dispatcher stats",
		"delivered", stats.Delivered,
		"failed", stats.Failed,
		"dropped", stats.Dropped,
	)
	return runErr
}

func newRunner(cfg *config.PipelineConfig) (step.Runner, error) {
	if cfg.Runner == "docker" {
		return docker.NewRunner(cfg.DockerImage)
	}
	return step.NewLocalRunner(), nil
}

func newDispatcher(cfg *config.PipelineConfig, metrics *observability.Metrics) dispatcher.Dispatcher {
	if cfg.CallbackURL == "" {
		return dispatcher.Nop()
	}
	return dispatcher.NewMemory(dispatcher.LoadConfigFromEnv(), metrics)
}

// startMetricsServer serves /metrics when an address is configured. The
// returned func shuts the server down.
func startMetricsServer(cfg *config.PipelineConfig, handler http.Handler) func() {
	if cfg.MetricsAddr == "" {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", handler)
	srv := &http.Server{
		Addr:         cfg.MetricsAddr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("starting metrics server", "addr", cfg.MetricsAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "error", err)
		}
	}()
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server shutdown error", "error", err)
		}
	}
}
