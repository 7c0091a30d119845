package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"nightly/internal/config"
	"nightly/internal/observability"
	"nightly/internal/pipeline"
	"nightly/internal/publish"
)

func newPublishCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "publish <machine>",
		Short: "Archive the report once today's result marker exists",
		Args:  machineArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runPublish(cmd.Context(), args[0], watch)
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "wait for today's marker instead of checking once")
	return cmd
}

func runPublish(ctx context.Context, machineName string, watch bool) error {
	cfg := config.LoadPipelineConfig()
	machines, err := loadMachines(cfg)
	if err != nil {
		return err
	}

	m, err := pipeline.LookupMachine(machines, machineName)
	if err != nil {
		return err
	}

	metrics, metricsHandler, err := observability.NewMetrics(ctx)
	if err != nil {
		return err
	}
	stopMetrics := startMetricsServer(cfg, metricsHandler)
	defer stopMetrics()

	disp := newDispatcher(cfg, metrics)
	p := publish.New(cfg, m, disp, metrics)

	var res *publish.Result
	if watch {
		watchCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer cancel()
		res, err = p.Watch(watchCtx)
	} else {
		res, err = p.Run(ctx)
	}

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer closeCancel()
	if closeErr := disp.Close(closeCtx); closeErr != nil {
		slog.Warn("dispatcher shutdown error", "error", closeErr)
	}

	if err != nil {
		return err
	}
	if res.Published {
		slog.Info("publish complete", "machine", m.Name, "archived", res.Archived)
	} else {
		slog.Info("nothing to publish", "machine", m.Name, "marker", res.Marker)
	}
	return nil
}
