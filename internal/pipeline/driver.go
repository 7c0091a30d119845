// Package pipeline sequences the nightly steps for one machine.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"nightly/internal/apperrors"
	"nightly/internal/config"
	"nightly/internal/dispatcher"
	"nightly/internal/event"
	"nightly/internal/observability"
	"nightly/internal/preflight"
	"nightly/internal/report"
	"nightly/internal/results"
	"nightly/internal/step"
	"nightly/pkg/cloudevent"
)

// Driver runs the nightly pipeline: notebook execution, result
// concatenation, and the performance report.
//
// Steps are fire-and-forget. A failed step is logged and counted but never
// halts the steps after it, and a run on a valid machine always succeeds.
type Driver struct {
	cfg      *config.PipelineConfig
	machines []config.Machine
	runner   step.Runner
	disp     dispatcher.Dispatcher
	metrics  *observability.Metrics
}

// NewDriver creates a Driver.
func NewDriver(cfg *config.PipelineConfig, machines []config.Machine, runner step.Runner, disp dispatcher.Dispatcher, metrics *observability.Metrics) *Driver {
	return &Driver{
		cfg:      cfg,
		machines: machines,
		runner:   runner,
		disp:     disp,
		metrics:  metrics,
	}
}

// LookupMachine resolves a machine name against the configured machines.
func LookupMachine(machines []config.Machine, name string) (config.Machine, error) {
	names := make([]string, 0, len(machines))
	for _, m := range machines {
		if m.Name == name {
			return m, nil
		}
		names = append(names, m.Name)
	}
	return config.Machine{}, apperrors.Validation("machine",
		fmt.Sprintf("unrecognized machine %q, expected one of: %s", name, strings.Join(names, ", ")))
}

// Run executes the pipeline for the named machine. The only error it
// returns is a validation error for an unrecognized machine name.
func (d *Driver) Run(ctx context.Context, machineName string) error {
	m, err := LookupMachine(d.machines, machineName)
	if err != nil {
		return err
	}

	var ready preflight.ReadinessChecker
	if rc, ok := d.runner.(preflight.ReadinessChecker); ok {
		ready = rc
	}
	preflight.NewChecker(d.cfg, m, ready).Run(ctx)

	events := event.NewBuilder(m.Name, "nightly/driver")
	dataDir := filepath.Join(d.cfg.DataRoot, m.DataDir)

	for _, s := range []step.Step{
		{
			Name:    "notebook",
			Command: fmt.Sprintf("%s %s", d.cfg.NotebookCmd, m.Name),
			Dir:     dataDir,
			LogPath: d.logPath("notebook", m.Name, dataDir),
			Timeout: d.cfg.StepTimeout,
		},
		{
			Name:    "concat",
			Command: fmt.Sprintf("%s %s", d.cfg.ConcatCmd, m.Name),
			Dir:     dataDir,
			LogPath: d.logPath("concat", m.Name, dataDir),
			Timeout: d.cfg.StepTimeout,
		},
	} {
		d.runStep(ctx, events, m, s)
	}

	d.runReport(ctx, events, m, dataDir)
	return nil
}

// logPath places step logs in the configured log dir, falling back to the
// machine data dir.
func (d *Driver) logPath(stepName, machine, dataDir string) string {
	dir := d.cfg.LogDir
	if dir == "" {
		dir = dataDir
	}
	return filepath.Join(dir, fmt.Sprintf("%s_%s.log", stepName, machine))
}

func (d *Driver) runStep(ctx context.Context, events *event.Builder, m config.Machine, s step.Step) {
	d.dispatch(events.StepStart(s.Name))
	slog.Info("running step", "machine", m.Name, "step", s.Name, "log", s.LogPath)

	res := d.runner.Run(ctx, s)
	if d.metrics != nil {
		d.metrics.RecordStepCompleted(ctx, m.Name, s.Name, res.Success(), res.Duration.Seconds())
	}
	d.dispatch(events.StepExit(s.Name, res.ExitCode, res.Err))

	if res.Success() {
		slog.Info("step completed", "machine", m.Name, "step", s.Name, "duration", res.Duration)
		return
	}
	slog.Warn("step failed",
		"machine", m.Name,
		"step", s.Name,
		"exitCode", res.ExitCode,
		"error", res.Err)
}

// runReport cleans stale outputs, evaluates the result history, and writes
// the HTML performance report.
func (d *Driver) runReport(ctx context.Context, events *event.Builder, m config.Machine, dataDir string) {
	start := time.Now()
	d.dispatch(events.StepStart("report"))

	err := d.buildReport(events, m, dataDir)
	if d.metrics != nil {
		d.metrics.RecordStepCompleted(ctx, m.Name, "report", err == nil, time.Since(start).Seconds())
	}
	exitCode := 0
	if err != nil {
		exitCode = 1
		slog.Warn("report step failed", "machine", m.Name, "error", err)
	}
	d.dispatch(events.StepExit("report", exitCode, err))
}

func (d *Driver) buildReport(events *event.Builder, m config.Machine, dataDir string) error {
	logPath := d.logPath("report", m.Name, dataDir)
	logFile, err := os.Create(logPath)
	if err != nil {
		return apperrors.Internal("create report log", err)
	}
	defer logFile.Close()

	if err := d.cleanStaleOutputs(dataDir, logFile); err != nil {
		return err
	}

	history, err := results.Load(dataDir, d.cfg.MarkerPrefix)
	if err != nil {
		fmt.Fprintf(logFile, "loading results: %v\n", err)
		return err
	}

	r := report.Build(m, history)
	r.DashboardURL = d.cfg.DashboardURL

	path := filepath.Join(dataDir, d.cfg.ReportFile)
	if err := r.WriteFile(path); err != nil {
		fmt.Fprintf(logFile, "writing report: %v\n", err)
		return err
	}

	fmt.Fprintf(logFile, "%s\n", r.Subject())
	for i := range r.Cases {
		c := &r.Cases[i]
		fmt.Fprintf(logFile, "%s: %s (%s)\n", c.Name, c.Status(), c.Counts())
	}
	slog.Info("wrote performance report",
		"machine", m.Name,
		"report", path,
		"failed", r.Failed())

	d.dispatch(events.ReportPublished(r.Summary()))
	return nil
}

// cleanStaleOutputs removes files matching the clean glob from the machine
// data dir so the report step starts from a clean slate.
func (d *Driver) cleanStaleOutputs(dataDir string, logFile *os.File) error {
	if d.cfg.CleanGlob == "" {
		return nil
	}
	matches, err := filepath.Glob(filepath.Join(dataDir, d.cfg.CleanGlob))
	if err != nil {
		return apperrors.Internal("clean glob", err)
	}
	for _, path := range matches {
		if err := os.Remove(path); err != nil {
			slog.Warn("failed to remove stale output", "path", path, "error", err)
			continue
		}
		fmt.Fprintf(logFile, "removed %s\n", path)
	}
	return nil
}

func (d *Driver) dispatch(ev *cloudevent.CloudEvent) {
	if err := d.disp.Dispatch(&dispatcher.Event{
		Payload:     ev,
		Destination: d.cfg.CallbackURL,
		SigningKey:  d.cfg.CallbackKey,
	}); err != nil {
		slog.Warn("failed to dispatch event", "type", ev.Type, "error", err)
	}
}
