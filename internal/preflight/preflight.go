// Package preflight runs environment checks before a pipeline run. Checks
// are advisory, a failed check is logged but never blocks the run.
package preflight

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"nightly/internal/config"
)

// ReadinessChecker is implemented by step runners that can verify their
// backing service, the docker runner in particular.
type ReadinessChecker interface {
	Ready(ctx context.Context) error
}

// Status represents the outcome of a single check.
type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// CheckResult contains the result of one check.
type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// Report holds the results of all checks keyed by check name.
type Report struct {
	Checks map[string]CheckResult `json:"checks"`
}

// Failed reports whether any check failed.
func (r *Report) Failed() bool {
	for _, c := range r.Checks {
		if c.Status == StatusFailed {
			return true
		}
	}
	return false
}

// Checker runs preflight checks for one machine.
type Checker struct {
	cfg     *config.PipelineConfig
	machine config.Machine
	runner  ReadinessChecker // nil unless a runner exposes readiness
}

// NewChecker creates a Checker. runner may be nil.
func NewChecker(cfg *config.PipelineConfig, m config.Machine, runner ReadinessChecker) *Checker {
	return &Checker{cfg: cfg, machine: m, runner: runner}
}

// Run executes all checks and logs any failures.
func (c *Checker) Run(ctx context.Context) *Report {
	report := &Report{Checks: map[string]CheckResult{
		"git":      c.checkBinary("git"),
		"shell":    c.checkBinary("/bin/sh"),
		"data_dir": c.checkDataDir(),
	}}
	if c.runner != nil {
		report.Checks["runner"] = c.checkRunner(ctx)
	}

	for name, res := range report.Checks {
		if res.Status == StatusFailed {
			slog.Warn("preflight check failed",
				"machine", c.machine.Name,
				"check", name,
				"message", res.Message)
		}
	}
	return report
}

func (c *Checker) checkBinary(name string) CheckResult {
	if filepath.IsAbs(name) {
		if _, err := os.Stat(name); err != nil {
			return CheckResult{Status: StatusFailed, Message: err.Error()}
		}
		return CheckResult{Status: StatusOK}
	}
	if _, err := exec.LookPath(name); err != nil {
		return CheckResult{Status: StatusFailed, Message: err.Error()}
	}
	return CheckResult{Status: StatusOK}
}

func (c *Checker) checkDataDir() CheckResult {
	dir := filepath.Join(c.cfg.DataRoot, c.machine.DataDir)
	info, err := os.Stat(dir)
	if err != nil {
		return CheckResult{Status: StatusFailed, Message: err.Error()}
	}
	if !info.IsDir() {
		return CheckResult{Status: StatusFailed, Message: fmt.Sprintf("%s is not a directory", dir)}
	}
	return CheckResult{Status: StatusOK}
}

func (c *Checker) checkRunner(ctx context.Context) CheckResult {
	if err := c.runner.Ready(ctx); err != nil {
		return CheckResult{Status: StatusFailed, Message: err.Error()}
	}
	return CheckResult{Status: StatusOK}
}
