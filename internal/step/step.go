// Package step defines pipeline steps and the runners that execute them.
package step

import (
	"context"
	"time"
)

// Step is one external delegation of the nightly pipeline.
type Step struct {
	Name    string            // step name, used in log file names and events
	Command string            // shell command line
	Dir     string            // working directory ("" = inherit)
	Env     map[string]string // extra environment for the command
	LogPath string            // combined stdout+stderr destination ("" = discard)
	Timeout time.Duration     // 0 = wait forever
}

// Result is the outcome of running one step.
type Result struct {
	Step     string
	ExitCode int
	Duration time.Duration
	Err      error // non-nil when the step could not run or exited non-zero
}

// Success reports whether the step ran and exited zero.
func (r *Result) Success() bool {
	return r.Err == nil && r.ExitCode == 0
}

// Runner executes steps.
//
// Runners wait synchronously for the step to exit. They never retry: the
// pipeline treats step failures as fire-and-forget and carries on.
type Runner interface {
	Run(ctx context.Context, s Step) *Result

	// Close releases resources held by the runner.
	Close() error
}
