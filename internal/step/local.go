package step

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"
)

// LocalRunner executes steps on the host with /bin/sh.
type LocalRunner struct{}

// NewLocalRunner creates a runner that executes steps as host processes.
func NewLocalRunner() *LocalRunner {
	return &LocalRunner{}
}

// Run executes the step and waits for it to exit. Combined output goes to
// the step's log file.
func (r *LocalRunner) Run(ctx context.Context, s Step) *Result {
	result := &Result{Step: s.Name}

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	out, err := openLog(s.LogPath)
	if err != nil {
		result.Err = err
		return result
	}
	defer out.Close()

	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", s.Command)
	cmd.Dir = s.Dir
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.Env = os.Environ()
	for k, v := range s.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}

	start := time.Now()
	err = cmd.Run()
	result.Duration = time.Since(start)

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
		}
		result.Err = fmt.Errorf("step %s: %w", s.Name, err)
		return result
	}

	slog.Debug("Step completed", "step", s.Name, "duration", result.Duration)
	return result
}

// Close implements Runner. The local runner holds no resources.
func (r *LocalRunner) Close() error { return nil }

// openLog opens the step log for writing, truncating any previous run's
// log. A nil writer is returned as io.Discard when no log path is set.
func openLog(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopWriteCloser{io.Discard}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open step log: %w", err)
	}
	return f, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// Verify LocalRunner implements Runner
var _ Runner = (*LocalRunner)(nil)
