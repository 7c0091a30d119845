// Package docker implements the step.Runner interface using the Docker API.
// Steps run in containers on the host Docker daemon with the machine's data
// directory bind-mounted at the workspace path.
package docker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"nightly/internal/step"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/google/uuid"
)

// Workspace is the in-container mount point for the step's directory.
const Workspace = "/workspace"

// Runner executes steps in containers.
type Runner struct {
	client *client.Client
	image  string
}

// NewRunner creates a Docker-backed step runner using the given image for
// every step.
func NewRunner(imageName string) (*Runner, error) {
	if imageName == "" {
		return nil, fmt.Errorf("docker runner requires an image")
	}

	dockerClient, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	return &Runner{client: dockerClient, image: imageName}, nil
}

// Ready checks that the Docker daemon is reachable.
func (r *Runner) Ready(ctx context.Context) error {
	_, err := r.client.Ping(ctx)
	if err != nil {
		return fmt.Errorf("docker daemon not reachable: %w", err)
	}
	return nil
}

// Run executes the step in a fresh container and waits for it to exit.
func (r *Runner) Run(ctx context.Context, s step.Step) *step.Result {
	result := &step.Result{Step: s.Name}

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	r.ensureImage(ctx)

	containerID, err := r.createContainer(ctx, s)
	if err != nil {
		result.Err = err
		return result
	}
	defer r.removeContainer(containerID)

	start := time.Now()
	if err := r.client.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		result.Err = fmt.Errorf("failed to start step container: %w", err)
		return result
	}

	logDone := make(chan struct{})
	go func() {
		defer close(logDone)
		r.copyLogs(ctx, containerID, s.LogPath)
	}()

	exitCode, err := r.waitForExit(ctx, containerID)
	<-logDone

	result.Duration = time.Since(start)
	result.ExitCode = exitCode
	if err != nil {
		result.Err = fmt.Errorf("step %s: %w", s.Name, err)
	} else if exitCode != 0 {
		result.Err = fmt.Errorf("step %s: exit status %d", s.Name, exitCode)
	}
	return result
}

// Close releases the Docker client.
func (r *Runner) Close() error {
	return r.client.Close()
}

// ensureImage pulls the runner image. Pull failures are not fatal: the
// image may only exist locally.
func (r *Runner) ensureImage(ctx context.Context) {
	reader, err := r.client.ImagePull(ctx, r.image, image.PullOptions{})
	if err != nil {
		slog.Debug("Image pull failed, using local image", "image", r.image, "error", err)
		return
	}
	defer reader.Close()
	_, _ = io.Copy(io.Discard, reader)
}

func (r *Runner) createContainer(ctx context.Context, s step.Step) (string, error) {
	env := make([]string, 0, len(s.Env))
	for k, v := range s.Env {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}

	containerConfig := &container.Config{
		Image:      r.image,
		Cmd:        []string{"/bin/sh", "-c", s.Command},
		Env:        env,
		WorkingDir: Workspace,
		Labels: map[string]string{
			"nightly.step": s.Name,
			"managed-by":   "nightly",
		},
	}

	hostConfig := &container.HostConfig{}
	if s.Dir != "" {
		hostConfig.Mounts = []mount.Mount{
			{
				Type:   mount.TypeBind,
				Source: s.Dir,
				Target: Workspace,
			},
		}
	}

	containerName := fmt.Sprintf("nightly-%s-%.8s", s.Name, uuid.NewString())
	resp, err := r.client.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, containerName)
	if err != nil {
		return "", fmt.Errorf("failed to create step container: %w", err)
	}
	return resp.ID, nil
}

func (r *Runner) waitForExit(ctx context.Context, containerID string) (int, error) {
	statusCh, errCh := r.client.ContainerWait(ctx, containerID, container.WaitConditionNotRunning)

	select {
	case <-ctx.Done():
		return -1, ctx.Err()
	case err := <-errCh:
		return -1, err
	case status := <-statusCh:
		if status.Error != nil {
			return int(status.StatusCode), fmt.Errorf("%s", status.Error.Message)
		}
		return int(status.StatusCode), nil
	}
}

// copyLogs follows the container's multiplexed log stream and writes the
// payloads to the step log file.
func (r *Runner) copyLogs(ctx context.Context, containerID, logPath string) {
	logs, err := r.client.ContainerLogs(ctx, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
	})
	if err != nil {
		slog.Warn("Failed to get step container logs", "error", err)
		return
	}
	defer logs.Close()

	var out io.Writer = io.Discard
	if logPath != "" {
		f, err := os.Create(logPath)
		if err != nil {
			slog.Warn("Failed to open step log", "path", logPath, "error", err)
			return
		}
		defer f.Close()
		out = f
	}

	header := make([]byte, 8)
	for ctx.Err() == nil {
		if _, err := io.ReadFull(logs, header); err != nil {
			return
		}

		size := int(header[4])<<24 | int(header[5])<<16 | int(header[6])<<8 | int(header[7])
		if size == 0 {
			continue
		}

		payload := make([]byte, size)
		if _, err := io.ReadFull(logs, payload); err != nil {
			return
		}
		if _, err := out.Write(payload); err != nil {
			return
		}
	}
}

// removeContainer cleans up the step container with a fresh context so
// cleanup survives step timeouts.
func (r *Runner) removeContainer(containerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := r.client.ContainerRemove(ctx, containerID, container.RemoveOptions{Force: true}); err != nil {
		slog.Warn("Failed to remove step container", "containerId", containerID, "error", err)
	}
}

// Verify Runner implements step.Runner
var _ step.Runner = (*Runner)(nil)
