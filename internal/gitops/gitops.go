// Package gitops runs git commands for archiving published reports.
package gitops

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"nightly/internal/apperrors"
)

// Client runs git commands inside a single working tree.
type Client struct {
	dir    string
	remote string
	branch string
}

// NewClient creates a Client rooted at dir, pushing to remote/branch.
func NewClient(dir, remote, branch string) *Client {
	return &Client{
		dir:    dir,
		remote: remote,
		branch: branch,
	}
}

// Available reports whether a git binary is on PATH.
func Available() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

// Add stages the given paths.
func (c *Client) Add(ctx context.Context, paths ...string) error {
	return c.run(ctx, append([]string{"add"}, paths...)...)
}

// Commit records staged changes with the given message.
func (c *Client) Commit(ctx context.Context, message string) error {
	return c.run(ctx, "commit", "-m", message)
}

// Push pushes the configured branch to the configured remote.
func (c *Client) Push(ctx context.Context) error {
	return c.run(ctx, "push", c.remote, c.branch)
}

func (c *Client) run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = c.dir

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	slog.Debug("running git", "args", args, "dir", c.dir)
	if err := cmd.Run(); err != nil {
		out := strings.TrimSpace(buf.String())
		return apperrors.Internal(
			fmt.Sprintf("git %s", args[0]),
			fmt.Errorf("%w: %s", err, out),
		)
	}
	return nil
}
