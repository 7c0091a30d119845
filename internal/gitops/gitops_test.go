package gitops

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// initRepo creates a git repository with identity configured so commits work
// in a bare test environment.
func initRepo(t *testing.T) string {
	t.Helper()

	if !Available() {
		t.Skip("git not on PATH")
	}

	dir := t.TempDir()
	for _, args := range [][]string{
		{"init", "-b", "master"},
		{"config", "user.email", "nightly@test.invalid"},
		{"config", "user.name", "nightly"},
	} {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		var buf bytes.Buffer
		cmd.Stdout = &buf
		cmd.Stderr = &buf
		if err := cmd.Run(); err != nil {
			t.Fatalf("git %v: %v: %s", args, err, buf.String())
		}
	}
	return dir
}

func TestAddAndCommit(t *testing.T) {
	t.Parallel()

	dir := initRepo(t)
	path := filepath.Join(dir, "perf_tests_08_29_2026.html")
	if err := os.WriteFile(path, []byte("<html></html>"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := NewClient(dir, "origin", "master")
	ctx := context.Background()

	if err := c.Add(ctx, "perf_tests_08_29_2026.html"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := c.Commit(ctx, "Archive nightly performance report 08_29_2026"); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	cmd := exec.Command("git", "log", "--oneline")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("git log failed: %v", err)
	}
	if !bytes.Contains(out, []byte("Archive nightly performance report")) {
		t.Errorf("expected commit in log, got %q", out)
	}
}

func TestCommitNothingStagedFails(t *testing.T) {
	t.Parallel()

	dir := initRepo(t)
	c := NewClient(dir, "origin", "master")

	if err := c.Commit(context.Background(), "empty"); err == nil {
		t.Error("expected error committing with nothing staged")
	}
}

func TestPushWithoutRemoteFails(t *testing.T) {
	t.Parallel()

	dir := initRepo(t)
	path := filepath.Join(dir, "report.html")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := NewClient(dir, "origin", "master")
	ctx := context.Background()
	if err := c.Add(ctx, "report.html"); err != nil {
		t.Fatal(err)
	}
	if err := c.Commit(ctx, "report"); err != nil {
		t.Fatal(err)
	}

	if err := c.Push(ctx); err == nil {
		t.Error("expected push to fail with no remote configured")
	}
}
