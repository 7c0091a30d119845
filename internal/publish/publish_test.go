package publish

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"nightly/internal/apperrors"
	"nightly/internal/config"
	"nightly/internal/dispatcher"
	"nightly/internal/gitops"
)

var testDate = time.Date(2026, 8, 29, 6, 0, 0, 0, time.UTC)

// newTestPublisher sets up a git-backed data directory for the blake machine
// with the fixed report already written.
func newTestPublisher(t *testing.T) *Publisher {
	t.Helper()

	if !gitops.Available() {
		t.Skip("git not on PATH")
	}

	root := t.TempDir()
	dataDir := filepath.Join(root, "blake_nightly_data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, args := range [][]string{
		{"init", "-b", "master"},
		{"config", "user.email", "nightly@test.invalid"},
		{"config", "user.name", "nightly"},
	} {
		cmd := exec.Command("git", args...)
		cmd.Dir = dataDir
		var buf bytes.Buffer
		cmd.Stdout = &buf
		cmd.Stderr = &buf
		if err := cmd.Run(); err != nil {
			t.Fatalf("git %v: %v: %s", args, err, buf.String())
		}
	}

	report := filepath.Join(dataDir, "perf_tests.html")
	if err := os.WriteFile(report, []byte("<html><body>report</body></html>"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &config.PipelineConfig{
		DataRoot:     root,
		ReportFile:   "perf_tests.html",
		FragmentFile: "latest_report.html",
		MarkerPrefix: "ctest-",
		GitRemote:    "origin",
		GitBranch:    "master",
	}
	p := New(cfg, config.DefaultMachines()[0], dispatcher.Nop(), nil)
	p.now = func() time.Time { return testDate }
	return p
}

func writeMarker(t *testing.T, p *Publisher) {
	t.Helper()
	if err := os.WriteFile(p.MarkerPath(), []byte(`{"tests":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRunNoMarkerIsNoop(t *testing.T) {
	t.Parallel()

	p := newTestPublisher(t)
	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Published {
		t.Error("expected Published=false without marker")
	}

	// The report must be untouched.
	if _, err := os.Stat(filepath.Join(p.DataDir(), "perf_tests.html")); err != nil {
		t.Errorf("report should still exist: %v", err)
	}
}

func TestRunPublishesReport(t *testing.T) {
	t.Parallel()

	p := newTestPublisher(t)
	writeMarker(t, p)

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !res.Published {
		t.Fatal("expected Published=true")
	}
	if res.Archived != "perf_tests_08_29_2026.html" {
		t.Errorf("unexpected archived name %q", res.Archived)
	}

	dir := p.DataDir()
	if _, err := os.Stat(filepath.Join(dir, "perf_tests.html")); !os.IsNotExist(err) {
		t.Error("fixed-name report should have been renamed away")
	}
	if _, err := os.Stat(filepath.Join(dir, res.Archived)); err != nil {
		t.Errorf("archived report missing: %v", err)
	}

	// The archive must be committed.
	cmd := exec.Command("git", "log", "--oneline")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("git log failed: %v", err)
	}
	if !bytes.Contains(out, []byte("Archive nightly performance report 08_29_2026")) {
		t.Errorf("expected archive commit, got %q", out)
	}

	frag, err := os.ReadFile(filepath.Join(dir, "latest_report.html"))
	if err != nil {
		t.Fatalf("fragment missing: %v", err)
	}
	want := "<li><a href=\"perf_tests_08_29_2026.html\">perf_tests_08_29_2026.html</a></li>\n"
	if string(frag) != want {
		t.Errorf("fragment mismatch:\ngot  %q\nwant %q", frag, want)
	}
}

func TestRunSecondPublishSameDayConflicts(t *testing.T) {
	t.Parallel()

	p := newTestPublisher(t)
	writeMarker(t, p)

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("first Run failed: %v", err)
	}

	// A second run the same day finds a fresh report but the dated
	// archive already exists.
	report := filepath.Join(p.DataDir(), "perf_tests.html")
	if err := os.WriteFile(report, []byte("<html>again</html>"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := p.Run(context.Background())
	if !errors.Is(err, apperrors.ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
}

func TestRunGitFailureDoesNotAbortPublish(t *testing.T) {
	t.Parallel()

	// A data dir that is not a git repository: every git operation fails,
	// yet the publish must still rename the report, rewrite the fragment,
	// and report success.
	root := t.TempDir()
	m := config.DefaultMachines()[0]
	dataDir := filepath.Join(root, m.DataDir)
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dataDir, "perf_tests.html"), []byte("<html></html>"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &config.PipelineConfig{
		DataRoot:     root,
		ReportFile:   "perf_tests.html",
		FragmentFile: "latest_report.html",
		MarkerPrefix: "ctest-",
		GitRemote:    "origin",
		GitBranch:    "master",
	}
	p := New(cfg, m, dispatcher.Nop(), nil)
	p.now = func() time.Time { return testDate }
	writeMarker(t, p)

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !res.Published {
		t.Fatal("expected Published=true despite git failures")
	}
	if _, err := os.Stat(filepath.Join(dataDir, res.Archived)); err != nil {
		t.Errorf("archived report missing: %v", err)
	}
	frag, err := os.ReadFile(filepath.Join(dataDir, "latest_report.html"))
	if err != nil {
		t.Fatalf("fragment should still be written: %v", err)
	}
	if !strings.Contains(string(frag), res.Archived) {
		t.Errorf("fragment should link the archived report, got %q", frag)
	}
}

func TestRunReportMissing(t *testing.T) {
	t.Parallel()

	p := newTestPublisher(t)
	writeMarker(t, p)
	if err := os.Remove(filepath.Join(p.DataDir(), "perf_tests.html")); err != nil {
		t.Fatal(err)
	}

	_, err := p.Run(context.Background())
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestWatchPicksUpMarker(t *testing.T) {
	t.Parallel()

	p := newTestPublisher(t)

	done := make(chan struct{})
	var res *Result
	var watchErr error
	go func() {
		defer close(done)
		res, watchErr = p.Watch(context.Background())
	}()

	// Give the watcher a moment to register before creating the marker.
	time.Sleep(100 * time.Millisecond)
	writeMarker(t, p)

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Watch did not return after marker appeared")
	}
	if watchErr != nil {
		t.Fatalf("Watch failed: %v", watchErr)
	}
	if !res.Published {
		t.Error("expected Published=true")
	}
}

func TestWatchCancelled(t *testing.T) {
	t.Parallel()

	p := newTestPublisher(t)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := p.Watch(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
