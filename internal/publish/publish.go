// Package publish archives the nightly HTML report once the dated result
// marker for the current day appears.
package publish

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
	"nightly/internal/gitops"
	"nightly/internal/observability"
	"nightly/internal/results"
)

// ArchiveDateLayout is the date format embedded in archived report names.
const ArchiveDateLayout = "01_02_2006"

// Result describes the outcome of one publish attempt.
type Result struct {
	Published bool   // false when today's marker is absent
	Marker    string // marker file checked
	Archived  string // archived report name, when published
}

// Publisher checks for the dated marker and archives the report when found.
type Publisher struct {
	cfg     *config.PipelineConfig
	machine config.Machine
	git     *gitops.Client
	disp    dispatcher.Dispatcher
	metrics *observability.Metrics
	events  *event.Builder

	now func() time.Time
}

// New creates a Publisher for one machine.
func New(cfg *config.PipelineConfig, m config.Machine, disp dispatcher.Dispatcher, metrics *observability.Metrics) *Publisher {
	dir := filepath.Join(cfg.DataRoot, m.DataDir)
	return &Publisher{
		cfg:     cfg,
		machine: m,
		git:     gitops.NewClient(dir, cfg.GitRemote, cfg.GitBranch),
		disp:    disp,
		metrics: metrics,
		events:  event.NewBuilder(m.Name, "nightly/publisher"),
		now:     time.Now,
	}
}

// DataDir returns the machine's data directory.
func (p *Publisher) DataDir() string {
	return filepath.Join(p.cfg.DataRoot, p.machine.DataDir)
}

// MarkerPath returns today's marker file path.
func (p *Publisher) MarkerPath() string {
	name := p.cfg.MarkerPrefix + p.now().Format(results.DateLayout) + ".json"
	return filepath.Join(p.DataDir(), name)
}

// archivedName derives the dated report name from the fixed report name,
// e.g. perf_tests.html -> perf_tests_08_29_2026.html.
func (p *Publisher) archivedName() string {
	base := strings.TrimSuffix(p.cfg.ReportFile, filepath.Ext(p.cfg.ReportFile))
	return fmt.Sprintf("%s_%s%s", base, p.now().Format(ArchiveDateLayout), filepath.Ext(p.cfg.ReportFile))
}

// Run performs one check-and-publish cycle. When today's marker is absent
// it returns a Result with Published=false and no error.
func (p *Publisher) Run(ctx context.Context) (*Result, error) {
	marker := p.MarkerPath()
	res := &Result{Marker: marker}

	if _, err := os.Stat(marker); err != nil {
		if os.IsNotExist(err) {
			slog.Info("marker file does not exist, nothing to publish",
				"machine", p.machine.Name,
				"marker", marker)
			if p.metrics != nil {
				p.metrics.RecordPublishSkipped(ctx, p.machine.Name)
			}
			return res, nil
		}
		return res, apperrors.Internal("stat marker", err)
	}

	archived, err := p.publish(ctx)
	if p.metrics != nil {
		p.metrics.RecordPublish(ctx, p.machine.Name, err == nil)
	}
	if err != nil {
		return res, err
	}

	res.Published = true
	res.Archived = archived
	return res, nil
}

// publish renames the report to its dated name, commits it, and rewrites
// the latest-report fragment.
func (p *Publisher) publish(ctx context.Context) (string, error) {
	dir := p.DataDir()
	src := filepath.Join(dir, p.cfg.ReportFile)
	archived := p.archivedName()
	dst := filepath.Join(dir, archived)

	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return "", apperrors.NotFound("report", src)
		}
		return "", apperrors.Internal("stat report", err)
	}
	// A dated report that already exists means a publish already ran today.
	// Renaming over it would silently lose the archived copy.
	if _, err := os.Stat(dst); err == nil {
		return "", apperrors.Conflict("archived report", archived, "already published today")
	}

	if err := os.Rename(src, dst); err != nil {
		return "", apperrors.Internal("rename report", err)
	}
	slog.Info("archived report", "machine", p.machine.Name, "archived", archived)

	// The VCS leg is fire-and-forget like the rest of the pipeline: a
	// failed stage, commit, or push is logged and the publish carries on
	// to the fragment rewrite. The archived file stays on disk for a
	// manual commit.
	date := p.now().Format(ArchiveDateLayout)
	if err := p.git.Add(ctx, archived); err != nil {
		slog.Warn("git add failed", "machine", p.machine.Name, "error", err)
	}
	if err := p.git.Commit(ctx, fmt.Sprintf("Archive nightly performance report %s", date)); err != nil {
		slog.Warn("git commit failed", "machine", p.machine.Name, "error", err)
	}
	if err := p.git.Push(ctx); err != nil {
		slog.Warn("git push failed", "machine", p.machine.Name, "error", err)
	}

	fragment := filepath.Join(dir, p.cfg.FragmentFile)
	if err := WriteFragment(fragment, archived); err != nil {
		return "", err
	}
	slog.Info("rewrote latest-report fragment", "machine", p.machine.Name, "fragment", fragment)

	ev := p.events.ArchivePublished(archived, p.cfg.FragmentFile)
	if err := p.disp.Dispatch(&dispatcher.Event{
		Payload:     ev,
		Destination: p.cfg.CallbackURL,
		SigningKey:  p.cfg.CallbackKey,
	}); err != nil {
		slog.Warn("failed to dispatch archive event", "error", err)
	}

	return archived, nil
}
