package publish

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"nightly/internal/apperrors"
)

// pollInterval backs up fsnotify on filesystems that drop events, NFS in
// particular, which is common on test machines.
const pollInterval = 30 * time.Second

// Watch blocks until today's marker file appears, then publishes. It
// returns early if ctx is cancelled or the marker was already present.
func (p *Publisher) Watch(ctx context.Context) (*Result, error) {
	marker := p.MarkerPath()
	if _, err := os.Stat(marker); err == nil {
		return p.Run(ctx)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, apperrors.Internal("create watcher", err)
	}
	defer watcher.Close()

	if err := watcher.Add(p.DataDir()); err != nil {
		return nil, apperrors.Internal("watch data dir", err)
	}
	slog.Info("waiting for marker file", "machine", p.machine.Name, "marker", marker)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil, apperrors.Internal("watch data dir", fsnotify.ErrClosed)
			}
			if ev.Op.Has(fsnotify.Create|fsnotify.Write) && filepath.Clean(ev.Name) == marker {
				return p.Run(ctx)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil, apperrors.Internal("watch data dir", fsnotify.ErrClosed)
			}
			slog.Warn("watcher error", "error", err)
		case <-ticker.C:
			if _, err := os.Stat(marker); err == nil {
				return p.Run(ctx)
			}
		}
	}
}
