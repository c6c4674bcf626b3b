package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/lexandro/notebrowser-mcp/tree"
	"github.com/lexandro/notebrowser-mcp/workspace"
)

// SyncResult holds the outcome of a single reconcile run.
type SyncResult struct {
	Directories int // loaded directories re-read
	Added       int // entries on disk but not in the tree
	Removed     int // entries in the tree but no longer on disk
	Modified    int // files whose size or ModTime changed
	Duration    time.Duration
}

// Changed is the total number of differences found.
func (r SyncResult) Changed() int {
	return r.Added + r.Removed + r.Modified
}

// runPeriodicSync re-reads the loaded part of the open workspace at the
// given interval, catching changes the watcher missed. It runs until ctx is
// cancelled.
func runPeriodicSync(ctx context.Context, interval time.Duration, session *workspace.Session, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("periodic sync started", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			logger.Info("periodic sync stopped")
			return
		case <-ticker.C:
			ws, err := session.Current()
			if err != nil {
				continue
			}
			result := performSyncVerification(ctx, ws, logger)
			if result.Changed() > 0 {
				logger.Info("sync verification complete",
					"directories", result.Directories,
					"added", result.Added,
					"removed", result.Removed,
					"modified", result.Modified,
					"duration", result.Duration,
				)
			} else {
				logger.Debug("sync verification complete, tree is in sync", "duration", result.Duration)
			}
		}
	}
}

// performSyncVerification reloads every loaded directory of ws and counts
// what the reload changed. Directories that disappeared are dropped by their
// parent's reload.
func performSyncVerification(ctx context.Context, ws *workspace.Workspace, logger *slog.Logger) SyncResult {
	start := time.Now()
	var result SyncResult

	for _, dir := range ws.Tree.LoadedDirectories() {
		if ctx.Err() != nil {
			break
		}
		before, ok := ws.Tree.Children(dir)
		if !ok {
			continue
		}
		if err := ws.Tree.Reload(ctx, dir); err != nil {
			logger.Debug("sync: reload failed", "path", dir, "error", err)
			continue
		}
		after, _ := ws.Tree.Children(dir)
		result.Directories++

		added, removed, modified := diffChildren(before, after)
		result.Added += added
		result.Removed += removed
		result.Modified += modified
		if added+removed+modified > 0 {
			logger.Info("sync: directory changed on disk", "path", dir, "added", added, "removed", removed, "modified", modified)
		}
	}

	result.Duration = time.Since(start)
	return result
}

func diffChildren(before, after []tree.Node) (added, removed, modified int) {
	old := make(map[string]tree.Node, len(before))
	for _, n := range before {
		old[n.Path] = n
	}
	for _, n := range after {
		prev, ok := old[n.Path]
		if !ok || prev.Kind != n.Kind {
			added++
			if ok {
				removed++
			}
			delete(old, n.Path)
			continue
		}
		delete(old, n.Path)
		if !n.IsDir() && (prev.Size != n.Size || !prev.ModTime.Equal(n.ModTime)) {
			modified++
		}
	}
	removed += len(old)
	return added, removed, modified
}
