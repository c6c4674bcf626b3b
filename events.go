package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/lexandro/notebrowser-mcp/ignore"
	"github.com/lexandro/notebrowser-mcp/tags"
	"github.com/lexandro/notebrowser-mcp/watcher"
	"github.com/lexandro/notebrowser-mcp/workspace"
)

// eventSink holds what a batch of watcher events may touch.
type eventSink struct {
	session *workspace.Session
	matcher *ignore.Matcher
	store   *tags.Store
	logger  *slog.Logger
}

// handleWatcherEvents applies debounced filesystem events until the
// watcher's channel closes.
func handleWatcherEvents(ctx context.Context, fileWatcher *watcher.Watcher, sink *eventSink) {
	for batch := range fileWatcher.Events() {
		sink.apply(ctx, fileWatcher.Root(), batch)
	}
}

// apply reloads the loaded parent directory of every changed path, so an
// external change shows up without collapsing expanded folders. Tag sidecar
// changes are announced on the tag bus; ignore rule changes reload the matcher.
func (s *eventSink) apply(ctx context.Context, watchedRoot string, batch []watcher.DebouncedEvent) {
	ws, err := s.session.Current()
	if err != nil || ws.RootPath != watchedRoot {
		// The batch belongs to a workspace that is no longer open.
		return
	}
	sidecar := s.store.SidecarPath()

	dirs := make(map[string]bool)
	for _, event := range batch {
		switch {
		case event.Path == sidecar:
			s.logger.Debug("tag sidecar changed on disk", "op", event.Op)
			s.store.Bus().Publish()
			continue
		case s.matcher.IsRuleFile(event.Path):
			s.matcher.Reload("")
			s.logger.Info("reloaded ignore rules", "trigger", filepath.Base(event.Path))
		}

		if event.Path == ws.RootPath {
			continue
		}
		parent := filepath.Dir(event.Path)
		if ws.Tree.IsLoaded(parent) {
			dirs[parent] = true
		}
	}

	ordered := make([]string, 0, len(dirs))
	for dir := range dirs {
		ordered = append(ordered, dir)
	}
	sort.Strings(ordered)

	for _, dir := range ordered {
		if err := ws.Tree.Reload(ctx, dir); err != nil {
			s.logger.Debug("reload after external change failed", "path", dir, "error", err)
			continue
		}
		s.logger.Debug("reloaded after external change", "path", dir)
	}
}
