// Package watcher reports changes made to the workspace by other programs.
package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before a batch is emitted.
const DefaultDebounce = 100 * time.Millisecond

// IgnoreChecker decides which paths are not worth reporting.
type IgnoreChecker interface {
	ShouldIgnoreDir(absolutePath string) bool
	ShouldIgnore(absolutePath string, isDir bool) bool
}

// Options configures a Watcher.
type Options struct {
	// Ignore may be nil, in which case every path is reported.
	Ignore   IgnoreChecker
	Debounce time.Duration
	// AlwaysReport lists paths reported even when Ignore would drop them,
	// such as the tag sidecar.
	AlwaysReport []string
}

// Watcher watches a workspace recursively and emits debounced batches.
type Watcher struct {
	fsWatcher    *fsnotify.Watcher
	debouncer    *Debouncer
	ignore       IgnoreChecker
	alwaysReport map[string]bool
	rootDir      string
	logger       *slog.Logger
}

// NewWatcher registers rootDir and every non-ignored directory below it.
func NewWatcher(rootDir string, options Options, logger *slog.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if options.Debounce <= 0 {
		options.Debounce = DefaultDebounce
	}

	w := &Watcher{
		fsWatcher:    fsWatcher,
		debouncer:    NewDebouncer(options.Debounce),
		ignore:       options.Ignore,
		alwaysReport: make(map[string]bool, len(options.AlwaysReport)),
		rootDir:      rootDir,
		logger:       logger,
	}
	for _, path := range options.AlwaysReport {
		w.alwaysReport[filepath.Clean(path)] = true
	}

	if err := w.addTree(rootDir); err != nil {
		fsWatcher.Close()
		return nil, err
	}
	return w, nil
}

// Root returns the watched directory.
func (w *Watcher) Root() string {
	return w.rootDir
}

// Events returns the channel of debounced batches.
func (w *Watcher) Events() <-chan []DebouncedEvent {
	return w.debouncer.Output()
}

// Start consumes fsnotify events until the watcher is closed. Run it in a goroutine.
func (w *Watcher) Start() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := filepath.Clean(event.Name)

	isDir := false
	if info, err := os.Stat(path); err == nil {
		isDir = info.IsDir()
	}

	if !w.alwaysReport[path] && w.ignored(path, isDir) {
		return
	}

	var op EventOp
	switch {
	case event.Has(fsnotify.Create):
		op = OpCreate
		if isDir {
			if err := w.addTree(path); err != nil {
				w.logger.Warn("failed to watch new directory", "path", path, "error", err)
			}
		}
	case event.Has(fsnotify.Write):
		op = OpWrite
	case event.Has(fsnotify.Remove):
		op = OpRemove
	case event.Has(fsnotify.Rename):
		op = OpRename
	default:
		return
	}

	w.debouncer.Add(DebouncedEvent{Path: path, Op: op, IsDir: isDir})
}

func (w *Watcher) ignored(path string, isDir bool) bool {
	if w.ignore == nil || path == w.rootDir {
		return false
	}
	if isDir {
		return w.ignore.ShouldIgnoreDir(path)
	}
	return w.ignore.ShouldIgnore(path, false)
}

// addTree watches dir and its non-ignored subdirectories.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && w.ignored(path, true) {
			return filepath.SkipDir
		}
		if watchErr := w.fsWatcher.Add(path); watchErr != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", watchErr)
		}
		return nil
	})
}

// Close stops watching and closes the Events channel.
func (w *Watcher) Close() error {
	err := w.fsWatcher.Close()
	w.debouncer.Stop()
	return err
}
