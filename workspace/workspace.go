// Package workspace holds the open workspace: a root directory and its index.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/lexandro/notebrowser-mcp/fsprovider"
	"github.com/lexandro/notebrowser-mcp/tree"
)

// ErrNoWorkspace is returned when an operation needs an open workspace.
var ErrNoWorkspace = errors.New("no workspace is open")

// Workspace is an opened root directory together with its index.
type Workspace struct {
	RootPath string
	Tree     *tree.Index
}

// Load opens path as a workspace.
func Load(ctx context.Context, provider fsprovider.Provider, path string) (*Workspace, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fsprovider.NewError("open", path, fsprovider.KindInvalidPath, err)
	}
	idx, err := tree.LoadRoot(ctx, provider, abs)
	if err != nil {
		return nil, err
	}
	return &Workspace{RootPath: idx.RootPath(), Tree: idx}, nil
}

// RootChangeFunc is notified when the active root changes. oldRoot is empty
// when a workspace is opened from nothing; newRoot is empty on close.
type RootChangeFunc func(oldRoot, newRoot string)

// Session holds at most one active workspace. Opening a workspace replaces
// the previous one.
type Session struct {
	mu        sync.RWMutex
	provider  fsprovider.Provider
	logger    *slog.Logger
	current   *Workspace
	listeners []RootChangeFunc
}

// NewSession creates an empty session.
func NewSession(provider fsprovider.Provider, logger *slog.Logger) *Session {
	return &Session{provider: provider, logger: logger}
}

// Provider returns the filesystem provider the session loads through.
func (s *Session) Provider() fsprovider.Provider {
	return s.provider
}

// OnRootChange registers fn to run after every root change.
func (s *Session) OnRootChange(fn RootChangeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Current returns the active workspace.
func (s *Session) Current() (*Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, ErrNoWorkspace
	}
	return s.current, nil
}

// RootPath returns the active root, or "" when nothing is open.
func (s *Session) RootPath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.RootPath
}

// Open loads path and makes it the active workspace. On failure the previous
// workspace stays active.
func (s *Session) Open(ctx context.Context, path string) (*Workspace, error) {
	ws, err := Load(ctx, s.provider, path)
	if err != nil {
		return nil, fmt.Errorf("open workspace %s: %w", path, err)
	}
	old := s.swap(ws)
	s.logger.Info("workspace opened", "root", ws.RootPath)
	s.notify(old, ws.RootPath)
	return ws, nil
}

// Rebind rebuilds the index at newRoot after the root itself was renamed.
func (s *Session) Rebind(ctx context.Context, newRoot string) (*Workspace, error) {
	ws, err := Load(ctx, s.provider, newRoot)
	if err != nil {
		return nil, fmt.Errorf("rebind workspace to %s: %w", newRoot, err)
	}
	old := s.swap(ws)
	s.logger.Info("workspace root moved", "from", old, "to", ws.RootPath)
	s.notify(old, ws.RootPath)
	return ws, nil
}

// Close drops the active workspace.
func (s *Session) Close() {
	old := s.swap(nil)
	if old == "" {
		return
	}
	s.logger.Info("workspace closed", "root", old)
	s.notify(old, "")
}

func (s *Session) swap(ws *Workspace) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := ""
	if s.current != nil {
		old = s.current.RootPath
	}
	s.current = ws
	return old
}

func (s *Session) notify(oldRoot, newRoot string) {
	s.mu.RLock()
	listeners := append([]RootChangeFunc(nil), s.listeners...)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn(oldRoot, newRoot)
	}
}
