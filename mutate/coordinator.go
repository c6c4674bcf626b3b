// Package mutate applies structural changes to the workspace through the
// filesystem provider and keeps the directory index in step with them.
package mutate

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lexandro/notebrowser-mcp/fsprovider"
	"github.com/lexandro/notebrowser-mcp/workspace"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultSettleTimeout = 2 * time.Second
	settlePollInterval   = 25 * time.Millisecond
)

// MoveOptions controls collisions at the destination.
type MoveOptions struct {
	// Overwrite replaces an item of the same name in the destination.
	Overwrite bool
}

// Options configures a Coordinator.
type Options struct {
	SettleTimeout time.Duration
}

// Coordinator performs create, delete, rename and move. The index is only
// touched after the provider reports success.
type Coordinator struct {
	provider      fsprovider.Provider
	session       *workspace.Session
	logger        *slog.Logger
	settleTimeout time.Duration
}

// NewCoordinator creates a coordinator bound to session.
func NewCoordinator(provider fsprovider.Provider, session *workspace.Session, logger *slog.Logger, options Options) *Coordinator {
	if options.SettleTimeout <= 0 {
		options.SettleTimeout = DefaultSettleTimeout
	}
	return &Coordinator{
		provider:      provider,
		session:       session,
		logger:        logger,
		settleTimeout: options.SettleTimeout,
	}
}

// CreateFile creates name inside parent with the given content and returns the new path.
func (c *Coordinator) CreateFile(ctx context.Context, parent, name, content string) (string, error) {
	const op = "create file"
	ws, path, err := c.prepareCreate(op, parent, name)
	if err != nil {
		return "", err
	}
	if err := c.provider.CreateFile(ctx, path, content); err != nil {
		return "", opError(op, path, err)
	}
	c.logger.Info("file created", "path", path)
	c.reload(ctx, ws, filepath.Dir(path))
	return path, nil
}

// CreateFolder creates the directory name inside parent and returns its path.
func (c *Coordinator) CreateFolder(ctx context.Context, parent, name string) (string, error) {
	const op = "create folder"
	ws, path, err := c.prepareCreate(op, parent, name)
	if err != nil {
		return "", err
	}
	if c.provider.Exists(ctx, path) {
		return "", invalid(op, path, "an item with this name already exists")
	}
	if err := c.provider.CreateFolder(ctx, path); err != nil {
		return "", opError(op, path, err)
	}
	c.logger.Info("folder created", "path", path)
	c.reload(ctx, ws, filepath.Dir(path))
	return path, nil
}

// DeleteItem removes a file or a directory tree. The workspace root cannot be deleted.
func (c *Coordinator) DeleteItem(ctx context.Context, path string) error {
	const op = "delete"
	ws, err := c.current(op, path)
	if err != nil {
		return err
	}
	path = filepath.Clean(path)
	if path == ws.RootPath {
		return invalid(op, path, "cannot delete the workspace root")
	}
	if !within(ws.RootPath, path) {
		return invalid(op, path, "path is outside the workspace")
	}

	if err := c.provider.DeleteItem(ctx, path); err != nil {
		return opError(op, path, err)
	}
	c.logger.Info("item deleted", "path", path)
	ws.Tree.Remove(path)
	c.reload(ctx, ws, filepath.Dir(path))
	return nil
}

// RenameItem renames oldPath to newPath. Renaming the workspace root rebinds
// the session to the new root and rebuilds the index.
func (c *Coordinator) RenameItem(ctx context.Context, oldPath, newPath string) error {
	const op = "rename"
	ws, err := c.current(op, oldPath)
	if err != nil {
		return err
	}
	oldPath, newPath = filepath.Clean(oldPath), filepath.Clean(newPath)
	if err := ValidateName(filepath.Base(newPath)); err != nil {
		return invalid(op, newPath, err.Error())
	}
	if oldPath == newPath {
		return nil
	}
	if below(newPath, oldPath) {
		return invalid(op, newPath, "destination is inside the item being renamed")
	}

	if oldPath == ws.RootPath {
		if err := c.provider.RenameItem(ctx, oldPath, newPath); err != nil {
			return opError(op, oldPath, err)
		}
		c.logger.Info("workspace root renamed", "from", oldPath, "to", newPath)
		if _, err := c.session.Rebind(ctx, newPath); err != nil {
			return opError(op, newPath, err)
		}
		return nil
	}

	if !within(ws.RootPath, oldPath) || !within(ws.RootPath, newPath) {
		return invalid(op, oldPath, "path is outside the workspace")
	}
	if err := c.provider.RenameItem(ctx, oldPath, newPath); err != nil {
		return opError(op, oldPath, err)
	}
	c.logger.Info("item renamed", "from", oldPath, "to", newPath)

	if err := ws.Tree.Rekey(oldPath, newPath); err != nil {
		c.logger.Debug("rekey after rename skipped", "path", oldPath, "error", err)
	}
	c.reload(ctx, ws, uniqueDirs(filepath.Dir(oldPath), filepath.Dir(newPath))...)
	return nil
}

// Move moves src into destDir and returns the new path.
func (c *Coordinator) Move(ctx context.Context, src, destDir string, options MoveOptions) (string, error) {
	const op = "move"
	ws, err := c.current(op, src)
	if err != nil {
		return "", err
	}
	src, destDir = filepath.Clean(src), filepath.Clean(destDir)

	if src == ws.RootPath {
		return "", invalid(op, src, "cannot move the workspace root")
	}
	if !within(ws.RootPath, src) || !within(ws.RootPath, destDir) {
		return "", invalid(op, src, "path is outside the workspace")
	}
	if destDir == src || below(destDir, src) {
		return "", invalid(op, destDir, "destination is the source or one of its descendants")
	}
	if !c.provider.Exists(ctx, src) {
		return "", opError(op, src, fsprovider.NewError(op, src, fsprovider.KindNotFound, os.ErrNotExist))
	}
	if !c.provider.IsDirectory(ctx, destDir) {
		if !c.provider.Exists(ctx, destDir) {
			return "", opError(op, destDir, fsprovider.NewError(op, destDir, fsprovider.KindNotFound, os.ErrNotExist))
		}
		return "", invalid(op, destDir, "destination is not a directory")
	}

	target := filepath.Join(destDir, filepath.Base(src))
	if target == src {
		return target, nil
	}
	if c.provider.Exists(ctx, target) {
		if below(src, target) {
			return "", invalid(op, target, "destination item contains the source")
		}
		if !options.Overwrite {
			return "", invalid(op, target, "destination already contains an item with this name")
		}
		if err := c.provider.DeleteItem(ctx, target); err != nil {
			return "", opError(op, target, err)
		}
		ws.Tree.Remove(target)
	}

	if err := c.provider.RenameItem(ctx, src, target); err != nil {
		return "", opError(op, src, err)
	}
	c.logger.Info("item moved", "from", src, "to", target)

	if err := ws.Tree.Rekey(src, target); err != nil {
		c.logger.Debug("rekey after move skipped", "path", src, "error", err)
	}
	c.settle(ctx, src, target)
	c.reload(ctx, ws, uniqueDirs(filepath.Dir(src), destDir)...)
	if ws.Tree.IsLoaded(target) {
		c.reload(ctx, ws, target)
	}
	return target, nil
}

// settle waits, bounded by the settle timeout, until the provider shows the
// item at its new location only. It is best-effort: on timeout the reload
// runs anyway and the next reconcile corrects any leftovers.
func (c *Coordinator) settle(ctx context.Context, oldPath, newPath string) {
	deadline := time.NewTimer(c.settleTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(settlePollInterval)
	defer ticker.Stop()

	for {
		if c.provider.Exists(ctx, newPath) && !c.provider.Exists(ctx, oldPath) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			c.logger.Warn("filesystem did not settle after move", "from", oldPath, "to", newPath)
			return
		case <-ticker.C:
		}
	}
}

// reload refreshes the given directories concurrently. The mutation already
// succeeded, so reload failures are logged rather than returned.
func (c *Coordinator) reload(ctx context.Context, ws *workspace.Workspace, dirs ...string) {
	g, gctx := errgroup.WithContext(ctx)
	for _, dir := range dirs {
		g.Go(func() error {
			if err := ws.Tree.Reload(gctx, dir); err != nil {
				c.logger.Warn("reload after mutation failed", "dir", dir, "error", err)
			}
			return nil
		})
	}
	g.Wait()
}

func (c *Coordinator) current(op, path string) (*workspace.Workspace, error) {
	ws, err := c.session.Current()
	if err != nil {
		return nil, opError(op, path, err)
	}
	return ws, nil
}

func (c *Coordinator) prepareCreate(op, parent, name string) (*workspace.Workspace, string, error) {
	ws, err := c.current(op, parent)
	if err != nil {
		return nil, "", err
	}
	parent = filepath.Clean(parent)
	if err := ValidateName(name); err != nil {
		return nil, "", invalid(op, filepath.Join(parent, name), err.Error())
	}
	if !within(ws.RootPath, parent) {
		return nil, "", invalid(op, parent, "path is outside the workspace")
	}
	return ws, filepath.Join(parent, name), nil
}

// within reports whether path is root or below it.
func within(root, path string) bool {
	return path == root || below(path, root)
}

// below reports whether path lies strictly inside dir.
func below(path, dir string) bool {
	return strings.HasPrefix(path, strings.TrimSuffix(dir, string(filepath.Separator))+string(filepath.Separator))
}

func uniqueDirs(a, b string) []string {
	if a == b {
		return []string{a}
	}
	return []string{a, b}
}
