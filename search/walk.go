package search

import (
	"context"
	"errors"

	"github.com/lexandro/notebrowser-mcp/fsprovider"
	"github.com/lexandro/notebrowser-mcp/tree"
)

// errStop ends a walk early without reporting an error.
var errStop = errors.New("stop walk")

// walkFiles visits every file below root depth-first, in the same order the
// tree displays them. The root must be readable; unreadable subdirectories
// are skipped.
func (e *Engine) walkFiles(ctx context.Context, root string, visit func(fsprovider.Entry) error) error {
	entries, err := e.Provider.ReadDirectory(ctx, root)
	if err != nil {
		return err
	}
	err = e.walkEntries(ctx, entries, visit)
	if err == errStop {
		return nil
	}
	return err
}

func (e *Engine) walkEntries(ctx context.Context, entries []fsprovider.Entry, visit func(fsprovider.Entry) error) error {
	tree.SortEntries(entries)
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return fsprovider.NewError("search", entry.Path, fsprovider.KindCancelled, err)
		}

		if entry.IsDirectory {
			if e.Ignore != nil && e.Ignore.ShouldIgnoreDir(entry.Path) {
				continue
			}
			children, err := e.Provider.ReadDirectory(ctx, entry.Path)
			if err != nil {
				if fsprovider.KindOf(err) == fsprovider.KindCancelled {
					return err
				}
				e.Logger.Debug("skipping unreadable directory", "path", entry.Path, "error", err)
				continue
			}
			if err := e.walkEntries(ctx, children, visit); err != nil {
				return err
			}
			continue
		}

		if e.Ignore != nil && e.Ignore.ShouldIgnore(entry.Path, false) {
			continue
		}
		if err := visit(entry); err != nil {
			return err
		}
	}
	return nil
}
