package search

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/lexandro/notebrowser-mcp/fsprovider"
	"github.com/lexandro/notebrowser-mcp/language"
	"github.com/sahilm/fuzzy"
)

// FileMatch is a file found by name rather than content.
type FileMatch struct {
	Path         string `json:"path"`
	RelativePath string `json:"relativePath"`
	Kind         string `json:"kind"`
	Size         int64  `json:"size"`
	// Score is set by FuzzyFind; higher is better.
	Score int `json:"score,omitempty"`
}

// FindFiles returns files under root whose root-relative path matches a
// doublestar glob pattern, in traversal order.
func (e *Engine) FindFiles(ctx context.Context, root, pattern string, maxResults int) ([]FileMatch, error) {
	if root == "" {
		return nil, ErrNoRoot
	}
	pattern = strings.ReplaceAll(pattern, "\\", "/")
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern: %s", pattern)
	}

	matches := []FileMatch{}
	err := e.walkFiles(ctx, root, func(entry fsprovider.Entry) error {
		relativePath := relative(root, entry.Path)
		matched, err := doublestar.Match(pattern, relativePath)
		if err != nil || !matched {
			return nil
		}
		matches = append(matches, newFileMatch(root, entry))
		if maxResults > 0 && len(matches) >= maxResults {
			return errStop
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// FuzzyFind ranks every file under root by how well its root-relative path
// matches term, best first.
func (e *Engine) FuzzyFind(ctx context.Context, root, term string, limit int) ([]FileMatch, error) {
	if root == "" {
		return nil, ErrNoRoot
	}
	if strings.TrimSpace(term) == "" {
		return nil, ErrEmptyQuery
	}

	var entries []fsprovider.Entry
	var paths []string
	err := e.walkFiles(ctx, root, func(entry fsprovider.Entry) error {
		entries = append(entries, entry)
		paths = append(paths, relative(root, entry.Path))
		return nil
	})
	if err != nil {
		return nil, err
	}

	ranked := fuzzy.Find(term, paths)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	matches := make([]FileMatch, 0, len(ranked))
	for _, m := range ranked {
		match := newFileMatch(root, entries[m.Index])
		match.Score = m.Score
		matches = append(matches, match)
	}
	return matches, nil
}

func newFileMatch(root string, entry fsprovider.Entry) FileMatch {
	return FileMatch{
		Path:         entry.Path,
		RelativePath: relative(root, entry.Path),
		Kind:         language.DetectKind(entry.Path),
		Size:         entry.Size,
	}
}

// relative returns path relative to root with forward slashes.
func relative(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
