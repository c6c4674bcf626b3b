// Package search scans workspace files on demand. Nothing is indexed ahead
// of time: every call walks the directory tree through the provider again.
package search

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/lexandro/notebrowser-mcp/fsprovider"
	"github.com/lexandro/notebrowser-mcp/language"
)

// PreviewLength is the maximum preview length in characters.
const PreviewLength = 100

var (
	// ErrNoRoot means the search has no directory to scan.
	ErrNoRoot = errors.New("no search root configured")
	// ErrEmptyQuery means the query text is blank.
	ErrEmptyQuery = errors.New("please enter a search query")
)

// Filter excludes paths from a walk. *ignore.Matcher satisfies it.
type Filter interface {
	ShouldIgnore(path string, isDir bool) bool
	ShouldIgnoreDir(path string) bool
}

// Query describes a content search.
type Query struct {
	Text          string
	CaseSensitive bool
	WholeWord     bool
	// Extensions restricts the files searched, lowercase and without the dot.
	// Empty means every file.
	Extensions map[string]bool
}

// Span is a half-open byte range inside a preview line.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Result is one matching file.
type Result struct {
	Path        string `json:"path"`
	MatchCount  int    `json:"matchCount"`
	PreviewLine string `json:"previewLine"`
	Highlights  []Span `json:"highlights,omitempty"`
	Kind        string `json:"kind"`
}

// Engine runs searches through a provider.
type Engine struct {
	Provider fsprovider.Provider
	// Ignore, when set, prunes ignored directories and files.
	Ignore Filter
	Logger *slog.Logger
	// MaxResults stops the walk once this many files matched. Zero means no limit.
	MaxResults int
}

// NewEngine creates an engine. filter may be nil.
func NewEngine(provider fsprovider.Provider, filter Filter, logger *slog.Logger) *Engine {
	return &Engine{Provider: provider, Ignore: filter, Logger: logger}
}

// Compile builds the matcher for q: the text is matched literally, wrapped in
// word boundaries for whole-word queries, case-insensitive unless requested.
func Compile(q Query) (*regexp.Regexp, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, ErrEmptyQuery
	}
	pattern := regexp.QuoteMeta(q.Text)
	if q.WholeWord {
		pattern = `\b` + pattern + `\b`
	}
	if !q.CaseSensitive {
		pattern = "(?i)" + pattern
	}
	return regexp.Compile(pattern)
}

// Search walks root and returns every text file that matches q, in traversal
// order. Zero matches is an empty result, not an error. Files and
// subdirectories that cannot be read are skipped.
func (e *Engine) Search(ctx context.Context, root string, q Query) ([]Result, error) {
	if root == "" {
		return nil, ErrNoRoot
	}
	re, err := Compile(q)
	if err != nil {
		return nil, err
	}

	results := []Result{}
	err = e.walkFiles(ctx, root, func(entry fsprovider.Entry) error {
		if len(q.Extensions) > 0 && !q.Extensions[language.Extension(entry.Path)] {
			return nil
		}
		content, err := e.Provider.ReadFile(ctx, entry.Path)
		if err != nil {
			if fsprovider.KindOf(err) == fsprovider.KindCancelled {
				return err
			}
			e.Logger.Debug("skipping unreadable file", "path", entry.Path, "error", err)
			return nil
		}
		if content.Kind != fsprovider.ContentText {
			return nil
		}

		result, ok := matchContent(re, content.Text)
		if !ok {
			return nil
		}
		result.Path = entry.Path
		result.Kind = language.DetectKind(entry.Path)
		results = append(results, result)
		if e.MaxResults > 0 && len(results) >= e.MaxResults {
			return errStop
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// matchContent counts the matches of re in text and extracts the preview.
func matchContent(re *regexp.Regexp, text string) (Result, bool) {
	count := len(re.FindAllStringIndex(text, -1))
	if count == 0 {
		return Result{}, false
	}

	result := Result{MatchCount: count}
	for _, line := range strings.Split(text, "\n") {
		if !re.MatchString(line) {
			continue
		}
		result.PreviewLine = Preview(line)
		for _, loc := range re.FindAllStringIndex(result.PreviewLine, -1) {
			result.Highlights = append(result.Highlights, Span{Start: loc[0], End: loc[1]})
		}
		break
	}
	return result, true
}

// Preview trims line and truncates it to PreviewLength characters.
func Preview(line string) string {
	line = strings.TrimSpace(line)
	if utf8.RuneCountInString(line) <= PreviewLength {
		return line
	}
	runes := []rune(line)
	return string(runes[:PreviewLength])
}
