package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lexandro/notebrowser-mcp/search"
	"github.com/lexandro/notebrowser-mcp/workspace"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SearchArgs defines the input parameters for the notes_search tool.
type SearchArgs struct {
	Query         string   `json:"query" jsonschema:"Text to search for. Matched literally, never as a regular expression"`
	CaseSensitive bool     `json:"caseSensitive,omitempty" jsonschema:"Match letter case exactly (default false)"`
	WholeWord     bool     `json:"wholeWord,omitempty" jsonschema:"Only match whole words (default false)"`
	Extensions    []string `json:"extensions,omitempty" jsonschema:"Only search files with these extensions (e.g. md, txt). Empty means all files"`
}

// SearchHandler holds the dependencies for the search tool.
type SearchHandler struct {
	Engine  *search.Engine
	Session *workspace.Session
	Latest  *search.Latest
	Logger  *slog.Logger
}

// Handle processes a notes_search request. Each search records its results in
// Latest when it completes, so the most recently finished search is kept.
func (h *SearchHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args SearchArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if strings.TrimSpace(args.Query) == "" {
		h.Logger.Warn("notes_search called with empty query")
		return errorResult("Error: query parameter is required"), nil, nil
	}

	root := h.Session.RootPath()
	q := search.Query{
		Text:          args.Query,
		CaseSensitive: args.CaseSensitive,
		WholeWord:     args.WholeWord,
		Extensions:    extensionSet(args.Extensions),
	}

	generation := h.Latest.Begin()
	results, err := h.Engine.Search(ctx, root, q)
	if err != nil {
		h.Logger.Error("notes_search failed", "query", args.Query, "error", err)
		if errors.Is(err, search.ErrNoRoot) {
			err = workspace.ErrNoWorkspace
		}
		return errorResult(fmt.Sprintf("Search error: %v", err)), nil, nil
	}
	h.Latest.Complete(generation, q, results)

	h.Logger.Info("notes_search",
		"query", args.Query,
		"wholeWord", args.WholeWord,
		"caseSensitive", args.CaseSensitive,
		"files", len(results),
		"generation", generation,
		"superseded", h.Latest.IsStale(generation),
		"elapsed", time.Since(start),
	)

	return textResult(FormatSearchResults(root, results)), nil, nil
}

// extensionSet normalizes user supplied extensions to the lower-case,
// dot-less form the engine compares against.
func extensionSet(extensions []string) map[string]bool {
	if len(extensions) == 0 {
		return nil
	}
	set := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			set[ext] = true
		}
	}
	return set
}
