package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lexandro/notebrowser-mcp/search"
	"github.com/lexandro/notebrowser-mcp/workspace"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const defaultFileResults = 50

// FilesArgs defines the input parameters for the notes_files tool.
type FilesArgs struct {
	Pattern    string `json:"pattern" jsonschema:"Glob pattern (e.g. **/*.md or journal/2024-*) or, with fuzzy, a loose name fragment"`
	Fuzzy      bool   `json:"fuzzy,omitempty" jsonschema:"Rank files by fuzzy similarity to pattern instead of glob matching"`
	NameOnly   bool   `json:"nameOnly,omitempty" jsonschema:"If true return only file paths without metadata"`
	MaxResults int    `json:"maxResults,omitempty" jsonschema:"Maximum number of results to return (default 50)"`
}

// FilesHandler holds the dependencies for the files tool.
type FilesHandler struct {
	Engine  *search.Engine
	Session *workspace.Session
	Logger  *slog.Logger
}

// Handle processes a notes_files request.
func (h *FilesHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args FilesArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if args.Pattern == "" {
		h.Logger.Warn("notes_files called with empty pattern")
		return errorResult("Error: pattern parameter is required"), nil, nil
	}
	root := h.Session.RootPath()
	if root == "" {
		return errorResult(fmt.Sprintf("Search error: %v", workspace.ErrNoWorkspace)), nil, nil
	}

	limit := args.MaxResults
	if limit <= 0 {
		limit = defaultFileResults
	}

	var (
		matches []search.FileMatch
		err     error
	)
	if args.Fuzzy {
		matches, err = h.Engine.FuzzyFind(ctx, root, args.Pattern, limit)
	} else {
		matches, err = h.Engine.FindFiles(ctx, root, args.Pattern, limit)
	}
	if err != nil {
		h.Logger.Error("notes_files failed", "pattern", args.Pattern, "error", err)
		return errorResult(fmt.Sprintf("Search error: %v", err)), nil, nil
	}

	h.Logger.Info("notes_files",
		"pattern", args.Pattern,
		"fuzzy", args.Fuzzy,
		"results", len(matches),
		"elapsed", time.Since(start),
	)

	return textResult(FormatFileMatches(matches, args.NameOnly)), nil, nil
}
