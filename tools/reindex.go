package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RefreshArgs defines the input parameters for the notes_refresh tool.
type RefreshArgs struct{}

// RefreshFunc re-reads every loaded directory and merges what changed on
// disk. It is provided by main.go to avoid circular dependencies.
type RefreshFunc func(ctx context.Context) (directories int, changed int, elapsed time.Duration, err error)

// RefreshHandler holds the dependencies for the refresh tool.
type RefreshHandler struct {
	DoRefresh RefreshFunc
	Logger    *slog.Logger
}

// Handle processes a notes_refresh request.
func (h *RefreshHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args RefreshArgs) (*mcp.CallToolResult, any, error) {
	h.Logger.Info("notes_refresh started")

	directories, changed, elapsed, err := h.DoRefresh(ctx)
	if err != nil {
		h.Logger.Error("notes_refresh failed", "error", err)
		return errorResult(fmt.Sprintf("Refresh error: %v", err)), nil, nil
	}

	h.Logger.Info("notes_refresh complete",
		"directories", directories,
		"changed", changed,
		"elapsed", elapsed,
	)

	return textResult(fmt.Sprintf("Refresh complete: %d loaded directories re-read, %d changed, in %s",
		directories, changed, elapsed.Round(time.Millisecond))), nil, nil
}
