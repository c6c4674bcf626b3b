package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lexandro/notebrowser-mcp/fsprovider"
	"github.com/lexandro/notebrowser-mcp/workspace"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ReadArgs defines the input parameters for the notes_read tool.
type ReadArgs struct {
	FilePath string `json:"filePath" jsonschema:"File path relative to the workspace root (e.g. journal/today.md)"`
}

// ReadHandler holds the dependencies for the read tool.
type ReadHandler struct {
	Session *workspace.Session
	Logger  *slog.Logger
}

// Handle processes a notes_read request.
func (h *ReadHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ReadArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if args.FilePath == "" {
		h.Logger.Warn("notes_read called with empty filePath")
		return errorResult("Error: filePath parameter is required"), nil, nil
	}
	path, err := resolvePath(h.Session, args.FilePath)
	if err != nil {
		return failure("read file", err), nil, nil
	}

	content, err := h.Session.Provider().ReadFile(ctx, path)
	if err != nil {
		h.Logger.Info("notes_read failed", "path", path, "error", err)
		return failure("read file", err), nil, nil
	}

	relativePath := displayPath(h.Session.RootPath(), path)
	h.Logger.Info("notes_read", "filePath", relativePath, "elapsed", time.Since(start))

	if content.Kind != fsprovider.ContentText {
		return textResult(fmt.Sprintf("── %s ──\nBinary file (%s), content not shown.", relativePath, formatFileSize(int64(len(content.Data))))), nil, nil
	}
	return textResult(FormatFileContent(relativePath, content.Text)), nil, nil
}
