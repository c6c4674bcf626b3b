package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lexandro/notebrowser-mcp/workspace"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// OpenArgs defines the input parameters for the notes_open tool.
type OpenArgs struct {
	Path string `json:"path" jsonschema:"Absolute path of the directory to open as the workspace"`
}

// TreeArgs defines the input parameters for the notes_tree tool.
type TreeArgs struct {
	Path  string `json:"path,omitempty" jsonschema:"Directory to show, relative to the workspace root (default: root)"`
	Depth int    `json:"depth,omitempty" jsonschema:"Levels of loaded children to show (default: all loaded levels)"`
}

// ExpandArgs defines the input parameters for the notes_expand tool.
type ExpandArgs struct {
	Path string `json:"path" jsonschema:"Directory to load, relative to the workspace root"`
}

// TreeHandler serves the workspace and browsing tools.
type TreeHandler struct {
	Session *workspace.Session
	Logger  *slog.Logger
}

// HandleOpen processes a notes_open request.
func (h *TreeHandler) HandleOpen(ctx context.Context, req *mcp.CallToolRequest, args OpenArgs) (*mcp.CallToolResult, any, error) {
	if args.Path == "" {
		return errorResult("Error: path parameter is required"), nil, nil
	}

	ws, err := h.Session.Open(ctx, args.Path)
	if err != nil {
		h.Logger.Error("notes_open failed", "path", args.Path, "error", err)
		return failure("open workspace", err), nil, nil
	}
	h.Logger.Info("notes_open", "root", ws.RootPath)

	view, _ := ws.Tree.Snapshot(ws.RootPath, 1)
	return textResult(fmt.Sprintf("Opened workspace %s\n\n%s", ws.RootPath, FormatTree(view))), nil, nil
}

// HandleTree processes a notes_tree request.
func (h *TreeHandler) HandleTree(ctx context.Context, req *mcp.CallToolRequest, args TreeArgs) (*mcp.CallToolResult, any, error) {
	ws, err := h.Session.Current()
	if err != nil {
		return failure("show tree", err), nil, nil
	}
	path, err := resolvePath(h.Session, args.Path)
	if err != nil {
		return failure("show tree", err), nil, nil
	}

	depth := args.Depth
	if depth <= 0 {
		depth = -1
	}
	view, ok := ws.Tree.Snapshot(path, depth)
	if !ok {
		return errorResult(fmt.Sprintf("Failed to show tree: %s is not loaded", displayPath(ws.RootPath, path))), nil, nil
	}
	return textResult(FormatTree(view)), nil, nil
}

// HandleExpand processes a notes_expand request.
func (h *TreeHandler) HandleExpand(ctx context.Context, req *mcp.CallToolRequest, args ExpandArgs) (*mcp.CallToolResult, any, error) {
	ws, err := h.Session.Current()
	if err != nil {
		return failure("expand", err), nil, nil
	}
	path, err := resolvePath(h.Session, args.Path)
	if err != nil {
		return failure("expand", err), nil, nil
	}

	if err := ws.Tree.Expand(ctx, path); err != nil {
		h.Logger.Warn("notes_expand failed", "path", path, "error", err)
		return failure("expand", err), nil, nil
	}
	h.Logger.Debug("notes_expand", "path", path)

	view, _ := ws.Tree.Snapshot(path, 1)
	return textResult(FormatTree(view)), nil, nil
}
