package tools

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/lexandro/notebrowser-mcp/mutate"
	"github.com/lexandro/notebrowser-mcp/workspace"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// CreateArgs defines the input parameters for notes_create_file and notes_create_folder.
type CreateArgs struct {
	Parent  string `json:"parent,omitempty" jsonschema:"Parent directory relative to the workspace root (default: root)"`
	Name    string `json:"name" jsonschema:"Name of the new file or folder"`
	Content string `json:"content,omitempty" jsonschema:"Initial file content (files only)"`
}

// DeleteArgs defines the input parameters for the notes_delete tool.
type DeleteArgs struct {
	Path    string `json:"path" jsonschema:"File or folder to delete, relative to the workspace root"`
	Confirm bool   `json:"confirm" jsonschema:"Must be true; folders are deleted with everything inside them"`
}

// RenameArgs defines the input parameters for the notes_rename tool.
type RenameArgs struct {
	Path    string `json:"path" jsonschema:"Item to rename, relative to the workspace root"`
	NewName string `json:"newName" jsonschema:"New name (a single path segment)"`
}

// MoveArgs defines the input parameters for the notes_move tool.
type MoveArgs struct {
	Source      string `json:"source" jsonschema:"Item to move, relative to the workspace root"`
	Destination string `json:"destination" jsonschema:"Destination directory, relative to the workspace root"`
	Overwrite   bool   `json:"overwrite,omitempty" jsonschema:"Replace an item with the same name in the destination"`
}

// MutationHandler serves the create, delete, rename and move tools.
type MutationHandler struct {
	Coordinator *mutate.Coordinator
	Session     *workspace.Session
	Logger      *slog.Logger
}

// HandleCreateFile processes a notes_create_file request.
func (h *MutationHandler) HandleCreateFile(ctx context.Context, req *mcp.CallToolRequest, args CreateArgs) (*mcp.CallToolResult, any, error) {
	return h.create(ctx, "create file", args, func(parent string) (string, error) {
		return h.Coordinator.CreateFile(ctx, parent, args.Name, args.Content)
	})
}

// HandleCreateFolder processes a notes_create_folder request.
func (h *MutationHandler) HandleCreateFolder(ctx context.Context, req *mcp.CallToolRequest, args CreateArgs) (*mcp.CallToolResult, any, error) {
	return h.create(ctx, "create folder", args, func(parent string) (string, error) {
		return h.Coordinator.CreateFolder(ctx, parent, args.Name)
	})
}

func (h *MutationHandler) create(ctx context.Context, op string, args CreateArgs, do func(parent string) (string, error)) (*mcp.CallToolResult, any, error) {
	parent, err := resolvePath(h.Session, args.Parent)
	if err != nil {
		return failure(op, err), nil, nil
	}
	path, err := do(parent)
	if err != nil {
		h.Logger.Warn("mutation failed", "op", op, "parent", parent, "name", args.Name, "error", err)
		return failure(op, err), nil, nil
	}
	return textResult(fmt.Sprintf("Created %s", displayPath(h.Session.RootPath(), path))), nil, nil
}

// HandleDelete processes a notes_delete request. Without confirm the request
// is reported as cancelled and nothing is deleted.
func (h *MutationHandler) HandleDelete(ctx context.Context, req *mcp.CallToolRequest, args DeleteArgs) (*mcp.CallToolResult, any, error) {
	path, err := resolvePath(h.Session, args.Path)
	if err != nil {
		return failure("delete", err), nil, nil
	}
	if !args.Confirm {
		h.Logger.Info("notes_delete cancelled", "path", path)
		return errorResult(fmt.Sprintf("Cancelled: %s was not deleted (set confirm to true)", displayPath(h.Session.RootPath(), path))), nil, nil
	}

	if err := h.Coordinator.DeleteItem(ctx, path); err != nil {
		h.Logger.Warn("notes_delete failed", "path", path, "error", err)
		return failure("delete", err), nil, nil
	}
	return textResult(fmt.Sprintf("Deleted %s", displayPath(h.Session.RootPath(), path))), nil, nil
}

// HandleRename processes a notes_rename request.
func (h *MutationHandler) HandleRename(ctx context.Context, req *mcp.CallToolRequest, args RenameArgs) (*mcp.CallToolResult, any, error) {
	oldPath, err := resolvePath(h.Session, args.Path)
	if err != nil {
		return failure("rename", err), nil, nil
	}
	if err := mutate.ValidateName(args.NewName); err != nil {
		return failure("rename", err), nil, nil
	}
	newPath := filepath.Join(filepath.Dir(oldPath), args.NewName)

	if err := h.Coordinator.RenameItem(ctx, oldPath, newPath); err != nil {
		h.Logger.Warn("notes_rename failed", "path", oldPath, "newName", args.NewName, "error", err)
		return failure("rename", err), nil, nil
	}
	return textResult(fmt.Sprintf("Renamed to %s", newPath)), nil, nil
}

// HandleMove processes a notes_move request.
func (h *MutationHandler) HandleMove(ctx context.Context, req *mcp.CallToolRequest, args MoveArgs) (*mcp.CallToolResult, any, error) {
	src, err := resolvePath(h.Session, args.Source)
	if err != nil {
		return failure("move", err), nil, nil
	}
	dest, err := resolvePath(h.Session, args.Destination)
	if err != nil {
		return failure("move", err), nil, nil
	}

	target, err := h.Coordinator.Move(ctx, src, dest, mutate.MoveOptions{Overwrite: args.Overwrite})
	if err != nil {
		h.Logger.Warn("notes_move failed", "source", src, "destination", dest, "error", err)
		return failure("move", err), nil, nil
	}
	root := h.Session.RootPath()
	return textResult(fmt.Sprintf("Moved %s to %s", displayPath(root, src), displayPath(root, target))), nil, nil
}
