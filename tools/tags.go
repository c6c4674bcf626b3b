package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lexandro/notebrowser-mcp/tags"
	"github.com/lexandro/notebrowser-mcp/workspace"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// TagsListArgs defines the input parameters for the tags_list tool.
type TagsListArgs struct {
	Path string `json:"path,omitempty" jsonschema:"If set, list only the tags assigned to this item"`
}

// TagCreateArgs defines the input parameters for the tags_create tool.
type TagCreateArgs struct {
	Name  string `json:"name" jsonschema:"Tag name"`
	Color string `json:"color,omitempty" jsonschema:"Colour as #rrggbb (default #FF6B6B)"`
}

// TagUpdateArgs defines the input parameters for the tags_update tool.
type TagUpdateArgs struct {
	Tag   string `json:"tag" jsonschema:"Tag id or name"`
	Name  string `json:"name" jsonschema:"New tag name"`
	Color string `json:"color" jsonschema:"New colour as #rrggbb"`
}

// TagDeleteArgs defines the input parameters for the tags_delete tool.
type TagDeleteArgs struct {
	Tag string `json:"tag" jsonschema:"Tag id or name; it is also removed from every item"`
}

// TagAssignArgs defines the input parameters for the tags_assign tool.
type TagAssignArgs struct {
	Path string   `json:"path" jsonschema:"Item path relative to the workspace root"`
	Tags []string `json:"tags" jsonschema:"Tag ids or names to assign. Replaces the current set; empty clears it"`
}

// TagToggleArgs defines the input parameters for the tags_toggle tool.
type TagToggleArgs struct {
	Path string `json:"path" jsonschema:"Item path relative to the workspace root"`
	Tag  string `json:"tag" jsonschema:"Tag id or name to add or remove"`
}

// TagQueryArgs defines the input parameters for the tags_query tool.
type TagQueryArgs struct {
	Tags []string `json:"tags" jsonschema:"Tag ids or names; items carrying any of them are returned"`
}

// TagsHandler serves the tag tools.
type TagsHandler struct {
	Store   *tags.Store
	Session *workspace.Session
	Logger  *slog.Logger
}

// HandleList processes a tags_list request.
func (h *TagsHandler) HandleList(ctx context.Context, req *mcp.CallToolRequest, args TagsListArgs) (*mcp.CallToolResult, any, error) {
	if err := h.requireRoot(); err != nil {
		return failure("list tags", err), nil, nil
	}
	if args.Path == "" {
		return textResult(FormatTags(h.Store.ListTags(ctx))), nil, nil
	}
	path, err := resolvePath(h.Session, args.Path)
	if err != nil {
		return failure("list tags", err), nil, nil
	}
	return textResult(FormatTags(h.Store.TagsFor(ctx, path))), nil, nil
}

// HandleCreate processes a tags_create request.
func (h *TagsHandler) HandleCreate(ctx context.Context, req *mcp.CallToolRequest, args TagCreateArgs) (*mcp.CallToolResult, any, error) {
	tag, err := h.Store.CreateTag(ctx, args.Name, args.Color)
	if err != nil {
		h.Logger.Warn("tags_create failed", "name", args.Name, "error", err)
		return failure("create tag", err), nil, nil
	}
	h.Logger.Info("tags_create", "id", tag.ID, "name", tag.Name)
	return textResult(fmt.Sprintf("Created tag %s (%s) id=%s", tag.Name, tag.Color, tag.ID)), nil, nil
}

// HandleUpdate processes a tags_update request.
func (h *TagsHandler) HandleUpdate(ctx context.Context, req *mcp.CallToolRequest, args TagUpdateArgs) (*mcp.CallToolResult, any, error) {
	if err := h.requireRoot(); err != nil {
		return failure("update tag", err), nil, nil
	}
	ids := h.resolveTags(ctx, []string{args.Tag})
	tag, err := h.Store.UpdateTag(ctx, ids[0], args.Name, args.Color)
	if err != nil {
		h.Logger.Warn("tags_update failed", "tag", args.Tag, "error", err)
		return failure("update tag", err), nil, nil
	}
	return textResult(fmt.Sprintf("Updated tag %s (%s)", tag.Name, tag.Color)), nil, nil
}

// HandleDelete processes a tags_delete request.
func (h *TagsHandler) HandleDelete(ctx context.Context, req *mcp.CallToolRequest, args TagDeleteArgs) (*mcp.CallToolResult, any, error) {
	if err := h.requireRoot(); err != nil {
		return failure("delete tag", err), nil, nil
	}
	ids := h.resolveTags(ctx, []string{args.Tag})
	if err := h.Store.DeleteTag(ctx, ids[0]); err != nil {
		h.Logger.Warn("tags_delete failed", "tag", args.Tag, "error", err)
		return failure("delete tag", err), nil, nil
	}
	return textResult(fmt.Sprintf("Deleted tag %s", args.Tag)), nil, nil
}

// HandleAssign processes a tags_assign request.
func (h *TagsHandler) HandleAssign(ctx context.Context, req *mcp.CallToolRequest, args TagAssignArgs) (*mcp.CallToolResult, any, error) {
	path, err := resolvePath(h.Session, args.Path)
	if err != nil {
		return failure("assign tags", err), nil, nil
	}
	if len(args.Tags) == 0 {
		if err := h.Store.ClearAssignment(ctx, path); err != nil {
			h.Logger.Warn("tags_assign failed", "path", path, "error", err)
			return failure("clear tags", err), nil, nil
		}
		return textResult(fmt.Sprintf("Cleared tags on %s", displayPath(h.Session.RootPath(), path))), nil, nil
	}
	if err := h.Store.SetAssignment(ctx, path, h.resolveTags(ctx, args.Tags)); err != nil {
		h.Logger.Warn("tags_assign failed", "path", path, "error", err)
		return failure("assign tags", err), nil, nil
	}

	assigned := h.Store.TagsFor(ctx, path)
	return textResult(fmt.Sprintf("%s: %s", displayPath(h.Session.RootPath(), path), tagNames(assigned))), nil, nil
}

// HandleToggle processes a tags_toggle request.
func (h *TagsHandler) HandleToggle(ctx context.Context, req *mcp.CallToolRequest, args TagToggleArgs) (*mcp.CallToolResult, any, error) {
	path, err := resolvePath(h.Session, args.Path)
	if err != nil {
		return failure("toggle tag", err), nil, nil
	}
	ids := h.resolveTags(ctx, []string{args.Tag})
	added, err := h.Store.ToggleAssignment(ctx, path, ids[0])
	if err != nil {
		h.Logger.Warn("tags_toggle failed", "path", path, "tag", args.Tag, "error", err)
		return failure("toggle tag", err), nil, nil
	}

	verb := "Removed"
	if added {
		verb = "Added"
	}
	return textResult(fmt.Sprintf("%s tag %s on %s", verb, args.Tag, displayPath(h.Session.RootPath(), path))), nil, nil
}

// HandleQuery processes a tags_query request.
func (h *TagsHandler) HandleQuery(ctx context.Context, req *mcp.CallToolRequest, args TagQueryArgs) (*mcp.CallToolResult, any, error) {
	if err := h.requireRoot(); err != nil {
		return failure("query tags", err), nil, nil
	}
	paths := h.Store.QueryByTags(ctx, h.resolveTags(ctx, args.Tags))
	h.Logger.Info("tags_query", "tags", args.Tags, "results", len(paths))
	return textResult(FormatPaths(h.Session.RootPath(), paths)), nil, nil
}

func (h *TagsHandler) requireRoot() error {
	if h.Store.Root() == "" {
		return tags.ErrNoRoot
	}
	return nil
}

// resolveTags maps tag names to ids. References that are already ids, or
// that match nothing, are passed through so the store can reject them.
func (h *TagsHandler) resolveTags(ctx context.Context, refs []string) []string {
	known := h.Store.ListTags(ctx)
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		ref = strings.TrimSpace(ref)
		id := ref
		for _, tag := range known {
			if tag.ID == ref {
				id = tag.ID
				break
			}
			if strings.EqualFold(tag.Name, ref) {
				id = tag.ID
			}
		}
		ids = append(ids, id)
	}
	return ids
}

func tagNames(list []tags.Tag) string {
	names := make([]string, len(list))
	for i, tag := range list {
		names[i] = tag.Name
	}
	return strings.Join(names, ", ")
}
