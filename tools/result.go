package tools

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/lexandro/notebrowser-mcp/mutate"
	"github.com/lexandro/notebrowser-mcp/workspace"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

// failure renders "Failed to <op>: <error>". The operation name already
// carried by an *mutate.OpError is not repeated.
func failure(op string, err error) *mcp.CallToolResult {
	var opErr *mutate.OpError
	if errors.As(err, &opErr) {
		err = opErr.Err
	}
	return errorResult(fmt.Sprintf("Failed to %s: %v", op, err))
}

// resolvePath turns a tool argument into an absolute path. Relative paths
// and the empty string are taken relative to the workspace root.
func resolvePath(session *workspace.Session, path string) (string, error) {
	root := session.RootPath()
	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}
	if root == "" {
		return "", workspace.ErrNoWorkspace
	}
	return filepath.Join(root, filepath.FromSlash(path)), nil
}

// displayPath renders path relative to root with forward slashes.
func displayPath(root, path string) string {
	if root == "" {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
