package tools

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/lexandro/notebrowser-mcp/language"
	"github.com/lexandro/notebrowser-mcp/tags"
	"github.com/lexandro/notebrowser-mcp/tree"
	"github.com/lexandro/notebrowser-mcp/workspace"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// StatusArgs defines the input parameters for the notes_status tool (none required).
type StatusArgs struct{}

// StatusHandler holds the dependencies for the status tool.
type StatusHandler struct {
	Session   *workspace.Session
	Tags      *tags.Store
	StartTime time.Time
	Logger    *slog.Logger
}

// Handle processes a notes_status request.
func (h *StatusHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args StatusArgs) (*mcp.CallToolResult, any, error) {
	var builder strings.Builder
	uptime := time.Since(h.StartTime)

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	builder.WriteString("=== notebrowser-mcp Status ===\n\n")
	builder.WriteString(fmt.Sprintf("Uptime: %s\n", formatDuration(uptime)))

	ws, err := h.Session.Current()
	if err != nil {
		builder.WriteString("Workspace: none open (use notes_open)\n")
		h.Logger.Info("notes_status", "workspace", "", "uptime", uptime)
		return textResult(builder.String()), nil, nil
	}

	loaded := ws.Tree.LoadedDirectories()
	kindCounts := make(map[string]int)
	var files int
	var totalSize int64
	ws.Tree.Walk(func(n tree.Node) bool {
		if !n.IsDir() {
			files++
			totalSize += n.Size
			kindCounts[language.DetectKind(n.Path)]++
		}
		return true
	})
	tagCount := 0
	if h.Tags != nil && h.Tags.Root() != "" {
		tagCount = len(h.Tags.ListTags(ctx))
	}

	h.Logger.Info("notes_status",
		"workspace", ws.RootPath,
		"nodes", ws.Tree.Len(),
		"loadedDirs", len(loaded),
		"tags", tagCount,
		"memory", memStats.Alloc,
		"uptime", uptime,
	)

	builder.WriteString(fmt.Sprintf("Workspace: %s\n", ws.RootPath))
	builder.WriteString(fmt.Sprintf("Cached nodes: %d\n", ws.Tree.Len()))
	builder.WriteString(fmt.Sprintf("Loaded directories: %d\n", len(loaded)))
	builder.WriteString(fmt.Sprintf("Known files: %d (%s)\n", files, formatFileSize(totalSize)))
	builder.WriteString(fmt.Sprintf("Tags: %d\n", tagCount))
	builder.WriteString(fmt.Sprintf("Memory usage: %s (heap: %s)\n",
		formatFileSize(int64(memStats.Alloc)),
		formatFileSize(int64(memStats.HeapAlloc)),
	))

	if len(kindCounts) > 0 {
		builder.WriteString("\nKinds:\n")

		type kindEntry struct {
			kind  string
			count int
		}
		entries := make([]kindEntry, 0, len(kindCounts))
		for kind, count := range kindCounts {
			entries = append(entries, kindEntry{kind, count})
		}
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].count != entries[j].count {
				return entries[i].count > entries[j].count
			}
			return entries[i].kind < entries[j].kind
		})

		for _, entry := range entries {
			builder.WriteString(fmt.Sprintf("  %-20s %d files\n", entry.kind, entry.count))
		}
	}

	return textResult(builder.String()), nil, nil
}
