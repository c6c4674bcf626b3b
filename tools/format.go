package tools

import (
	"fmt"
	"strings"
	"time"

	"github.com/lexandro/notebrowser-mcp/search"
	"github.com/lexandro/notebrowser-mcp/tags"
	"github.com/lexandro/notebrowser-mcp/tree"
)

// FormatTree renders a tree view as an indented outline. Directories end in
// "/"; directories whose children have not been loaded are marked "(+)".
func FormatTree(view tree.View) string {
	var builder strings.Builder
	builder.WriteString(view.Path)
	builder.WriteString("\n")
	for _, child := range view.Children {
		writeTreeNode(&builder, child, 1)
	}
	if view.Directory && view.Loaded && len(view.Children) == 0 {
		builder.WriteString("  (empty)\n")
	}
	return builder.String()
}

func writeTreeNode(builder *strings.Builder, view tree.View, level int) {
	indent := strings.Repeat("  ", level)
	switch {
	case !view.Directory:
		builder.WriteString(fmt.Sprintf("%s%s  (%s)\n", indent, view.Name, formatFileSize(view.Size)))
	case !view.Loaded:
		builder.WriteString(fmt.Sprintf("%s%s/ (+)\n", indent, view.Name))
	default:
		builder.WriteString(fmt.Sprintf("%s%s/\n", indent, view.Name))
	}
	for _, child := range view.Children {
		writeTreeNode(builder, child, level+1)
	}
}

// FormatSearchResults formats content search results as human-readable text,
// one block per file with its match count and preview line.
func FormatSearchResults(root string, results []search.Result) string {
	if len(results) == 0 {
		return "No matches found."
	}

	totalMatches := 0
	for _, result := range results {
		totalMatches += result.MatchCount
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Found %d matches in %d files:\n\n", totalMatches, len(results)))

	for _, result := range results {
		builder.WriteString(fmt.Sprintf("── %s (%d) ──\n", displayPath(root, result.Path), result.MatchCount))
		if result.PreviewLine != "" {
			builder.WriteString(fmt.Sprintf("  %s\n", highlight(result.PreviewLine, result.Highlights)))
		}
	}

	return builder.String()
}

// highlight wraps every span of line in double asterisks. Spans are byte
// offsets into line.
func highlight(line string, spans []search.Span) string {
	if len(spans) == 0 {
		return line
	}
	var builder strings.Builder
	last := 0
	for _, span := range spans {
		if span.Start < last || span.End > len(line) || span.Start >= span.End {
			continue
		}
		builder.WriteString(line[last:span.Start])
		builder.WriteString("**")
		builder.WriteString(line[span.Start:span.End])
		builder.WriteString("**")
		last = span.End
	}
	builder.WriteString(line[last:])
	return builder.String()
}

// FormatFileMatches formats name-based file results.
func FormatFileMatches(matches []search.FileMatch, nameOnly bool) string {
	if len(matches) == 0 {
		return "No files matched."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Found %d files:\n\n", len(matches)))

	for _, match := range matches {
		if nameOnly {
			builder.WriteString(match.RelativePath)
			builder.WriteString("\n")
			continue
		}
		builder.WriteString(fmt.Sprintf("  %s  (%s, %s)\n", match.RelativePath, match.Kind, formatFileSize(match.Size)))
	}

	return builder.String()
}

// FormatFileContent formats a file's content with line numbers.
// Output format: header line with path and line count, followed by numbered lines.
func FormatFileContent(filePath string, content string) string {
	lines := strings.Split(content, "\n")
	lineCount := len(lines)

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("── %s (%d lines) ──\n", filePath, lineCount))

	width := len(fmt.Sprintf("%d", lineCount))
	for i, line := range lines {
		builder.WriteString(fmt.Sprintf("%*d│ %s\n", width, i+1, line))
	}

	return builder.String()
}

// FormatTags lists tags one per line as "name  color  id".
func FormatTags(list []tags.Tag) string {
	if len(list) == 0 {
		return "No tags defined."
	}

	width := 0
	for _, tag := range list {
		width = max(width, len(tag.Name))
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("%d tags:\n\n", len(list)))
	for _, tag := range list {
		builder.WriteString(fmt.Sprintf("  %-*s  %s  %s\n", width, tag.Name, tag.Color, tag.ID))
	}
	return builder.String()
}

// FormatPaths renders tagged item paths relative to root.
func FormatPaths(root string, paths []string) string {
	if len(paths) == 0 {
		return "No items matched."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Found %d items:\n\n", len(paths)))
	for _, path := range paths {
		builder.WriteString(displayPath(root, path))
		builder.WriteString("\n")
	}
	return builder.String()
}

// formatFileSize converts bytes to a human-readable string.
func formatFileSize(bytes int64) string {
	switch {
	case bytes >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	case bytes >= 1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	totalSeconds := int(d.Seconds())
	if totalSeconds < 60 {
		return fmt.Sprintf("%ds", totalSeconds)
	}
	minutes, seconds := totalSeconds/60, totalSeconds%60
	if minutes < 60 {
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	}
	return fmt.Sprintf("%dh%dm", minutes/60, minutes%60)
}
