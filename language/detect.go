package language

import (
	"path/filepath"
	"strings"
)

// Note kinds reported for workspace files.
const (
	KindMarkdown = "Markdown"
	KindCanvas   = "Canvas"
	KindText     = "Text"
	KindData     = "Data"
	KindImage    = "Image"
	KindDocument = "Document"
	KindCode     = "Code"
	KindUnknown  = "Unknown"
)

// ExtensionToKind maps file extensions (without dot) to note kinds.
var ExtensionToKind = map[string]string{
	"md": KindMarkdown, "markdown": KindMarkdown, "mdx": KindMarkdown, "mdown": KindMarkdown,
	"canvas": KindCanvas,
	"txt":    KindText, "text": KindText, "org": KindText, "rst": KindText, "adoc": KindText,
	"json": KindData, "yaml": KindData, "yml": KindData, "toml": KindData, "csv": KindData, "xml": KindData,
	"png": KindImage, "jpg": KindImage, "jpeg": KindImage, "gif": KindImage, "svg": KindImage, "webp": KindImage,
	"pdf": KindDocument, "doc": KindDocument, "docx": KindDocument, "rtf": KindDocument, "odt": KindDocument,
	"go": KindCode, "js": KindCode, "ts": KindCode, "tsx": KindCode, "py": KindCode, "rs": KindCode,
	"sh": KindCode, "html": KindCode, "css": KindCode, "sql": KindCode,
}

// Extension returns the lowercase extension of path without the leading dot.
func Extension(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// DetectKind returns the note kind for a file path based on its extension.
// Returns "Unknown" if the extension is not recognized.
func DetectKind(path string) string {
	ext := Extension(path)
	if ext == "" {
		switch strings.ToLower(filepath.Base(path)) {
		case "readme", "license", "changelog", "todo":
			return KindText
		}
		return KindUnknown
	}
	if kind, ok := ExtensionToKind[ext]; ok {
		return kind
	}
	return KindUnknown
}
