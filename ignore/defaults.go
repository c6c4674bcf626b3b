package ignore

// TagSidecarName is the tag store file kept at the workspace root. It is
// metadata, not a note, so searches and the watcher skip it by default.
const TagSidecarName = ".notepad-tags.json"

// DefaultIgnorePatterns contains names and globs that are never notes.
var DefaultIgnorePatterns = []string{
	// Version control
	".git",
	".svn",
	".hg",

	// Dependencies pulled into note vaults by tooling
	"node_modules",
	".trash",

	// Editor swap and backup files
	"*.swp",
	"*.swo",
	"*~",
	".#*",

	// OS files
	".DS_Store",
	"Thumbs.db",
	"desktop.ini",

	// Tag metadata
	TagSidecarName,
}

// alwaysSkippedDirs are pruned during traversal without consulting any rule file.
var alwaysSkippedDirs = map[string]bool{
	".git":         true,
	".svn":         true,
	".hg":          true,
	"node_modules": true,
	".trash":       true,
}
