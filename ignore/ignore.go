package ignore

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/denormal/go-gitignore"
	"github.com/spf13/afero"
)

// Rule files read from the workspace root.
const (
	GitIgnoreFile   = ".gitignore"
	NotesIgnoreFile = ".notesignore"
)

// Matcher decides whether a workspace path is excluded from search and
// change tracking. It combines default patterns, .gitignore rules,
// .notesignore rules and custom doublestar patterns.
// Reload takes the write lock; the Should* methods take the read lock.
type Matcher struct {
	mu             sync.RWMutex
	fs             afero.Fs
	rootDir        string
	gitIgnore      gitignore.GitIgnore
	notesIgnore    gitignore.GitIgnore
	customPatterns []string
}

// MatcherOptions configures the ignore matcher. A nil Fs means the OS filesystem.
type MatcherOptions struct {
	Fs             afero.Fs
	RootDir        string
	CustomPatterns []string
}

// NewMatcher creates a matcher rooted at options.RootDir.
func NewMatcher(options MatcherOptions) *Matcher {
	fs := options.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	matcher := &Matcher{
		fs:             fs,
		rootDir:        options.RootDir,
		customPatterns: options.CustomPatterns,
	}
	matcher.gitIgnore = loadIgnoreFile(fs, filepath.Join(options.RootDir, GitIgnoreFile), options.RootDir)
	matcher.notesIgnore = loadIgnoreFile(fs, filepath.Join(options.RootDir, NotesIgnoreFile), options.RootDir)
	return matcher
}

// RootDir returns the directory rule files were loaded from.
func (m *Matcher) RootDir() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rootDir
}

// ShouldIgnore reports whether absolutePath should be excluded. isDir tells
// gitignore-style rules whether a trailing-slash pattern applies.
func (m *Matcher) ShouldIgnore(absolutePath string, isDir bool) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	relativePath, err := filepath.Rel(m.rootDir, absolutePath)
	if err != nil || strings.HasPrefix(relativePath, "..") {
		relativePath = filepath.Base(absolutePath)
	}
	relativePath = filepath.ToSlash(relativePath)
	if relativePath == "." {
		return false
	}

	if matchesDefaultPatterns(relativePath) {
		return true
	}
	for _, gi := range []gitignore.GitIgnore{m.gitIgnore, m.notesIgnore} {
		if gi == nil {
			continue
		}
		if match := gi.Relative(relativePath, isDir); match != nil && match.Ignore() {
			return true
		}
	}
	return m.matchesCustomPatterns(relativePath)
}

// ShouldIgnoreDir reports whether a directory should be pruned during traversal.
func (m *Matcher) ShouldIgnoreDir(absolutePath string) bool {
	if alwaysSkippedDirs[filepath.Base(absolutePath)] {
		return true
	}
	return m.ShouldIgnore(absolutePath, true)
}

// IsRuleFile reports whether path is one of the rule files this matcher reads.
func (m *Matcher) IsRuleFile(path string) bool {
	m.mu.RLock()
	root := m.rootDir
	m.mu.RUnlock()
	return path == filepath.Join(root, GitIgnoreFile) || path == filepath.Join(root, NotesIgnoreFile)
}

func matchesDefaultPatterns(relativePath string) bool {
	parts := strings.Split(strings.ToLower(relativePath), "/")
	baseName := parts[len(parts)-1]

	for _, pattern := range DefaultIgnorePatterns {
		pattern = strings.ToLower(pattern)
		if !strings.ContainsAny(pattern, "*?[") {
			for _, part := range parts {
				if part == pattern {
					return true
				}
			}
			continue
		}
		if matched, err := filepath.Match(pattern, baseName); err == nil && matched {
			return true
		}
	}
	return false
}

// matchesCustomPatterns checks user-supplied doublestar patterns against the
// relative path and the base name.
func (m *Matcher) matchesCustomPatterns(relativePath string) bool {
	baseName := filepath.Base(relativePath)
	for _, pattern := range m.customPatterns {
		if matched, err := doublestar.Match(pattern, relativePath); err == nil && matched {
			return true
		}
		if matched, err := doublestar.Match(pattern, baseName); err == nil && matched {
			return true
		}
	}
	return false
}

// Reload re-reads the rule files. A non-empty rootDir rebinds the matcher to a
// new workspace root first.
func (m *Matcher) Reload(rootDir string) {
	m.mu.RLock()
	if rootDir == "" {
		rootDir = m.rootDir
	}
	fs := m.fs
	m.mu.RUnlock()

	newGitIgnore := loadIgnoreFile(fs, filepath.Join(rootDir, GitIgnoreFile), rootDir)
	newNotesIgnore := loadIgnoreFile(fs, filepath.Join(rootDir, NotesIgnoreFile), rootDir)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.rootDir = rootDir
	m.gitIgnore = newGitIgnore
	m.notesIgnore = newNotesIgnore
}

// loadIgnoreFile parses an ignore file, returning nil when it cannot be opened.
func loadIgnoreFile(fs afero.Fs, filePath string, baseDir string) gitignore.GitIgnore {
	f, err := fs.Open(filePath)
	if err != nil {
		return nil
	}
	defer f.Close()

	return gitignore.New(f, baseDir, nil)
}
