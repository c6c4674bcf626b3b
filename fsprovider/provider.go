// Package fsprovider is the only code that touches the filesystem. Every other
// component reads and writes through a Provider, which never panics and reports
// failures as *Error values carrying a Kind.
package fsprovider

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/lexandro/notebrowser-mcp/language"
	"github.com/spf13/afero"
)

// Entry is one directory listing row.
type Entry struct {
	Name        string
	Path        string
	IsDirectory bool
	Size        int64
	ModTime     time.Time
}

// ContentKind tags the payload returned by ReadFile.
type ContentKind int

const (
	ContentText ContentKind = iota
	ContentBinary
)

// Content is a file payload. Text is set only for ContentText.
type Content struct {
	Kind ContentKind
	Text string
	Data []byte
}

// Provider is the filesystem access contract consumed by the tree, the
// mutation coordinator, the search engine and the tag store.
type Provider interface {
	ReadDirectory(ctx context.Context, path string) ([]Entry, error)
	ReadFile(ctx context.Context, path string) (Content, error)
	WriteFile(ctx context.Context, path string, content string) error
	CreateFile(ctx context.Context, path string, content string) error
	CreateFolder(ctx context.Context, path string) error
	DeleteItem(ctx context.Context, path string) error
	RenameItem(ctx context.Context, oldPath, newPath string) error
	CopyFile(ctx context.Context, src, dest string) error
	Exists(ctx context.Context, path string) bool
	IsDirectory(ctx context.Context, path string) bool
}

const (
	filePerm = 0644
	dirPerm  = 0755
)

// AferoProvider implements Provider on top of an afero.Fs.
type AferoProvider struct {
	fs afero.Fs
}

// NewOSProvider returns a provider backed by the real filesystem.
func NewOSProvider() *AferoProvider {
	return &AferoProvider{fs: afero.NewOsFs()}
}

// NewMemProvider returns a provider backed by an in-memory filesystem.
func NewMemProvider() *AferoProvider {
	return &AferoProvider{fs: afero.NewMemMapFs()}
}

// NewAferoProvider wraps an arbitrary afero.Fs.
func NewAferoProvider(fs afero.Fs) *AferoProvider {
	return &AferoProvider{fs: fs}
}

// Fs exposes the underlying filesystem, mainly for test fixtures.
func (p *AferoProvider) Fs() afero.Fs {
	return p.fs
}

func checkContext(ctx context.Context, op, path string) error {
	if err := ctx.Err(); err != nil {
		return NewError(op, path, KindCancelled, err)
	}
	return nil
}

// ReadDirectory lists the immediate children of path.
func (p *AferoProvider) ReadDirectory(ctx context.Context, path string) ([]Entry, error) {
	const op = "readDirectory"
	if err := checkContext(ctx, op, path); err != nil {
		return nil, err
	}

	infos, err := afero.ReadDir(p.fs, path)
	if err != nil {
		return nil, wrap(op, path, err)
	}

	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, Entry{
			Name:        info.Name(),
			Path:        filepath.Join(path, info.Name()),
			IsDirectory: info.IsDir(),
			Size:        info.Size(),
			ModTime:     info.ModTime(),
		})
	}
	return entries, nil
}

// ReadFile reads path and tags the payload as text or binary. Content with a
// NUL byte near the start or invalid UTF-8 is reported as binary.
func (p *AferoProvider) ReadFile(ctx context.Context, path string) (Content, error) {
	const op = "readFile"
	if err := checkContext(ctx, op, path); err != nil {
		return Content{}, err
	}

	data, err := afero.ReadFile(p.fs, path)
	if err != nil {
		return Content{}, wrap(op, path, err)
	}
	if !language.IsText(data) {
		return Content{Kind: ContentBinary, Data: data}, nil
	}
	return Content{Kind: ContentText, Text: string(data), Data: data}, nil
}

// WriteFile creates or truncates path.
func (p *AferoProvider) WriteFile(ctx context.Context, path string, content string) error {
	const op = "writeFile"
	if err := checkContext(ctx, op, path); err != nil {
		return err
	}
	return wrap(op, path, afero.WriteFile(p.fs, path, []byte(content), filePerm))
}

// CreateFile creates a new file and fails with KindInvalidPath if it exists.
func (p *AferoProvider) CreateFile(ctx context.Context, path string, content string) error {
	const op = "createFile"
	if err := checkContext(ctx, op, path); err != nil {
		return err
	}
	if !p.IsDirectory(ctx, filepath.Dir(path)) {
		return NewError(op, path, KindNotFound, os.ErrNotExist)
	}

	f, err := p.fs.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, filePerm)
	if err != nil {
		return wrap(op, path, err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return wrap(op, path, err)
	}
	return wrap(op, path, f.Close())
}

// CreateFolder creates path and any missing parents.
func (p *AferoProvider) CreateFolder(ctx context.Context, path string) error {
	const op = "createFolder"
	if err := checkContext(ctx, op, path); err != nil {
		return err
	}
	return wrap(op, path, p.fs.MkdirAll(path, dirPerm))
}

// DeleteItem removes a file, or a directory recursively.
func (p *AferoProvider) DeleteItem(ctx context.Context, path string) error {
	const op = "deleteItem"
	if err := checkContext(ctx, op, path); err != nil {
		return err
	}

	info, err := p.fs.Stat(path)
	if err != nil {
		return wrap(op, path, err)
	}
	if info.IsDir() {
		return wrap(op, path, p.fs.RemoveAll(path))
	}
	return wrap(op, path, p.fs.Remove(path))
}

// RenameItem renames or moves oldPath to newPath. It refuses to replace an
// existing target; a case-only rename of the same item is allowed.
func (p *AferoProvider) RenameItem(ctx context.Context, oldPath, newPath string) error {
	const op = "renameItem"
	if err := checkContext(ctx, op, oldPath); err != nil {
		return err
	}

	oldInfo, err := p.fs.Stat(oldPath)
	if err != nil {
		return wrap(op, oldPath, err)
	}
	if newInfo, err := p.fs.Stat(newPath); err == nil && !os.SameFile(oldInfo, newInfo) {
		return NewError(op, newPath, KindInvalidPath, os.ErrExist)
	}
	return wrap(op, oldPath, p.fs.Rename(oldPath, newPath))
}

// CopyFile copies src to dest, replacing dest if it exists.
func (p *AferoProvider) CopyFile(ctx context.Context, src, dest string) error {
	const op = "copyFile"
	if err := checkContext(ctx, op, src); err != nil {
		return err
	}

	in, err := p.fs.Open(src)
	if err != nil {
		return wrap(op, src, err)
	}
	defer in.Close()

	out, err := p.fs.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, filePerm)
	if err != nil {
		return wrap(op, dest, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return wrap(op, dest, err)
	}
	return wrap(op, dest, out.Close())
}

// Exists reports whether path exists. Errors read as false.
func (p *AferoProvider) Exists(ctx context.Context, path string) bool {
	if ctx.Err() != nil {
		return false
	}
	ok, err := afero.Exists(p.fs, path)
	return err == nil && ok
}

// IsDirectory reports whether path is an existing directory.
func (p *AferoProvider) IsDirectory(ctx context.Context, path string) bool {
	if ctx.Err() != nil {
		return false
	}
	ok, err := afero.IsDir(p.fs, path)
	return err == nil && ok
}
