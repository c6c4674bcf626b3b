package fsprovider

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T) *AferoProvider {
	t.Helper()
	p := NewMemProvider()
	require.NoError(t, p.Fs().MkdirAll("/ws/Notes/sub", 0755))
	require.NoError(t, afero.WriteFile(p.Fs(), "/ws/Notes/a.md", []byte("hello world"), 0644))
	return p
}

func Test_Provider_ReadDirectory(t *testing.T) {
	p := newTestProvider(t)

	entries, err := p.ReadDirectory(context.Background(), "/ws/Notes")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byName := map[string]Entry{}
	for _, e := range entries {
		byName[e.Name] = e
	}
	assert.True(t, byName["sub"].IsDirectory)
	assert.False(t, byName["a.md"].IsDirectory)
	assert.Equal(t, filepath.Join("/ws/Notes", "a.md"), byName["a.md"].Path)
	assert.EqualValues(t, len("hello world"), byName["a.md"].Size)
}

func Test_Provider_ReadDirectory_NotFound(t *testing.T) {
	p := newTestProvider(t)

	_, err := p.ReadDirectory(context.Background(), "/ws/Missing")
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, errors.Is(err, ErrNotFound))
}

func Test_Provider_ReadFile_TextAndBinary(t *testing.T) {
	p := newTestProvider(t)
	require.NoError(t, afero.WriteFile(p.Fs(), "/ws/Notes/img.png", []byte{0x89, 'P', 'N', 'G', 0x00, 0x01}, 0644))

	text, err := p.ReadFile(context.Background(), "/ws/Notes/a.md")
	require.NoError(t, err)
	assert.Equal(t, ContentText, text.Kind)
	assert.Equal(t, "hello world", text.Text)

	bin, err := p.ReadFile(context.Background(), "/ws/Notes/img.png")
	require.NoError(t, err)
	assert.Equal(t, ContentBinary, bin.Kind)
	assert.Empty(t, bin.Text)
}

func Test_Provider_CreateFile_RejectsExisting(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	require.NoError(t, p.CreateFile(ctx, "/ws/Notes/b.md", "new"))
	err := p.CreateFile(ctx, "/ws/Notes/b.md", "again")
	require.Error(t, err)
	assert.Equal(t, KindInvalidPath, KindOf(err))

	content, err := p.ReadFile(ctx, "/ws/Notes/b.md")
	require.NoError(t, err)
	assert.Equal(t, "new", content.Text)
}

func Test_Provider_CreateFile_MissingParent(t *testing.T) {
	p := newTestProvider(t)

	err := p.CreateFile(context.Background(), "/ws/Nope/b.md", "")
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func Test_Provider_DeleteItem_Recursive(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	require.NoError(t, afero.WriteFile(p.Fs(), "/ws/Notes/sub/deep.md", []byte("x"), 0644))

	require.NoError(t, p.DeleteItem(ctx, "/ws/Notes/sub"))
	assert.False(t, p.Exists(ctx, "/ws/Notes/sub"))
	assert.False(t, p.Exists(ctx, "/ws/Notes/sub/deep.md"))

	err := p.DeleteItem(ctx, "/ws/Notes/sub")
	assert.Equal(t, KindNotFound, KindOf(err))
}

func Test_Provider_RenameItem(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	require.NoError(t, p.RenameItem(ctx, "/ws/Notes/a.md", "/ws/Notes/sub/a.md"))
	assert.False(t, p.Exists(ctx, "/ws/Notes/a.md"))
	assert.True(t, p.Exists(ctx, "/ws/Notes/sub/a.md"))

	err := p.RenameItem(ctx, "/ws/Notes/a.md", "/ws/Notes/c.md")
	assert.Equal(t, KindNotFound, KindOf(err))
}

func Test_Provider_RenameItem_RefusesOverwrite(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	require.NoError(t, p.CreateFile(ctx, "/ws/Notes/b.md", "b"))

	err := p.RenameItem(ctx, "/ws/Notes/a.md", "/ws/Notes/b.md")
	require.Error(t, err)
	assert.Equal(t, KindInvalidPath, KindOf(err))
	assert.True(t, p.Exists(ctx, "/ws/Notes/a.md"))
}

func Test_Provider_CopyFile(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	require.NoError(t, p.CopyFile(ctx, "/ws/Notes/a.md", "/ws/Notes/copy.md"))
	content, err := p.ReadFile(ctx, "/ws/Notes/copy.md")
	require.NoError(t, err)
	assert.Equal(t, "hello world", content.Text)
}

func Test_Provider_CancelledContext(t *testing.T) {
	p := newTestProvider(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.ReadDirectory(ctx, "/ws/Notes")
	require.Error(t, err)
	assert.Equal(t, KindCancelled, KindOf(err))
	assert.False(t, p.Exists(ctx, "/ws/Notes"))
}

func Test_Provider_OSPermissionDenied(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	dir := t.TempDir()
	locked := filepath.Join(dir, "locked")
	require.NoError(t, os.Mkdir(locked, 0000))
	t.Cleanup(func() { os.Chmod(locked, 0755) })

	_, err := NewOSProvider().ReadDirectory(context.Background(), locked)
	require.Error(t, err)
	assert.Equal(t, KindPermissionDenied, KindOf(err))
}

func Test_KindOf_PlainErrors(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(os.ErrNotExist))
	assert.Equal(t, KindCancelled, KindOf(context.Canceled))
	assert.Equal(t, KindIO, KindOf(errors.New("boom")))
	assert.Equal(t, "InvalidPath", KindInvalidPath.String())
}
