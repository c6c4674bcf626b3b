package mutate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/lexandro/notebrowser-mcp/fsprovider"
	"github.com/lexandro/notebrowser-mcp/tree"
	"github.com/lexandro/notebrowser-mcp/workspace"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	provider *fsprovider.AferoProvider
	session  *workspace.Session
	coord    *Coordinator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	p := fsprovider.NewMemProvider()
	require.NoError(t, p.Fs().MkdirAll("/Notes/sub/inner", 0755))
	require.NoError(t, p.Fs().MkdirAll("/Notes/Archive", 0755))
	require.NoError(t, afero.WriteFile(p.Fs(), "/Notes/sub/note.md", []byte("n"), 0644))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	session := workspace.NewSession(p, logger)
	_, err := session.Open(context.Background(), "/Notes")
	require.NoError(t, err)

	return &fixture{
		provider: p,
		session:  session,
		coord:    NewCoordinator(p, session, logger, Options{SettleTimeout: 500 * time.Millisecond}),
	}
}

func (f *fixture) tree(t *testing.T) *tree.Index {
	t.Helper()
	ws, err := f.session.Current()
	require.NoError(t, err)
	return ws.Tree
}

func names(t *testing.T, idx *tree.Index, path string) []string {
	t.Helper()
	children, ok := idx.Children(path)
	require.True(t, ok, "%s should be loaded", path)
	var out []string
	for _, c := range children {
		out = append(out, c.Name)
	}
	return out
}

func Test_Coordinator_CreateFolderAndFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dir, err := f.coord.CreateFolder(ctx, "/Notes", "Ideas")
	require.NoError(t, err)
	assert.Equal(t, "/Notes/Ideas", dir)
	assert.Equal(t, []string{"Archive", "Ideas", "sub"}, names(t, f.tree(t), "/Notes"))

	require.NoError(t, f.tree(t).Expand(ctx, dir))
	file, err := f.coord.CreateFile(ctx, dir, "a.md", "hello world")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.md"}, names(t, f.tree(t), dir))

	content, err := f.provider.ReadFile(ctx, file)
	require.NoError(t, err)
	assert.Equal(t, "hello world", content.Text)
}

func Test_Coordinator_CreateFile_UnloadedParentStaysUnloaded(t *testing.T) {
	f := newFixture(t)

	_, err := f.coord.CreateFile(context.Background(), "/Notes/sub", "b.md", "")
	require.NoError(t, err)
	assert.False(t, f.tree(t).IsLoaded("/Notes/sub"))
}

func Test_Coordinator_CreateFile_Collision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.tree(t).Expand(ctx, "/Notes/sub"))

	_, err := f.coord.CreateFile(ctx, "/Notes/sub", "note.md", "overwrite?")
	require.Error(t, err)

	var opErr *OpError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, "create file", opErr.Op)
	assert.Equal(t, fsprovider.KindInvalidPath, fsprovider.KindOf(err))
	assert.Contains(t, err.Error(), "create file failed: ")
}

func Test_Coordinator_InvalidNames(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, name := range []string{"", "  ", ".", "..", "a/b", `a\b`} {
		_, err := f.coord.CreateFolder(ctx, "/Notes", name)
		assert.Equal(t, fsprovider.KindInvalidPath, fsprovider.KindOf(err), "name %q", name)
	}
}

func Test_Coordinator_RejectsPathsOutsideWorkspace(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.provider.Fs().MkdirAll("/elsewhere", 0755))

	_, err := f.coord.CreateFile(context.Background(), "/elsewhere", "x.md", "")
	assert.Equal(t, fsprovider.KindInvalidPath, fsprovider.KindOf(err))
	assert.False(t, f.provider.Exists(context.Background(), "/elsewhere/x.md"))
}

func Test_Coordinator_DeleteItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.tree(t).Expand(ctx, "/Notes/sub"))

	require.NoError(t, f.coord.DeleteItem(ctx, "/Notes/sub"))

	assert.False(t, f.provider.Exists(ctx, "/Notes/sub"))
	assert.Equal(t, []string{"Archive"}, names(t, f.tree(t), "/Notes"))
	_, ok := f.tree(t).Node("/Notes/sub/note.md")
	assert.False(t, ok)
}

func Test_Coordinator_DeleteItem_FailureLeavesCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	before := f.tree(t).Len()

	err := f.coord.DeleteItem(ctx, "/Notes/ghost.md")
	require.Error(t, err)
	assert.Equal(t, fsprovider.KindNotFound, fsprovider.KindOf(err))
	assert.Equal(t, before, f.tree(t).Len())
}

func Test_Coordinator_DeleteRootRejected(t *testing.T) {
	f := newFixture(t)

	err := f.coord.DeleteItem(context.Background(), "/Notes")
	assert.Equal(t, fsprovider.KindInvalidPath, fsprovider.KindOf(err))
	assert.True(t, f.provider.Exists(context.Background(), "/Notes"))
}

func Test_Coordinator_RenameItem_KeepsExpansion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.tree(t).Expand(ctx, "/Notes/sub"))

	require.NoError(t, f.coord.RenameItem(ctx, "/Notes/sub", "/Notes/Topics"))

	assert.Equal(t, []string{"Archive", "Topics"}, names(t, f.tree(t), "/Notes"))
	assert.True(t, f.tree(t).IsLoaded("/Notes/Topics"))
	assert.Equal(t, []string{"inner", "note.md"}, names(t, f.tree(t), "/Notes/Topics"))
}

func Test_Coordinator_RenameItem_Collision(t *testing.T) {
	f := newFixture(t)

	err := f.coord.RenameItem(context.Background(), "/Notes/sub", "/Notes/Archive")
	assert.Equal(t, fsprovider.KindInvalidPath, fsprovider.KindOf(err))
	assert.Equal(t, []string{"Archive", "sub"}, names(t, f.tree(t), "/Notes"))
}

// Renaming the workspace root rebinds the session and notifies listeners.
func Test_Coordinator_RenameRoot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var rebound string
	f.session.OnRootChange(func(_, newRoot string) { rebound = newRoot })

	require.NoError(t, f.coord.RenameItem(ctx, "/Notes", "/MyNotes"))

	assert.Equal(t, "/MyNotes", f.session.RootPath())
	assert.Equal(t, "/MyNotes", rebound)
	assert.Equal(t, []string{"Archive", "sub"}, names(t, f.tree(t), "/MyNotes"))

	_, err := tree.LoadRoot(ctx, f.provider, "/MyNotes")
	require.NoError(t, err)
	_, err = tree.LoadRoot(ctx, f.provider, "/Notes")
	assert.Equal(t, fsprovider.KindNotFound, fsprovider.KindOf(err))
}

func Test_Coordinator_Move(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	idx := f.tree(t)
	require.NoError(t, idx.Expand(ctx, "/Notes/sub"))
	require.NoError(t, idx.Expand(ctx, "/Notes/Archive"))

	target, err := f.coord.Move(ctx, "/Notes/sub", "/Notes/Archive", MoveOptions{})
	require.NoError(t, err)
	assert.Equal(t, "/Notes/Archive/sub", target)

	require.Eventually(t, func() bool {
		children, ok := idx.Children("/Notes/Archive")
		return ok && len(children) == 1 && children[0].Name == "sub"
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"Archive"}, names(t, idx, "/Notes"))
	assert.True(t, idx.IsLoaded("/Notes/Archive/sub"), "moved directory stays browsable")
	assert.Equal(t, []string{"inner", "note.md"}, names(t, idx, "/Notes/Archive/sub"))
}

func Test_Coordinator_Move_IntoDescendantRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.coord.Move(ctx, "/Notes/sub", "/Notes/sub/inner", MoveOptions{})
	assert.Equal(t, fsprovider.KindInvalidPath, fsprovider.KindOf(err))

	_, err = f.coord.Move(ctx, "/Notes/sub", "/Notes/sub", MoveOptions{})
	assert.Equal(t, fsprovider.KindInvalidPath, fsprovider.KindOf(err))

	assert.True(t, f.provider.Exists(ctx, "/Notes/sub/inner"))
}

func Test_Coordinator_Move_DestinationMustBeDirectory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.coord.Move(ctx, "/Notes/Archive", "/Notes/sub/note.md", MoveOptions{})
	assert.Equal(t, fsprovider.KindInvalidPath, fsprovider.KindOf(err))

	_, err = f.coord.Move(ctx, "/Notes/Archive", "/Notes/nowhere", MoveOptions{})
	assert.Equal(t, fsprovider.KindNotFound, fsprovider.KindOf(err))
}

func Test_Coordinator_Move_NameCollision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, afero.WriteFile(f.provider.Fs(), "/Notes/note.md", []byte("outer"), 0644))

	_, err := f.coord.Move(ctx, "/Notes/note.md", "/Notes/sub", MoveOptions{})
	assert.Equal(t, fsprovider.KindInvalidPath, fsprovider.KindOf(err))

	target, err := f.coord.Move(ctx, "/Notes/note.md", "/Notes/sub", MoveOptions{Overwrite: true})
	require.NoError(t, err)
	content, err := f.provider.ReadFile(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, "outer", content.Text)
	assert.False(t, f.provider.Exists(ctx, "/Notes/note.md"))
}

func Test_Coordinator_Move_OverwriteOwnAncestorRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.provider.Fs().MkdirAll("/Notes/sub/sub", 0755))
	require.NoError(t, afero.WriteFile(f.provider.Fs(), "/Notes/sub/sub/keep.md", []byte("k"), 0644))

	_, err := f.coord.Move(ctx, "/Notes/sub/sub", "/Notes", MoveOptions{Overwrite: true})
	assert.Equal(t, fsprovider.KindInvalidPath, fsprovider.KindOf(err))

	assert.True(t, f.provider.Exists(ctx, "/Notes/sub/sub/keep.md"))
	assert.True(t, f.provider.Exists(ctx, "/Notes/sub/note.md"))
	assert.Equal(t, []string{"Archive", "sub"}, names(t, f.tree(t), "/Notes"))
}

func Test_Coordinator_RenameItem_IntoDescendantRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.tree(t).Expand(ctx, "/Notes/sub"))

	err := f.coord.RenameItem(ctx, "/Notes/sub", "/Notes/sub/inner/sub")
	assert.Equal(t, fsprovider.KindInvalidPath, fsprovider.KindOf(err))

	err = f.coord.RenameItem(ctx, "/Notes", "/Notes/sub/Notes")
	assert.Equal(t, fsprovider.KindInvalidPath, fsprovider.KindOf(err))

	assert.True(t, f.provider.Exists(ctx, "/Notes/sub/note.md"))
	assert.True(t, f.provider.Exists(ctx, "/Notes/sub/inner"))
	assert.Equal(t, []string{"Archive", "sub"}, names(t, f.tree(t), "/Notes"))
	assert.Equal(t, []string{"inner", "note.md"}, names(t, f.tree(t), "/Notes/sub"))
}

func Test_Coordinator_NoWorkspace(t *testing.T) {
	p := fsprovider.NewMemProvider()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	coord := NewCoordinator(p, workspace.NewSession(p, logger), logger, Options{})

	_, err := coord.CreateFile(context.Background(), "/", "a.md", "")
	assert.ErrorIs(t, err, workspace.ErrNoWorkspace)
}

func Test_ValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("meeting notes.md"))
	assert.Error(t, ValidateName(".."))
	assert.Error(t, ValidateName("a/b"))
}
