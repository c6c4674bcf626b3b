package search

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/lexandro/notebrowser-mcp/fsprovider"
	"github.com/lexandro/notebrowser-mcp/ignore"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, files map[string]string) (*Engine, *fsprovider.AferoProvider) {
	t.Helper()
	p := fsprovider.NewMemProvider()
	require.NoError(t, p.Fs().MkdirAll("/ws", 0755))
	for path, content := range files {
		require.NoError(t, afero.WriteFile(p.Fs(), path, []byte(content), 0644))
	}
	return NewEngine(p, nil, slog.New(slog.NewTextHandler(io.Discard, nil))), p
}

func paths(results []Result) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Path)
	}
	return out
}

// Folder Notes with a.md "hello world" yields exactly one result.
func Test_Engine_Search_SingleMatch(t *testing.T) {
	engine, _ := newTestEngine(t, map[string]string{"/ws/Notes/a.md": "hello world"})

	results, err := engine.Search(context.Background(), "/ws/Notes", Query{Text: "hello"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "/ws/Notes/a.md", results[0].Path)
	assert.Equal(t, 1, results[0].MatchCount)
	assert.Equal(t, "hello world", results[0].PreviewLine)
	assert.Equal(t, []Span{{Start: 0, End: 5}}, results[0].Highlights)
	assert.Equal(t, "Markdown", results[0].Kind)
}

func Test_Engine_Search_WholeWord(t *testing.T) {
	engine, _ := newTestEngine(t, map[string]string{"/ws/pets.md": "the category of things"})
	ctx := context.Background()

	results, err := engine.Search(ctx, "/ws", Query{Text: "cat", WholeWord: true})
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = engine.Search(ctx, "/ws", Query{Text: "cat"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].MatchCount)
}

func Test_Engine_Search_CaseSensitivity(t *testing.T) {
	engine, _ := newTestEngine(t, map[string]string{"/ws/a.md": "Go go GO"})
	ctx := context.Background()

	results, err := engine.Search(ctx, "/ws", Query{Text: "go"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 3, results[0].MatchCount)
	assert.Len(t, results[0].Highlights, 3)

	results, err = engine.Search(ctx, "/ws", Query{Text: "go", CaseSensitive: true})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].MatchCount)
}

func Test_Engine_Search_RegexMetacharactersAreLiteral(t *testing.T) {
	engine, _ := newTestEngine(t, map[string]string{
		"/ws/a.md": "costs $5 (approx.)",
		"/ws/b.md": "costs 55 approx",
	})

	results, err := engine.Search(context.Background(), "/ws", Query{Text: "$5 (approx.)"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/ws/a.md"}, paths(results))
}

func Test_Engine_Search_PreviewIsFirstMatchingLineTrimmedAndTruncated(t *testing.T) {
	long := "   needle " + strings.Repeat("é", 150) + "   "
	engine, _ := newTestEngine(t, map[string]string{
		"/ws/a.md": "first line\n" + long + "\nanother needle",
	})

	results, err := engine.Search(context.Background(), "/ws", Query{Text: "needle"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].MatchCount)
	assert.True(t, strings.HasPrefix(results[0].PreviewLine, "needle "))
	assert.Equal(t, PreviewLength, len([]rune(results[0].PreviewLine)))
}

func Test_Engine_Search_TraversalOrder(t *testing.T) {
	engine, _ := newTestEngine(t, map[string]string{
		"/ws/b.md":          "x",
		"/ws/A.md":          "x",
		"/ws/zeta/inner.md": "x",
		"/ws/Alpha/deep.md": "x",
	})

	results, err := engine.Search(context.Background(), "/ws", Query{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/ws/Alpha/deep.md", "/ws/zeta/inner.md", "/ws/A.md", "/ws/b.md"}, paths(results))
}

func Test_Engine_Search_ExtensionFilterSkipsFilesNotDirectories(t *testing.T) {
	engine, _ := newTestEngine(t, map[string]string{
		"/ws/a.md":         "term",
		"/ws/b.txt":        "term",
		"/ws/dir.txt/c.md": "term",
	})

	results, err := engine.Search(context.Background(), "/ws", Query{Text: "term", Extensions: map[string]bool{"md": true}})
	require.NoError(t, err)
	assert.Equal(t, []string{"/ws/dir.txt/c.md", "/ws/a.md"}, paths(results))
}

func Test_Engine_Search_SkipsBinaryFiles(t *testing.T) {
	engine, _ := newTestEngine(t, map[string]string{
		"/ws/blob.bin": "term\x00\x01\x02",
		"/ws/a.md":     "term",
	})

	results, err := engine.Search(context.Background(), "/ws", Query{Text: "term"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/ws/a.md"}, paths(results))
}

func Test_Engine_Search_NoMatchesIsNotAnError(t *testing.T) {
	engine, _ := newTestEngine(t, map[string]string{"/ws/a.md": "hello"})

	results, err := engine.Search(context.Background(), "/ws", Query{Text: "absent"})
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func Test_Engine_Search_Errors(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	ctx := context.Background()

	_, err := engine.Search(ctx, "", Query{Text: "x"})
	assert.True(t, errors.Is(err, ErrNoRoot))

	_, err = engine.Search(ctx, "/ws", Query{Text: "   "})
	assert.True(t, errors.Is(err, ErrEmptyQuery))

	_, err = engine.Search(ctx, "/missing", Query{Text: "x"})
	assert.Equal(t, fsprovider.KindNotFound, fsprovider.KindOf(err))
}

func Test_Engine_Search_Cancelled(t *testing.T) {
	engine, _ := newTestEngine(t, map[string]string{"/ws/a.md": "x"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Search(ctx, "/ws", Query{Text: "x"})
	assert.Equal(t, fsprovider.KindCancelled, fsprovider.KindOf(err))
}

func Test_Engine_Search_IgnoreRules(t *testing.T) {
	engine, p := newTestEngine(t, map[string]string{
		"/ws/a.md":                "term",
		"/ws/.git/notes":          "term",
		"/ws/private/secret.md":   "term",
		"/ws/" + ignore.TagSidecarName: `{"tags":[{"name":"term"}]}`,
		"/ws/.notesignore":        "private/\n",
	})
	engine.Ignore = ignore.NewMatcher(ignore.MatcherOptions{Fs: p.Fs(), RootDir: "/ws"})

	results, err := engine.Search(context.Background(), "/ws", Query{Text: "term"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/ws/a.md"}, paths(results))
}

func Test_Engine_Search_MaxResults(t *testing.T) {
	engine, _ := newTestEngine(t, map[string]string{"/ws/a.md": "x", "/ws/b.md": "x", "/ws/c.md": "x"})
	engine.MaxResults = 2

	results, err := engine.Search(context.Background(), "/ws", Query{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/ws/a.md", "/ws/b.md"}, paths(results))
}

func Test_Engine_FindFiles(t *testing.T) {
	engine, _ := newTestEngine(t, map[string]string{
		"/ws/a.md":             "",
		"/ws/journal/2024.md":  "",
		"/ws/journal/x/y.md":   "",
		"/ws/board.canvas":     "",
	})
	ctx := context.Background()

	matches, err := engine.FindFiles(ctx, "/ws", "journal/**/*.md", 0)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "journal/x/y.md", matches[0].RelativePath)
	assert.Equal(t, "journal/2024.md", matches[1].RelativePath)

	matches, err = engine.FindFiles(ctx, "/ws", "*.canvas", 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Canvas", matches[0].Kind)

	_, err = engine.FindFiles(ctx, "/ws", "[", 0)
	assert.Error(t, err)
}

func Test_Engine_FuzzyFind(t *testing.T) {
	engine, _ := newTestEngine(t, map[string]string{
		"/ws/meeting-notes.md": "",
		"/ws/groceries.md":     "",
		"/ws/misc/mn.txt":      "",
	})

	matches, err := engine.FuzzyFind(context.Background(), "/ws", "meetnotes", 5)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, "meeting-notes.md", matches[0].RelativePath)
	for _, m := range matches {
		assert.NotEqual(t, "groceries.md", m.RelativePath)
	}
}

func Test_Latest_LastCompletedWins(t *testing.T) {
	var latest Latest
	first := latest.Begin()
	second := latest.Begin()

	latest.Complete(second, Query{Text: "new"}, []Result{{Path: "/new"}})
	assert.True(t, latest.IsStale(first))
	assert.False(t, latest.IsStale(second))

	// The older search finishing later still determines what is shown.
	latest.Complete(first, Query{Text: "old"}, []Result{{Path: "/old"}})
	results, q, gen := latest.Results()
	assert.Equal(t, "old", q.Text)
	assert.Equal(t, first, gen)
	assert.Equal(t, "/old", results[0].Path)

	latest.Reset()
	results, _, _ = latest.Results()
	assert.Nil(t, results)
}
