package tools

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/lexandro/notebrowser-mcp/fsprovider"
	"github.com/lexandro/notebrowser-mcp/mutate"
	"github.com/lexandro/notebrowser-mcp/search"
	"github.com/lexandro/notebrowser-mcp/tags"
	"github.com/lexandro/notebrowser-mcp/workspace"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/afero"
)

const testRoot = "/notes"

// testEnv is an open workspace on an in-memory filesystem with every
// collaborator the handlers need.
type testEnv struct {
	provider *fsprovider.AferoProvider
	session  *workspace.Session
	engine   *search.Engine
	coord    *mutate.Coordinator
	store    *tags.Store
	logger   *slog.Logger
}

func newTestEnv(t *testing.T, files map[string]string) *testEnv {
	t.Helper()
	p := fsprovider.NewMemProvider()
	if err := p.Fs().MkdirAll(testRoot, 0755); err != nil {
		t.Fatalf("mkdir root: %v", err)
	}
	for name, content := range files {
		if err := afero.WriteFile(p.Fs(), testRoot+"/"+name, []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	session := workspace.NewSession(p, logger)
	if _, err := session.Open(context.Background(), testRoot); err != nil {
		t.Fatalf("open workspace: %v", err)
	}

	return &testEnv{
		provider: p,
		session:  session,
		engine:   search.NewEngine(p, nil, logger),
		coord:    mutate.NewCoordinator(p, session, logger, mutate.Options{SettleTimeout: 200 * time.Millisecond}),
		store:    tags.NewStore(p, testRoot, logger),
		logger:   logger,
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("expected a result with content")
	}
	return result.Content[0].(*mcp.TextContent).Text
}
