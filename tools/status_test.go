package tools

import (
	"context"
	"strings"
	"testing"
	"time"
)

func Test_StatusHandler_Workspace(t *testing.T) {
	env := newTestEnv(t, map[string]string{"a.md": "x", "b.md": "y", "c.txt": "z"})
	if _, err := env.store.CreateTag(context.Background(), "work", ""); err != nil {
		t.Fatalf("create tag: %v", err)
	}
	h := &StatusHandler{Session: env.session, Tags: env.store, StartTime: time.Now(), Logger: env.logger}

	result, _, err := h.Handle(context.Background(), nil, StatusArgs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := resultText(t, result)

	for _, want := range []string{
		"notebrowser-mcp Status",
		"Workspace: " + testRoot,
		"Loaded directories: 1",
		"Known files: 3",
		"Tags: 1",
		"Memory usage:",
		"Markdown",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in status, got:\n%s", want, text)
		}
	}
}

func Test_StatusHandler_NoWorkspace(t *testing.T) {
	env := newTestEnv(t, nil)
	env.session.Close()
	h := &StatusHandler{Session: env.session, StartTime: time.Now(), Logger: env.logger}

	result, _, _ := h.Handle(context.Background(), nil, StatusArgs{})
	if result.IsError {
		t.Fatal("status should not fail without a workspace")
	}
	if text := resultText(t, result); !strings.Contains(text, "none open") {
		t.Errorf("expected no-workspace notice, got:\n%s", text)
	}
}
