package tools

import (
	"context"
	"strings"
	"testing"
)

func newTestReadHandler(t *testing.T) *ReadHandler {
	t.Helper()
	env := newTestEnv(t, map[string]string{
		"a.md":    "line one\nline two",
		"img.png": "\x89PNG\x00\x00data",
	})
	return &ReadHandler{Session: env.session, Logger: env.logger}
}

func Test_ReadHandler_EmptyPath(t *testing.T) {
	h := newTestReadHandler(t)

	result, _, _ := h.Handle(context.Background(), nil, ReadArgs{})
	if !result.IsError {
		t.Fatal("expected IsError=true for empty filePath")
	}
}

func Test_ReadHandler_TextFile(t *testing.T) {
	h := newTestReadHandler(t)

	result, _, err := h.Handle(context.Background(), nil, ReadArgs{FilePath: "a.md"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := resultText(t, result)
	if !strings.Contains(text, "── a.md (2 lines) ──") || !strings.Contains(text, "2│ line two") {
		t.Errorf("unexpected content:\n%s", text)
	}
}

func Test_ReadHandler_BinaryFile(t *testing.T) {
	h := newTestReadHandler(t)

	result, _, _ := h.Handle(context.Background(), nil, ReadArgs{FilePath: "img.png"})
	if result.IsError {
		t.Fatalf("unexpected error: %s", resultText(t, result))
	}
	if text := resultText(t, result); !strings.Contains(text, "Binary file") {
		t.Errorf("expected binary notice, got:\n%s", text)
	}
}

func Test_ReadHandler_NotFound(t *testing.T) {
	h := newTestReadHandler(t)

	result, _, _ := h.Handle(context.Background(), nil, ReadArgs{FilePath: "missing.md"})
	if !result.IsError {
		t.Fatal("expected IsError=true for a missing file")
	}
	if text := resultText(t, result); !strings.HasPrefix(text, "Failed to read file:") {
		t.Errorf("unexpected message: %s", text)
	}
}
