package watcher

import (
	"testing"
	"time"
)

const testInterval = 50 * time.Millisecond

func receiveBatch(t *testing.T, d *Debouncer, timeout time.Duration) []DebouncedEvent {
	t.Helper()
	select {
	case batch := <-d.Output():
		return batch
	case <-time.After(timeout):
		t.Fatal("timed out waiting for debouncer batch")
		return nil
	}
}

func Test_Debouncer_SingleEvent(t *testing.T) {
	d := NewDebouncer(testInterval)

	d.Add(DebouncedEvent{Path: "todo.md", Op: OpWrite})

	batch := receiveBatch(t, d, 500*time.Millisecond)

	if len(batch) != 1 {
		t.Fatalf("expected 1 event, got %d", len(batch))
	}
	if batch[0].Path != "todo.md" {
		t.Errorf("expected path 'todo.md', got '%s'", batch[0].Path)
	}
	if batch[0].Op != OpWrite {
		t.Errorf("expected write, got %s", batch[0].Op)
	}
}

func Test_Debouncer_EventCollapsing(t *testing.T) {
	d := NewDebouncer(testInterval)

	d.Add(DebouncedEvent{Path: "Notes", Op: OpCreate, IsDir: true})
	d.Add(DebouncedEvent{Path: "Notes", Op: OpRemove, IsDir: true})

	batch := receiveBatch(t, d, 500*time.Millisecond)

	if len(batch) != 1 {
		t.Fatalf("expected 1 event (collapsed), got %d", len(batch))
	}
	if batch[0].Op != OpRemove || !batch[0].IsDir {
		t.Errorf("expected latest directory remove, got %+v", batch[0])
	}
}

func Test_Debouncer_BatchSortedByPath(t *testing.T) {
	d := NewDebouncer(testInterval)

	d.Add(DebouncedEvent{Path: "ideas.md", Op: OpWrite})
	d.Add(DebouncedEvent{Path: "journal.md", Op: OpCreate})
	d.Add(DebouncedEvent{Path: "Archive", Op: OpRemove})

	batch := receiveBatch(t, d, 500*time.Millisecond)

	expectedPaths := []string{"Archive", "ideas.md", "journal.md"}
	if len(batch) != len(expectedPaths) {
		t.Fatalf("expected %d events, got %d", len(expectedPaths), len(batch))
	}
	for i, expected := range expectedPaths {
		if batch[i].Path != expected {
			t.Errorf("event[%d]: expected path '%s', got '%s'", i, expected, batch[i].Path)
		}
	}
}

func Test_Debouncer_TimerReset(t *testing.T) {
	d := NewDebouncer(testInterval)

	d.Add(DebouncedEvent{Path: "a.md", Op: OpWrite})

	// A second event inside the window restarts the quiet period.
	time.Sleep(testInterval / 2)
	d.Add(DebouncedEvent{Path: "b.md", Op: OpWrite})

	batch := receiveBatch(t, d, 500*time.Millisecond)

	if len(batch) != 2 {
		t.Fatalf("expected 2 events in single batch, got %d", len(batch))
	}
}

func Test_Debouncer_StopClosesOutput(t *testing.T) {
	d := NewDebouncer(testInterval)
	d.Add(DebouncedEvent{Path: "a.md", Op: OpWrite})

	d.Stop()
	d.Stop()
	d.Add(DebouncedEvent{Path: "b.md", Op: OpWrite})

	select {
	case _, ok := <-d.Output():
		if ok {
			t.Error("expected no batch after Stop")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected output channel to be closed")
	}
}

func Test_EventOp_String(t *testing.T) {
	if OpRename.String() != "rename" {
		t.Errorf("expected 'rename', got %q", OpRename.String())
	}
}
