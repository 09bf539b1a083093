package terminal

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestQueuePersistsAcrossRestarts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gate", "queue.json")
	q, err := OpenQueue(path)
	if err != nil {
		t.Fatalf("OpenQueue: %v", err)
	}
	at := time.Date(2024, 6, 3, 7, 12, 0, 0, time.FixedZone("PHT", 8*3600))
	first, err := q.Append("EDU-2024-0001-AAAA", at)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if len(first.ID) != localIDLength {
		t.Errorf("local id %q has length %d", first.ID, len(first.ID))
	}
	if _, err := q.Append("EDU-2024-0002-BBBB", at.Add(time.Minute)); err != nil {
		t.Fatalf("Append: %v", err)
	}

	reopened, err := OpenQueue(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got := reopened.Snapshot()
	if len(got) != 2 {
		t.Fatalf("reopened len = %d, want 2", len(got))
	}
	if got[0].ID != first.ID || got[0].StudentID != "EDU-2024-0001-AAAA" || !got[0].Timestamp.Equal(at) {
		t.Errorf("first scan = %+v", got[0])
	}
}

func TestQueueRemoveKeepsLaterScans(t *testing.T) {
	q, err := OpenQueue(filepath.Join(t.TempDir(), "queue.json"))
	if err != nil {
		t.Fatalf("OpenQueue: %v", err)
	}
	a, _ := q.Append("EDU-2024-0001-AAAA", time.Now())
	snap := q.Snapshot()
	b, _ := q.Append("EDU-2024-0002-BBBB", time.Now())

	if err := q.Remove([]string{snap[0].ID}); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	left := q.Snapshot()
	if len(left) != 1 || left[0].ID != b.ID {
		t.Errorf("after removing %s left = %+v", a.ID, left)
	}
}

func TestOpenQueueEdgeCases(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.json")
	if err := os.WriteFile(empty, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	q, err := OpenQueue(empty)
	if err != nil || q.Len() != 0 {
		t.Errorf("empty file: len=%d err=%v", q.Len(), err)
	}

	broken := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(broken, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenQueue(broken); err == nil {
		t.Error("corrupt queue opened without error")
	}
}
