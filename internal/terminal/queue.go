package terminal

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/educare/track_backend/internal/service/attendance"
	"github.com/educare/track_backend/pkg/util/codes"
)

const localIDLength = 7

// Queue buffers scans taken while the server is unreachable. It is persisted
// as one JSON array so a restart keeps pending scans.
type Queue struct {
	mu    sync.Mutex
	path  string
	items []attendance.OfflineScan
}

// OpenQueue loads the queue at path, creating an empty one if the file is
// missing.
func OpenQueue(path string) (*Queue, error) {
	q := &Queue{path: path}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return q, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read offline queue: %w", err)
	}
	if len(raw) == 0 {
		return q, nil
	}
	if err := json.Unmarshal(raw, &q.items); err != nil {
		return nil, fmt.Errorf("decode offline queue %s: %w", path, err)
	}
	return q, nil
}

// Append stores a scan with a fresh local id.
func (q *Queue) Append(code string, at time.Time) (attendance.OfflineScan, error) {
	id, err := codes.Local.Random(localIDLength)
	if err != nil {
		return attendance.OfflineScan{}, err
	}
	scan := attendance.OfflineScan{ID: id, StudentID: code, Timestamp: at.UTC()}

	q.mu.Lock()
	defer q.mu.Unlock()
	next := append(slices.Clone(q.items), scan)
	if err := q.write(next); err != nil {
		return attendance.OfflineScan{}, err
	}
	q.items = next
	return scan, nil
}

// Snapshot returns a copy of the pending scans.
func (q *Queue) Snapshot() []attendance.OfflineScan {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.items)
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Remove drops the scans whose ids are listed. Scans appended after a
// snapshot was taken survive.
func (q *Queue) Remove(ids []string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	next := slices.DeleteFunc(slices.Clone(q.items), func(s attendance.OfflineScan) bool {
		return slices.Contains(ids, s.ID)
	})
	if err := q.write(next); err != nil {
		return err
	}
	q.items = next
	return nil
}

// write replaces the file atomically.
func (q *Queue) write(items []attendance.OfflineScan) error {
	if items == nil {
		items = []attendance.OfflineScan{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(q.path), 0o755); err != nil {
		return fmt.Errorf("create queue dir: %w", err)
	}
	tmp := q.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write offline queue: %w", err)
	}
	if err := os.Rename(tmp, q.path); err != nil {
		return fmt.Errorf("replace offline queue: %w", err)
	}
	return nil
}
