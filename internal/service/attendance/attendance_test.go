package attendance

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/educare/track_backend/config"
	"github.com/educare/track_backend/internal/repo"
)

// newGate builds a service whose checks run before any store access; the
// cases below never reach the database.
func newGate(now time.Time) *attendanceService {
	return &attendanceService{
		dedupe: NewMemoryDeduper(DefaultDuplicateWindow),
		loc:    time.UTC,
		now:    func() time.Time { return now },
	}
}

func TestProcessTapRejectsBeforeLookup(t *testing.T) {
	now := time.Date(2025, 6, 16, 7, 0, 0, 0, time.UTC)
	guard := Recorder{ID: uuid.New(), Role: repo.RoleGuard}
	const code = "EDU-2025-1234-ABCD"

	tests := []struct {
		name string
		tap  Tap
		want error
	}{
		{"malformed code", Tap{Code: "EDU-25-1234", Recorder: guard}, ErrInvalidCode},
		{"unknown method", Tap{Code: code, Method: "nfc", Recorder: guard}, ErrInvalidMethod},
		{"future timestamp", Tap{Code: code, At: now.Add(futureSkew + time.Second), Recorder: guard}, ErrFutureTimestamp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newGate(now).ProcessTap(context.Background(), tt.tap)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestProcessTapDuplicateWithinWindow(t *testing.T) {
	now := time.Date(2025, 6, 16, 7, 0, 0, 0, time.UTC)
	s := newGate(now)
	ctx := context.Background()

	ok, err := s.dedupe.Claim(ctx, "EDU-2025-1234-ABCD", now.Add(-2*time.Second))
	require.NoError(t, err)
	require.True(t, ok)

	_, err = s.ProcessTap(ctx, Tap{Code: " edu-2025-1234-abcd ", At: now})
	assert.ErrorIs(t, err, ErrDuplicateScan, "normalized code hits the same slot")
}

func TestSyncBatchLimits(t *testing.T) {
	s := newGate(time.Now())
	ctx := context.Background()

	_, err := s.Sync(ctx, Recorder{}, nil)
	assert.ErrorIs(t, err, ErrEmptySync)

	big := make([]OfflineScan, MaxSyncBatch+1)
	for i := range big {
		big[i] = OfflineScan{ID: fmt.Sprint(i), StudentID: "x", Timestamp: time.Now()}
	}
	_, err = s.Sync(ctx, Recorder{}, big)
	assert.ErrorIs(t, err, ErrTooManyScans)
}

func TestSyncReportsPerScanFailures(t *testing.T) {
	now := time.Date(2025, 6, 16, 7, 0, 0, 0, time.UTC)
	s := newGate(now)

	results, err := s.Sync(context.Background(), Recorder{ID: uuid.New(), Role: repo.RoleGuard}, []OfflineScan{
		{ID: "b", StudentID: "not-a-code", Timestamp: now.Add(-time.Minute)},
		{ID: "a", StudentID: "EDU-2025-1234-ABCD"},
		{ID: "c", StudentID: "EDU-2025-1234-ABCD", Timestamp: now.Add(time.Hour)},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	// zero timestamps sort first
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, ErrMissingTimestamp.Error(), results[0].Error)
	assert.Equal(t, "b", results[1].ID)
	assert.Equal(t, ErrInvalidCode.Error(), results[1].Error)
	assert.Equal(t, "c", results[2].ID)
	assert.Equal(t, ErrFutureTimestamp.Error(), results[2].Error)
	for _, r := range results {
		assert.False(t, r.OK)
		assert.Nil(t, r.Attendance)
	}
}

func TestDuplicateWindowDefault(t *testing.T) {
	var cfg config.Config
	assert.Equal(t, DefaultDuplicateWindow, DuplicateWindow(&cfg))
	cfg.School.DuplicateWindowSeconds = 9
	assert.Equal(t, 9*time.Second, DuplicateWindow(&cfg))
}
