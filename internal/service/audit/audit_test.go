package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/educare/track_backend/internal/repo"
)

func TestEntry(t *testing.T) {
	actor, target := uuid.New(), uuid.New()

	a := Entry(actor, ActionGateEntry, "attendance", target, map[string]string{"status": "late"})
	if a.ActorID == nil || *a.ActorID != actor {
		t.Errorf("ActorID = %v", a.ActorID)
	}
	if a.TargetID == nil || *a.TargetID != target {
		t.Errorf("TargetID = %v", a.TargetID)
	}
	if a.Action != "GATE_ENTRY" || a.TargetTable != "attendance" {
		t.Errorf("entry = %+v", a)
	}

	sys := Entry(uuid.Nil, ActionSettingsUpdated, "system_settings", uuid.Nil, nil)
	if sys.ActorID != nil || sys.TargetID != nil {
		t.Errorf("nil ids should stay unset: %+v", sys)
	}
}

func TestListRejectsInvertedRange(t *testing.T) {
	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, -1)

	_, err := New(nil).List(context.Background(), Filter{From: &from, To: &to}, repo.Page{Limit: 10})
	if !errors.Is(err, ErrInvalidRange) {
		t.Errorf("err = %v, want ErrInvalidRange", err)
	}
}
