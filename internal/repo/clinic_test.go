package repo

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
)

// recordingDB keeps the last statement and its arguments, then fails it.
type recordingDB struct {
	failingDB
	sql  string
	args []any
}

func (r *recordingDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	r.sql, r.args = sql, args
	return nil, r.err
}

func TestVisitQueueHolds(t *testing.T) {
	decided := DecisionSendHome
	visits := map[string]ClinicVisit{
		"checked in":        {Status: VisitCheckedIn},
		"treated undecided": {Status: VisitTreated},
		"awaiting parent":   {Status: VisitTreated, Decision: &decided},
		"ready":             {Status: VisitTreated, Decision: &decided, ParentNotified: true},
		"released":          {Status: VisitReleased, Decision: &decided, ParentNotified: true},
	}
	want := map[VisitQueue][]string{
		QueuePendingFindings: {"checked in"},
		QueueParentApproval:  {"awaiting parent"},
		QueueDischarge:       {"ready"},
		QueueAll:             {"checked in", "treated undecided", "awaiting parent", "ready", "released"},
	}
	for queue, names := range want {
		in := map[string]bool{}
		for _, n := range names {
			in[n] = true
		}
		for name, v := range visits {
			if got := queue.Holds(v); got != in[name] {
				t.Errorf("%q.Holds(%s) = %v, want %v", queue, name, got, in[name])
			}
		}
	}
}

func TestListVisitsQueueClause(t *testing.T) {
	for _, queue := range []VisitQueue{QueueAll, QueuePendingFindings, QueueParentApproval, QueueDischarge} {
		db := &recordingDB{failingDB: failingDB{err: errors.New("offline")}}
		q := &Queries{db: db}
		if _, err := q.ListVisits(context.Background(), VisitFilter{Queue: queue}, Page{}); err == nil {
			t.Fatalf("%q: expected the driver error", queue)
		}
		if !strings.Contains(db.sql, "WHERE 1=1"+queue.clause()+" ORDER BY") {
			t.Errorf("%q: query %q lacks clause %q", queue, db.sql, queue.clause())
		}
	}
	if !strings.Contains(QueueDischarge.clause(), "v.parent_notified") ||
		strings.Contains(QueueDischarge.clause(), "NOT v.parent_notified") {
		t.Errorf("discharge clause = %q", QueueDischarge.clause())
	}
}
