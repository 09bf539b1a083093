package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// failingDB answers every statement with err.
type failingDB struct {
	err error
}

func (f failingDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, f.err
}

func (f failingDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, f.err
}

func (f failingDB) QueryRow(context.Context, string, ...any) pgx.Row {
	return errRow{f.err}
}

func (f failingDB) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, f.err
}

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

func TestInsertAttendanceMapsOnlyTheEntryIndex(t *testing.T) {
	tests := []struct {
		name       string
		constraint string
		wantOpen   bool
	}{
		{"one entry per day", "attendance_one_entry_per_day", true},
		{"primary key", "attendance_pkey", false},
		{"unnamed", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &Queries{db: failingDB{err: &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: tt.constraint}}}
			_, err := q.InsertAttendance(context.Background(), NewAttendance{
				StudentID: uuid.New(),
				Status:    StatusPresent,
				EntryType: EntryTypeEntry,
				TapTime:   time.Now(),
			})
			if got := errors.Is(err, ErrOpenEntryExists); got != tt.wantOpen {
				t.Errorf("ErrOpenEntryExists = %v, want %v (err %v)", got, tt.wantOpen, err)
			}
			if !tt.wantOpen && !errors.Is(err, ErrUniqueViolation) {
				t.Errorf("err = %v, want ErrUniqueViolation", err)
			}
		})
	}
}
