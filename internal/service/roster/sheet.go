package roster

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/educare/track_backend/internal/repo"
)

const (
	remarkExcused  = "Excuse letter approved"
	remarkInClinic = "In clinic during session"
)

var weekdays = [...]string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

// DayKey returns the day_of_week value of day.
func DayKey(day time.Time) string {
	return weekdays[day.Weekday()]
}

var teacherStatuses = []string{repo.MarkPresent, repo.MarkLate, repo.MarkAbsent, repo.MarkExcusedAbsent}

// MarkInput is one teacher-chosen status on a sheet.
type MarkInput struct {
	StudentID uuid.UUID `json:"student_id" validate:"required"`
	Status    string    `json:"status" validate:"required"`
	Remarks   string    `json:"remarks" validate:"max=500"`
}

// Row is one student line of a subject sheet. Locked rows cannot be changed
// by the teacher: the student is in the clinic or excused for the day.
type Row struct {
	Student  repo.Student            `json:"student"`
	Mark     *repo.SubjectAttendance `json:"mark,omitempty"`
	InClinic bool                    `json:"in_clinic"`
	Excused  bool                    `json:"excused"`
	Locked   bool                    `json:"locked"`
}

type Sheet struct {
	Schedule  repo.ClassSchedule `json:"schedule"`
	Class     repo.Class         `json:"class"`
	Date      string             `json:"date"`
	Validated bool               `json:"validated"`
	Rows      []Row              `json:"rows"`
}

// sheetState is what a sheet is computed from.
type sheetState struct {
	roster   []repo.Student
	marks    map[uuid.UUID]repo.SubjectAttendance
	inClinic map[uuid.UUID]bool
	excused  map[uuid.UUID]bool
}

func newSheetState(roster []repo.Student, marks []repo.SubjectAttendance, inClinic, excused []uuid.UUID) sheetState {
	set := func(ids []uuid.UUID) map[uuid.UUID]bool {
		return lo.SliceToMap(ids, func(id uuid.UUID) (uuid.UUID, bool) { return id, true })
	}
	return sheetState{
		roster:   roster,
		marks:    lo.KeyBy(marks, func(m repo.SubjectAttendance) uuid.UUID { return m.StudentID }),
		inClinic: set(inClinic),
		excused:  set(excused),
	}
}

func (st sheetState) rows() []Row {
	out := make([]Row, 0, len(st.roster))
	for _, s := range st.roster {
		r := Row{Student: s, InClinic: st.inClinic[s.ID], Excused: st.excused[s.ID]}
		r.Locked = r.InClinic || r.Excused
		if m, ok := st.marks[s.ID]; ok {
			r.Mark = &m
		}
		out = append(out, r)
	}
	return out
}

// planMarks turns teacher input into rows to write. Students in the clinic
// are skipped; excused students are always written as excused_absent
// whether or not the teacher listed them.
func (st sheetState) planMarks(in []MarkInput) (writes []repo.NewSubjectMark, skipped []uuid.UUID, err error) {
	enrolled := lo.SliceToMap(st.roster, func(s repo.Student) (uuid.UUID, bool) { return s.ID, true })
	seen := map[uuid.UUID]bool{}
	for _, m := range in {
		status := strings.ToLower(strings.TrimSpace(m.Status))
		if !slices.Contains(teacherStatuses, status) {
			return nil, nil, ErrInvalidStatus
		}
		if !enrolled[m.StudentID] {
			return nil, nil, ErrNotInClass
		}
		if seen[m.StudentID] {
			continue
		}
		seen[m.StudentID] = true
		switch {
		case st.inClinic[m.StudentID]:
			skipped = append(skipped, m.StudentID)
		case st.excused[m.StudentID]:
			// written below with the rest of the excused students
		default:
			writes = append(writes, repo.NewSubjectMark{
				StudentID: m.StudentID, Status: status, Remarks: strings.TrimSpace(m.Remarks),
			})
		}
	}
	for _, s := range st.roster {
		if st.excused[s.ID] && !st.inClinic[s.ID] {
			writes = append(writes, repo.NewSubjectMark{
				StudentID: s.ID, Status: repo.MarkExcusedAbsent, Remarks: st.excusedRemark(s.ID),
			})
		}
	}
	return writes, skipped, nil
}

// planUnmarked fills every roster student without a mark: clinic, excused
// or absent.
func (st sheetState) planUnmarked() []repo.NewSubjectMark {
	var out []repo.NewSubjectMark
	for _, s := range st.roster {
		if _, ok := st.marks[s.ID]; ok {
			continue
		}
		m := repo.NewSubjectMark{StudentID: s.ID, Status: repo.MarkAbsent}
		switch {
		case st.inClinic[s.ID]:
			m.Status, m.Remarks = repo.MarkClinic, remarkInClinic
		case st.excused[s.ID]:
			m.Status, m.Remarks = repo.MarkExcusedAbsent, remarkExcused
		}
		out = append(out, m)
	}
	return out
}

// excusedRemark keeps a remark the row already carries.
func (st sheetState) excusedRemark(id uuid.UUID) string {
	if m, ok := st.marks[id]; ok && strings.TrimSpace(m.Remarks) != "" {
		return m.Remarks
	}
	return remarkExcused
}
