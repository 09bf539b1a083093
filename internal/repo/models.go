package repo

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Roles stored in profiles.role.
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleParent  = "parent"
	RoleGuard   = "guard"
	RoleClinic  = "clinic"
)

// Student.current_status values.
const (
	StudentOut      = "out"
	StudentPresent  = "present"
	StudentInClinic = "in_clinic"
	StudentSentHome = "sent_home"
)

// Attendance status, entry type, session and method values.
const (
	StatusPresent       = "present"
	StatusLate          = "late"
	StatusMorningAbsent = "morning_absent"
	StatusEarlyExit     = "early_exit"
	StatusExcused       = "excused"
	StatusAbsent        = "absent"

	EntryTypeEntry = "entry"
	EntryTypeExit  = "exit"

	SessionAM = "AM"
	SessionPM = "PM"

	MethodQR      = "qr"
	MethodOffline = "offline"
	MethodManual  = "manual"
)

// Clinic pass and visit values.
const (
	PassPending  = "pending"
	PassApproved = "approved"
	PassRejected = "rejected"
	PassUsed     = "used"

	VisitCheckedIn = "checked_in"
	VisitTreated   = "treated"
	VisitReleased  = "released"

	DecisionReturnToClass = "return_to_class"
	DecisionRestAtClinic  = "rest_at_clinic"
	DecisionSendHome      = "send_home"

	OutcomeReturned = "returned"
	OutcomeSentHome = "sent_home"
)

// Subject attendance status values.
const (
	MarkPresent       = "present"
	MarkLate          = "late"
	MarkAbsent        = "absent"
	MarkExcusedAbsent = "excused_absent"
	MarkClinic        = "clinic"
)

type Profile struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	FullName     string    `db:"full_name" json:"full_name"`
	Phone        *string   `db:"phone" json:"phone,omitempty"`
	Username     *string   `db:"username" json:"username,omitempty"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

type Class struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	Name       string     `db:"name" json:"name"`
	GradeLevel string     `db:"grade_level" json:"grade_level"`
	Strand     *string    `db:"strand" json:"strand,omitempty"`
	AdviserID  *uuid.UUID `db:"adviser_id" json:"adviser_id,omitempty"`
}

type Student struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	StudentCode   string     `db:"student_code" json:"student_code"`
	LRN           string     `db:"lrn" json:"lrn"`
	FullName      string     `db:"full_name" json:"full_name"`
	GradeLevel    string     `db:"grade_level" json:"grade_level"`
	Strand        *string    `db:"strand" json:"strand,omitempty"`
	ClassID       *uuid.UUID `db:"class_id" json:"class_id,omitempty"`
	PhotoPath     *string    `db:"photo_path" json:"photo_path,omitempty"`
	CurrentStatus string     `db:"current_status" json:"current_status"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

type Attendance struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	StudentID  uuid.UUID  `db:"student_id" json:"student_id"`
	Status     string     `db:"status" json:"status"`
	EntryType  string     `db:"entry_type" json:"entry_type"`
	Session    string     `db:"session" json:"session"`
	Method     string     `db:"method" json:"method"`
	TapTime    time.Time  `db:"tap_time" json:"tap_time"`
	TapDate    time.Time  `db:"tap_date" json:"tap_date"`
	Remarks    string     `db:"remarks" json:"remarks"`
	RecordedBy *uuid.UUID `db:"recorded_by" json:"recorded_by,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

type ClinicPass struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	StudentID       uuid.UUID  `db:"student_id" json:"student_id"`
	IssuedBy        *uuid.UUID `db:"issued_by" json:"issued_by,omitempty"`
	Reason          string     `db:"reason" json:"reason"`
	Notes           string     `db:"notes" json:"notes"`
	Status          string     `db:"status" json:"status"`
	ClinicVisitID   *uuid.UUID `db:"clinic_visit_id" json:"clinic_visit_id,omitempty"`
	RejectionReason *string    `db:"rejection_reason" json:"rejection_reason,omitempty"`
	ReviewedBy      *uuid.UUID `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time `db:"reviewed_at" json:"reviewed_at,omitempty"`
	IssuedAt        time.Time  `db:"issued_at" json:"issued_at"`
}

// ClinicVisit.Notes holds ciphertext; the clinic service decrypts it.
type ClinicVisit struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	StudentID      uuid.UUID  `db:"student_id" json:"student_id"`
	PassID         *uuid.UUID `db:"pass_id" json:"pass_id,omitempty"`
	CheckedInBy    *uuid.UUID `db:"checked_in_by" json:"checked_in_by,omitempty"`
	TreatedBy      *uuid.UUID `db:"treated_by" json:"treated_by,omitempty"`
	VisitTime      time.Time  `db:"visit_time" json:"visit_time"`
	Reason         string     `db:"reason" json:"reason"`
	Notes          string     `db:"notes" json:"notes"`
	Decision       *string    `db:"decision" json:"decision,omitempty"`
	ParentNotified bool       `db:"parent_notified" json:"parent_notified"`
	Status         string     `db:"status" json:"status"`
	Outcome        *string    `db:"outcome" json:"outcome,omitempty"`
	ReleasedAt     *time.Time `db:"released_at" json:"released_at,omitempty"`
}

type Subject struct {
	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
}

// ClassSchedule is one weekly subject period of a class. Times are HH:MM in
// the school time zone; DayOfWeek is mon..sun.
type ClassSchedule struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	ClassID     uuid.UUID  `db:"class_id" json:"class_id"`
	SubjectCode string     `db:"subject_code" json:"subject_code"`
	TeacherID   *uuid.UUID `db:"teacher_id" json:"teacher_id,omitempty"`
	DayOfWeek   string     `db:"day_of_week" json:"day_of_week"`
	StartTime   string     `db:"start_time" json:"start_time"`
	EndTime     string     `db:"end_time" json:"end_time"`
	Semester    *string    `db:"semester" json:"semester,omitempty"`
}

type SubjectAttendance struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	StudentID   uuid.UUID  `db:"student_id" json:"student_id"`
	SubjectCode string     `db:"subject_code" json:"subject_code"`
	Date        time.Time  `db:"date" json:"date"`
	Status      string     `db:"status" json:"status"`
	Remarks     string     `db:"remarks" json:"remarks"`
	RecordedBy  *uuid.UUID `db:"recorded_by" json:"recorded_by,omitempty"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

type SessionValidation struct {
	ScheduleID     uuid.UUID  `db:"schedule_id" json:"schedule_id"`
	AttendanceDate time.Time  `db:"attendance_date" json:"attendance_date"`
	ValidatedBy    *uuid.UUID `db:"validated_by" json:"validated_by,omitempty"`
	ValidatedAt    time.Time  `db:"validated_at" json:"validated_at"`
}

type Notification struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	RecipientID uuid.UUID       `db:"recipient_id" json:"recipient_id"`
	ActorID     *uuid.UUID      `db:"actor_id" json:"actor_id,omitempty"`
	Verb        string          `db:"verb" json:"verb"`
	Object      json.RawMessage `db:"object" json:"object"`
	Read        bool            `db:"read" json:"read"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

type AuditLog struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	ActorID     *uuid.UUID      `db:"actor_id" json:"actor_id,omitempty"`
	Action      string          `db:"action" json:"action"`
	TargetTable string          `db:"target_table" json:"target_table"`
	TargetID    *uuid.UUID      `db:"target_id" json:"target_id,omitempty"`
	Details     json.RawMessage `db:"details" json:"details"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

type CalendarEntry struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	Title      string     `db:"title" json:"title"`
	Type       string     `db:"type" json:"type"`
	StartDate  time.Time  `db:"start_date" json:"start_date"`
	EndDate    time.Time  `db:"end_date" json:"end_date"`
	GradeScope string     `db:"grade_scope" json:"grade_scope"`
	Notes      string     `db:"notes" json:"notes"`
	CreatedBy  *uuid.UUID `db:"created_by" json:"created_by,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

type ExcuseLetter struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	ParentID       uuid.UUID  `db:"parent_id" json:"parent_id"`
	StudentID      uuid.UUID  `db:"student_id" json:"student_id"`
	AbsentDate     time.Time  `db:"absent_date" json:"absent_date"`
	Reason         string     `db:"reason" json:"reason"`
	Status         string     `db:"status" json:"status"`
	AttachmentPath *string    `db:"attachment_path" json:"attachment_path,omitempty"`
	AttachmentName *string    `db:"attachment_name" json:"attachment_name,omitempty"`
	TeacherComment *string    `db:"teacher_comment" json:"teacher_comment,omitempty"`
	ReviewedBy     *uuid.UUID `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

type Announcement struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	Title     string     `db:"title" json:"title"`
	Content   string     `db:"content" json:"content"`
	Priority  string     `db:"priority" json:"priority"`
	Audience  []string   `db:"audience" json:"audience"`
	PostedBy  *uuid.UUID `db:"posted_by" json:"posted_by,omitempty"`
	IsPinned  bool       `db:"is_pinned" json:"is_pinned"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

func newID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}
