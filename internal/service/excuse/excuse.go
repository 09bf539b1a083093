package excuse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/educare/track_backend/internal/events"
	"github.com/educare/track_backend/internal/repo"
	"github.com/educare/track_backend/internal/service/audit"
	"github.com/educare/track_backend/internal/service/notification"
	"github.com/educare/track_backend/pkg/validate"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"

	// MaxAttachmentBytes bounds an uploaded letter scan.
	MaxAttachmentBytes = 10 << 20

	dateLayout = "2006-01-02"
)

var attachmentTypes = []string{"application/pdf", "image/jpeg", "image/png", "image/webp"}

// ObjectStore is the slice of pkg/s3 used for attachments.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	PresignDownload(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type SubmitRequest struct {
	StudentID  uuid.UUID `json:"student_id" validate:"required"`
	AbsentDate string    `json:"absent_date" validate:"required"`
	Reason     string    `json:"reason" validate:"required,max=2000"`
}

// Attachment is an optional scanned letter sent with a submission.
type Attachment struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

type DecideRequest struct {
	Status  string `json:"status"`
	Comment string `json:"comment"`
}

// Caller identifies who is acting on letters.
type Caller struct {
	ID   uuid.UUID
	Role string
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	Submit(ctx context.Context, parentID uuid.UUID, req SubmitRequest, att *Attachment) (*repo.ExcuseLetter, error)
	Decide(ctx context.Context, caller Caller, id uuid.UUID, req DecideRequest) (*repo.ExcuseLetter, error)
	// List scopes results by role: parents see their own letters, teachers
	// their advisory class, admins everything.
	List(ctx context.Context, caller Caller, status string, page repo.Page) ([]repo.ExcuseLetter, error)
	AttachmentURL(ctx context.Context, caller Caller, id uuid.UUID) (string, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type excuseService struct {
	store   Store
	objects ObjectStore
	bus     *events.Bus
	now     func() time.Time
}

// New builds the service. objects may be nil, in which case submissions
// with an attachment fail with ErrStorageDisabled.
func New(store *repo.Store, objects ObjectStore, bus *events.Bus) Service {
	return &excuseService{store: pgStore{store}, objects: objects, bus: bus, now: time.Now}
}

func (s *excuseService) Submit(ctx context.Context, parentID uuid.UUID, req SubmitRequest, att *Attachment) (*repo.ExcuseLetter, error) {
	req.Reason = strings.TrimSpace(req.Reason)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	day, err := time.Parse(dateLayout, strings.TrimSpace(req.AbsentDate))
	if err != nil {
		return nil, ErrInvalidDate
	}
	if att != nil {
		if err := checkAttachment(att); err != nil {
			return nil, err
		}
		if s.objects == nil {
			return nil, ErrStorageDisabled
		}
	}

	st, err := s.store.StudentByID(ctx, req.StudentID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrStudentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load student: %w", err)
	}
	linked, err := s.store.IsParentOf(ctx, parentID, st.ID)
	if err != nil {
		return nil, fmt.Errorf("check parent link: %w", err)
	}
	if !linked {
		return nil, ErrNotLinked
	}

	in := repo.NewExcuse{ParentID: parentID, StudentID: st.ID, AbsentDate: day, Reason: req.Reason}
	if att != nil {
		key := AttachmentKey(parentID, st.ID, s.now(), att.Name)
		if err := s.objects.Upload(ctx, key, att.ContentType, att.Body, att.Size); err != nil {
			return nil, fmt.Errorf("upload attachment: %w", err)
		}
		name := path.Base(att.Name)
		in.AttachmentPath, in.AttachmentName = &key, &name
	}

	var (
		letter   repo.ExcuseLetter
		notified []repo.Notification
	)
	err = s.store.InTx(ctx, func(q Tx) error {
		if letter, err = q.InsertExcuse(ctx, in); err != nil {
			return err
		}
		adviser, err := q.AdviserID(ctx, st.ID)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return err
		}
		ref := letter.ID
		notified, err = q.InsertNotifications(ctx, notification.Fanout(&parentID, notification.VerbExcuseSubmitted,
			notification.Object{StudentID: st.ID, FullName: st.FullName, Time: req.AbsentDate, Status: StatusPending, RefID: &ref},
			[]uuid.UUID{adviser}))
		return err
	})
	if err != nil {
		if in.AttachmentPath != nil {
			s.discard(ctx, *in.AttachmentPath)
		}
		return nil, fmt.Errorf("submit excuse letter: %w", err)
	}
	s.bus.PublishNotifications(ctx, notified)
	slog.InfoContext(ctx, "excuse letter submitted", "excuse_id", letter.ID, "student_id", st.ID)
	return &letter, nil
}

func (s *excuseService) Decide(ctx context.Context, caller Caller, id uuid.UUID, req DecideRequest) (*repo.ExcuseLetter, error) {
	status := strings.ToLower(strings.TrimSpace(req.Status))
	comment := strings.TrimSpace(req.Comment)
	if status != StatusApproved && status != StatusRejected {
		return nil, ErrInvalidDecision
	}
	if status == StatusRejected && comment == "" {
		return nil, ErrCommentRequired
	}

	current, err := s.store.ExcuseByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrExcuseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load excuse letter: %w", err)
	}
	if caller.Role != repo.RoleAdmin {
		ok, err := s.store.IsAdviserOf(ctx, caller.ID, current.StudentID)
		if err != nil {
			return nil, fmt.Errorf("check adviser: %w", err)
		}
		if !ok {
			return nil, ErrNotAdviser
		}
	}

	var commentPtr *string
	if comment != "" {
		commentPtr = &comment
	}
	var (
		letter   repo.ExcuseLetter
		notified []repo.Notification
		excused  int64
		periods  int64
	)
	err = s.store.InTx(ctx, func(q Tx) error {
		if letter, err = q.DecideExcuse(ctx, id, status, caller.ID, commentPtr); err != nil {
			return err
		}
		if status == StatusApproved {
			remark := "Excuse Letter ID: " + letter.ID.String()
			if excused, err = q.MarkExcused(ctx, letter.StudentID, letter.AbsentDate, remark); err != nil {
				return err
			}
			if periods, err = q.MarkSubjectExcused(ctx, letter.StudentID, letter.AbsentDate, remark); err != nil {
				return err
			}
		}
		st, err := q.StudentByID(ctx, letter.StudentID)
		if err != nil {
			return err
		}
		ref := letter.ID
		notified, err = q.InsertNotifications(ctx, notification.Fanout(&caller.ID, notification.VerbExcuseDecided,
			notification.Object{
				StudentID: st.ID, FullName: st.FullName, Status: status, Remarks: comment,
				Time: letter.AbsentDate.Format(dateLayout), RefID: &ref,
			},
			[]uuid.UUID{letter.ParentID}))
		if err != nil {
			return err
		}
		return q.InsertAudit(ctx, audit.Entry(caller.ID, audit.ActionExcuseDecided, "excuse_letters", letter.ID,
			map[string]any{"status": status, "student_name": st.FullName, "rows_excused": excused, "periods_excused": periods}))
	})
	switch {
	case errors.Is(err, repo.ErrStaleStatus):
		return nil, ErrAlreadyDecided
	case errors.Is(err, repo.ErrNotFound):
		return nil, ErrExcuseNotFound
	case err != nil:
		return nil, fmt.Errorf("decide excuse letter: %w", err)
	}
	s.bus.PublishNotifications(ctx, notified)
	return &letter, nil
}

func (s *excuseService) List(ctx context.Context, caller Caller, status string, page repo.Page) ([]repo.ExcuseLetter, error) {
	f := repo.ExcuseFilter{Status: strings.ToLower(status)}
	switch caller.Role {
	case repo.RoleParent:
		f.ParentID = &caller.ID
	case repo.RoleTeacher:
		f.AdviserID = &caller.ID
	case repo.RoleAdmin:
	default:
		return nil, ErrForbidden
	}
	rows, err := s.store.ListExcuses(ctx, f, page)
	if err != nil {
		return nil, fmt.Errorf("list excuse letters: %w", err)
	}
	if rows == nil {
		rows = []repo.ExcuseLetter{}
	}
	return rows, nil
}

func (s *excuseService) AttachmentURL(ctx context.Context, caller Caller, id uuid.UUID) (string, error) {
	if s.objects == nil {
		return "", ErrStorageDisabled
	}
	letter, err := s.store.ExcuseByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return "", ErrExcuseNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load excuse letter: %w", err)
	}
	if err := s.canView(ctx, caller, letter); err != nil {
		return "", err
	}
	if letter.AttachmentPath == nil {
		return "", ErrNoAttachment
	}
	return s.objects.PresignDownload(ctx, *letter.AttachmentPath)
}

func (s *excuseService) canView(ctx context.Context, caller Caller, letter repo.ExcuseLetter) error {
	switch caller.Role {
	case repo.RoleAdmin:
		return nil
	case repo.RoleParent:
		if letter.ParentID == caller.ID {
			return nil
		}
	case repo.RoleTeacher:
		ok, err := s.store.IsAdviserOf(ctx, caller.ID, letter.StudentID)
		if err != nil {
			return fmt.Errorf("check adviser: %w", err)
		}
		if ok {
			return nil
		}
	}
	return ErrForbidden
}

func (s *excuseService) discard(ctx context.Context, key string) {
	if err := s.objects.Delete(ctx, key); err != nil {
		slog.WarnContext(ctx, "excuse: remove orphaned attachment", "key", key, "err", err)
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// AttachmentKey is excuse_letters/<parent>/<student>/<unix>_<name>.
func AttachmentKey(parentID, studentID uuid.UUID, at time.Time, name string) string {
	return fmt.Sprintf("excuse_letters/%s/%s/%d_%s", parentID, studentID, at.Unix(), safeName(name))
}

// safeName keeps the base name and replaces anything outside [A-Za-z0-9._-].
func safeName(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		return "attachment"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, base)
}

func checkAttachment(att *Attachment) error {
	if att.Size > MaxAttachmentBytes {
		return ErrAttachmentTooLarge
	}
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(att.ContentType, ";", 2)[0]))
	if !slices.Contains(attachmentTypes, ct) {
		return ErrAttachmentType
	}
	att.ContentType = ct
	return nil
}
