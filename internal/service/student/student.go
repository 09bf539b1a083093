package student

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/educare/track_backend/internal/repo"
	"github.com/educare/track_backend/internal/service/audit"
	"github.com/educare/track_backend/pkg/studentid"
	"github.com/educare/track_backend/pkg/validate"
)

const (
	// MaxPhotoBytes bounds the raw upload before decoding.
	MaxPhotoBytes = 5 << 20

	photoEdge      = 600
	photoQuality   = 85
	codeAttempts   = 5
	photoKeyFormat = "students/%s/photo.jpg"
)

// ObjectStore is the slice of pkg/s3 used for student photos.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	PublicURL(key string) string
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type CreateRequest struct {
	LRN        string     `json:"lrn" validate:"required,numeric,min=4,max=12"`
	FullName   string     `json:"full_name" validate:"required,max=200"`
	GradeLevel string     `json:"grade_level" validate:"required,max=32"`
	Strand     *string    `json:"strand" validate:"omitempty,max=64"`
	ClassID    *uuid.UUID `json:"class_id"`
}

type ClassRequest struct {
	Name       string     `json:"name" validate:"required,max=100"`
	GradeLevel string     `json:"grade_level" validate:"required,max=32"`
	Strand     *string    `json:"strand" validate:"omitempty,max=64"`
	AdviserID  *uuid.UUID `json:"adviser_id"`
}

// View is a student with its photo resolved to a URL.
type View struct {
	repo.Student
	PhotoURL string `json:"photo_url,omitempty"`
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*View, error)
	GetByID(ctx context.Context, id uuid.UUID) (*View, error)
	GetByCode(ctx context.Context, code string) (*View, error)
	List(ctx context.Context, f repo.StudentFilter, page repo.Page) ([]View, error)
	QRCode(ctx context.Context, id uuid.UUID) ([]byte, error)
	UploadPhoto(ctx context.Context, id uuid.UUID, r io.Reader) (*View, error)

	LinkParent(ctx context.Context, parentID, studentID uuid.UUID) error
	UnlinkParent(ctx context.Context, parentID, studentID uuid.UUID) error

	CreateClass(ctx context.Context, req ClassRequest) (*repo.Class, error)
	ListClasses(ctx context.Context) ([]repo.Class, error)
	// Transfer moves a student into another class, taking over the class's
	// grade level and strand.
	Transfer(ctx context.Context, actor, studentID, classID uuid.UUID) (*View, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type studentService struct {
	store   *repo.Store
	objects ObjectStore
	loc     *time.Location
	now     func() time.Time
}

// New builds the service. objects may be nil when S3 is not configured;
// photo uploads then fail with ErrStorageDisabled.
func New(store *repo.Store, objects ObjectStore, loc *time.Location) Service {
	if loc == nil {
		loc = time.UTC
	}
	return &studentService{store: store, objects: objects, loc: loc, now: time.Now}
}

func (s *studentService) Create(ctx context.Context, req CreateRequest) (*View, error) {
	req.LRN = strings.TrimSpace(req.LRN)
	req.FullName = strings.TrimSpace(req.FullName)
	req.GradeLevel = strings.TrimSpace(req.GradeLevel)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	year := s.now().In(s.loc).Year()
	for attempt := 0; attempt < codeAttempts; attempt++ {
		code, err := studentid.Generate(year, req.LRN)
		if err != nil {
			return nil, err
		}
		st, err := s.store.CreateStudent(ctx, repo.NewStudent{
			StudentCode: code,
			LRN:         req.LRN,
			FullName:    req.FullName,
			GradeLevel:  req.GradeLevel,
			Strand:      req.Strand,
			ClassID:     req.ClassID,
		})
		if errors.Is(err, repo.ErrUniqueViolation) {
			slog.DebugContext(ctx, "student code collision, regenerating", "code", code)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("create student: %w", err)
		}
		slog.InfoContext(ctx, "student created", "student_id", st.ID, "code", st.StudentCode)
		return s.view(st), nil
	}
	return nil, ErrCodeExhausted
}

func (s *studentService) GetByID(ctx context.Context, id uuid.UUID) (*View, error) {
	st, err := s.store.StudentByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return s.view(st), nil
}

func (s *studentService) GetByCode(ctx context.Context, code string) (*View, error) {
	code = studentid.Normalize(code)
	if !studentid.Valid(code) {
		return nil, ErrInvalidCode
	}
	st, err := s.store.StudentByCode(ctx, code)
	if err != nil {
		return nil, notFound(err)
	}
	return s.view(st), nil
}

func (s *studentService) List(ctx context.Context, f repo.StudentFilter, page repo.Page) ([]View, error) {
	f.Search = strings.TrimSpace(f.Search)
	rows, err := s.store.ListStudents(ctx, f, page)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	out := make([]View, 0, len(rows))
	for _, st := range rows {
		out = append(out, *s.view(st))
	}
	return out, nil
}

func (s *studentService) QRCode(ctx context.Context, id uuid.UUID) ([]byte, error) {
	st, err := s.store.StudentByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return studentid.QRPNG(st.StudentCode)
}

// ---------------------------------------------------------------------------
// Photo
// ---------------------------------------------------------------------------

func (s *studentService) UploadPhoto(ctx context.Context, id uuid.UUID, r io.Reader) (*View, error) {
	if s.objects == nil {
		return nil, ErrStorageDisabled
	}
	if _, err := s.store.StudentByID(ctx, id); err != nil {
		return nil, notFound(err)
	}

	jpeg, err := normalizePhoto(r)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf(photoKeyFormat, id)
	if err := s.objects.Upload(ctx, key, "image/jpeg", bytes.NewReader(jpeg), int64(len(jpeg))); err != nil {
		return nil, fmt.Errorf("upload photo: %w", err)
	}
	if err := s.store.SetStudentPhoto(ctx, id, key); err != nil {
		return nil, notFound(err)
	}
	return s.GetByID(ctx, id)
}

// normalizePhoto decodes an uploaded image, applies its EXIF orientation,
// fits it into photoEdge square and re-encodes it as JPEG.
func normalizePhoto(r io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r, MaxPhotoBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read photo: %w", err)
	}
	if len(raw) > MaxPhotoBytes {
		return nil, ErrPhotoTooLarge
	}
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, ErrPhotoInvalid
	}
	img = imaging.Fit(img, photoEdge, photoEdge, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(photoQuality)); err != nil {
		return nil, fmt.Errorf("encode photo: %w", err)
	}
	return buf.Bytes(), nil
}

// ---------------------------------------------------------------------------
// Parent links and classes
// ---------------------------------------------------------------------------

func (s *studentService) LinkParent(ctx context.Context, parentID, studentID uuid.UUID) error {
	p, err := s.store.ProfileByID(ctx, parentID)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && p.Role != repo.RoleParent) {
		return ErrNotParent
	}
	if err != nil {
		return fmt.Errorf("load parent: %w", err)
	}
	if _, err := s.store.StudentByID(ctx, studentID); err != nil {
		return notFound(err)
	}
	if err := s.store.LinkParent(ctx, parentID, studentID); err != nil {
		return fmt.Errorf("link parent: %w", err)
	}
	return nil
}

func (s *studentService) UnlinkParent(ctx context.Context, parentID, studentID uuid.UUID) error {
	err := s.store.UnlinkParent(ctx, parentID, studentID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrLinkNotFound
	}
	return err
}

func (s *studentService) CreateClass(ctx context.Context, req ClassRequest) (*repo.Class, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	c, err := s.store.CreateClass(ctx, repo.NewClass(req))
	if err != nil {
		return nil, fmt.Errorf("create class: %w", err)
	}
	return &c, nil
}

func (s *studentService) ListClasses(ctx context.Context) ([]repo.Class, error) {
	rows, err := s.store.ListClasses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	if rows == nil {
		rows = []repo.Class{}
	}
	return rows, nil
}

func (s *studentService) Transfer(ctx context.Context, actor, studentID, classID uuid.UUID) (*View, error) {
	var moved repo.Student
	err := s.store.InTx(ctx, func(q *repo.Queries) error {
		class, err := q.ClassByID(ctx, classID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrClassNotFound
		}
		if err != nil {
			return err
		}
		current, err := q.StudentByID(ctx, studentID)
		if err != nil {
			return notFound(err)
		}
		if moved, err = q.MoveStudent(ctx, studentID, class); err != nil {
			return err
		}
		return q.InsertAudit(ctx, audit.Entry(actor, audit.ActionStudentTransferred, "students", studentID,
			transferDetails(current, class)))
	})
	switch {
	case errors.Is(err, ErrClassNotFound), errors.Is(err, ErrStudentNotFound):
		return nil, err
	case err != nil:
		return nil, fmt.Errorf("transfer student: %w", err)
	}
	slog.InfoContext(ctx, "student transferred", "student_id", studentID, "class_id", classID)
	return s.view(moved), nil
}

func transferDetails(st repo.Student, to repo.Class) map[string]any {
	d := map[string]any{"student_name": st.FullName, "to_class": to.ID, "to_class_name": to.Name}
	if st.ClassID != nil {
		d["from_class"] = *st.ClassID
	}
	return d
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *studentService) view(st repo.Student) *View {
	v := &View{Student: st}
	if st.PhotoPath != nil && s.objects != nil {
		v.PhotoURL = s.objects.PublicURL(*st.PhotoPath)
	}
	return v
}

func notFound(err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return ErrStudentNotFound
	}
	return fmt.Errorf("load student: %w", err)
}
