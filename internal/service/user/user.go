package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/educare/track_backend/config"
	"github.com/educare/track_backend/internal/repo"
	"github.com/educare/track_backend/internal/service/audit"
	"github.com/educare/track_backend/pkg/authorize"
	"github.com/educare/track_backend/pkg/util/password"
	"github.com/educare/track_backend/pkg/util/phone"
	"github.com/educare/track_backend/pkg/validate"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type CreateRequest struct {
	Email        string  `json:"email" validate:"required,email,max=254"`
	Password     string  `json:"password" validate:"required"`
	Role         string  `json:"role" validate:"required,oneof=admin teacher parent guard clinic"`
	FullName     string  `json:"full_name" validate:"required,max=200"`
	Phone        *string `json:"phone" validate:"omitempty"`
	Username     *string `json:"username" validate:"omitempty,min=3,max=64"`
	EmployeeNo   *string `json:"employee_no" validate:"omitempty,max=64"`
	Address      *string `json:"address" validate:"omitempty,max=500"`
	IsGatekeeper bool    `json:"is_gatekeeper"`
}

// UpdateRequest is a patch: nil fields stay as they are.
type UpdateRequest struct {
	Email    *string `json:"email" validate:"omitempty,email,max=254"`
	Password *string `json:"password" validate:"omitempty"`
	FullName *string `json:"full_name" validate:"omitempty,min=1,max=200"`
	Phone    *string `json:"phone" validate:"omitempty"`
	Username *string `json:"username" validate:"omitempty,min=3,max=64"`
	IsActive *bool   `json:"is_active"`
}

// SessionRevoker ends every session of a user. The auth service satisfies it.
type SessionRevoker interface {
	RevokeUserSessions(ctx context.Context, userID uuid.UUID) error
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	Create(ctx context.Context, actor uuid.UUID, req CreateRequest) (uuid.UUID, error)
	Update(ctx context.Context, actor, id uuid.UUID, req UpdateRequest) (*repo.Profile, error)
	GetByID(ctx context.Context, id uuid.UUID) (*repo.Profile, error)
	List(ctx context.Context, role string, page repo.Page) ([]repo.Profile, error)
	SetGatekeeper(ctx context.Context, actor, teacherID uuid.UUID, on bool) error
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type userService struct {
	store     *repo.Store
	authorize authorize.IAuthorization
	hasher    *password.Hasher
	sessions  SessionRevoker
	region    string
}

func New(store *repo.Store, authz authorize.IAuthorization, hasher *password.Hasher, sessions SessionRevoker, cfg *config.Config) Service {
	return &userService{
		store:     store,
		authorize: authz,
		hasher:    hasher,
		sessions:  sessions,
		region:    cfg.School.PhoneRegion,
	}
}

func (s *userService) Create(ctx context.Context, actor uuid.UUID, req CreateRequest) (uuid.UUID, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))
	if err := validate.Struct(req); err != nil {
		return uuid.Nil, err
	}
	ph, err := s.normalizePhone(req.Phone)
	if err != nil {
		return uuid.Nil, err
	}
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return uuid.Nil, err
	}

	var created repo.Profile
	err = s.store.InTx(ctx, func(q *repo.Queries) error {
		p, err := q.CreateProfile(ctx, repo.NewProfile{
			Email:        req.Email,
			PasswordHash: hash,
			Role:         req.Role,
			FullName:     req.FullName,
			Phone:        ph,
			Username:     req.Username,
			EmployeeNo:   req.EmployeeNo,
			IsGatekeeper: req.IsGatekeeper && req.Role == repo.RoleTeacher,
			Address:      req.Address,
		})
		if err != nil {
			return err
		}
		created = p
		if err := q.InsertAudit(ctx, audit.Entry(actor, audit.ActionUserCreated, "profiles", p.ID,
			map[string]any{"email": p.Email, "role": p.Role})); err != nil {
			return err
		}
		// granted last so a casbin failure rolls the rows back
		return authorize.AssignProfileRole(ctx, s.authorize, p.ID.String(), p.Role)
	})
	if errors.Is(err, repo.ErrUniqueViolation) {
		return uuid.Nil, ErrEmailAlreadyExists
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "user created", "user_id", created.ID, "role", created.Role, "actor_id", actor)
	return created.ID, nil
}

func (s *userService) Update(ctx context.Context, actor, id uuid.UUID, req UpdateRequest) (*repo.Profile, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if req.IsActive != nil && !*req.IsActive && actor == id {
		return nil, ErrSelfDeactivation
	}

	patch := repo.ProfilePatch{FullName: req.FullName, Username: req.Username, IsActive: req.IsActive}
	var changed []string
	if req.Email != nil {
		e := strings.ToLower(strings.TrimSpace(*req.Email))
		patch.Email = &e
		changed = append(changed, "email")
	}
	if req.Phone != nil {
		ph, err := s.normalizePhone(req.Phone)
		if err != nil {
			return nil, err
		}
		patch.Phone = ph
		changed = append(changed, "phone")
	}
	if req.Password != nil {
		h, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, err
		}
		patch.PasswordHash = &h
		changed = append(changed, "password")
	}
	if req.FullName != nil {
		changed = append(changed, "full_name")
	}
	if req.Username != nil {
		changed = append(changed, "username")
	}
	if req.IsActive != nil {
		changed = append(changed, "is_active")
	}

	var updated repo.Profile
	err := s.store.InTx(ctx, func(q *repo.Queries) error {
		p, err := q.UpdateProfile(ctx, id, patch)
		if err != nil {
			return err
		}
		updated = p
		return q.InsertAudit(ctx, audit.Entry(actor, audit.ActionUserUpdated, "profiles", id,
			map[string]any{"fields": changed}))
	})
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return nil, ErrUserNotFound
	case errors.Is(err, repo.ErrUniqueViolation):
		return nil, ErrEmailAlreadyExists
	case err != nil:
		return nil, fmt.Errorf("update user: %w", err)
	}

	if req.IsActive != nil && !*req.IsActive {
		if err := s.sessions.RevokeUserSessions(ctx, id); err != nil {
			slog.ErrorContext(ctx, "revoke sessions of deactivated user", "user_id", id, "err", err)
		}
	}
	return &updated, nil
}

func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*repo.Profile, error) {
	p, err := s.store.ProfileByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &p, nil
}

func (s *userService) List(ctx context.Context, role string, page repo.Page) ([]repo.Profile, error) {
	rows, err := s.store.ListProfiles(ctx, strings.ToLower(role), page)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if rows == nil {
		rows = []repo.Profile{}
	}
	return rows, nil
}

func (s *userService) SetGatekeeper(ctx context.Context, actor, teacherID uuid.UUID, on bool) error {
	err := s.store.InTx(ctx, func(q *repo.Queries) error {
		if err := q.SetGatekeeper(ctx, teacherID, on); err != nil {
			return err
		}
		return q.InsertAudit(ctx, audit.Entry(actor, audit.ActionUserUpdated, "teachers", teacherID,
			map[string]any{"is_gatekeeper": on}))
	})
	if errors.Is(err, repo.ErrNotFound) {
		return ErrNotTeacher
	}
	return err
}

// normalizePhone returns nil for an absent or blank phone.
func (s *userService) normalizePhone(raw *string) (*string, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	n, err := phone.Normalize(*raw, s.region)
	if err != nil {
		return nil, ErrInvalidPhone
	}
	return &n, nil
}
