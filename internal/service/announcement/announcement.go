package announcement

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/educare/track_backend/internal/events"
	"github.com/educare/track_backend/internal/repo"
	"github.com/educare/track_backend/internal/service/audit"
	"github.com/educare/track_backend/internal/service/notification"
	"github.com/educare/track_backend/pkg/validate"
)

// Audience values stored in announcements.audience.
const (
	AudienceParents  = "parents"
	AudienceTeachers = "teachers"
	AudienceGuards   = "guards"
	AudienceClinic   = "clinic"
	AudienceAll      = "all"
)

// audienceRoles maps an audience to the profile roles it reaches.
var audienceRoles = map[string][]string{
	AudienceParents:  {repo.RoleParent},
	AudienceTeachers: {repo.RoleTeacher},
	AudienceGuards:   {repo.RoleGuard},
	AudienceClinic:   {repo.RoleClinic},
	AudienceAll:      {repo.RoleParent, repo.RoleTeacher, repo.RoleGuard, repo.RoleClinic, repo.RoleAdmin},
}

// AudienceForRole is the audience value a profile role reads.
func AudienceForRole(role string) string {
	switch role {
	case repo.RoleParent:
		return AudienceParents
	case repo.RoleTeacher:
		return AudienceTeachers
	case repo.RoleGuard:
		return AudienceGuards
	case repo.RoleClinic:
		return AudienceClinic
	}
	return ""
}

type PostRequest struct {
	Title    string   `json:"title" validate:"required,max=200"`
	Content  string   `json:"content" validate:"required,max=10000"`
	Priority string   `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	Audience []string `json:"audience"`
	IsPinned bool     `json:"is_pinned"`
}

type Poster struct {
	ID   uuid.UUID
	Role string
}

type Service interface {
	Post(ctx context.Context, by Poster, req PostRequest) (*repo.Announcement, error)
	// List returns what role may read. Admins see every announcement.
	List(ctx context.Context, role string, page repo.Page) ([]repo.Announcement, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type announcementService struct {
	store *repo.Store
	bus   *events.Bus
}

func New(store *repo.Store, bus *events.Bus) Service {
	return &announcementService{store: store, bus: bus}
}

// ResolveAudience cleans the requested audience. Teachers always address
// parents; an empty request from an admin goes to everyone.
func ResolveAudience(posterRole string, requested []string) ([]string, error) {
	if posterRole == repo.RoleTeacher {
		return []string{AudienceParents}, nil
	}
	out := lo.Uniq(lo.FilterMap(requested, func(a string, _ int) (string, bool) {
		a = strings.ToLower(strings.TrimSpace(a))
		return a, a != ""
	}))
	for _, a := range out {
		if _, ok := audienceRoles[a]; !ok {
			return nil, ErrInvalidAudience
		}
	}
	if len(out) == 0 || slices.Contains(out, AudienceAll) {
		return []string{AudienceAll}, nil
	}
	slices.Sort(out)
	return out, nil
}

// RolesFor lists the profile roles an audience set reaches.
func RolesFor(audience []string) []string {
	roles := lo.Uniq(lo.FlatMap(audience, func(a string, _ int) []string { return audienceRoles[a] }))
	slices.Sort(roles)
	return roles
}

func (s *announcementService) Post(ctx context.Context, by Poster, req PostRequest) (*repo.Announcement, error) {
	if by.Role != repo.RoleTeacher && by.Role != repo.RoleAdmin {
		return nil, ErrForbidden
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Content = strings.TrimSpace(req.Content)
	req.Priority = strings.ToLower(strings.TrimSpace(req.Priority))
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if req.Priority == "" {
		req.Priority = "normal"
	}
	audience, err := ResolveAudience(by.Role, req.Audience)
	if err != nil {
		return nil, err
	}

	var (
		posted   repo.Announcement
		notified []repo.Notification
	)
	err = s.store.InTx(ctx, func(q *repo.Queries) error {
		a, err := q.InsertAnnouncement(ctx, repo.NewAnnouncement{
			Title: req.Title, Content: req.Content, Priority: req.Priority,
			Audience: audience, PostedBy: by.ID, IsPinned: req.IsPinned,
		})
		if err != nil {
			return err
		}
		posted = a
		recipients, err := q.ActiveProfileIDsByRole(ctx, RolesFor(audience)...)
		if err != nil {
			return err
		}
		recipients = lo.Without(recipients, by.ID)
		ref := a.ID
		if notified, err = q.InsertNotifications(ctx, notification.Fanout(&by.ID, notification.VerbAnnouncementPosted,
			notification.Object{Title: a.Title, Status: a.Priority, RefID: &ref}, recipients)); err != nil {
			return err
		}
		return q.InsertAudit(ctx, audit.Entry(by.ID, audit.ActionAnnouncementPosted, "announcements", a.ID,
			map[string]any{"title": a.Title, "audience": audience, "recipients": len(notified)}))
	})
	if err != nil {
		return nil, fmt.Errorf("post announcement: %w", err)
	}
	s.bus.PublishNotifications(ctx, notified)
	return &posted, nil
}

func (s *announcementService) List(ctx context.Context, role string, page repo.Page) ([]repo.Announcement, error) {
	audience := AudienceForRole(role)
	if audience == "" && role != repo.RoleAdmin {
		return []repo.Announcement{}, nil
	}
	rows, err := s.store.ListAnnouncements(ctx, audience, page)
	if err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	if rows == nil {
		rows = []repo.Announcement{}
	}
	return rows, nil
}

func (s *announcementService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.store.DeleteAnnouncement(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrAnnouncementNotFound
	}
	return err
}
