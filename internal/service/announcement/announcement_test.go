package announcement

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/educare/track_backend/internal/repo"
)

func TestResolveAudience(t *testing.T) {
	tests := []struct {
		name      string
		role      string
		requested []string
		want      []string
	}{
		{"teacher forced to parents", repo.RoleTeacher, []string{"guards", "all"}, []string{AudienceParents}},
		{"admin empty means all", repo.RoleAdmin, nil, []string{AudienceAll}},
		{"all swallows the rest", repo.RoleAdmin, []string{"clinic", "ALL"}, []string{AudienceAll}},
		{"deduped and sorted", repo.RoleAdmin, []string{" teachers", "clinic", "teachers", ""}, []string{"clinic", "teachers"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveAudience(tt.role, tt.requested)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ResolveAudience(repo.RoleAdmin, []string{"students"})
	assert.ErrorIs(t, err, ErrInvalidAudience)
}

func TestRolesFor(t *testing.T) {
	assert.Equal(t, []string{repo.RoleClinic, repo.RoleParent}, RolesFor([]string{AudienceParents, AudienceClinic, AudienceParents}))
	assert.Len(t, RolesFor([]string{AudienceAll}), 5)
}

func TestAudienceForRole(t *testing.T) {
	assert.Equal(t, AudienceGuards, AudienceForRole(repo.RoleGuard))
	assert.Equal(t, "", AudienceForRole(repo.RoleAdmin))
}

func TestPostRejectsOtherRoles(t *testing.T) {
	s := &announcementService{}
	for _, role := range []string{repo.RoleParent, repo.RoleGuard, repo.RoleClinic} {
		_, err := s.Post(context.Background(), Poster{ID: uuid.New(), Role: role}, PostRequest{Title: "t", Content: "c"})
		if !errors.Is(err, ErrForbidden) {
			t.Errorf("Post(role=%s) = %v, want ErrForbidden", role, err)
		}
	}
}

func TestListForUnknownRoleIsEmpty(t *testing.T) {
	s := &announcementService{}
	rows, err := s.List(context.Background(), "janitor", repo.Page{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}
