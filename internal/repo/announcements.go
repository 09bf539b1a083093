package repo

import (
	"context"

	"github.com/google/uuid"
)

const announcementColumns = `id, title, content, priority, audience, posted_by, is_pinned, created_at`

type NewAnnouncement struct {
	Title    string
	Content  string
	Priority string
	Audience []string
	PostedBy uuid.UUID
	IsPinned bool
}

func (q *Queries) InsertAnnouncement(ctx context.Context, a NewAnnouncement) (Announcement, error) {
	rows, err := q.db.Query(ctx, `
		INSERT INTO announcements (id, title, content, priority, audience, posted_by, is_pinned)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+announcementColumns,
		newID(), a.Title, a.Content, a.Priority, a.Audience, a.PostedBy, a.IsPinned)
	return collectOne[Announcement]("insert announcement", rows, err)
}

// ListAnnouncements returns announcements addressed to audience or to all.
// An empty audience lists everything.
func (q *Queries) ListAnnouncements(ctx context.Context, audience string, page Page) ([]Announcement, error) {
	page = page.normalize()
	rows, err := q.db.Query(ctx, `
		SELECT `+announcementColumns+` FROM announcements
		WHERE $1::text = '' OR $1::text = ANY(audience) OR 'all' = ANY(audience)
		ORDER BY is_pinned DESC, created_at DESC
		LIMIT $2 OFFSET $3`, audience, page.Limit, page.Offset)
	return collect[Announcement]("list announcements", rows, err)
}

func (q *Queries) DeleteAnnouncement(ctx context.Context, id uuid.UUID) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return wrap("delete announcement", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
