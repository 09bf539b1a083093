package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const notificationColumns = `id, recipient_id, actor_id, verb, object, read, created_at`

type NewNotification struct {
	RecipientID uuid.UUID
	ActorID     *uuid.UUID
	Verb        string
	Object      any
}

// InsertNotifications writes all rows with one COPY and returns them as
// stored, ready to be published once the transaction commits.
func (q *Queries) InsertNotifications(ctx context.Context, in []NewNotification) ([]Notification, error) {
	if len(in) == 0 {
		return nil, nil
	}
	now := time.Now().UTC()
	out := make([]Notification, 0, len(in))
	rows := make([][]any, 0, len(in))
	for _, n := range in {
		obj, err := json.Marshal(n.Object)
		if err != nil {
			return nil, fmt.Errorf("encode notification object: %w", err)
		}
		rec := Notification{
			ID:          newID(),
			RecipientID: n.RecipientID,
			ActorID:     n.ActorID,
			Verb:        n.Verb,
			Object:      obj,
			CreatedAt:   now,
		}
		out = append(out, rec)
		rows = append(rows, []any{rec.ID, rec.RecipientID, rec.ActorID, rec.Verb, []byte(obj), false, now})
	}

	_, err := q.db.CopyFrom(ctx,
		pgx.Identifier{"notifications"},
		[]string{"id", "recipient_id", "actor_id", "verb", "object", "read", "created_at"},
		pgx.CopyFromRows(rows))
	if err != nil {
		return nil, wrap("insert notifications", err)
	}
	return out, nil
}

func (q *Queries) ListNotifications(ctx context.Context, recipient uuid.UUID, unreadOnly bool, page Page) ([]Notification, error) {
	page = page.normalize()
	rows, err := q.db.Query(ctx, `
		SELECT `+notificationColumns+` FROM notifications
		WHERE recipient_id = $1 AND (NOT $2 OR NOT read)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`, recipient, unreadOnly, page.Limit, page.Offset)
	return collect[Notification]("list notifications", rows, err)
}

func (q *Queries) UnreadCount(ctx context.Context, recipient uuid.UUID) (int, error) {
	var n int
	err := q.db.QueryRow(ctx,
		`SELECT count(*) FROM notifications WHERE recipient_id = $1 AND NOT read`, recipient).Scan(&n)
	return n, wrap("unread count", err)
}

// MarkNotificationRead only touches rows owned by recipient.
func (q *Queries) MarkNotificationRead(ctx context.Context, id, recipient uuid.UUID) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1 AND recipient_id = $2`, id, recipient)
	if err != nil {
		return wrap("mark notification read", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (q *Queries) MarkAllNotificationsRead(ctx context.Context, recipient uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE recipient_id = $1 AND NOT read`, recipient)
	if err != nil {
		return 0, wrap("mark all notifications read", err)
	}
	return tag.RowsAffected(), nil
}
