package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/educare/track_backend/pkg/reqctx"
)

type NewAuditLog struct {
	ActorID     *uuid.UUID
	Action      string
	TargetTable string
	TargetID    *uuid.UUID
	Details     any
}

func (q *Queries) InsertAudit(ctx context.Context, a NewAuditLog) error {
	details, err := json.Marshal(a.Details)
	if err != nil {
		return fmt.Errorf("encode audit details: %w", err)
	}
	details = stampRequest(ctx, details)
	_, err = q.db.Exec(ctx, `
		INSERT INTO audit_logs (id, actor_id, action, target_table, target_id, details)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		newID(), a.ActorID, a.Action, a.TargetTable, a.TargetID, details)
	return wrap("insert audit log", err)
}

// stampRequest adds the originating request to object-shaped details.
// Rows written outside a request, or with non-object details, are left as
// they are.
func stampRequest(ctx context.Context, details []byte) []byte {
	meta, ok := reqctx.RequestMetaFromContext(ctx)
	if !ok {
		return details
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(details, &obj); err != nil {
		return details
	}
	if obj == nil {
		obj = map[string]json.RawMessage{}
	}
	req, _ := json.Marshal(map[string]string{
		"id":         meta.RequestID,
		"ip":         meta.ClientIP,
		"user_agent": meta.UserAgent,
	})
	obj["request"] = req
	out, err := json.Marshal(obj)
	if err != nil {
		return details
	}
	return out
}

type AuditFilter struct {
	ActorID     *uuid.UUID
	Action      string
	TargetTable string
	From        *time.Time
	To          *time.Time
}

func (q *Queries) ListAudit(ctx context.Context, f AuditFilter, page Page) ([]AuditLog, error) {
	page = page.normalize()
	query := `SELECT id, actor_id, action, target_table, target_id, details, created_at FROM audit_logs WHERE 1=1`
	args := []any{}
	if f.ActorID != nil {
		args = append(args, *f.ActorID)
		query += fmt.Sprintf(" AND actor_id = $%d", len(args))
	}
	if f.Action != "" {
		args = append(args, f.Action)
		query += fmt.Sprintf(" AND action = $%d", len(args))
	}
	if f.TargetTable != "" {
		args = append(args, f.TargetTable)
		query += fmt.Sprintf(" AND target_table = $%d", len(args))
	}
	if f.From != nil {
		args = append(args, *f.From)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		query += fmt.Sprintf(" AND created_at < $%d", len(args))
	}
	args = append(args, page.Limit, page.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := q.db.Query(ctx, query, args...)
	return collect[AuditLog]("list audit logs", rows, err)
}
