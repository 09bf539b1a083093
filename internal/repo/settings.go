package repo

import (
	"context"
	"encoding/json"
)

func (q *Queries) Setting(ctx context.Context, key string) (json.RawMessage, error) {
	var v json.RawMessage
	err := q.db.QueryRow(ctx, `SELECT value FROM system_settings WHERE key = $1`, key).Scan(&v)
	if err != nil {
		return nil, wrap("get setting", err)
	}
	return v, nil
}

func (q *Queries) PutSetting(ctx context.Context, key string, value any) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO system_settings (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`, key, value)
	return wrap("put setting", err)
}
