package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"

	"github.com/educare/track_backend/config"
)

const pingTimeout = 5 * time.Second

// NewPool opens the pgx pool every request-path query runs on.
func NewPool(ctx context.Context, c config.DatabaseConfig) (*pgxpool.Pool, error) {
	s := Resolve(c)
	pcfg, err := pgxpool.ParseConfig(s.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}
	pcfg.MaxConns = s.MaxConns
	pcfg.MinConns = s.MinConns
	pcfg.MaxConnLifetime = s.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping %s: %w", s.Name, err)
	}
	return pool, nil
}

// OpenSQL opens a lib/pq handle for goose and database creation. It is
// kept small: maintenance work runs one statement at a time.
func OpenSQL(ctx context.Context, s Settings) (*sql.DB, error) {
	db, err := sql.Open("postgres", s.DSN())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.Name, err)
	}
	db.SetMaxOpenConns(2)
	db.SetConnMaxLifetime(s.MaxConnLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", s.Name, err)
	}
	return db, nil
}
