package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/samber/lo"

	"github.com/educare/track_backend/config"
)

// EnsureDatabases creates the application and casbin databases, plus any
// listed under server.databases, when they do not exist yet. It connects
// through the server's maintenance database and returns the names it
// created.
func EnsureDatabases(ctx context.Context, cfg *config.Config) ([]string, error) {
	names := lo.Uniq(lo.Compact(append(
		[]string{cfg.Database.DBName, cfg.CasbinDatabase.DBName},
		cfg.Server.Databases...,
	)))
	if len(names) == 0 {
		return nil, fmt.Errorf("no database names configured")
	}

	db, err := OpenSQL(ctx, Resolve(cfg.Database).WithName("postgres"))
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var created []string
	for _, name := range names {
		ok, err := createIfMissing(ctx, db, name)
		if err != nil {
			return created, fmt.Errorf("database %q: %w", name, err)
		}
		if ok {
			created = append(created, name)
		}
	}
	return created, nil
}

func createIfMissing(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)`, name).Scan(&exists)
	if err != nil || exists {
		return false, err
	}
	// CREATE DATABASE takes no bind parameters
	if _, err := db.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(name)); err != nil {
		return false, err
	}
	return true, nil
}
