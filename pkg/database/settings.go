// Package database opens Postgres for the API (pgx pool) and for
// maintenance work (lib/pq handles used by goose and database creation).
package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/educare/track_backend/config"
)

// Settings is a DatabaseConfig with defaults applied.
type Settings struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string

	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

func Resolve(c config.DatabaseConfig) Settings {
	s := Settings{
		Host:            or(c.Host, "localhost"),
		Port:            5432,
		User:            c.User,
		Password:        c.Password,
		Name:            c.DBName,
		SSLMode:         or(c.SSLMode, "disable"),
		MaxConns:        25,
		MinConns:        2,
		MaxConnLifetime: 5 * time.Minute,
	}
	if c.Port > 0 {
		s.Port = c.Port
	}
	if c.Pool.MaxOpenConns > 0 {
		s.MaxConns = int32(c.Pool.MaxOpenConns)
	}
	if c.Pool.MinConns > 0 {
		s.MinConns = int32(c.Pool.MinConns)
	}
	if c.Pool.ConnMaxLifetimeMin > 0 {
		s.MaxConnLifetime = time.Duration(c.Pool.ConnMaxLifetimeMin) * time.Minute
	}
	return s
}

// WithName returns s pointed at another database on the same server.
func (s Settings) WithName(name string) Settings {
	s.Name = name
	return s
}

// DSN renders s as a keyword/value string, which lib/pq and pgx both
// accept.
func (s Settings) DSN() string {
	pairs := []string{
		"host=" + dsnValue(s.Host),
		fmt.Sprintf("port=%d", s.Port),
		"user=" + dsnValue(s.User),
		"password=" + dsnValue(s.Password),
		"dbname=" + dsnValue(s.Name),
		"sslmode=" + dsnValue(s.SSLMode),
	}
	return strings.Join(pairs, " ")
}

// NewDSN is Resolve(c).DSN().
func NewDSN(c config.DatabaseConfig) string {
	return Resolve(c).DSN()
}

// dsnValue single-quotes values that are empty or contain spaces, quotes
// or backslashes.
func dsnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

func or(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
