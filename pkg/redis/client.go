// Package redis opens the shared Redis client. Sessions, login lockout,
// tap de-duplication and the HTTP rate limiter all live in this one
// database.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/educare/track_backend/config"
)

const (
	defaultPoolSize     = 10
	defaultMinIdleConns = 2
	defaultDialTimeout  = 5 * time.Second
	defaultIOTimeout    = 3 * time.Second
	pingTimeout         = time.Second
)

var ErrNoAddr = errors.New("redis: addr is empty")

// Options maps redis.* config onto client options. Zero values keep the
// defaults above.
func Options(c config.RedisConfig) (*goredis.Options, error) {
	if c.Addr == "" {
		return nil, ErrNoAddr
	}
	return &goredis.Options{
		Addr:         c.Addr,
		Username:     c.Username,
		Password:     c.Password,
		DB:           c.DB,
		PoolSize:     orInt(c.PoolSize, defaultPoolSize),
		MinIdleConns: orInt(c.MinIdleConns, defaultMinIdleConns),
		DialTimeout:  orSeconds(c.DialTimeoutSeconds, defaultDialTimeout),
		ReadTimeout:  orSeconds(c.ReadTimeoutSeconds, defaultIOTimeout),
		WriteTimeout: orSeconds(c.WriteTimeoutSeconds, defaultIOTimeout),
	}, nil
}

// Open connects and pings once so a bad address fails startup.
func Open(ctx context.Context, c config.RedisConfig) (*goredis.Client, error) {
	opts, err := Options(c)
	if err != nil {
		return nil, err
	}
	rdb := goredis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", c.Addr, err)
	}
	return rdb, nil
}

// Healthy reports whether rdb answers a ping within a second.
func Healthy(ctx context.Context, rdb *goredis.Client) bool {
	if rdb == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return rdb.Ping(ctx).Err() == nil
}

func orInt(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

func orSeconds(v int, fallback time.Duration) time.Duration {
	if v > 0 {
		return time.Duration(v) * time.Second
	}
	return fallback
}
