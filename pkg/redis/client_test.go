package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/educare/track_backend/config"
)

func TestOptions(t *testing.T) {
	opts, err := Options(config.RedisConfig{Addr: "redis:6379", DB: 2, PoolSize: 32, ReadTimeoutSeconds: 7})
	if err != nil {
		t.Fatalf("Options: %v", err)
	}
	if opts.Addr != "redis:6379" || opts.DB != 2 {
		t.Errorf("addr/db = %q/%d", opts.Addr, opts.DB)
	}
	if opts.PoolSize != 32 {
		t.Errorf("PoolSize = %d, want 32", opts.PoolSize)
	}
	if opts.MinIdleConns != defaultMinIdleConns {
		t.Errorf("MinIdleConns = %d, want default", opts.MinIdleConns)
	}
	if opts.ReadTimeout != 7*time.Second || opts.WriteTimeout != defaultIOTimeout {
		t.Errorf("timeouts = %v/%v", opts.ReadTimeout, opts.WriteTimeout)
	}
	if opts.DialTimeout != defaultDialTimeout {
		t.Errorf("DialTimeout = %v", opts.DialTimeout)
	}
}

func TestOptionsRequiresAddr(t *testing.T) {
	if _, err := Options(config.RedisConfig{}); !errors.Is(err, ErrNoAddr) {
		t.Errorf("err = %v, want ErrNoAddr", err)
	}
}

func TestHealthyNilClient(t *testing.T) {
	if Healthy(context.Background(), nil) {
		t.Error("nil client reported healthy")
	}
}
