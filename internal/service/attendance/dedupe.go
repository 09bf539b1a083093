package attendance

import (
	"context"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Deduper claims a tap slot per student. Claim returns false when another
// tap of the same key was accepted within the window, measured on tap
// timestamps so replays of buffered scans are covered too.
type Deduper interface {
	Claim(ctx context.Context, key string, at time.Time) (bool, error)
	// Release undoes a claim whose tap was not recorded.
	Release(ctx context.Context, key string, at time.Time) error
}

func redisKeyTap(key string) string { return "gate:last_tap:" + key }

// KEYS[1] last accepted tap (unix ms); ARGV: tap ms, window ms, ttl ms.
// The stored value only moves forward so an old replay cannot reopen the
// window behind a newer tap.
var claimScript = goredis.NewScript(`
local last = tonumber(redis.call('GET', KEYS[1]))
local at = tonumber(ARGV[1])
if last and math.abs(at - last) < tonumber(ARGV[2]) then
  return 0
end
if (not last) or at > last then
  redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
end
return 1
`)

var releaseScript = goredis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

type redisDeduper struct {
	rdb    goredis.Scripter
	window time.Duration
	ttl    time.Duration
}

// NewRedisDeduper keeps the last accepted tap per key for a day.
func NewRedisDeduper(rdb goredis.Scripter, window time.Duration) Deduper {
	return &redisDeduper{rdb: rdb, window: window, ttl: 24 * time.Hour}
}

func (d *redisDeduper) Claim(ctx context.Context, key string, at time.Time) (bool, error) {
	n, err := claimScript.Run(ctx, d.rdb, []string{redisKeyTap(key)},
		at.UnixMilli(), d.window.Milliseconds(), d.ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (d *redisDeduper) Release(ctx context.Context, key string, at time.Time) error {
	return releaseScript.Run(ctx, d.rdb, []string{redisKeyTap(key)}, at.UnixMilli()).Err()
}

// memoryDeduper is the in-process variant used when Redis is not wired.
type memoryDeduper struct {
	window time.Duration
	last   map[string]time.Time
	mu     sync.Mutex
}

// NewMemoryDeduper returns a single-process Deduper.
func NewMemoryDeduper(window time.Duration) Deduper {
	return &memoryDeduper{window: window, last: map[string]time.Time{}}
}

func (d *memoryDeduper) Claim(_ context.Context, key string, at time.Time) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if last, ok := d.last[key]; ok {
		diff := at.Sub(last)
		if diff < 0 {
			diff = -diff
		}
		if diff < d.window {
			return false, nil
		}
		if at.Before(last) {
			return true, nil
		}
	}
	d.last[key] = at
	return true, nil
}

func (d *memoryDeduper) Release(_ context.Context, key string, at time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if last, ok := d.last[key]; ok && last.Equal(at) {
		delete(d.last, key)
	}
	return nil
}
