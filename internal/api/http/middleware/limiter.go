package middleware

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	fiberredis "github.com/gofiber/storage/redis/v3"
	"github.com/redis/go-redis/v9"

	"github.com/educare/track_backend/config"
)

const (
	defaultLimitMax    = 120
	defaultLimitWindow = 60 * time.Second
)

// NewLimiterWithRedis rate limits by client IP with a sliding window kept in
// Redis so every replica shares the counters.
func NewLimiterWithRedis(rdb *redis.Client, cfg config.RateLimitConfig) fiber.Handler {
	storage := fiberredis.NewFromConnection(rdb)
	max, window := defaultLimitMax, defaultLimitWindow
	if cfg.Max > 0 {
		max = cfg.Max
	}
	if cfg.ExpirationSeconds > 0 {
		window = time.Duration(cfg.ExpirationSeconds) * time.Second
	}
	return limiter.New(limiter.Config{
		Storage: storage,

		// sliding window
		Max:               max,
		Expiration:        window,
		LimiterMiddleware: limiter.SlidingWindow{},
	})
}

// NewLoginLimiter throttles credential guessing per IP independently of the
// account lockout.
func NewLoginLimiter(rdb *redis.Client) fiber.Handler {
	return limiter.New(limiter.Config{
		Storage:           fiberredis.NewFromConnection(rdb),
		Max:               10,
		Expiration:        time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator: func(c fiber.Ctx) string {
			return "login:" + c.IP()
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many login attempts, try again later"})
		},
	})
}
