package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const loginRateLimitPrefix = "rl:login:"

// RateLimitRecorder is told about every login the limiter turns away.
type RateLimitRecorder func(ctx context.Context, terminalID, clientIP string)

// LoginRateLimit limits login attempts per terminal id and client IP pair
// using a one-minute Redis counter, so one client cannot lock a terminal out
// for everyone else. It is a no-op without Redis and fails open on cache
// errors. onLimited may be nil.
func LoginRateLimit(cache *redis.Client, maxPerMin int, logger *slog.Logger, onLimited RateLimitRecorder) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 5
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next()
		}
		var req struct {
			TerminalID string `json:"terminalId"`
		}
		_ = c.BodyParser(&req)
		terminalID := strings.TrimSpace(req.TerminalID)
		if len(terminalID) > 128 {
			terminalID = terminalID[:128]
		}

		key := loginRateLimitKey(terminalID, c.IP())
		ctx := c.UserContext()
		cnt, err := cache.Incr(ctx, key).Result()
		if err != nil {
			if logger != nil {
				logger.WarnContext(ctx, "login rate limit unavailable", slog.String("error", err.Error()))
			}
			return c.Next()
		}
		if cnt == 1 {
			cache.Expire(ctx, key, time.Minute)
		}
		if cnt > int64(maxPerMin) {
			if onLimited != nil {
				onLimited(ctx, terminalID, c.IP())
			}
			c.Set(fiber.HeaderRetryAfter, "60")
			return fiber.NewError(http.StatusTooManyRequests, "too many login attempts, try again later")
		}
		return c.Next()
	}
}

func loginRateLimitKey(terminalID, ip string) string {
	return loginRateLimitPrefix + terminalID + "|" + ip
}
