package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/ravenent/show-booking-system/api"
	"github.com/ravenent/show-booking-system/internal/jsonutil"
	"github.com/redis/go-redis/v9"
)

const ErrTooManyRequests = "Too many requests, please try again later"

// RateLimiter is a fixed-window request counter kept in Redis, keyed by client IP.
// Put RealIP in front of it when the service runs behind a proxy.
type RateLimiter struct {
	client redis.UniversalClient
	prefix string
	limit  int
	window time.Duration
	logger *slog.Logger
	now    func() time.Time
}

func NewRateLimiter(client redis.UniversalClient, prefix string, limit int, window time.Duration, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
		logger: logger,
		now:    time.Now,
	}
}

// Limit rejects requests over the limit with 429. Redis failures let the
// request through.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.limit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		now := rl.now()
		windowStart := now.Truncate(rl.window)
		key := fmt.Sprintf("rl:%s:%s:%d", rl.prefix, ClientIP(r), windowStart.Unix())

		pipe := rl.client.TxPipeline()
		incr := pipe.Incr(r.Context(), key)
		pipe.Expire(r.Context(), key, rl.window)

		_, err := pipe.Exec(r.Context())
		if err != nil {
			rl.logger.Warn("rate limiter unavailable", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		count := incr.Val()
		remaining := int64(rl.limit) - count
		if remaining < 0 {
			remaining = 0
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(rl.limit) {
			retryAfter := int(windowStart.Add(rl.window).Sub(now).Seconds()) + 1

			resp := api.ErrorResponse{
				Message:   ErrTooManyRequests,
				RequestId: middleware.GetReqID(r.Context()),
				Timestamp: now,
			}

			jsonutil.WriteJSON(w, http.StatusTooManyRequests, resp, http.Header{
				"Retry-After": []string{strconv.Itoa(retryAfter)},
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
