package middleware

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"lokapasar-be/internal/cache"
	"lokapasar-be/internal/utils"

	"golang.org/x/time/rate"
)

// Rate limit tiers
const (
	// Webhooks / payment callbacks (strict, replay-storm protection)
	LimitStrict = rate.Limit(2)
	BurstStrict = 5

	// Checkout and other authenticated actions
	LimitGeneral = rate.Limit(10)
	BurstGeneral = 20
)

const visitorTTL = 3 * time.Minute

// RateLimiter throttles requests per caller identity. The visitor buckets
// live behind a cache.Store so the backing storage is swappable instead of
// a package-level map.
type RateLimiter struct {
	store cache.Store
	name  string
	limit rate.Limit
	burst int
}

func NewRateLimiter(store cache.Store, name string, limit rate.Limit, burst int) *RateLimiter {
	return &RateLimiter{
		store: store,
		name:  name,
		limit: limit,
		burst: burst,
	}
}

func (rl *RateLimiter) limiterFor(identity string) *rate.Limiter {
	key := fmt.Sprintf("ratelimit:%s:%s", rl.name, identity)

	if v, ok := rl.store.Get(key); ok {
		if lim, ok := v.(*rate.Limiter); ok {
			// Refresh the TTL so active callers keep their bucket.
			rl.store.Set(key, lim, visitorTTL)
			return lim
		}
	}

	lim := rate.NewLimiter(rl.limit, rl.burst)
	rl.store.Set(key, lim, visitorTTL)
	return lim
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := resolveIdentity(r)

		limiter := rl.limiterFor(identity)
		if !limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// resolveIdentity picks the caller identity key: user ID when authenticated,
// device ID when the client supplies one, remote IP otherwise.
func resolveIdentity(r *http.Request) string {
	if userID, ok := utils.GetUserIDFromContext(r.Context()); ok {
		return fmt.Sprintf("user:%d", userID)
	}

	if deviceID := r.Header.Get("X-Device-ID"); deviceID != "" {
		return "device:" + deviceID
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return "ip:" + ip
}
