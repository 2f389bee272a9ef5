package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lokapasar-be/internal/cache"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiter_BurstThenThrottle(t *testing.T) {
	store := cache.NewMemoryStore(time.Minute)
	defer store.Close()

	rl := NewRateLimiter(store, "test", LimitStrict, BurstStrict)
	h := rl.Middleware(okHandler())

	var last int
	for i := 0; i < BurstStrict+1; i++ {
		req := httptest.NewRequest(http.MethodPost, "/webhook/payment", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		last = rec.Code
	}

	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestRateLimiter_RetryAfterHeader(t *testing.T) {
	store := cache.NewMemoryStore(time.Minute)
	defer store.Close()

	rl := NewRateLimiter(store, "test", LimitStrict, 1)
	h := rl.Middleware(okHandler())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "10.0.0.2:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if i == 1 {
			assert.Equal(t, http.StatusTooManyRequests, rec.Code)
			assert.Equal(t, "1", rec.Header().Get("Retry-After"))
		}
	}
}

func TestRateLimiter_IdentitiesAreIndependent(t *testing.T) {
	store := cache.NewMemoryStore(time.Minute)
	defer store.Close()

	rl := NewRateLimiter(store, "test", LimitStrict, 1)
	h := rl.Middleware(okHandler())

	// Exhaust one caller's bucket.
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "10.0.0.3:1234"
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	// A different device still gets through.
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "10.0.0.3:1234"
	req.Header.Set("X-Device-ID", "device-b")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
