// Copyright 2026 FoodBlock Protocol
//
// Rate limiting middleware
package httpapi

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/foodxdevelopment/foodblock/internal/fberr"
)

// rateLimiter is a fixed-window per-IP request counter (§4.9 "simple
// per-IP rate limiting, not a token bucket — this is a reference
// implementation, not a production gateway"). Disabled entirely when the
// server is constructed with a non-positive limit (TEST mode, §6.5).
type rateLimiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int
	disabled bool
}

type window struct {
	count   int
	resetAt time.Time
}

const rateLimitWindow = time.Minute

func newRateLimiter(limit int) *rateLimiter {
	return &rateLimiter{
		windows:  make(map[string]*window),
		limit:    limit,
		disabled: limit <= 0,
	}
}

// allow reports whether ip may proceed, and if not, the number of seconds
// the caller should wait before retrying.
func (rl *rateLimiter) allow(ip string) (bool, int) {
	if rl.disabled {
		return true, 0
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w, ok := rl.windows[ip]
	if !ok || now.After(w.resetAt) {
		w = &window{count: 0, resetAt: now.Add(rateLimitWindow)}
		rl.windows[ip] = w
	}
	w.count++
	if w.count > rl.limit {
		return false, int(w.resetAt.Sub(now).Seconds()) + 1
	}
	return true, 0
}

// rateLimitMiddleware enforces §4.9's per-IP cap, responding 429 with
// Retry-After when exceeded.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		ok, retryAfter := s.rateLimiter.allow(ip)
		if !ok {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			writeErrorMsg(w, fberr.KindRateLimited, "rate limit exceeded, try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
