// Copyright 2026 FoodBlock Protocol
//
// Unit tests for the rate limiting middleware
package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRateLimiterAllowsUnderLimit(t *testing.T) {
	rl := newRateLimiter(3)
	for i := 0; i < 3; i++ {
		ok, _ := rl.allow("1.2.3.4")
		if !ok {
			t.Fatalf("request %d: expected allow", i)
		}
	}
}

func TestRateLimiterBlocksOverLimit(t *testing.T) {
	rl := newRateLimiter(2)
	rl.allow("1.2.3.4")
	rl.allow("1.2.3.4")
	ok, retryAfter := rl.allow("1.2.3.4")
	if ok {
		t.Fatal("expected the third request to be blocked")
	}
	if retryAfter <= 0 {
		t.Errorf("retryAfter = %d, want > 0", retryAfter)
	}
}

func TestRateLimiterTracksIPsIndependently(t *testing.T) {
	rl := newRateLimiter(1)
	rl.allow("1.1.1.1")
	ok, _ := rl.allow("2.2.2.2")
	if !ok {
		t.Fatal("a different IP should not be affected by another IP's count")
	}
}

func TestRateLimiterDisabledWhenLimitNonPositive(t *testing.T) {
	rl := newRateLimiter(0)
	for i := 0; i < 1000; i++ {
		ok, _ := rl.allow("1.2.3.4")
		if !ok {
			t.Fatalf("request %d: disabled limiter should always allow", i)
		}
	}
}

func TestCORSMiddlewareRespondsToPreflight(t *testing.T) {
	handler := corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("inner handler should not run for OPTIONS")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/blocks", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusNoContent)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("missing permissive CORS header")
	}
}

func TestCORSMiddlewarePassesThroughOtherMethods(t *testing.T) {
	called := false
	handler := corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if !called {
		t.Fatal("expected inner handler to run")
	}
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.9")

	if ip := clientIP(req); ip != "203.0.113.9" {
		t.Errorf("clientIP = %q, want 203.0.113.9", ip)
	}
}

func TestClientIPFallsBackToRemoteAddr(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	if ip := clientIP(req); ip != "10.0.0.1" {
		t.Errorf("clientIP = %q, want 10.0.0.1", ip)
	}
}
