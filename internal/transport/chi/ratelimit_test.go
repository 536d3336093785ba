package chi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewActorLimiter_Disabled(t *testing.T) {
	if l := NewActorLimiter(RateLimitConfig{}); l != nil {
		t.Fatal("zero rate must disable the limiter")
	}

	var l *ActorLimiter
	handler := l.Middleware()(okHandler())
	for range 5 {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/search/query", http.NoBody))
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
	}
}

func TestActorLimiter_BurstAndRefill(t *testing.T) {
	now := time.Unix(1700000000, 0)
	l := NewActorLimiter(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 2})
	l.now = func() time.Time { return now }

	if !l.Allow("1") || !l.Allow("1") {
		t.Fatal("burst of 2 must pass")
	}
	if l.Allow("1") {
		t.Fatal("third request must be limited")
	}
	if !l.Allow("2") {
		t.Fatal("buckets are per actor")
	}

	now = now.Add(time.Second)
	if !l.Allow("1") {
		t.Error("one token must refill after a second")
	}
}

func TestActorLimiter_SweepsIdleActors(t *testing.T) {
	now := time.Unix(1700000000, 0)
	l := NewActorLimiter(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1, IdleTTL: time.Minute})
	l.now = func() time.Time { return now }

	l.Allow("1")
	l.Allow("2")
	if got := l.tracked(); got != 2 {
		t.Fatalf("tracked = %d", got)
	}

	now = now.Add(2 * time.Minute)
	l.Allow("3")
	if got := l.tracked(); got != 1 {
		t.Errorf("tracked after sweep = %d, want 1", got)
	}
}

func TestActorLimiter_Middleware(t *testing.T) {
	l := NewActorLimiter(RateLimitConfig{RequestsPerSecond: 0.001, BurstSize: 1})
	handler := l.Middleware()(okHandler())

	serve := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/search/query", http.NoBody)
		req = req.WithContext(ContextWithActor(req.Context(), "1"))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	if rr := serve(); rr.Code != http.StatusOK {
		t.Fatalf("first status = %d", rr.Code)
	}
	rr := serve()
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
}
