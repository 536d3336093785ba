package chi

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/kailas-cloud/matchdex/internal/domain/candidate"
)

// RateLimitConfig holds per-actor token bucket settings.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate. Zero disables limiting.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size.
	BurstSize int
	// IdleTTL drops buckets of actors quiet for this long.
	IdleTTL time.Duration
}

type actorBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ActorLimiter keeps one token bucket per actor.
type ActorLimiter struct {
	mu        sync.Mutex
	buckets   map[candidate.ID]*actorBucket
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewActorLimiter creates a per-actor limiter. A non-positive rate returns nil,
// which Middleware treats as disabled.
func NewActorLimiter(cfg RateLimitConfig) *ActorLimiter {
	if cfg.RequestsPerSecond <= 0 {
		return nil
	}
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = 1
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	return &ActorLimiter{
		buckets: make(map[candidate.ID]*actorBucket),
		limit:   rate.Limit(cfg.RequestsPerSecond),
		burst:   cfg.BurstSize,
		idleTTL: cfg.IdleTTL,
		now:     time.Now,
	}
}

// Allow consumes one token from the actor's bucket.
func (l *ActorLimiter) Allow(actor candidate.ID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	b, ok := l.buckets[actor]
	if !ok {
		b = &actorBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[actor] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

// sweep runs at most once per idle TTL. Caller holds mu.
func (l *ActorLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.idleTTL {
		return
	}
	l.lastSweep = now
	for actor, b := range l.buckets {
		if now.Sub(b.lastSeen) >= l.idleTTL {
			delete(l.buckets, actor)
		}
	}
}

// tracked returns the number of live buckets.
func (l *ActorLimiter) tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Middleware rejects requests over the actor's rate with 429. It must run
// after JWTAuthMiddleware; requests without an actor pass through.
func (l *ActorLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if l == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if ok && !l.Allow(actor) {
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, ErrorCodeRateLimited, "rate limited")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
