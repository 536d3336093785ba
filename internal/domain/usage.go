package domain

import (
	"context"
	"sync"
)

type requestUsageKey struct{}

// RequestUsage accumulates provider token spend for one HTTP request.
// Handlers attach it before calling a service and read it back for response headers.
// Safe for concurrent use.
type RequestUsage struct {
	mu              sync.Mutex
	embeddingTokens int
	llmTokens       int
	embedded        bool
}

// WithRequestUsage returns a context carrying a fresh usage collector.
func WithRequestUsage(ctx context.Context) (context.Context, *RequestUsage) {
	u := &RequestUsage{}
	return context.WithValue(ctx, requestUsageKey{}, u), u
}

// RequestUsageFrom returns the collector from ctx, or nil.
func RequestUsageFrom(ctx context.Context) *RequestUsage {
	u, _ := ctx.Value(requestUsageKey{}).(*RequestUsage)
	return u
}

// AddEmbeddingTokens records an embedding call. Cache hits record zero tokens.
func (u *RequestUsage) AddEmbeddingTokens(n int) {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.embeddingTokens += n
	u.embedded = true
	u.mu.Unlock()
}

// AddLLMTokens records chat completion spend.
func (u *RequestUsage) AddLLMTokens(n int) {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.llmTokens += n
	u.mu.Unlock()
}

// EmbeddingTokens returns the total embedding tokens and whether any embedding ran.
func (u *RequestUsage) EmbeddingTokens() (int, bool) {
	if u == nil {
		return 0, false
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.embeddingTokens, u.embedded
}

// LLMTokens returns the total chat completion tokens.
func (u *RequestUsage) LLMTokens() int {
	if u == nil {
		return 0
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.llmTokens
}
