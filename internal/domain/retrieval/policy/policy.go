// Package policy holds the tunable constants of progressive candidate retrieval.
package policy

import (
	"fmt"
	"slices"
	"time"
)

// Defaults observed on the production feed.
const (
	DefaultMaxAttempts  = 3
	DefaultTargetCount  = 20
	DefaultQueryTimeout = 2 * time.Second
	// MaxTargetCount bounds a single request; the sampler oversamples by the exclusion size.
	MaxTargetCount = 100
)

// DefaultSearchSizes returns the escalating breadths [50, 150, 300].
func DefaultSearchSizes() []int { return []int{50, 150, 300} }

// Policy is a validated retrieval policy.
type Policy struct {
	searchSizes  []int
	maxAttempts  int
	targetCount  int
	queryTimeout time.Duration
	speculative  bool
}

// New validates a policy. Zero values fall back to defaults.
// Breadths must be positive, strictly increasing and no more than maxAttempts.
func New(searchSizes []int, maxAttempts, targetCount int, queryTimeout time.Duration, speculative bool) (Policy, error) {
	if maxAttempts == 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if maxAttempts < 0 {
		return Policy{}, fmt.Errorf("max attempts must be positive, got %d", maxAttempts)
	}
	if len(searchSizes) == 0 {
		searchSizes = DefaultSearchSizes()
	}
	if len(searchSizes) > maxAttempts {
		return Policy{}, fmt.Errorf("%d search sizes exceed max attempts %d", len(searchSizes), maxAttempts)
	}
	for i, b := range searchSizes {
		if b <= 0 {
			return Policy{}, fmt.Errorf("search size %d must be positive, got %d", i, b)
		}
		if i > 0 && b <= searchSizes[i-1] {
			return Policy{}, fmt.Errorf("search sizes must be strictly increasing: %v", searchSizes)
		}
	}
	if targetCount == 0 {
		targetCount = DefaultTargetCount
	}
	if targetCount < 0 || targetCount > MaxTargetCount {
		return Policy{}, fmt.Errorf("target count must be in [1, %d], got %d", MaxTargetCount, targetCount)
	}
	if queryTimeout == 0 {
		queryTimeout = DefaultQueryTimeout
	}
	if queryTimeout < 0 {
		return Policy{}, fmt.Errorf("query timeout must be positive, got %s", queryTimeout)
	}

	return Policy{
		searchSizes:  slices.Clone(searchSizes),
		maxAttempts:  maxAttempts,
		targetCount:  targetCount,
		queryTimeout: queryTimeout,
		speculative:  speculative,
	}, nil
}

// Default returns the production policy: [50,150,300], 3 attempts, 20 results, 2s per query.
func Default() Policy {
	p, _ := New(nil, 0, 0, 0, false)
	return p
}

// SearchSizes returns a copy of the escalating breadths.
func (p Policy) SearchSizes() []int { return slices.Clone(p.searchSizes) }

// MaxAttempts returns the attempt cap.
func (p Policy) MaxAttempts() int { return p.maxAttempts }

// TargetCount returns the default number of candidates per call.
func (p Policy) TargetCount() int { return p.targetCount }

// QueryTimeout returns the timeout applied to each upstream query.
func (p Policy) QueryTimeout() time.Duration { return p.queryTimeout }

// Speculative reports whether all breadths are issued concurrently.
func (p Policy) Speculative() bool { return p.speculative }
