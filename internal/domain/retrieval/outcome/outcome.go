// Package outcome holds the typed result of one candidate retrieval call.
package outcome

import (
	"fmt"

	"github.com/kailas-cloud/matchdex/internal/domain/candidate"
)

// Source tells where a returned candidate came from.
type Source string

// Candidate sources.
const (
	SourceSimilarity Source = "similarity"
	SourceFallback   Source = "fallback"
)

// Status classifies a successful retrieval.
type Status string

// Retrieval statuses. Failures are returned as errors, never as a status.
const (
	// StatusComplete means the target count was reached.
	StatusComplete Status = "complete"
	// StatusExhausted means fewer unseen candidates exist than requested (possibly none).
	StatusExhausted Status = "exhausted"
	// StatusPartial means the sampler failed and only similarity results are returned.
	StatusPartial Status = "partial"
)

// Item is one retrieved candidate. Score is zero for fallback items.
type Item struct {
	ID     candidate.ID
	Score  float64
	Source Source
}

// Attempt records one progressive search round.
type Attempt struct {
	Breadth  int
	Returned int
	Filtered int
	Met      bool
}

// Result is the outcome of a retrieval call.
type Result struct {
	Items       []Item
	Attempts    []Attempt
	Status      Status
	FallbackErr error
}

// IDs returns the ids of all items in order.
func (r Result) IDs() []candidate.ID {
	ids := make([]candidate.ID, len(r.Items))
	for i, it := range r.Items {
		ids[i] = it.ID
	}
	return ids
}

// Empty reports whether nothing was retrieved.
func (r Result) Empty() bool { return len(r.Items) == 0 }

// FallbackUsed reports whether any item came from the sampler.
func (r Result) FallbackUsed() bool {
	for _, it := range r.Items {
		if it.Source == SourceFallback {
			return true
		}
	}
	return false
}

// Stage names the upstream step that failed.
type Stage string

// Retrieval stages.
const (
	StageHistory Stage = "history"
	StageIndex   Stage = "index"
	StageSampler Stage = "sampler"
)

// StageError is a failed upstream call during retrieval.
type StageError struct {
	Stage   Stage
	Breadth int
	Err     error
}

func (e *StageError) Error() string {
	if e.Stage == StageIndex {
		return fmt.Sprintf("retrieval %s (breadth %d): %v", e.Stage, e.Breadth, e.Err)
	}
	return fmt.Sprintf("retrieval %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
