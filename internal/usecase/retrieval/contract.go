package retrieval

import (
	"context"

	"github.com/kailas-cloud/matchdex/internal/domain/candidate"
)

// VectorIndex ranks candidates of one pool by similarity to a vector.
// Results are sorted descending by score, hold at most topK items and are
// deterministic for identical index state.
type VectorIndex interface {
	Search(ctx context.Context, kind candidate.Kind, vector []float32, topK int) ([]candidate.Scored, error)
}

// InteractionHistory lists the candidates an actor has already been shown or swiped.
type InteractionHistory interface {
	Seen(ctx context.Context, kind candidate.Kind, actor candidate.ID) (candidate.Set, error)
}

// FallbackSampler draws uniformly random candidates outside exclude. It returns
// fewer than count ids when the pool is small and never fails for scarcity.
type FallbackSampler interface {
	SampleUnseen(ctx context.Context, kind candidate.Kind, exclude candidate.Set, count int) ([]candidate.ID, error)
}
