package search

import (
	"context"

	"github.com/kailas-cloud/matchdex/internal/domain/candidate"
	"github.com/kailas-cloud/matchdex/internal/domain/profile"
	"github.com/kailas-cloud/matchdex/internal/domain/retrieval/outcome"
	"github.com/kailas-cloud/matchdex/internal/usecase/retrieval"
)

// TagExtractor condenses a free-text query into a few interest tags.
type TagExtractor interface {
	Extract(ctx context.Context, query string) ([]string, error)
}

// Retriever runs progressive candidate retrieval.
type Retriever interface {
	Retrieve(ctx context.Context, q retrieval.Query) (outcome.Result, error)
}

// ProfileStore hydrates candidate ids into display profiles.
type ProfileStore interface {
	GetMany(ctx context.Context, kind candidate.Kind, ids []candidate.ID) ([]profile.Profile, error)
}
