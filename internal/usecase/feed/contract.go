package feed

import (
	"context"

	"github.com/kailas-cloud/matchdex/internal/domain/candidate"
	"github.com/kailas-cloud/matchdex/internal/domain/profile"
	"github.com/kailas-cloud/matchdex/internal/domain/retrieval/outcome"
	"github.com/kailas-cloud/matchdex/internal/usecase/retrieval"
)

// VectorReader loads an actor's stored profile embedding.
type VectorReader interface {
	ProfileVector(ctx context.Context, kind candidate.Kind, id candidate.ID) ([]float32, error)
}

// Retriever runs progressive candidate retrieval.
type Retriever interface {
	Retrieve(ctx context.Context, q retrieval.Query) (outcome.Result, error)
}

// ProfileStore hydrates candidate ids into display profiles.
type ProfileStore interface {
	GetMany(ctx context.Context, kind candidate.Kind, ids []candidate.ID) ([]profile.Profile, error)
}

// ShownMarker records displayed candidates into the actor's history.
type ShownMarker interface {
	MarkShown(ctx context.Context, kind candidate.Kind, actor candidate.ID, ids []candidate.ID) error
}
