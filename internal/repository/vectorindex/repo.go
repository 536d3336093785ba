// Package vectorindex answers nearest-neighbour queries over a candidate pool.
package vectorindex

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/matchdex/internal/db"
	"github.com/kailas-cloud/matchdex/internal/domain/candidate"
	"github.com/kailas-cloud/matchdex/internal/repository/candidateindex"
	"github.com/kailas-cloud/matchdex/internal/repository/keyspace"
)

// store is the consumer interface for KNN search (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Repo implements usecase/retrieval.VectorIndex on Valkey/Redis FT.SEARCH.
type Repo struct {
	store store
}

// New creates a vector index repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Search returns up to topK candidates nearest vector, most similar first.
func (r *Repo) Search(
	ctx context.Context, kind candidate.Kind, vector []float32, topK int,
) ([]candidate.Scored, error) {
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:   keyspace.IndexName(kind),
		VectorField: candidateindex.FieldVector,
		Vector:      vector,
		K:           topK,
	})
	if err != nil {
		return nil, fmt.Errorf("search knn %s: %w", kind, err)
	}

	out := make([]candidate.Scored, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		id, ok := keyspace.IDFromCandidateKey(kind, e.Key)
		if !ok {
			continue
		}
		out = append(out, candidate.Scored{ID: id, Score: e.Score})
		if len(out) == topK {
			break
		}
	}
	return out, nil
}
