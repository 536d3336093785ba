package search

import (
	"context"

	"github.com/kailas-cloud/matchdex/internal/domain"
	"github.com/kailas-cloud/matchdex/internal/domain/candidate"
	"github.com/kailas-cloud/matchdex/internal/domain/profile"
	"github.com/kailas-cloud/matchdex/internal/domain/retrieval/outcome"
	"github.com/kailas-cloud/matchdex/internal/usecase/retrieval"
)

type mockTags struct {
	tags  []string
	err   error
	calls int
}

func (m *mockTags) Extract(_ context.Context, _ string) ([]string, error) {
	m.calls++
	return m.tags, m.err
}

type mockEmbedder struct {
	err  error
	text string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.text = text
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: []float32{0.5, 0.5}, TotalTokens: 4}, nil
}

type mockRetriever struct {
	result outcome.Result
	err    error
	last   retrieval.Query
	calls  int
}

func (m *mockRetriever) Retrieve(_ context.Context, q retrieval.Query) (outcome.Result, error) {
	m.calls++
	m.last = q
	return m.result, m.err
}

// mockProfiles echoes a profile per id except the ids in gone.
type mockProfiles struct {
	gone candidate.Set
}

func (m mockProfiles) GetMany(_ context.Context, kind candidate.Kind, ids []candidate.ID) ([]profile.Profile, error) {
	out := make([]profile.Profile, 0, len(ids))
	for _, id := range ids {
		if m.gone.Contains(id) {
			continue
		}
		out = append(out, profile.Reconstruct(id, kind, "p"+string(id), "", "", nil, "", nil, nil))
	}
	return out, nil
}
