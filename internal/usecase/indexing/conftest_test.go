package indexing

import (
	"context"

	"github.com/kailas-cloud/matchdex/internal/domain"
	"github.com/kailas-cloud/matchdex/internal/domain/candidate"
	"github.com/kailas-cloud/matchdex/internal/domain/profile"
)

type mockProfiles struct {
	upsertFn func(ctx context.Context, p profile.Profile) error
	deleteFn func(ctx context.Context, kind candidate.Kind, id candidate.ID) error
	stored   []profile.Profile
}

func (m *mockProfiles) Upsert(ctx context.Context, p profile.Profile) error {
	m.stored = append(m.stored, p)
	if m.upsertFn != nil {
		return m.upsertFn(ctx, p)
	}
	return nil
}

func (m *mockProfiles) Delete(ctx context.Context, kind candidate.Kind, id candidate.ID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, kind, id)
	}
	return nil
}

type mockPopulation struct {
	enrolled  []candidate.ID
	withdrawn []candidate.ID
	err       error
}

func (m *mockPopulation) Enroll(_ context.Context, _ candidate.Kind, id candidate.ID) error {
	m.enrolled = append(m.enrolled, id)
	return m.err
}

func (m *mockPopulation) Withdraw(_ context.Context, _ candidate.Kind, id candidate.ID) error {
	m.withdrawn = append(m.withdrawn, id)
	return m.err
}

type mockEmbedder struct {
	vec  []float32
	err  error
	text string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.text = text
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec, TotalTokens: 12}, nil
}
