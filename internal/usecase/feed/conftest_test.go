package feed

import (
	"context"

	"github.com/kailas-cloud/matchdex/internal/domain/candidate"
	"github.com/kailas-cloud/matchdex/internal/domain/profile"
	"github.com/kailas-cloud/matchdex/internal/domain/retrieval/outcome"
	"github.com/kailas-cloud/matchdex/internal/usecase/retrieval"
)

type mockVectors struct {
	profileVectorFn func(ctx context.Context, kind candidate.Kind, id candidate.ID) ([]float32, error)
}

func (m *mockVectors) ProfileVector(ctx context.Context, kind candidate.Kind, id candidate.ID) ([]float32, error) {
	return m.profileVectorFn(ctx, kind, id)
}

type mockRetriever struct {
	retrieveFn func(ctx context.Context, q retrieval.Query) (outcome.Result, error)
	last       retrieval.Query
}

func (m *mockRetriever) Retrieve(ctx context.Context, q retrieval.Query) (outcome.Result, error) {
	m.last = q
	return m.retrieveFn(ctx, q)
}

type mockProfiles struct {
	getManyFn func(ctx context.Context, kind candidate.Kind, ids []candidate.ID) ([]profile.Profile, error)
	calls     int
}

func (m *mockProfiles) GetMany(ctx context.Context, kind candidate.Kind, ids []candidate.ID) ([]profile.Profile, error) {
	m.calls++
	return m.getManyFn(ctx, kind, ids)
}

type mockMarker struct {
	err error
	ids []candidate.ID
}

func (m *mockMarker) MarkShown(_ context.Context, _ candidate.Kind, _ candidate.ID, ids []candidate.ID) error {
	m.ids = ids
	return m.err
}

func profilesFor(ids []candidate.ID) []profile.Profile {
	out := make([]profile.Profile, 0, len(ids))
	for _, id := range ids {
		out = append(out, profile.Reconstruct(id, candidate.User, "name-"+string(id), "", "", nil, "", nil, nil))
	}
	return out
}

func echoProfiles() *mockProfiles {
	return &mockProfiles{getManyFn: func(_ context.Context, _ candidate.Kind, ids []candidate.ID) ([]profile.Profile, error) {
		return profilesFor(ids), nil
	}}
}

func staticVector() *mockVectors {
	return &mockVectors{profileVectorFn: func(context.Context, candidate.Kind, candidate.ID) ([]float32, error) {
		return []float32{1, 0}, nil
	}}
}
