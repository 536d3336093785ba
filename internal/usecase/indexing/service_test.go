package indexing

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/matchdex/internal/domain"
	"github.com/kailas-cloud/matchdex/internal/domain/candidate"
	"github.com/kailas-cloud/matchdex/internal/domain/profile"
)

func makeProfile(t *testing.T) profile.Profile {
	t.Helper()
	p, err := profile.New("42", candidate.User, "Mia", "Backend engineer", "Climbs on weekends.",
		[]string{"Go", "climbing"}, "", map[string]string{"city": "Chengdu"})
	if err != nil {
		t.Fatalf("profile.New: %v", err)
	}
	return p
}

func TestUpsert_EmbedsStoresAndEnrolls(t *testing.T) {
	profiles := &mockProfiles{}
	pop := &mockPopulation{}
	emb := &mockEmbedder{vec: []float32{0.1, 0.2, 0.3}}
	svc := New(profiles, pop, emb, 3)

	p := makeProfile(t)
	if err := svc.Upsert(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if emb.text != p.EmbeddingText() {
		t.Errorf("expected embedding text %q, got %q", p.EmbeddingText(), emb.text)
	}
	if len(profiles.stored) != 1 || len(profiles.stored[0].Vector()) != 3 {
		t.Fatalf("expected stored profile with vector, got %+v", profiles.stored)
	}
	if len(pop.enrolled) != 1 || pop.enrolled[0] != "42" {
		t.Errorf("expected 42 enrolled, got %v", pop.enrolled)
	}
}

func TestUpsert_WithoutPopulation(t *testing.T) {
	svc := New(&mockProfiles{}, nil, &mockEmbedder{vec: []float32{1}}, 1)
	if err := svc.Upsert(context.Background(), makeProfile(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpsert_DimMismatch(t *testing.T) {
	profiles := &mockProfiles{}
	svc := New(profiles, &mockPopulation{}, &mockEmbedder{vec: []float32{1, 2}}, 3)

	err := svc.Upsert(context.Background(), makeProfile(t))
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
	if len(profiles.stored) != 0 {
		t.Error("nothing must be stored on mismatch")
	}
}

func TestUpsert_EmbedError(t *testing.T) {
	svc := New(&mockProfiles{}, nil, &mockEmbedder{err: domain.ErrEmbeddingProviderError}, 3)
	if err := svc.Upsert(context.Background(), makeProfile(t)); !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestUpsert_StoreErrorSkipsEnroll(t *testing.T) {
	profiles := &mockProfiles{upsertFn: func(context.Context, profile.Profile) error { return errors.New("OOM") }}
	pop := &mockPopulation{}
	svc := New(profiles, pop, &mockEmbedder{vec: []float32{1}}, 1)

	if err := svc.Upsert(context.Background(), makeProfile(t)); err == nil {
		t.Fatal("expected error")
	}
	if len(pop.enrolled) != 0 {
		t.Error("candidate must not be enrolled when the profile was not stored")
	}
}

func TestDelete_WithdrawsThenDeletes(t *testing.T) {
	var deleted candidate.ID
	profiles := &mockProfiles{deleteFn: func(_ context.Context, _ candidate.Kind, id candidate.ID) error {
		deleted = id
		return nil
	}}
	pop := &mockPopulation{}
	svc := New(profiles, pop, &mockEmbedder{}, 0)

	if err := svc.Delete(context.Background(), candidate.Project, "p1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != "p1" || len(pop.withdrawn) != 1 {
		t.Errorf("deleted=%q withdrawn=%v", deleted, pop.withdrawn)
	}
}

func TestDelete_WithdrawError(t *testing.T) {
	svc := New(&mockProfiles{}, &mockPopulation{err: errors.New("READONLY")}, &mockEmbedder{}, 0)
	if err := svc.Delete(context.Background(), candidate.User, "1"); err == nil {
		t.Fatal("expected error")
	}
}
