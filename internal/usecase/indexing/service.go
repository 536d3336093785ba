package indexing

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/matchdex/internal/domain"
	"github.com/kailas-cloud/matchdex/internal/domain/candidate"
	"github.com/kailas-cloud/matchdex/internal/domain/profile"
)

// Service keeps the vector index in sync with candidate profiles.
type Service struct {
	profiles   ProfileWriter
	population Population
	embed      domain.Embedder
	dim        int
}

// New creates an indexing service. embed should be the document-side embedder;
// population may be nil.
func New(profiles ProfileWriter, population Population, embed domain.Embedder, dim int) *Service {
	return &Service{profiles: profiles, population: population, embed: embed, dim: dim}
}

// Upsert embeds the profile text and stores the profile with its vector.
// The candidate becomes eligible for fallback sampling once stored.
func (s *Service) Upsert(ctx context.Context, p profile.Profile) error {
	result, err := s.embed.Embed(ctx, p.EmbeddingText())
	if err != nil {
		return fmt.Errorf("vectorize profile: %w", err)
	}
	if err := domain.CheckDimension(result.Embedding, s.dim); err != nil {
		return fmt.Errorf("vectorize profile: %w", err)
	}

	p = p.WithVector(result.Embedding)
	if err := s.profiles.Upsert(ctx, p); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}

	if s.population != nil {
		if err := s.population.Enroll(ctx, p.Kind(), p.ID()); err != nil {
			return fmt.Errorf("enroll candidate: %w", err)
		}
	}
	return nil
}

// Delete removes a candidate from the sampling pool and the index.
func (s *Service) Delete(ctx context.Context, kind candidate.Kind, id candidate.ID) error {
	if s.population != nil {
		if err := s.population.Withdraw(ctx, kind, id); err != nil {
			return fmt.Errorf("withdraw candidate: %w", err)
		}
	}
	if err := s.profiles.Delete(ctx, kind, id); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}
