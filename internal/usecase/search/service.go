package search

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/matchdex/internal/domain"
	"github.com/kailas-cloud/matchdex/internal/domain/candidate"
	"github.com/kailas-cloud/matchdex/internal/domain/profile"
	"github.com/kailas-cloud/matchdex/internal/domain/retrieval/outcome"
	logpkg "github.com/kailas-cloud/matchdex/internal/logger"
	"github.com/kailas-cloud/matchdex/internal/usecase/retrieval"
)

// MaxQueryLength bounds the free-text query in runes.
const MaxQueryLength = 500

// NoMatchesMessage is returned with an empty result set.
const NoMatchesMessage = "No new matches for this search. Try different keywords or check back later."

// Request is one AI search call.
type Request struct {
	Query string
	Kind  candidate.Kind
	Actor candidate.ID
	Limit int
}

// Response carries the extracted tags next to the hydrated results.
type Response struct {
	Query   string
	Tags    []string
	Cards   []profile.Card
	Status  outcome.Status
	Message string
}

// Service handles AI search: query -> tags -> tag vector -> retrieval.
type Service struct {
	tags         TagExtractor
	embed        domain.Embedder
	retriever    Retriever
	profiles     ProfileStore
	defaultLimit int
}

// New creates a search service. embed should be the query-side embedder.
func New(
	tags TagExtractor, embed domain.Embedder, retriever Retriever,
	profiles ProfileStore, defaultLimit int,
) *Service {
	return &Service{
		tags:         tags,
		embed:        embed,
		retriever:    retriever,
		profiles:     profiles,
		defaultLimit: defaultLimit,
	}
}

// Search extracts tags from the query, embeds them and retrieves unseen matches.
func (s *Service) Search(ctx context.Context, req Request) (Response, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return Response{}, fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}
	if utf8.RuneCountInString(query) > MaxQueryLength {
		return Response{}, fmt.Errorf("%w: query exceeds %d characters", domain.ErrInvalidInput, MaxQueryLength)
	}
	limit := req.Limit
	if limit == 0 {
		limit = s.defaultLimit
	}

	tags, err := s.tags.Extract(ctx, query)
	if err != nil {
		return Response{}, fmt.Errorf("extract tags: %w", err)
	}
	phrase := strings.Join(tags, ", ")
	if phrase == "" {
		phrase = query
	}

	emb, err := s.embed.Embed(ctx, phrase)
	if err != nil {
		return Response{}, fmt.Errorf("vectorize tags: %w", err)
	}

	res, err := s.retriever.Retrieve(ctx, retrieval.Query{
		Kind: req.Kind, Vector: emb.Embedding, Actor: req.Actor, TargetCount: limit,
	})
	if err != nil {
		return Response{}, fmt.Errorf("retrieve: %w", err)
	}

	resp := Response{Query: query, Tags: tags, Status: res.Status}
	if !res.Empty() {
		profiles, err := s.profiles.GetMany(ctx, req.Kind, res.IDs())
		if err != nil {
			return Response{}, fmt.Errorf("hydrate profiles: %w", err)
		}
		var missing []candidate.ID
		resp.Cards, missing = profile.Hydrate(res.Items, profiles)
		if len(missing) > 0 {
			resp.Status = profile.HydratedStatus(resp.Status, len(missing))
			logpkg.FromContext(ctx).Warn("Search results without a profile",
				zap.String("kind", string(req.Kind)),
				zap.Int("missing", len(missing)),
				zap.Int("returned", len(resp.Cards)),
			)
		}
	}
	if len(resp.Cards) == 0 {
		resp.Message = NoMatchesMessage
	}
	return resp, nil
}
