package feed

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/matchdex/internal/domain/candidate"
	"github.com/kailas-cloud/matchdex/internal/domain/profile"
	"github.com/kailas-cloud/matchdex/internal/domain/retrieval/outcome"
	"github.com/kailas-cloud/matchdex/internal/usecase/retrieval"
)

// Exhaustion notices returned with an empty page.
const (
	ExhaustedUsers    = "You've seen everyone nearby for now. Check back later for new people."
	ExhaustedProjects = "No new projects right now. Check back later."
)

// Page is one recommendation feed response.
type Page struct {
	Cards   []profile.Card
	Status  outcome.Status
	Message string
}

// Service builds the recommendation feed: the actor's own profile vector is
// the query.
type Service struct {
	vectors      VectorReader
	retriever    Retriever
	profiles     ProfileStore
	marker       ShownMarker
	defaultLimit int
	logger       *zap.Logger
}

// New creates a feed service. marker may be nil, in which case history only
// grows through swipes.
func New(
	vectors VectorReader, retriever Retriever, profiles ProfileStore,
	marker ShownMarker, defaultLimit int, logger *zap.Logger,
) *Service {
	return &Service{
		vectors:      vectors,
		retriever:    retriever,
		profiles:     profiles,
		marker:       marker,
		defaultLimit: defaultLimit,
		logger:       logger,
	}
}

// Cards returns up to limit unseen candidates of kind for actor. A zero limit
// uses the default.
func (s *Service) Cards(ctx context.Context, kind candidate.Kind, actor candidate.ID, limit int) (Page, error) {
	if limit == 0 {
		limit = s.defaultLimit
	}

	vec, err := s.vectors.ProfileVector(ctx, kind, actor)
	if err != nil {
		return Page{}, fmt.Errorf("load profile vector: %w", err)
	}

	res, err := s.retriever.Retrieve(ctx, retrieval.Query{
		Kind: kind, Vector: vec, Actor: actor, TargetCount: limit,
	})
	if err != nil {
		return Page{}, fmt.Errorf("retrieve: %w", err)
	}

	page := Page{Status: res.Status}
	if !res.Empty() {
		profiles, err := s.profiles.GetMany(ctx, kind, res.IDs())
		if err != nil {
			return Page{}, fmt.Errorf("hydrate profiles: %w", err)
		}
		var missing []candidate.ID
		page.Cards, missing = profile.Hydrate(res.Items, profiles)
		if len(missing) > 0 {
			page.Status = profile.HydratedStatus(page.Status, len(missing))
			s.logger.Warn("Retrieved candidates without a profile",
				zap.String("kind", string(kind)),
				zap.String("actor", string(actor)),
				zap.Int("missing", len(missing)),
				zap.Int("returned", len(page.Cards)),
			)
		}
	}
	if len(page.Cards) == 0 {
		page.Message = exhaustedMessage(kind)
	}

	s.markShown(ctx, kind, actor, page.Cards)
	return page, nil
}

// markShown is best effort: the page is already built and a missed mark only
// means a candidate may reappear on the next call.
func (s *Service) markShown(ctx context.Context, kind candidate.Kind, actor candidate.ID, cards []profile.Card) {
	if s.marker == nil || len(cards) == 0 {
		return
	}
	ids := make([]candidate.ID, len(cards))
	for i := range cards {
		ids[i] = cards[i].Profile.ID()
	}
	if err := s.marker.MarkShown(ctx, kind, actor, ids); err != nil {
		s.logger.Warn("Failed to mark cards as shown",
			zap.String("kind", string(kind)),
			zap.String("actor", string(actor)),
			zap.Int("count", len(ids)),
			zap.Error(err),
		)
	}
}

func exhaustedMessage(kind candidate.Kind) string {
	if kind == candidate.Project {
		return ExhaustedProjects
	}
	return ExhaustedUsers
}
