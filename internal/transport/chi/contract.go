package chi

import (
	"context"

	"github.com/kailas-cloud/matchdex/internal/domain/candidate"
	"github.com/kailas-cloud/matchdex/internal/domain/profile"
	domswipe "github.com/kailas-cloud/matchdex/internal/domain/swipe"
	feeduc "github.com/kailas-cloud/matchdex/internal/usecase/feed"
	healthuc "github.com/kailas-cloud/matchdex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/matchdex/internal/usecase/search"
)

// FeedService builds recommendation pages.
type FeedService interface {
	Cards(ctx context.Context, kind candidate.Kind, actor candidate.ID, limit int) (feeduc.Page, error)
}

// SearchService runs AI search.
type SearchService interface {
	Search(ctx context.Context, req searchuc.Request) (searchuc.Response, error)
}

// IndexingService maintains the candidate index.
type IndexingService interface {
	Upsert(ctx context.Context, p profile.Profile) error
	Delete(ctx context.Context, kind candidate.Kind, id candidate.ID) error
}

// SwipeService records swipes.
type SwipeService interface {
	Record(
		ctx context.Context, actor, target candidate.ID, kind candidate.Kind, direction domswipe.Direction,
	) (domswipe.Swipe, error)
}

// HealthService aggregates component checks.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}
