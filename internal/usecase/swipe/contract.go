package swipe

import (
	"context"

	domswipe "github.com/kailas-cloud/matchdex/internal/domain/swipe"
)

// Recorder persists swipes into interaction history.
type Recorder interface {
	Record(ctx context.Context, s domswipe.Swipe) error
}
