package swipe

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/matchdex/internal/domain"
	"github.com/kailas-cloud/matchdex/internal/domain/candidate"
	domswipe "github.com/kailas-cloud/matchdex/internal/domain/swipe"
)

// Service records actor swipes. Recorded targets are excluded from every
// later retrieval for that actor.
type Service struct {
	recorder Recorder
	now      func() time.Time
}

// New creates a swipe service.
func New(recorder Recorder) *Service {
	return &Service{recorder: recorder, now: time.Now}
}

// Record validates and stores one swipe.
func (s *Service) Record(
	ctx context.Context, actor, target candidate.ID, kind candidate.Kind, direction domswipe.Direction,
) (domswipe.Swipe, error) {
	sw, err := domswipe.New(actor, target, kind, direction, s.now())
	if err != nil {
		return domswipe.Swipe{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	if err := s.recorder.Record(ctx, sw); err != nil {
		return domswipe.Swipe{}, fmt.Errorf("record swipe: %w", err)
	}
	return sw, nil
}
