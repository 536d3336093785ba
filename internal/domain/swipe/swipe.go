// Package swipe models the actor feedback that feeds interaction history.
package swipe

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/matchdex/internal/domain/candidate"
)

// Direction is the swipe decision.
type Direction string

// Swipe directions.
const (
	Like Direction = "like"
	Pass Direction = "pass"
)

// IsValid checks if the direction is one of the supported values.
func (d Direction) IsValid() bool { return d == Like || d == Pass }

// Swipe is one recorded decision of an actor about a candidate.
type Swipe struct {
	actor     candidate.ID
	target    candidate.ID
	kind      candidate.Kind
	direction Direction
	at        time.Time
}

// New validates a swipe. Swiping on yourself is rejected.
func New(actor, target candidate.ID, kind candidate.Kind, direction Direction, at time.Time) (Swipe, error) {
	if actor == "" || target == "" {
		return Swipe{}, fmt.Errorf("actor and target are required")
	}
	if actor == target {
		return Swipe{}, fmt.Errorf("cannot swipe on yourself")
	}
	if !kind.IsValid() {
		return Swipe{}, fmt.Errorf("invalid candidate kind %q", kind)
	}
	if !direction.IsValid() {
		return Swipe{}, fmt.Errorf("invalid swipe direction %q", direction)
	}
	return Swipe{actor: actor, target: target, kind: kind, direction: direction, at: at.UTC()}, nil
}

// Actor returns who swiped.
func (s *Swipe) Actor() candidate.ID { return s.actor }

// Target returns the swiped candidate.
func (s *Swipe) Target() candidate.ID { return s.target }

// Kind returns the target's pool.
func (s *Swipe) Kind() candidate.Kind { return s.kind }

// Direction returns like or pass.
func (s *Swipe) Direction() Direction { return s.direction }

// At returns the swipe time in UTC.
func (s *Swipe) At() time.Time { return s.at }
