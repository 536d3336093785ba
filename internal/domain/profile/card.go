package profile

import (
	"github.com/kailas-cloud/matchdex/internal/domain/candidate"
	"github.com/kailas-cloud/matchdex/internal/domain/retrieval/outcome"
)

// Card is a hydrated retrieval item ready for display.
type Card struct {
	Profile Profile
	Score   float64
	Source  outcome.Source
}

// Hydrate pairs retrieved items with their profiles, keeping item order.
// Items whose profile vanished after indexing are left out and returned as missing.
func Hydrate(items []outcome.Item, profiles []Profile) (cards []Card, missing []candidate.ID) {
	byID := make(map[candidate.ID]Profile, len(profiles))
	for _, p := range profiles {
		byID[p.id] = p
	}
	cards = make([]Card, 0, len(items))
	for _, it := range items {
		p, ok := byID[it.ID]
		if !ok {
			missing = append(missing, it.ID)
			continue
		}
		cards = append(cards, Card{Profile: p, Score: it.Score, Source: it.Source})
	}
	return cards, missing
}

// HydratedStatus is the status of a page after hydration. A complete result
// that lost cards to missing profiles no longer holds the requested count.
func HydratedStatus(status outcome.Status, missing int) outcome.Status {
	if missing > 0 && status == outcome.StatusComplete {
		return outcome.StatusPartial
	}
	return status
}
