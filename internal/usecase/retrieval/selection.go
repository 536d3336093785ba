package retrieval

import (
	"errors"

	"github.com/kailas-cloud/matchdex/internal/domain/candidate"
	"github.com/kailas-cloud/matchdex/internal/domain/retrieval/outcome"
)

// selection accumulates the result of one call. items holds the
// similarity-ranked prefix in non-increasing score order followed by fallback
// ids; picked mirrors items so no id is ever selected twice.
type selection struct {
	actor  candidate.ID
	seen   candidate.Set
	picked candidate.Set
	items  []outcome.Item
}

func newSelection(actor candidate.ID, seen candidate.Set) *selection {
	return &selection{actor: actor, seen: seen, picked: candidate.NewSet()}
}

func (s *selection) len() int { return len(s.items) }

// filter drops the actor, seen ids and ids repeated within hits, keeping order.
func (s *selection) filter(hits []candidate.Scored) []outcome.Item {
	dup := candidate.NewSet()
	out := make([]outcome.Item, 0, len(hits))
	for _, h := range hits {
		if h.ID == s.actor || s.seen.Contains(h.ID) || !dup.Add(h.ID) {
			continue
		}
		out = append(out, outcome.Item{ID: h.ID, Score: h.Score, Source: outcome.SourceSimilarity})
	}
	return out
}

// merge folds a breadth's survivors into the ranked prefix. Both lists are
// descending, so a two-way merge keeps the order; on ties earlier breadths win.
// Approximate indexes may drop a neighbour at a larger breadth; merging keeps it.
func (s *selection) merge(fresh []outcome.Item) {
	if len(s.items) == 0 {
		for _, it := range fresh {
			if s.picked.Add(it.ID) {
				s.items = append(s.items, it)
			}
		}
		return
	}

	merged := make([]outcome.Item, 0, len(s.items)+len(fresh))
	i, j := 0, 0
	for i < len(s.items) || j < len(fresh) {
		switch {
		case j >= len(fresh):
			merged = append(merged, s.items[i])
			i++
		case i < len(s.items) && s.items[i].Score >= fresh[j].Score:
			merged = append(merged, s.items[i])
			i++
		default:
			if s.picked.Add(fresh[j].ID) {
				merged = append(merged, fresh[j])
			}
			j++
		}
	}
	s.items = merged
}

func (s *selection) appendFallback(id candidate.ID) {
	if s.picked.Add(id) {
		s.items = append(s.items, outcome.Item{ID: id, Source: outcome.SourceFallback})
	}
}

// exclusion is seen ∪ {actor} ∪ everything selected so far.
func (s *selection) exclusion() candidate.Set {
	ex := s.seen.Union(s.picked)
	ex.Add(s.actor)
	return ex
}

func asStageError(err error) (*outcome.StageError, bool) {
	var se *outcome.StageError
	ok := errors.As(err, &se)
	return se, ok
}
