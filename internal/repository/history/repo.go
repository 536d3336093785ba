// Package history keeps per-actor seen sets in Valkey/Redis.
package history

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/matchdex/internal/domain/candidate"
	"github.com/kailas-cloud/matchdex/internal/domain/swipe"
	"github.com/kailas-cloud/matchdex/internal/repository/keyspace"
)

// store is the consumer interface for interaction history (ISP).
type store interface {
	SAdd(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

// Repo implements usecase/retrieval.InteractionHistory and usecase/swipe.Recorder.
type Repo struct {
	store store
}

// New creates a history repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Seen returns a snapshot of every candidate the actor has been shown or swiped in a pool.
func (r *Repo) Seen(ctx context.Context, kind candidate.Kind, actor candidate.ID) (candidate.Set, error) {
	members, err := r.store.SMembers(ctx, keyspace.SeenKey(kind, actor))
	if err != nil {
		return candidate.Set{}, fmt.Errorf("seen %s/%s: %w", kind, actor, err)
	}
	set := candidate.NewSet()
	for _, m := range members {
		set.Add(candidate.ID(m))
	}
	return set, nil
}

// Record adds the swiped candidate to the actor's seen set.
func (r *Repo) Record(ctx context.Context, s swipe.Swipe) error {
	if err := r.store.SAdd(ctx, keyspace.SeenKey(s.Kind(), s.Actor()), string(s.Target())); err != nil {
		return fmt.Errorf("record swipe: %w", err)
	}
	return nil
}

// MarkShown adds displayed candidates to the actor's seen set.
func (r *Repo) MarkShown(ctx context.Context, kind candidate.Kind, actor candidate.ID, ids []candidate.ID) error {
	if len(ids) == 0 {
		return nil
	}
	members := make([]string, len(ids))
	for i, id := range ids {
		members[i] = string(id)
	}
	if err := r.store.SAdd(ctx, keyspace.SeenKey(kind, actor), members...); err != nil {
		return fmt.Errorf("mark shown: %w", err)
	}
	return nil
}
