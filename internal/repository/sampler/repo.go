// Package sampler draws random unseen candidates from a pool's population set.
package sampler

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/kailas-cloud/matchdex/internal/domain/candidate"
	"github.com/kailas-cloud/matchdex/internal/repository/keyspace"
)

// store is the consumer interface for population sets (ISP).
type store interface {
	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SRandMember(ctx context.Context, key string, count int) ([]string, error)
	SCard(ctx context.Context, key string) (int64, error)
}

// Draw sizing: one SRANDMEMBER round fetches at most max(minDraw, count*drawFactor)
// members, and at most maxRounds rounds run per call.
const (
	minDraw    = 256
	drawFactor = 4
	maxRounds  = 4
)

// Repo implements usecase/retrieval.FallbackSampler over SRANDMEMBER.
type Repo struct {
	store   store
	shuffle func(n int, swap func(i, j int))
}

// New creates a sampler repository.
func New(s store) *Repo {
	return &Repo{store: s, shuffle: rand.Shuffle}
}

// SampleUnseen returns up to count distinct pool members outside exclude.
//
// SRANDMEMBER with a positive count draws a uniform subset without repetition.
// A round oversamples by len(exclude), capped so a long seen-list never turns
// into a full population fetch; short rounds are repeated until count
// survivors are collected. A round that returns fewer members than asked has
// seen the whole pool, so scarcity ends the loop. Filtered and shuffled
// uniform draws stay uniform over the survivors.
func (r *Repo) SampleUnseen(
	ctx context.Context, kind candidate.Kind, exclude candidate.Set, count int,
) ([]candidate.ID, error) {
	if count <= 0 {
		return nil, nil
	}

	key := keyspace.PopulationKey(kind)
	draw := drawSize(count, exclude.Len())
	picked := candidate.NewSet()
	out := make([]candidate.ID, 0, count)

	for round := 0; round < maxRounds && len(out) < count; round++ {
		members, err := r.store.SRandMember(ctx, key, draw)
		if err != nil {
			return nil, fmt.Errorf("sample %s: %w", kind, err)
		}
		for _, m := range members {
			id := candidate.ID(m)
			if exclude.Contains(id) || !picked.Add(id) {
				continue
			}
			out = append(out, id)
		}
		if len(members) < draw {
			break
		}
	}

	r.shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	if len(out) > count {
		out = out[:count]
	}
	return out, nil
}

func drawSize(count, excluded int) int {
	return min(count+excluded, max(minDraw, count*drawFactor))
}

// Enroll adds a candidate to the pool population.
func (r *Repo) Enroll(ctx context.Context, kind candidate.Kind, id candidate.ID) error {
	if err := r.store.SAdd(ctx, keyspace.PopulationKey(kind), string(id)); err != nil {
		return fmt.Errorf("enroll %s/%s: %w", kind, id, err)
	}
	return nil
}

// Withdraw removes a candidate from the pool population.
func (r *Repo) Withdraw(ctx context.Context, kind candidate.Kind, id candidate.ID) error {
	if err := r.store.SRem(ctx, keyspace.PopulationKey(kind), string(id)); err != nil {
		return fmt.Errorf("withdraw %s/%s: %w", kind, id, err)
	}
	return nil
}

// Size returns the number of candidates in a pool.
func (r *Repo) Size(ctx context.Context, kind candidate.Kind) (int64, error) {
	n, err := r.store.SCard(ctx, keyspace.PopulationKey(kind))
	if err != nil {
		return 0, fmt.Errorf("size %s: %w", kind, err)
	}
	return n, nil
}
