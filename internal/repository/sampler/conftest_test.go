package sampler

import (
	"context"
	"math/rand/v2"
	"slices"
)

// mockStore emulates SRANDMEMBER with a deterministic source.
type mockStore struct {
	sets          map[string][]string
	rng           *rand.Rand
	srandErr      error
	lastRandCount int
	maxRandCount  int
	randCalls     int
}

func newMockStore(seed uint64) *mockStore {
	return &mockStore{sets: make(map[string][]string), rng: rand.New(rand.NewPCG(seed, seed))}
}

func (m *mockStore) SAdd(_ context.Context, key string, members ...string) error {
	for _, v := range members {
		if !slices.Contains(m.sets[key], v) {
			m.sets[key] = append(m.sets[key], v)
		}
	}
	return nil
}

func (m *mockStore) SRem(_ context.Context, key string, members ...string) error {
	m.sets[key] = slices.DeleteFunc(m.sets[key], func(v string) bool { return slices.Contains(members, v) })
	return nil
}

func (m *mockStore) SRandMember(_ context.Context, key string, count int) ([]string, error) {
	m.lastRandCount = count
	m.maxRandCount = max(m.maxRandCount, count)
	m.randCalls++
	if m.srandErr != nil {
		return nil, m.srandErr
	}
	pool := slices.Clone(m.sets[key])
	m.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	return pool[:min(count, len(pool))], nil
}

func (m *mockStore) SCard(_ context.Context, key string) (int64, error) {
	return int64(len(m.sets[key])), nil
}
