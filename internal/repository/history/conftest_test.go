package history

import "context"

// mockStore keeps sets in memory.
type mockStore struct {
	sets       map[string]map[string]struct{}
	saddErr    error
	smembersFn func(ctx context.Context, key string) ([]string, error)
}

func newMockStore() *mockStore {
	return &mockStore{sets: make(map[string]map[string]struct{})}
}

func (m *mockStore) SAdd(_ context.Context, key string, members ...string) error {
	if m.saddErr != nil {
		return m.saddErr
	}
	if m.sets[key] == nil {
		m.sets[key] = make(map[string]struct{})
	}
	for _, v := range members {
		m.sets[key][v] = struct{}{}
	}
	return nil
}

func (m *mockStore) SMembers(ctx context.Context, key string) ([]string, error) {
	if m.smembersFn != nil {
		return m.smembersFn(ctx, key)
	}
	out := make([]string, 0, len(m.sets[key]))
	for v := range m.sets[key] {
		out = append(out, v)
	}
	return out, nil
}
