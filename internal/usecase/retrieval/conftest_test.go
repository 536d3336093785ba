package retrieval

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/kailas-cloud/matchdex/internal/domain/candidate"
)

// fakeIndex serves prefixes of a fixed ranking, like an exact KNN index.
type fakeIndex struct {
	mu        sync.Mutex
	ranking   []candidate.Scored
	byBreadth map[int][]candidate.Scored
	errAt     map[int]error
	block     bool
	// blockAbove > 0 stalls breadths wider than it until the query context ends.
	blockAbove int
	calls      []int
}

func (f *fakeIndex) Search(ctx context.Context, _ candidate.Kind, _ []float32, topK int) ([]candidate.Scored, error) {
	f.mu.Lock()
	f.calls = append(f.calls, topK)
	f.mu.Unlock()

	if f.block || (f.blockAbove > 0 && topK > f.blockAbove) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err := f.errAt[topK]; err != nil {
		return nil, err
	}
	if hits, ok := f.byBreadth[topK]; ok {
		return slices.Clone(hits), nil
	}
	n := min(topK, len(f.ranking))
	return slices.Clone(f.ranking[:n]), nil
}

func (f *fakeIndex) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeIndex) sortedCalls() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := slices.Clone(f.calls)
	slices.Sort(out)
	return out
}

type fakeHistory struct {
	seen  candidate.Set
	err   error
	calls int
}

func (f *fakeHistory) Seen(_ context.Context, _ candidate.Kind, _ candidate.ID) (candidate.Set, error) {
	f.calls++
	if f.err != nil {
		return candidate.Set{}, f.err
	}
	return f.seen, nil
}

// fakeSampler returns population members outside exclude in population order.
type fakeSampler struct {
	population []candidate.ID
	extra      []candidate.ID // returned verbatim before population, ignoring exclude
	err        error
	calls      int
	exclude    candidate.Set
	count      int
}

func (f *fakeSampler) SampleUnseen(
	_ context.Context, _ candidate.Kind, exclude candidate.Set, count int,
) ([]candidate.ID, error) {
	f.calls++
	f.exclude = exclude
	f.count = count
	if f.err != nil {
		return nil, f.err
	}
	out := slices.Clone(f.extra)
	for _, id := range f.population {
		if len(out) >= count+len(f.extra) {
			break
		}
		if !exclude.Contains(id) {
			out = append(out, id)
		}
	}
	return out, nil
}

func ids(from, to int) []candidate.ID {
	out := make([]candidate.ID, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, candidate.ID(fmt.Sprint(i)))
	}
	return out
}

// ranking scores ids from..to descending from 0.99.
func ranking(from, to int) []candidate.Scored {
	out := make([]candidate.Scored, 0, to-from+1)
	for i, id := range ids(from, to) {
		out = append(out, candidate.Scored{ID: id, Score: 0.99 - float64(i)*0.001})
	}
	return out
}

func vec() []float32 { return []float32{0.1, 0.2, 0.3, 0.4} }
