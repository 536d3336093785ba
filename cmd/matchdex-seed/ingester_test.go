package main

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kailas-cloud/matchdex/internal/domain/candidate"
	"github.com/kailas-cloud/matchdex/internal/domain/profile"
	"github.com/kailas-cloud/matchdex/internal/repository/keyspace"
)

type fakeUpserter struct {
	mu     sync.Mutex
	seen   []candidate.ID
	failOn candidate.ID
}

func (f *fakeUpserter) Upsert(_ context.Context, p *profile.Profile) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID() == f.failOn {
		return 0, errors.New("boom")
	}
	f.seen = append(f.seen, p.ID())
	return 5, nil
}

func newTestIngester(t *testing.T, api upserter) (*ingester, *cursorTracker) {
	t.Helper()
	ct, err := newCursorTracker(t.TempDir(), 1000, zap.NewNop())
	require.NoError(t, err)
	return &ingester{
		api:     api,
		workers: 3,
		metrics: newSeedMetrics(prometheus.NewRegistry()),
		cursor:  ct,
		logger:  zap.NewNop(),
	}, ct
}

func TestIngester_Run(t *testing.T) {
	api := &fakeUpserter{failOn: "p1"}
	ing, ct := newTestIngester(t, api)

	res, err := ing.Run(context.Background(), newProfileReader(strings.NewReader(sampleInput)), 0)
	require.NoError(t, err)

	assert.Equal(t, int64(2), res.Processed)
	assert.Equal(t, int64(1), res.Failed)
	assert.Equal(t, int64(2), res.Invalid)
	assert.Equal(t, int64(10), res.EmbeddingTokens)
	assert.ElementsMatch(t, []candidate.ID{"u1", "u2"}, api.seen)

	cur := ct.Get()
	assert.Equal(t, 6, cur.RowOffset, "every line handled")
	assert.Equal(t, 2, cur.TotalProcessed)
	assert.Equal(t, 3, cur.TotalFailed)

	assert.InDelta(t, 2, testutil.ToFloat64(ing.metrics.rowsFailed.WithLabelValues("unknown", "invalid")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(ing.metrics.rowsFailed.WithLabelValues("project", "upsert_error")), 0)
	assert.InDelta(t, 10, testutil.ToFloat64(ing.metrics.embeddingTokens), 0)
}

func TestIngester_ResumesFromCursor(t *testing.T) {
	api := &fakeUpserter{}
	ing, ct := newTestIngester(t, api)
	for line := range 3 {
		ct.Complete(line, false)
	}

	_, err := ing.Run(context.Background(), newProfileReader(strings.NewReader(sampleInput)), 0)
	require.NoError(t, err)
	assert.Equal(t, []candidate.ID{"u2"}, api.seen)
}

func TestIngester_Cancelled(t *testing.T) {
	api := &fakeUpserter{}
	ing, ct := newTestIngester(t, api)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := ing.Run(ctx, newProfileReader(strings.NewReader(sampleInput)), 0)
	require.NoError(t, err)
	assert.Zero(t, res.Processed)
	assert.Zero(t, ct.Get().TotalProcessed)
}

type fakeSetCounter map[string]int64

func (f fakeSetCounter) SCard(_ context.Context, key string) (int64, error) {
	n, ok := f[key]
	if !ok {
		return 0, errors.New("no such key")
	}
	return n, nil
}

func TestPopulationPoller_Poll(t *testing.T) {
	m := newSeedMetrics(prometheus.NewRegistry())
	p := &populationPoller{
		store:   fakeSetCounter{keyspace.PopulationKey(candidate.User): 42},
		metrics: m,
		logger:  zap.NewNop(),
	}
	p.poll(context.Background())

	assert.InDelta(t, 42, testutil.ToFloat64(m.population.WithLabelValues("user")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.population), "failed kinds are not reported")
}
