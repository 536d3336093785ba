// Worker pool for parallel profile upserts.
// Reader -> channel(job) -> N workers -> PUT /candidates -> embedding + index.
package main

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/matchdex/internal/domain/profile"
)

// upserter stores one profile and reports embedding tokens spent.
type upserter interface {
	Upsert(ctx context.Context, p *profile.Profile) (int, error)
}

type ingester struct {
	api     upserter
	workers int
	metrics *seedMetrics
	cursor  *cursorTracker
	logger  *zap.Logger
}

type job struct {
	line    int
	profile profile.Profile
}

type ingestResult struct {
	Processed       int64
	Failed          int64
	Invalid         int64
	EmbeddingTokens int64
	Duration        time.Duration
}

type counters struct {
	processed, failed, invalid, tokens atomic.Int64
}

// Run streams the reader into the worker pool starting at the cursor offset.
func (ing *ingester) Run(ctx context.Context, reader *profileReader, maxRows int) (ingestResult, error) {
	workers := max(ing.workers, 1)
	jobs := make(chan job, workers*2)
	var wg sync.WaitGroup
	var c counters

	start := time.Now()

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for j := range jobs {
				ing.process(ctx, workerID, j, &c)
			}
		}(i)
	}

	readerErr := ing.produce(ctx, reader, maxRows, jobs, &c)
	close(jobs)
	wg.Wait()

	return ingestResult{
		Processed:       c.processed.Load(),
		Failed:          c.failed.Load(),
		Invalid:         c.invalid.Load(),
		EmbeddingTokens: c.tokens.Load(),
		Duration:        time.Since(start),
	}, readerErr
}

func (ing *ingester) produce(
	ctx context.Context,
	reader *profileReader,
	maxRows int,
	out chan<- job,
	c *counters,
) error {
	offset := ing.cursor.Get().RowOffset
	return reader.ReadProfiles(offset, maxRows, func(line int, p profile.Profile, blank bool, err error) bool {
		if ctx.Err() != nil {
			return false
		}
		switch {
		case blank:
			ing.cursor.Skip(line)
			return true
		case err != nil:
			c.invalid.Add(1)
			ing.metrics.rowsFailed.WithLabelValues("unknown", "invalid").Inc()
			ing.logger.Warn("Skipping invalid row", zap.Error(err))
			ing.cursor.Complete(line, true)
			return true
		}

		ing.metrics.cursorPosition.Set(float64(line))
		select {
		case <-ctx.Done():
			return false
		case out <- job{line: line, profile: p}:
			return true
		}
	})
}

func (ing *ingester) process(ctx context.Context, workerID int, j job, c *counters) {
	if ctx.Err() != nil {
		return
	}
	kind := string(j.profile.Kind())
	start := time.Now()

	tokens, err := ing.api.Upsert(ctx, &j.profile)

	ing.metrics.upsertDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		if ctx.Err() != nil {
			// interrupted: leave the row for the next run
			return
		}
		c.failed.Add(1)
		ing.metrics.rowsFailed.WithLabelValues(kind, "upsert_error").Inc()
		ing.logger.Warn("Upsert failed",
			zap.Int("worker", workerID),
			zap.String("id", string(j.profile.ID())),
			zap.Error(err),
		)
		ing.cursor.Complete(j.line, true)
		return
	}

	total := c.processed.Add(1)
	c.tokens.Add(int64(tokens))
	ing.metrics.rowsProcessed.WithLabelValues(kind).Inc()
	ing.metrics.embeddingTokens.Add(float64(tokens))
	ing.cursor.Complete(j.line, false)

	if total%1000 == 0 {
		ing.logger.Info("Progress",
			zap.Int64("processed", total),
			zap.Int64("failed", c.failed.Load()),
		)
	}
}
