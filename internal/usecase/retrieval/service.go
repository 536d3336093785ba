package retrieval

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/matchdex/internal/domain"
	"github.com/kailas-cloud/matchdex/internal/domain/candidate"
	"github.com/kailas-cloud/matchdex/internal/domain/retrieval/outcome"
	"github.com/kailas-cloud/matchdex/internal/domain/retrieval/policy"
	"github.com/kailas-cloud/matchdex/internal/metrics"
)

// Query is one retrieval request.
type Query struct {
	Kind        candidate.Kind
	Vector      []float32
	Actor       candidate.ID
	TargetCount int
}

// Service runs progressive candidate retrieval: escalating vector searches
// filtered through the actor's history, topped up by random fallback.
// It never writes to any collaborator.
type Service struct {
	index   VectorIndex
	history InteractionHistory
	sampler FallbackSampler
	policy  policy.Policy
	dim     int
	logger  *zap.Logger
}

// New creates a retrieval service. dim is the deployment's vector dimension;
// zero disables the dimension check.
func New(
	index VectorIndex, history InteractionHistory, sampler FallbackSampler,
	pol policy.Policy, dim int, logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		index:   index,
		history: history,
		sampler: sampler,
		policy:  pol,
		dim:     dim,
		logger:  logger,
	}
}

// Policy returns the active retrieval policy.
func (s *Service) Policy() policy.Policy { return s.policy }

// Retrieve returns up to q.TargetCount unseen candidates, similarity-ranked
// first and fallback-sampled after. An empty result with StatusExhausted is a
// success. Upstream failures are *outcome.StageError wrapping
// domain.ErrUpstreamUnavailable; bad input fails before any upstream call.
func (s *Service) Retrieve(ctx context.Context, q Query) (outcome.Result, error) {
	if err := s.validate(q); err != nil {
		return outcome.Result{}, err
	}

	start := time.Now()
	res, err := s.retrieve(ctx, q)
	s.observe(q, res, err, time.Since(start))
	return res, err
}

func (s *Service) validate(q Query) error {
	if !q.Kind.IsValid() {
		return fmt.Errorf("%w: unknown candidate kind %q", domain.ErrInvalidInput, q.Kind)
	}
	if q.Actor == "" {
		return fmt.Errorf("%w: actor is required", domain.ErrInvalidInput)
	}
	if q.TargetCount <= 0 {
		return fmt.Errorf("%w: target count must be positive, got %d", domain.ErrInvalidInput, q.TargetCount)
	}
	if q.TargetCount > policy.MaxTargetCount {
		return fmt.Errorf("%w: target count exceeds %d", domain.ErrInvalidInput, policy.MaxTargetCount)
	}
	if len(q.Vector) == 0 {
		return fmt.Errorf("%w: query vector is empty", domain.ErrInvalidInput)
	}
	if s.dim > 0 && len(q.Vector) != s.dim {
		return fmt.Errorf("%w: expected %d, got %d", domain.ErrVectorDimMismatch, s.dim, len(q.Vector))
	}
	return nil
}

func (s *Service) retrieve(ctx context.Context, q Query) (outcome.Result, error) {
	seen, err := s.seen(ctx, q)
	if err != nil {
		return outcome.Result{}, err
	}

	sel := newSelection(q.Actor, seen)
	var res outcome.Result

	if s.policy.Speculative() {
		err = s.searchSpeculative(ctx, q, sel, &res)
	} else {
		err = s.searchSequential(ctx, q, sel, &res)
	}
	if err != nil {
		return outcome.Result{}, err
	}

	if sel.len() >= q.TargetCount {
		res.Items = sel.items[:q.TargetCount]
		res.Status = outcome.StatusComplete
		return res, nil
	}

	if err := s.fallback(ctx, q, sel, &res); err != nil {
		return outcome.Result{}, err
	}
	res.Items = sel.items
	return res, nil
}

func (s *Service) seen(ctx context.Context, q Query) (candidate.Set, error) {
	qctx, cancel := context.WithTimeout(ctx, s.policy.QueryTimeout())
	defer cancel()

	seen, err := s.history.Seen(qctx, q.Kind, q.Actor)
	if err != nil {
		return candidate.Set{}, &outcome.StageError{
			Stage: outcome.StageHistory,
			Err:   fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err),
		}
	}
	return seen, nil
}

// searchSequential issues breadths in order and stops at the first sufficient one.
func (s *Service) searchSequential(ctx context.Context, q Query, sel *selection, res *outcome.Result) error {
	for _, breadth := range s.policy.SearchSizes() {
		hits, err := s.search(ctx, q, breadth)
		if err != nil {
			return err
		}
		if s.absorb(q, sel, res, breadth, hits) {
			return nil
		}
	}
	return nil
}

// breadthResponse is one speculative breadth's answer.
type breadthResponse struct {
	hits []candidate.Scored
	err  error
}

// searchSpeculative issues every breadth concurrently and consumes the
// responses in breadth order as they arrive, exactly like the sequential loop.
// Once a breadth meets the target the wider queries are cancelled, so their
// latency and failures never reach the caller.
func (s *Service) searchSpeculative(ctx context.Context, q Query, sel *selection, res *outcome.Result) error {
	sizes := s.policy.SearchSizes()

	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	defer func() {
		cancel()
		_ = g.Wait()
	}()

	done := make([]chan breadthResponse, len(sizes))
	for i, breadth := range sizes {
		done[i] = make(chan breadthResponse, 1)
		g.Go(func() error {
			hits, err := s.search(gctx, q, breadth)
			done[i] <- breadthResponse{hits: hits, err: err}
			// A failed wide breadth must not cancel a narrower one still in
			// flight; the error travels with the response instead.
			return nil
		})
	}

	for i, breadth := range sizes {
		var resp breadthResponse
		select {
		case resp = <-done[i]:
		case <-ctx.Done():
			return &outcome.StageError{
				Stage:   outcome.StageIndex,
				Breadth: breadth,
				Err:     fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, ctx.Err()),
			}
		}
		if resp.err != nil {
			return resp.err
		}
		if s.absorb(q, sel, res, breadth, resp.hits) {
			return nil
		}
	}
	return nil
}

func (s *Service) search(ctx context.Context, q Query, breadth int) ([]candidate.Scored, error) {
	qctx, cancel := context.WithTimeout(ctx, s.policy.QueryTimeout())
	defer cancel()

	hits, err := s.index.Search(qctx, q.Kind, q.Vector, breadth)
	if err != nil {
		return nil, &outcome.StageError{
			Stage:   outcome.StageIndex,
			Breadth: breadth,
			Err:     fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err),
		}
	}
	return hits, nil
}

// absorb filters one breadth's hits into the selection, records the attempt
// and reports whether the target is met.
func (s *Service) absorb(q Query, sel *selection, res *outcome.Result, breadth int, hits []candidate.Scored) bool {
	filtered := sel.filter(hits)
	sel.merge(filtered)
	met := sel.len() >= q.TargetCount

	res.Attempts = append(res.Attempts, outcome.Attempt{
		Breadth:  breadth,
		Returned: len(hits),
		Filtered: len(filtered),
		Met:      met,
	})
	s.logger.Debug("Retrieval attempt",
		zap.String("kind", string(q.Kind)),
		zap.Int("breadth", breadth),
		zap.Int("returned", len(hits)),
		zap.Int("filtered", len(filtered)),
		zap.Int("selected", sel.len()),
		zap.Bool("met", met),
	)
	return met
}

// fallback tops up the selection with random unseen candidates. A sampler
// failure degrades to a partial result unless nothing was selected at all.
func (s *Service) fallback(ctx context.Context, q Query, sel *selection, res *outcome.Result) error {
	need := q.TargetCount - sel.len()
	exclude := sel.exclusion()

	qctx, cancel := context.WithTimeout(ctx, s.policy.QueryTimeout())
	defer cancel()

	ids, err := s.sampler.SampleUnseen(qctx, q.Kind, exclude, need)
	if err != nil {
		metrics.RetrievalFallbackTotal.WithLabelValues(string(q.Kind), "error").Inc()
		stageErr := &outcome.StageError{
			Stage: outcome.StageSampler,
			Err:   fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err),
		}
		if sel.len() == 0 {
			return stageErr
		}
		res.Status = outcome.StatusPartial
		res.FallbackErr = stageErr
		return nil
	}
	metrics.RetrievalFallbackTotal.WithLabelValues(string(q.Kind), "ok").Inc()

	for _, id := range ids {
		if sel.len() == q.TargetCount {
			break
		}
		if exclude.Contains(id) {
			continue
		}
		sel.appendFallback(id)
	}

	if sel.len() == q.TargetCount {
		res.Status = outcome.StatusComplete
	} else {
		res.Status = outcome.StatusExhausted
	}
	return nil
}

func (s *Service) observe(q Query, res outcome.Result, err error, elapsed time.Duration) {
	kind := string(q.Kind)
	metrics.RetrievalDuration.WithLabelValues(kind).Observe(elapsed.Seconds())

	if err != nil {
		stage := "unknown"
		if se, ok := asStageError(err); ok {
			stage = string(se.Stage)
		}
		metrics.RetrievalStageErrorsTotal.WithLabelValues(kind, stage).Inc()
		metrics.RetrievalOutcomesTotal.WithLabelValues(kind, "error").Inc()
		s.logger.Warn("Retrieval failed",
			zap.String("kind", kind),
			zap.String("actor", string(q.Actor)),
			zap.String("stage", stage),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
		return
	}

	metrics.RetrievalAttempts.WithLabelValues(kind).Observe(float64(len(res.Attempts)))
	metrics.RetrievalOutcomesTotal.WithLabelValues(kind, string(res.Status)).Inc()

	fields := []zap.Field{
		zap.String("kind", kind),
		zap.String("actor", string(q.Actor)),
		zap.Int("target", q.TargetCount),
		zap.Int("returned", len(res.Items)),
		zap.Int("attempts", len(res.Attempts)),
		zap.Bool("fallback", res.FallbackUsed()),
		zap.String("status", string(res.Status)),
		zap.Duration("duration", elapsed),
	}
	if res.FallbackErr != nil {
		fields = append(fields, zap.NamedError("fallback_error", res.FallbackErr))
	}
	s.logger.Info("Retrieval completed", fields...)
}
