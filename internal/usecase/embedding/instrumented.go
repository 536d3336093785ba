// Package embedding holds the service-side embedding decorators.
package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/matchdex/internal/domain"
)

// Purpose tells profile embeddings apart from search query embeddings.
type Purpose string

// Embedding purposes.
const (
	PurposeDocument Purpose = "document"
	PurposeQuery    Purpose = "query"
)

// Labels identify an embedder chain in logs and metrics.
type Labels struct {
	Provider string
	Model    string
	Purpose  Purpose
}

// InstrumentedEmbedder charges tokens to the request and counts calls by
// purpose. Provider-level metrics live in transport/openai.
type InstrumentedEmbedder struct {
	inner  domain.Embedder
	labels Labels
	calls  *prometheus.CounterVec
	logger *zap.Logger
}

// NewInstrumentedEmbedder wraps inner. calls is labelled by purpose and
// status and may be nil.
func NewInstrumentedEmbedder(inner domain.Embedder, labels Labels, calls *prometheus.CounterVec, logger *zap.Logger) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{
		inner:  inner,
		labels: labels,
		calls:  calls,
		logger: logger.With(
			zap.String("provider", labels.Provider),
			zap.String("model", labels.Model),
			zap.String("purpose", string(labels.Purpose)),
		),
	}
}

// Embed delegates to the inner embedder.
func (p *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	start := time.Now()
	result, err := p.inner.Embed(ctx, text)
	duration := time.Since(start)

	if err != nil {
		p.count("error")
		p.logger.Error("Embedding failed",
			zap.Duration("duration", duration),
			zap.Int("text_len", len(text)),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed %s: %w", p.labels.Purpose, err)
	}

	p.count("ok")
	domain.RequestUsageFrom(ctx).AddEmbeddingTokens(result.TotalTokens)

	if ce := p.logger.Check(zap.DebugLevel, "Embedding completed"); ce != nil {
		ce.Write(
			zap.Duration("duration", duration),
			zap.Int("dimensions", len(result.Embedding)),
			zap.Int("total_tokens", result.TotalTokens),
			zap.Bool("cached", result.TotalTokens == 0),
		)
	}
	return result, nil
}

// HealthCheck forwards to the inner embedder when it supports health checks.
func (p *InstrumentedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := p.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}

func (p *InstrumentedEmbedder) count(status string) {
	if p.calls != nil {
		p.calls.WithLabelValues(string(p.labels.Purpose), status).Inc()
	}
}
