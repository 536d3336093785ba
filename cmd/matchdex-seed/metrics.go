// Prometheus metrics for the seed loader: progress, upsert latency, pool sizes.
package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	dbRedis "github.com/kailas-cloud/matchdex/internal/db/redis"
	"github.com/kailas-cloud/matchdex/internal/domain/candidate"
	"github.com/kailas-cloud/matchdex/internal/repository/keyspace"
)

type seedMetrics struct {
	rowsProcessed   *prometheus.CounterVec
	rowsFailed      *prometheus.CounterVec
	upsertDuration  *prometheus.HistogramVec
	embeddingTokens prometheus.Counter
	cursorPosition  prometheus.Gauge
	population      *prometheus.GaugeVec
}

func newSeedMetrics(reg prometheus.Registerer) *seedMetrics {
	m := &seedMetrics{
		rowsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matchdex_seed",
			Name:      "rows_processed_total",
			Help:      "Profiles successfully upserted",
		}, []string{"kind"}),

		rowsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matchdex_seed",
			Name:      "rows_failed_total",
			Help:      "Profiles that were rejected or failed to upsert",
		}, []string{"kind", "reason"}),

		upsertDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "matchdex_seed",
			Name:      "upsert_duration_seconds",
			Help:      "Upsert latency including retries",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"kind"}),

		embeddingTokens: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "matchdex_seed",
			Name:      "embedding_tokens_total",
			Help:      "Embedding tokens reported by the API",
		}),

		cursorPosition: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "matchdex_seed",
			Name:      "cursor_position",
			Help:      "Last input line handed to workers",
		}),

		population: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "matchdex_seed",
			Name:      "population_size",
			Help:      "Candidates in the fallback population set",
		}, []string{"kind"}),
	}

	reg.MustRegister(
		m.rowsProcessed, m.rowsFailed,
		m.upsertDuration, m.embeddingTokens,
		m.cursorPosition, m.population,
	)

	return m
}

// serveMetrics starts an HTTP server for Prometheus scrapes of reg.
func serveMetrics(port string, reg *prometheus.Registry, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Metrics server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Metrics server error", zap.Error(err))
		}
	}()

	return srv
}

type setCounter interface {
	SCard(ctx context.Context, key string) (int64, error)
}

// populationPoller periodically reads the per-kind population sets.
type populationPoller struct {
	store    setCounter
	close    func()
	metrics  *seedMetrics
	interval time.Duration
	logger   *zap.Logger
}

func newPopulationPoller(
	addr, password string,
	m *seedMetrics,
	interval time.Duration,
	logger *zap.Logger,
) (*populationPoller, error) {
	store, err := dbRedis.NewStore(dbRedis.Config{Addrs: []string{addr}, Password: password})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", addr, err)
	}
	return &populationPoller{
		store:    store,
		close:    store.Close,
		metrics:  m,
		interval: interval,
		logger:   logger,
	}, nil
}

// Start polls in the background until ctx is done.
func (p *populationPoller) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		p.poll(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.poll(ctx)
			}
		}
	}()
}

func (p *populationPoller) poll(ctx context.Context) {
	for _, kind := range candidate.Kinds() {
		n, err := p.store.SCard(ctx, keyspace.PopulationKey(kind))
		if err != nil {
			p.logger.Debug("Population poll failed", zap.String("kind", string(kind)), zap.Error(err))
			continue
		}
		p.metrics.population.WithLabelValues(string(kind)).Set(float64(n))
	}
}

func (p *populationPoller) Close() {
	if p.close != nil {
		p.close()
	}
}
