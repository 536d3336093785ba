package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/matchdex/internal/config"
	"github.com/kailas-cloud/matchdex/internal/db"
	"github.com/kailas-cloud/matchdex/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/matchdex/internal/db/redis"
	"github.com/kailas-cloud/matchdex/internal/repository/candidateindex"
	historyrepo "github.com/kailas-cloud/matchdex/internal/repository/history"
	profilerepo "github.com/kailas-cloud/matchdex/internal/repository/profile"
	samplerrepo "github.com/kailas-cloud/matchdex/internal/repository/sampler"
	"github.com/kailas-cloud/matchdex/internal/repository/vectorindex"
	feeduc "github.com/kailas-cloud/matchdex/internal/usecase/feed"
	healthuc "github.com/kailas-cloud/matchdex/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/matchdex/internal/usecase/indexing"
	retrievaluc "github.com/kailas-cloud/matchdex/internal/usecase/retrieval"
	swipeuc "github.com/kailas-cloud/matchdex/internal/usecase/swipe"
)

// profileStore is everything the services need from candidate storage.
type profileStore interface {
	feeduc.VectorReader
	feeduc.ProfileStore
	indexinguc.ProfileWriter
}

// interactionStore is both sides of interaction history.
type interactionStore interface {
	retrievaluc.InteractionHistory
	feeduc.ShownMarker
	swipeuc.Recorder
}

// backend holds the storage implementations selected by database.driver.
type backend struct {
	pinger     healthuc.DBPinger
	index      retrievaluc.VectorIndex
	history    interactionStore
	sampler    retrievaluc.FallbackSampler
	profiles   profileStore
	population indexinguc.Population // nil on postgres
	cache      db.KVStore            // nil on postgres
	close      func()
}

func openBackend(ctx context.Context, cfg *config.Config, dim int, logger *zap.Logger) (*backend, error) {
	readyTimeout := time.Duration(cfg.Database.ReadinessTimeout) * time.Second

	switch cfg.Database.Driver {
	case config.DriverValkey, config.DriverRedis:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("create %s store: %w", cfg.Database.Driver, err)
		}
		if err := store.WaitForReady(ctx, readyTimeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("wait for %s: %w", cfg.Database.Driver, err)
		}

		indexes := candidateindex.New(store, dim).WithHNSW(db.HNSW{
			M:           cfg.Index.HNSWM,
			EFConstruct: cfg.Index.HNSWEFConstruct,
		})
		if err := indexes.EnsureIndexes(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("ensure candidate indexes: %w", err)
		}
		logger.Info("Candidate indexes ready", zap.Int("dimensions", dim))

		sampler := samplerrepo.New(store)
		return &backend{
			pinger:     store,
			index:      vectorindex.New(store),
			history:    historyrepo.New(store),
			sampler:    sampler,
			profiles:   profilerepo.New(store),
			population: sampler,
			cache:      store,
			close:      store.Close,
		}, nil

	case config.DriverPostgres:
		pg, err := postgres.Open(postgres.Config{
			DSN:          cfg.Database.DSN,
			MaxOpenConns: cfg.Database.MaxOpenConns,
			MaxIdleConns: cfg.Database.MaxOpenConns / 2,
		})
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := pg.WaitForReady(ctx, readyTimeout); err != nil {
			pg.Close()
			return nil, fmt.Errorf("wait for %s: %w", cfg.Database.Driver, err)
		}
		if err := pg.EnsureSchema(ctx, dim); err != nil {
			pg.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		logger.Info("Postgres schema ready", zap.Int("dimensions", dim))

		// population and cache stay nil interfaces: the sampler reads the
		// candidate table directly and embeddings are not cached.
		return &backend{
			pinger:   pg,
			index:    pg,
			history:  pg,
			sampler:  pg,
			profiles: pg,
			close:    pg.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
}
