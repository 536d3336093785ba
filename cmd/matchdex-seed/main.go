// Command matchdex-seed bulk loads candidate profiles into a running matchdex API.
//
// Input is JSON Lines, one profile per line:
//
//	{"id":"u42","kind":"user","display_name":"Ann","bio":"...","tags":["go","climbing"]}
//
// Usage:
//
//	matchdex-seed -input profiles.jsonl -api http://localhost:8080 -workers 8
//
// Env vars:
//
//	MATCHDEX_TOKEN   bearer token sent to the API (empty: X-Actor-ID header mode)
//	VALKEY_ADDR      optional, enables population gauges
//	VALKEY_PASSWORD  Valkey password
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	logpkg "github.com/kailas-cloud/matchdex/internal/logger"
	"github.com/kailas-cloud/matchdex/internal/version"
)

func main() {
	cfg := parseFlags()

	logger, err := logpkg.NewLogger(env("ENV", "local"), "matchdex-seed", cfg.logLevel)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(
		context.Background(), syscall.SIGTERM, syscall.SIGINT,
	)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		cancel()
		logger.Fatal("Seed failed", zap.Error(err))
	}
}

type config struct {
	input          string
	apiURL         string
	actor          string
	dataDir        string
	maxRows        int
	workers        int
	metricsPort    string
	cursorInterval int
	reset          bool
	logLevel       string
}

func parseFlags() config {
	cfg := config{}
	flag.StringVar(&cfg.input, "input", "profiles.jsonl", "JSON Lines file with candidate profiles")
	flag.StringVar(&cfg.apiURL, "api", "http://localhost:8080", "matchdex API base URL")
	flag.StringVar(&cfg.actor, "actor", "seed", "actor id sent in header mode")
	flag.StringVar(&cfg.dataDir, "data-dir", ".", "directory for the resume cursor")
	flag.IntVar(&cfg.maxRows, "max-rows", 0, "max profiles to load (0=unlimited)")
	flag.IntVar(&cfg.workers, "workers", 8, "number of parallel upsert workers")
	flag.StringVar(&cfg.metricsPort, "metrics-port", "9091", "Prometheus metrics port (empty=off)")
	flag.IntVar(&cfg.cursorInterval, "cursor-interval", 1000, "save cursor every N rows")
	flag.BoolVar(&cfg.reset, "reset", false, "reset cursor and start from scratch")
	flag.StringVar(&cfg.logLevel, "log-level", "", "debug, info, warn, error")
	flag.Parse()
	return cfg
}

func run(ctx context.Context, cfg config, logger *zap.Logger) error {
	start := time.Now()
	logger.Info("Starting matchdex seed",
		zap.String("version", version.String()),
		zap.String("input", cfg.input),
		zap.String("api", cfg.apiURL),
		zap.Int("workers", cfg.workers),
	)

	reg := prometheus.NewRegistry()
	m := newSeedMetrics(reg)
	if cfg.metricsPort != "" {
		srv := serveMetrics(cfg.metricsPort, reg, logger)
		defer func() {
			shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutCancel()
			_ = srv.Shutdown(shutCtx)
		}()
	}

	cursor, err := newCursorTracker(cfg.dataDir, cfg.cursorInterval, logger)
	if err != nil {
		return fmt.Errorf("cursor: %w", err)
	}
	if cfg.reset {
		cursor.Reset()
		logger.Info("Cursor reset, starting from scratch")
	}
	if cursor.Get().Stage == stageDone {
		logger.Info("Cursor says the input is already loaded, use -reset to reload")
		return nil
	}

	if addr := os.Getenv("VALKEY_ADDR"); addr != "" {
		poller, err := newPopulationPoller(addr, os.Getenv("VALKEY_PASSWORD"), m, 15*time.Second, logger)
		if err != nil {
			logger.Warn("Population gauges disabled", zap.Error(err))
		} else {
			defer poller.Close()
			poller.Start(ctx)
		}
	}

	reader, err := openProfileReader(cfg.input)
	if err != nil {
		return err
	}
	defer func() { _ = reader.Close() }()

	ing := &ingester{
		api:     newAPIClient(cfg.apiURL, os.Getenv("MATCHDEX_TOKEN"), cfg.actor),
		workers: cfg.workers,
		metrics: m,
		cursor:  cursor,
		logger:  logger,
	}

	cursor.SetStage(stageProfiles)
	result, err := ing.Run(ctx, reader, cfg.maxRows)
	cursor.Save()
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	if ctx.Err() != nil {
		logger.Warn("Interrupted, progress saved",
			zap.Int64("processed", result.Processed),
			zap.Int64("failed", result.Failed),
		)
		return nil
	}

	if cfg.maxRows == 0 {
		cursor.Done()
	}
	logger.Info("Seed complete",
		zap.Int64("processed", result.Processed),
		zap.Int64("failed", result.Failed),
		zap.Int64("invalid", result.Invalid),
		zap.Int64("embedding_tokens", result.EmbeddingTokens),
		zap.Duration("ingest", result.Duration),
		zap.Duration("total", time.Since(start)),
	)
	return nil
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
