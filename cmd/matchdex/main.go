package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/matchdex/internal/config"
	"github.com/kailas-cloud/matchdex/internal/db"
	"github.com/kailas-cloud/matchdex/internal/domain"
	logpkg "github.com/kailas-cloud/matchdex/internal/logger"
	"github.com/kailas-cloud/matchdex/internal/metrics"
	"github.com/kailas-cloud/matchdex/internal/repository/embcache"
	chiTransport "github.com/kailas-cloud/matchdex/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/matchdex/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/matchdex/internal/usecase/embedding"
	feeduc "github.com/kailas-cloud/matchdex/internal/usecase/feed"
	healthuc "github.com/kailas-cloud/matchdex/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/matchdex/internal/usecase/indexing"
	retrievaluc "github.com/kailas-cloud/matchdex/internal/usecase/retrieval"
	searchuc "github.com/kailas-cloud/matchdex/internal/usecase/search"
	swipeuc "github.com/kailas-cloud/matchdex/internal/usecase/swipe"
	"github.com/kailas-cloud/matchdex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, "matchdex-api", cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting matchdex API server",
		zap.String("version", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	vecCfg, _, ok := cfg.Vectorizer()
	if !ok {
		logger.Fatal("No embedding vectorizer configured")
	}
	vectorDim := vecCfg.Dimensions

	pol, err := cfg.Retrieval.Policy()
	if err != nil {
		logger.Fatal("Invalid retrieval policy", zap.Error(err))
	}

	ctx := context.Background()
	backend, err := openBackend(ctx, &cfg, vectorDim, logger)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer backend.close()
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterHTTPMetrics()
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterRetrievalMetrics()

	// Build embedder chain: composition root
	docEmbedder := buildEmbedder(embeddinguc.PurposeDocument, vecCfg.DocumentInstruction, cfg, backend.cache, logger)
	queryEmbedder := buildEmbedder(embeddinguc.PurposeQuery, vecCfg.QueryInstruction, cfg, backend.cache, logger)
	logger.Info("Embedders created",
		zap.String("provider", vecCfg.Provider),
		zap.String("model", vecCfg.Model),
		zap.Int("dimensions", vectorDim),
	)

	tagExtractor := openaiTransport.NewTagExtractor(&openaiTransport.TagConfig{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		MaxTags: cfg.LLM.MaxTags,
		Timeout: time.Duration(cfg.LLM.TimeoutSec) * time.Second,
		Logger:  logger,
	})

	// Create use case services
	retrieval := retrievaluc.New(
		backend.index, backend.history, backend.sampler, pol, vectorDim, logger.Named("retrieval"),
	)

	// Pass nil interface (not typed nil pointer!) when marking is disabled.
	var marker feeduc.ShownMarker
	if cfg.Retrieval.MarkShownEnabled() {
		marker = backend.history
	}
	feedSvc := feeduc.New(backend.profiles, retrieval, backend.profiles, marker, pol.TargetCount(), logger)
	searchSvc := searchuc.New(tagExtractor, queryEmbedder, retrieval, backend.profiles, pol.TargetCount())
	indexingSvc := indexinguc.New(backend.profiles, backend.population, docEmbedder, vectorDim)
	swipeSvc := swipeuc.New(backend.history)
	healthSvc := healthuc.New(backend.pinger, newEmbeddingHealthChecker(docEmbedder), tagExtractor)

	logger.Info("Retrieval policy",
		zap.Ints("search_sizes", pol.SearchSizes()),
		zap.Int("target_count", pol.TargetCount()),
		zap.Duration("query_timeout", pol.QueryTimeout()),
		zap.Bool("speculative", pol.Speculative()),
		zap.Bool("mark_shown", marker != nil),
	)

	// Create chi server
	server := chiTransport.NewServer(feedSvc, searchSvc, indexingSvc, swipeSvc, healthSvc, logger).
		WithRateLimiter(chiTransport.NewActorLimiter(chiTransport.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.SearchPerSecond,
			BurstSize:         cfg.RateLimit.SearchBurst,
		}))
	if cfg.Auth.JWTSecret == "" {
		logger.Warn("JWT secret is empty: actor is taken from the " + chiTransport.ActorHeader + " header")
	}

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.JWTAuthMiddleware(chiTransport.AuthConfig{
		Secret: cfg.Auth.JWTSecret,
		Issuer: cfg.Auth.Issuer,
	}))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// embeddingHealthChecker wraps domain.Embedder to implement health.ProviderChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Instruction
func buildEmbedder(
	purpose embeddinguc.Purpose,
	instruction string,
	cfg config.Config,
	cache db.KVStore,
	logger *zap.Logger,
) domain.Embedder {
	vecCfg, provCfg, _ := cfg.Vectorizer()

	// Base provider (with transport metrics built-in)
	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     provCfg.APIKey,
		BaseURL:    provCfg.BaseURL,
		Model:      vecCfg.Model,
		Dimensions: vecCfg.Dimensions,
		Provider:   vecCfg.Provider,
		Logger:     logger,
	})

	// Cached (valkey/redis only). The key covers the full instructed text,
	// so document and query chains never collide.
	var embedder domain.Embedder = base
	if cache != nil {
		embedder = embcache.New(base, cache, embcache.Config{
			Model:      vecCfg.Model,
			Dimensions: vecCfg.Dimensions,
			TTL:        time.Duration(cfg.Embedding.CacheTTLSec) * time.Second,
		}, metrics.EmbeddingCacheTotal, logger)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, embeddinguc.Labels{
		Provider: vecCfg.Provider,
		Model:    vecCfg.Model,
		Purpose:  purpose,
	}, metrics.EmbeddingCallsTotal, logger)

	// Instruction prefix (outermost: cache key includes instruction)
	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction)
	}

	return embedder
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int("response_bytes", ww.BytesWritten()),
			}
			if tokens := ww.Header().Get("X-Embedding-Tokens"); tokens != "" {
				fields = append(fields, zap.String("embedding_tokens", tokens))
			}
			if tokens := ww.Header().Get("X-LLM-Tokens"); tokens != "" {
				fields = append(fields, zap.String("llm_tokens", tokens))
			}
			// Canonical log line: one line per request
			reqLogger.Info("http_request", fields...)
		})
	}
}
