package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	"github.com/kailas-cloud/matchdex/internal/domain"
	"github.com/kailas-cloud/matchdex/internal/domain/candidate"
	"github.com/kailas-cloud/matchdex/internal/domain/profile"
	domswipe "github.com/kailas-cloud/matchdex/internal/domain/swipe"
	logpkg "github.com/kailas-cloud/matchdex/internal/logger"
	"github.com/kailas-cloud/matchdex/internal/metrics"
	healthuc "github.com/kailas-cloud/matchdex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/matchdex/internal/usecase/search"
	"github.com/kailas-cloud/matchdex/internal/version"
)

const maxBodyBytes = 1 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the matchdex HTTP API.
type Server struct {
	feed          FeedService
	search        SearchService
	indexing      IndexingService
	swipes        SwipeService
	health        HealthService
	limiter       *ActorLimiter
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	feed FeedService,
	search SearchService,
	indexing IndexingService,
	swipes SwipeService,
	health HealthService,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		feed:     feed,
		search:   search,
		indexing: indexing,
		swipes:   swipes,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest, ErrorCodeVectorDimMismatch),
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeNotFound),
		sentinelHandler(domain.ErrProfileVectorMissing, http.StatusConflict, ErrorCodeProfileVectorMissing),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, ErrorCodeRateLimited),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, ErrorCodeEmbeddingProviderError),
		sentinelHandler(domain.ErrTagExtractionFailed, http.StatusBadGateway, ErrorCodeTagExtractionFailed),
		sentinelHandler(domain.ErrUpstreamUnavailable,
			http.StatusInternalServerError, ErrorCodeUpstreamUnavailable),
	}
	return s
}

// WithRateLimiter puts a per-actor limiter in front of AI search.
func (s *Server) WithRateLimiter(l *ActorLimiter) *Server {
	s.limiter = l
	return s
}

// Routes registers every endpoint on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Get("/recommendations/cards", s.GetCards)
	r.With(s.limiter.Middleware()).Post("/search/query", s.SearchQuery)
	r.Put("/candidates/{kind}/{id}", s.UpsertCandidate)
	r.Delete("/candidates/{kind}/{id}", s.DeleteCandidate)
	r.Post("/swipes", s.RecordSwipe)
}

// GetCards handles GET /recommendations/cards.
func (s *Server) GetCards(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	var params struct {
		Kind  *string
		Limit *int
	}
	if err := runtime.BindQueryParameter("form", true, false, "kind", r.URL.Query(), &params.Kind); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid format for parameter kind")
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &params.Limit); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid format for parameter limit")
		return
	}

	kind, err := candidate.ParseKind(deref(params.Kind))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}
	limit := 0
	if params.Limit != nil {
		if *params.Limit <= 0 {
			writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "limit must be positive")
			return
		}
		limit = *params.Limit
	}

	page, err := s.feed.Cards(r.Context(), kind, actor, limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, CardsResponse{
		Cards:   cardsToResponse(page.Cards),
		Status:  string(page.Status),
		Message: page.Message,
	})
}

// SearchQuery handles POST /search/query.
func (s *Server) SearchQuery(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	var req SearchQueryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	kind, err := candidate.ParseKind(req.Kind)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}
	if req.Limit < 0 {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "limit must be positive")
		return
	}

	ctx, usage := domain.WithRequestUsage(r.Context())
	resp, err := s.search.Search(ctx, searchuc.Request{
		Query: req.Query,
		Kind:  kind,
		Actor: actor,
		Limit: req.Limit,
	})
	setUsageHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	tags := resp.Tags
	if tags == nil {
		tags = []string{}
	}
	writeJSON(w, http.StatusOK, SearchQueryResponse{
		Query:         resp.Query,
		ExtractedTags: tags,
		Results:       cardsToResponse(resp.Cards),
		Status:        string(resp.Status),
		Message:       resp.Message,
	})
}

// UpsertCandidate handles PUT /candidates/{kind}/{id}.
func (s *Server) UpsertCandidate(w http.ResponseWriter, r *http.Request) {
	kind, id, ok := candidatePath(w, r)
	if !ok {
		return
	}

	var req UpsertCandidateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p, err := profile.New(id, kind, req.DisplayName, req.Headline, req.Bio, req.Tags, req.AvatarURL, req.Attributes)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	ctx, usage := domain.WithRequestUsage(r.Context())
	err = s.indexing.Upsert(ctx, p)
	setUsageHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, candidateToResponse(&p))
}

// DeleteCandidate handles DELETE /candidates/{kind}/{id}.
func (s *Server) DeleteCandidate(w http.ResponseWriter, r *http.Request) {
	kind, id, ok := candidatePath(w, r)
	if !ok {
		return
	}
	if err := s.indexing.Delete(r.Context(), kind, id); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RecordSwipe handles POST /swipes.
func (s *Server) RecordSwipe(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	var req SwipeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	kind, err := candidate.ParseKind(req.Kind)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}
	target, err := candidate.ParseID(req.TargetID)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	sw, err := s.swipes.Record(r.Context(), actor, target, kind, domswipe.Direction(req.Direction))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, swipeToResponse(&sw))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, HealthResponse{
		Status:  string(report.Status),
		Version: version.String(),
		Checks:  checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	metrics.Handler().ServeHTTP(w, r)
}

func (s *Server) requireActor(w http.ResponseWriter, r *http.Request) (candidate.ID, bool) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, "missing or invalid actor")
	}
	return actor, ok
}

func candidatePath(w http.ResponseWriter, r *http.Request) (candidate.Kind, candidate.ID, bool) {
	kind, err := candidate.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return "", "", false
	}
	id, err := candidate.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return "", "", false
	}
	return kind, id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func setUsageHeaders(w http.ResponseWriter, usage *domain.RequestUsage) {
	if tokens, used := usage.EmbeddingTokens(); used {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(tokens))
	}
	if tokens := usage.LLMTokens(); tokens > 0 {
		w.Header().Set("X-LLM-Tokens", strconv.Itoa(tokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrVectorDimMismatch,
		domain.ErrInvalidInput,
		domain.ErrNotFound,
		domain.ErrProfileVectorMissing,
		domain.ErrRateLimited,
		domain.ErrEmbeddingProviderError,
		domain.ErrTagExtractionFailed,
		domain.ErrUpstreamUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContextOr(r.Context(), s.logger)
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
