package chi

import (
	"time"

	"github.com/kailas-cloud/matchdex/internal/domain/profile"
	domswipe "github.com/kailas-cloud/matchdex/internal/domain/swipe"
)

// ErrorCode is the machine-readable code in an error response.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest             ErrorCode = "bad_request"
	ErrorCodeValidationFailed       ErrorCode = "validation_failed"
	ErrorCodeUnauthorized           ErrorCode = "unauthorized"
	ErrorCodeNotFound               ErrorCode = "not_found"
	ErrorCodeVectorDimMismatch      ErrorCode = "vector_dim_mismatch"
	ErrorCodeProfileVectorMissing   ErrorCode = "profile_vector_missing"
	ErrorCodeRateLimited            ErrorCode = "rate_limited"
	ErrorCodeEmbeddingProviderError ErrorCode = "embedding_provider_error"
	ErrorCodeTagExtractionFailed    ErrorCode = "tag_extraction_failed"
	ErrorCodeUpstreamUnavailable    ErrorCode = "upstream_unavailable"
	ErrorCodeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// CardResponse is one hydrated candidate.
type CardResponse struct {
	ID          string            `json:"id"`
	Kind        string            `json:"kind"`
	DisplayName string            `json:"display_name"`
	Headline    string            `json:"headline,omitempty"`
	Bio         string            `json:"bio,omitempty"`
	Tags        []string          `json:"tags"`
	AvatarURL   string            `json:"avatar_url,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	Score       float64           `json:"score"`
	Source      string            `json:"source"`
}

// CardsResponse is the body of GET /recommendations/cards.
type CardsResponse struct {
	Cards   []CardResponse `json:"cards"`
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
}

// SearchQueryRequest is the body of POST /search/query.
type SearchQueryRequest struct {
	Query string `json:"query"`
	Kind  string `json:"kind,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// SearchQueryResponse is the body returned by POST /search/query.
type SearchQueryResponse struct {
	Query         string         `json:"query"`
	ExtractedTags []string       `json:"extracted_tags"`
	Results       []CardResponse `json:"results"`
	Status        string         `json:"status"`
	Message       string         `json:"message,omitempty"`
}

// UpsertCandidateRequest is the body of PUT /candidates/{kind}/{id}.
type UpsertCandidateRequest struct {
	DisplayName string            `json:"display_name"`
	Headline    string            `json:"headline"`
	Bio         string            `json:"bio"`
	Tags        []string          `json:"tags"`
	AvatarURL   string            `json:"avatar_url"`
	Attributes  map[string]string `json:"attributes"`
}

// CandidateResponse echoes a stored candidate.
type CandidateResponse struct {
	ID          string   `json:"id"`
	Kind        string   `json:"kind"`
	DisplayName string   `json:"display_name"`
	Tags        []string `json:"tags"`
}

// SwipeRequest is the body of POST /swipes.
type SwipeRequest struct {
	TargetID  string `json:"target_id"`
	Kind      string `json:"kind,omitempty"`
	Direction string `json:"direction"`
}

// SwipeResponse echoes a recorded swipe.
type SwipeResponse struct {
	ActorID   string    `json:"actor_id"`
	TargetID  string    `json:"target_id"`
	Kind      string    `json:"kind"`
	Direction string    `json:"direction"`
	CreatedAt time.Time `json:"created_at"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks"`
}

func cardsToResponse(cards []profile.Card) []CardResponse {
	out := make([]CardResponse, len(cards))
	for i := range cards {
		p := &cards[i].Profile
		tags := p.Tags()
		if tags == nil {
			tags = []string{}
		}
		out[i] = CardResponse{
			ID:          string(p.ID()),
			Kind:        string(p.Kind()),
			DisplayName: p.DisplayName(),
			Headline:    p.Headline(),
			Bio:         p.Bio(),
			Tags:        tags,
			AvatarURL:   p.AvatarURL(),
			Attributes:  p.Attributes(),
			Score:       cards[i].Score,
			Source:      string(cards[i].Source),
		}
	}
	return out
}

func candidateToResponse(p *profile.Profile) CandidateResponse {
	tags := p.Tags()
	if tags == nil {
		tags = []string{}
	}
	return CandidateResponse{
		ID:          string(p.ID()),
		Kind:        string(p.Kind()),
		DisplayName: p.DisplayName(),
		Tags:        tags,
	}
}

func swipeToResponse(sw *domswipe.Swipe) SwipeResponse {
	return SwipeResponse{
		ActorID:   string(sw.Actor()),
		TargetID:  string(sw.Target()),
		Kind:      string(sw.Kind()),
		Direction: string(sw.Direction()),
		CreatedAt: sw.At().UTC(),
	}
}
