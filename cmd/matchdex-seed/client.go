package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/matchdex/internal/domain/profile"
	chiTransport "github.com/kailas-cloud/matchdex/internal/transport/chi"
)

const (
	maxAttempts    = 4
	initialBackoff = 250 * time.Millisecond
)

// apiError is a non-2xx answer from the API.
type apiError struct {
	Status  int
	Code    chiTransport.ErrorCode
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("api %d %s: %s", e.Status, e.Code, e.Message)
}

// retryable reports whether the same request may succeed later.
func (e *apiError) retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= http.StatusInternalServerError
}

// apiClient upserts candidates through PUT /candidates/{kind}/{id}.
type apiClient struct {
	baseURL string
	token   string
	actor   string
	http    *http.Client
	backoff time.Duration
}

func newAPIClient(baseURL, token, actor string) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		actor:   actor,
		http:    &http.Client{Timeout: 60 * time.Second},
		backoff: initialBackoff,
	}
}

// Upsert stores p, retrying rate limits and upstream failures with
// exponential backoff. Returns embedding tokens spent on the final attempt.
func (c *apiClient) Upsert(ctx context.Context, p *profile.Profile) (int, error) {
	body, err := json.Marshal(chiTransport.UpsertCandidateRequest{
		DisplayName: p.DisplayName(),
		Headline:    p.Headline(),
		Bio:         p.Bio(),
		Tags:        p.Tags(),
		AvatarURL:   p.AvatarURL(),
		Attributes:  p.Attributes(),
	})
	if err != nil {
		return 0, fmt.Errorf("marshal %s: %w", p.ID(), err)
	}
	endpoint := c.baseURL + "/candidates/" + url.PathEscape(string(p.Kind())) + "/" + url.PathEscape(string(p.ID()))

	wait := c.backoff
	for attempt := 1; ; attempt++ {
		tokens, err := c.put(ctx, endpoint, body)
		if err == nil {
			return tokens, nil
		}
		var apiErr *apiError
		if !errors.As(err, &apiErr) || !apiErr.retryable() || attempt == maxAttempts {
			return 0, err
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
}

func (c *apiClient) put(ctx context.Context, endpoint string, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	} else {
		req.Header.Set(chiTransport.ActorHeader, c.actor)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("put %s: %w", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode/100 != 2 {
		var er chiTransport.ErrorResponse
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		if json.Unmarshal(raw, &er) != nil {
			er.Message = strings.TrimSpace(string(raw))
		}
		return 0, &apiError{Status: resp.StatusCode, Code: er.Code, Message: er.Message}
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	tokens, _ := strconv.Atoi(resp.Header.Get("X-Embedding-Tokens"))
	return tokens, nil
}
