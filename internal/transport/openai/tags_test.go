package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/matchdex/internal/domain"
)

func chatServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "deepseek-chat" || len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("unexpected request: %+v", req)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"upstream overloaded","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "deepseek-chat",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
			"usage": map[string]int{"prompt_tokens": 30, "completion_tokens": 6, "total_tokens": 36},
		})
	}))
}

func newTestExtractor(url string, maxTags int) *TagExtractor {
	return NewTagExtractor(&TagConfig{
		APIKey: "k", BaseURL: url, Model: "deepseek-chat", MaxTags: maxTags, Logger: zap.NewNop(),
	})
}

func TestTagExtractor_Extract(t *testing.T) {
	server := chatServer(t, http.StatusOK, "Hiking, photography，hiking、 Coffee")
	defer server.Close()

	ctx, usage := domain.WithRequestUsage(context.Background())
	tags, err := newTestExtractor(server.URL, 5).Extract(ctx, "someone outdoorsy who shoots film")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"hiking", "photography", "coffee"}; !slices.Equal(tags, want) {
		t.Errorf("tags = %v, want %v", tags, want)
	}
	if usage.LLMTokens() != 36 {
		t.Errorf("expected 36 llm tokens, got %d", usage.LLMTokens())
	}
}

func TestTagExtractor_EmptyReplyFallsBackToQuery(t *testing.T) {
	server := chatServer(t, http.StatusOK, "  ")
	defer server.Close()

	tags, err := newTestExtractor(server.URL, 5).Extract(context.Background(), "  rust meetups ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(tags, []string{"rust meetups"}) {
		t.Errorf("tags = %v", tags)
	}
}

func TestTagExtractor_APIError(t *testing.T) {
	server := chatServer(t, http.StatusServiceUnavailable, "")
	defer server.Close()

	_, err := newTestExtractor(server.URL, 5).Extract(context.Background(), "q")
	if !errors.Is(err, domain.ErrTagExtractionFailed) {
		t.Fatalf("expected ErrTagExtractionFailed, got %v", err)
	}
}

func TestParseTags(t *testing.T) {
	tests := []struct {
		reply string
		limit int
		want  []string
	}{
		{"a, b, c", 5, []string{"a", "b", "c"}},
		{"1. Go\n2. Rust\n3) Web3", 5, []string{"go", "rust", "web3"}},
		{"- \"climbing\"; - 'Jazz'", 5, []string{"climbing", "jazz"}},
		{"a, b, c, d", 2, []string{"a", "b"}},
		{"徒步、摄影，咖啡", 5, []string{"徒步", "摄影", "咖啡"}},
		{"ok, " + strings.Repeat("x", maxTagLength+1), 5, []string{"ok"}},
		{"", 5, []string{}},
	}
	for _, tc := range tests {
		if got := ParseTags(tc.reply, tc.limit); !slices.Equal(got, tc.want) {
			t.Errorf("ParseTags(%q, %d) = %v, want %v", tc.reply, tc.limit, got, tc.want)
		}
	}
}
