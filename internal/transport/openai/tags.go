package openai

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/matchdex/internal/domain"
	"github.com/kailas-cloud/matchdex/internal/metrics"
)

const (
	defaultMaxTags     = 5
	defaultTagTimeout  = 15 * time.Second
	maxTagLength       = 32
	tagCompletionLimit = 64
)

const tagSystemPrompt = "You turn a person's search for people or projects into interest tags. " +
	"Reply with at most %d short tags separated by commas, in the language of the query. " +
	"No explanations, no numbering, no quotes."

// TagConfig holds the chat model settings for tag extraction.
type TagConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	MaxTags int
	Timeout time.Duration
	Logger  *zap.Logger
}

// TagExtractor condenses free-text queries into interest tags with a chat
// model (DeepSeek or any OpenAI-compatible endpoint).
type TagExtractor struct {
	client  *openai.Client
	model   string
	maxTags int
	timeout time.Duration
	logger  *zap.Logger
}

// NewTagExtractor creates a chat-completion tag extractor.
func NewTagExtractor(cfg *TagConfig) *TagExtractor {
	maxTags := cfg.MaxTags
	if maxTags <= 0 {
		maxTags = defaultMaxTags
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTagTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TagExtractor{
		client:  newClient(cfg.APIKey, cfg.BaseURL),
		model:   cfg.Model,
		maxTags: maxTags,
		timeout: timeout,
		logger:  logger,
	}
}

// Extract returns up to MaxTags normalized tags. A reply without usable tags
// yields the trimmed query itself as the single tag.
func (t *TagExtractor) Extract(ctx context.Context, query string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       t.model,
		MaxTokens:   tagCompletionLimit,
		Temperature: 0.1,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: fmt.Sprintf(tagSystemPrompt, t.maxTags)},
			{Role: openai.ChatMessageRoleUser, Content: query},
		},
	}

	start := time.Now()
	resp, err := t.client.CreateChatCompletion(ctx, req)
	metrics.TagExtractionDuration.WithLabelValues(t.model).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.TagExtractionTotal.WithLabelValues(t.model, "error").Inc()
		t.logger.Error("Tag extraction failed", zap.String("model", t.model), zap.Error(err))
		return nil, parseAPIError(err, "tag extraction", domain.ErrTagExtractionFailed)
	}
	domain.RequestUsageFrom(ctx).AddLLMTokens(resp.Usage.TotalTokens)

	var tags []string
	if len(resp.Choices) > 0 {
		tags = ParseTags(resp.Choices[0].Message.Content, t.maxTags)
	}
	if len(tags) == 0 {
		metrics.TagExtractionTotal.WithLabelValues(t.model, "empty").Inc()
		return []string{strings.TrimSpace(query)}, nil
	}

	metrics.TagExtractionTotal.WithLabelValues(t.model, "ok").Inc()
	t.logger.Debug("Tags extracted",
		zap.String("model", t.model),
		zap.Strings("tags", tags),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)
	return tags, nil
}

// HealthCheck verifies API availability via ListModels.
func (t *TagExtractor) HealthCheck(ctx context.Context) error {
	if _, err := t.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// ParseTags splits a model reply on ASCII and CJK separators, strips list
// markers and quotes, lower-cases, deduplicates and keeps at most limit tags.
func ParseTags(reply string, limit int) []string {
	fields := strings.FieldsFunc(reply, func(r rune) bool {
		switch r {
		case ',', '，', '、', ';', '；', '\n', '|':
			return true
		}
		return false
	})

	seen := make(map[string]struct{}, len(fields))
	tags := make([]string, 0, min(len(fields), limit))
	for _, f := range fields {
		tag := strings.ToLower(stripMarker(f))
		if tag == "" || utf8.RuneCountInString(tag) > maxTagLength {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
		if len(tags) == limit {
			break
		}
	}
	return tags
}

// stripMarker removes bullets, "1." / "2)" numbering and surrounding quotes.
func stripMarker(s string) string {
	s = strings.TrimLeft(strings.TrimSpace(s), "-*#•· ")
	if i := strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }); i > 0 && (s[i] == '.' || s[i] == ')') {
		s = s[i+1:]
	}
	return strings.Trim(strings.TrimSpace(s), "\"'`“”「」。.")
}
