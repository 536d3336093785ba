package domain

import (
	"context"
	"errors"
	"testing"
)

type stubEmbedder struct {
	result EmbeddingResult
	err    error
	got    string
}

func (s *stubEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	s.got = text
	return s.result, s.err
}

type healthyStub struct {
	stubEmbedder
	healthErr error
}

func (s *healthyStub) HealthCheck(context.Context) error { return s.healthErr }

func TestInstructionEmbedder_PrependsInstruction(t *testing.T) {
	inner := &stubEmbedder{result: EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}}}
	emb := NewInstructionEmbedder(inner, "tags: ")

	result, err := emb.Embed(context.Background(), "hiking, go")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.got != "tags: hiking, go" {
		t.Errorf("expected prepended text, got %q", inner.got)
	}
	if len(result.Embedding) != 3 {
		t.Errorf("expected 3-element vector, got %d", len(result.Embedding))
	}
}

func TestInstructionEmbedder_ErrorPropagation(t *testing.T) {
	innerErr := errors.New("provider down")
	emb := NewInstructionEmbedder(&stubEmbedder{err: innerErr}, "tags: ")

	_, err := emb.Embed(context.Background(), "hello")
	if !errors.Is(err, innerErr) {
		t.Errorf("expected wrapped inner error, got %v", err)
	}
}

func TestInstructionEmbedder_HealthCheck(t *testing.T) {
	down := errors.New("down")
	if err := NewInstructionEmbedder(&healthyStub{healthErr: down}, "").HealthCheck(context.Background()); !errors.Is(err, down) {
		t.Errorf("expected inner health error, got %v", err)
	}
	if err := NewInstructionEmbedder(&stubEmbedder{}, "").HealthCheck(context.Background()); err != nil {
		t.Errorf("embedder without health check must report healthy, got %v", err)
	}
}

func TestCheckDimension(t *testing.T) {
	if err := CheckDimension([]float32{1, 2, 3}, 3); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := CheckDimension([]float32{1, 2}, 3); !errors.Is(err, ErrVectorDimMismatch) {
		t.Errorf("expected ErrVectorDimMismatch, got %v", err)
	}
	if err := CheckDimension(nil, 3); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if err := CheckDimension([]float32{1}, 0); err != nil {
		t.Errorf("dim 0 disables the check, got %v", err)
	}
}

func TestRequestUsage(t *testing.T) {
	ctx, u := WithRequestUsage(context.Background())
	if RequestUsageFrom(ctx) != u {
		t.Fatal("collector not found in context")
	}
	u.AddEmbeddingTokens(0)
	u.AddEmbeddingTokens(7)
	u.AddLLMTokens(11)

	tokens, used := u.EmbeddingTokens()
	if tokens != 7 || !used {
		t.Errorf("embedding tokens = %d used=%v", tokens, used)
	}
	if u.LLMTokens() != 11 {
		t.Errorf("llm tokens = %d", u.LLMTokens())
	}

	var missing *RequestUsage = RequestUsageFrom(context.Background())
	missing.AddEmbeddingTokens(3)
	if _, used := missing.EmbeddingTokens(); used {
		t.Error("nil collector must stay unused")
	}
}
