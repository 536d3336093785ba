package swipe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/matchdex/internal/domain"
	"github.com/kailas-cloud/matchdex/internal/domain/candidate"
	domswipe "github.com/kailas-cloud/matchdex/internal/domain/swipe"
)

type mockRecorder struct {
	recorded []domswipe.Swipe
	err      error
}

func (m *mockRecorder) Record(_ context.Context, s domswipe.Swipe) error {
	m.recorded = append(m.recorded, s)
	return m.err
}

func TestRecord_Success(t *testing.T) {
	rec := &mockRecorder{}
	svc := New(rec)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	sw, err := svc.Record(context.Background(), "1", "2", candidate.User, domswipe.Pass)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.recorded) != 1 || sw.Target() != "2" || !sw.At().Equal(fixed) {
		t.Errorf("unexpected swipe: %+v", rec.recorded)
	}
}

func TestRecord_SelfSwipeIsInvalid(t *testing.T) {
	rec := &mockRecorder{}
	_, err := New(rec).Record(context.Background(), "1", "1", candidate.User, domswipe.Like)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if len(rec.recorded) != 0 {
		t.Error("invalid swipe must not be recorded")
	}
}

func TestRecord_StoreError(t *testing.T) {
	rec := &mockRecorder{err: errors.New("conn reset")}
	_, err := New(rec).Record(context.Background(), "1", "2", candidate.Project, domswipe.Like)
	if err == nil || errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected storage error, got %v", err)
	}
}
