package swipe

import (
	"testing"
	"time"

	"github.com/kailas-cloud/matchdex/internal/domain/candidate"
)

func TestNew(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("CST", 8*3600))
	s, err := New("1", "2", candidate.User, Like, at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Actor() != "1" || s.Target() != "2" || s.Direction() != Like {
		t.Errorf("unexpected swipe: %+v", s)
	}
	if s.At().Location() != time.UTC {
		t.Errorf("expected UTC, got %v", s.At().Location())
	}
}

func TestNew_Rejects(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name          string
		actor, target candidate.ID
		kind          candidate.Kind
		dir           Direction
	}{
		{"self swipe", "1", "1", candidate.User, Like},
		{"missing target", "1", "", candidate.User, Like},
		{"bad kind", "1", "2", candidate.Kind("x"), Like},
		{"bad direction", "1", "2", candidate.User, Direction("superlike")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.actor, tc.target, tc.kind, tc.dir, now); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
