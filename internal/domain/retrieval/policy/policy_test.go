package policy

import (
	"slices"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	p := Default()
	if !slices.Equal(p.SearchSizes(), []int{50, 150, 300}) {
		t.Errorf("search sizes = %v", p.SearchSizes())
	}
	if p.MaxAttempts() != 3 || p.TargetCount() != 20 {
		t.Errorf("attempts=%d target=%d", p.MaxAttempts(), p.TargetCount())
	}
	if p.QueryTimeout() != 2*time.Second {
		t.Errorf("timeout = %s", p.QueryTimeout())
	}
	if p.Speculative() {
		t.Error("speculative must default to false")
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name     string
		sizes    []int
		attempts int
		target   int
		timeout  time.Duration
		wantErr  bool
	}{
		{"custom ok", []int{10, 20}, 2, 5, time.Second, false},
		{"single breadth", []int{100}, 0, 0, 0, false},
		{"not increasing", []int{50, 50, 300}, 3, 20, 0, true},
		{"decreasing", []int{300, 150}, 3, 20, 0, true},
		{"zero breadth", []int{0, 10}, 3, 20, 0, true},
		{"exceeds cap", []int{1, 2, 3, 4}, 3, 20, 0, true},
		{"negative attempts", nil, -1, 20, 0, true},
		{"negative target", nil, 0, -1, 0, true},
		{"target too big", nil, 0, MaxTargetCount + 1, 0, true},
		{"negative timeout", nil, 0, 0, -time.Second, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.sizes, tc.attempts, tc.target, tc.timeout, false)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestSearchSizes_ReturnsCopy(t *testing.T) {
	in := []int{1, 2}
	p, err := New(in, 2, 1, 0, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	in[0] = 99
	got := p.SearchSizes()
	got[1] = 42
	if !slices.Equal(p.SearchSizes(), []int{1, 2}) {
		t.Errorf("policy mutated through caller slices: %v", p.SearchSizes())
	}
}
