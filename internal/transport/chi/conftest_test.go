package chi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kailas-cloud/matchdex/internal/domain"
	"github.com/kailas-cloud/matchdex/internal/domain/candidate"
	"github.com/kailas-cloud/matchdex/internal/domain/profile"
	domswipe "github.com/kailas-cloud/matchdex/internal/domain/swipe"
	feeduc "github.com/kailas-cloud/matchdex/internal/usecase/feed"
	healthuc "github.com/kailas-cloud/matchdex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/matchdex/internal/usecase/search"
)

type fakeFeed struct {
	page      feeduc.Page
	err       error
	gotKind   candidate.Kind
	gotActor  candidate.ID
	gotLimit  int
	callCount int
}

func (f *fakeFeed) Cards(_ context.Context, kind candidate.Kind, actor candidate.ID, limit int) (feeduc.Page, error) {
	f.callCount++
	f.gotKind, f.gotActor, f.gotLimit = kind, actor, limit
	return f.page, f.err
}

type fakeSearch struct {
	resp       searchuc.Response
	err        error
	embedTok   int
	llmTok     int
	gotRequest searchuc.Request
}

func (f *fakeSearch) Search(ctx context.Context, req searchuc.Request) (searchuc.Response, error) {
	f.gotRequest = req
	usage := domain.RequestUsageFrom(ctx)
	if f.llmTok > 0 {
		usage.AddLLMTokens(f.llmTok)
	}
	if f.embedTok > 0 {
		usage.AddEmbeddingTokens(f.embedTok)
	}
	return f.resp, f.err
}

type fakeIndexing struct {
	upserted []profile.Profile
	deleted  []candidate.ID
	embedTok int
	err      error
}

func (f *fakeIndexing) Upsert(ctx context.Context, p profile.Profile) error {
	if f.err != nil {
		return f.err
	}
	domain.RequestUsageFrom(ctx).AddEmbeddingTokens(f.embedTok)
	f.upserted = append(f.upserted, p)
	return nil
}

func (f *fakeIndexing) Delete(_ context.Context, _ candidate.Kind, id candidate.ID) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeSwipes struct {
	err error
	got []domswipe.Swipe
}

func (f *fakeSwipes) Record(
	_ context.Context, actor, target candidate.ID, kind candidate.Kind, direction domswipe.Direction,
) (domswipe.Swipe, error) {
	if f.err != nil {
		return domswipe.Swipe{}, f.err
	}
	sw, err := domswipe.New(actor, target, kind, direction, time.Unix(1700000000, 0))
	if err != nil {
		return domswipe.Swipe{}, err
	}
	f.got = append(f.got, sw)
	return sw, nil
}

type fakeHealth struct {
	report healthuc.Report
}

func (f *fakeHealth) Check(context.Context) healthuc.Report { return f.report }

type testServer struct {
	feed     *fakeFeed
	search   *fakeSearch
	indexing *fakeIndexing
	swipes   *fakeSwipes
	health   *fakeHealth
	handler  http.Handler
}

// newTestServer wires the server behind auth in header mode, so requests
// carry the actor in X-Actor-ID.
func newTestServer(t *testing.T, limiter *ActorLimiter) *testServer {
	t.Helper()
	ts := &testServer{
		feed:     &fakeFeed{},
		search:   &fakeSearch{},
		indexing: &fakeIndexing{},
		swipes:   &fakeSwipes{},
		health: &fakeHealth{report: healthuc.Report{
			Status: healthuc.Healthy,
			Checks: map[string]healthuc.CheckResult{healthuc.ComponentDatabase: healthuc.CheckOK},
		}},
	}
	srv := NewServer(ts.feed, ts.search, ts.indexing, ts.swipes, ts.health, nil).WithRateLimiter(limiter)

	r := chi.NewRouter()
	r.Use(JWTAuthMiddleware(AuthConfig{}))
	srv.Routes(r)
	ts.handler = r
	return ts
}

func (ts *testServer) do(t *testing.T, method, target, actor, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader = http.NoBody
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if actor != "" {
		req.Header.Set(ActorHeader, actor)
	}
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func decodeJSON[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
	return v
}

func mustProfile(t *testing.T, id string, kind candidate.Kind, tags ...string) profile.Profile {
	t.Helper()
	p, err := profile.New(candidate.ID(id), kind, "Name "+id, "", "", tags, "", nil)
	if err != nil {
		t.Fatalf("profile.New: %v", err)
	}
	return p
}
