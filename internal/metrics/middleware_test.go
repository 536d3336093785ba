package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMain(m *testing.M) {
	RegisterHTTPMetrics()
	RegisterHTTPMetrics()
	os.Exit(m.Run())
}

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Put("/candidates/{kind}/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("PUT", "/candidates/{kind}/{id}", "204"))

	for _, id := range []string{"u1", "u2"} {
		req := httptest.NewRequest(http.MethodPut, "/candidates/user/"+id, http.NoBody)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("PUT", "/candidates/{kind}/{id}", "204"))
	if after-before != 2 {
		t.Errorf("expected 2 requests under the route pattern, got %f", after-before)
	}
	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected http_request_duration_seconds to have observations")
	}
}

func TestMiddleware_StatusCodes(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/recommendations/cards", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"cards":[]}`))
	})
	r.Post("/search/query", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	tests := []struct {
		method, path, status string
	}{
		{"GET", "/recommendations/cards", "200"},
		{"POST", "/search/query", "429"},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tc.method, tc.path, http.NoBody))
			if v := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(tc.method, tc.path, tc.status)); v < 1 {
				t.Errorf("expected requests_total{%s %s %s} >= 1, got %f", tc.method, tc.path, tc.status, v)
			}
		})
	}
}

func TestNormalizePath(t *testing.T) {
	if got := normalizePath(""); got != "unknown" {
		t.Errorf("normalizePath(\"\") = %q", got)
	}
	if got := normalizePath("/*"); got != "unknown" {
		t.Errorf("normalizePath(/*) = %q", got)
	}
	if got := normalizePath("/swipes"); got != "/swipes" {
		t.Errorf("normalizePath(/swipes) = %q", got)
	}
}

func TestMiddleware_InFlight(t *testing.T) {
	var during float64
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		during = testutil.ToFloat64(httpInFlight)
		w.WriteHeader(http.StatusOK)
	})

	before := testutil.ToFloat64(httpInFlight)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	if during != before+1 {
		t.Errorf("in-flight during request = %v, want %v", during, before+1)
	}
	if after := testutil.ToFloat64(httpInFlight); after != before {
		t.Errorf("in-flight after request = %v, want %v", after, before)
	}
}

func TestHandler_ExposesHTTPMetrics(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/health", http.NoBody))

	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", http.NoBody))
	body, _ := io.ReadAll(rr.Body)
	if !strings.Contains(string(body), "matchdex_http_requests_total") {
		t.Error("expected matchdex_http_requests_total in exposition")
	}
}
