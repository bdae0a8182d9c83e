package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

type routeCall struct {
	method, route string
	status        int
}

type recordingMetrics struct {
	mu    sync.Mutex
	calls []routeCall
}

func (r *recordingMetrics) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, routeCall{method, route, status})
}

func (r *recordingMetrics) IncSignup()                             {}
func (r *recordingMetrics) IncLogin(string)                        {}
func (r *recordingMetrics) IncMemeCreated()                        {}
func (r *recordingMetrics) IncMemeViewed()                         {}
func (r *recordingMetrics) IncMemeLiked()                          {}
func (r *recordingMetrics) ObserveCompositeDuration(time.Duration) {}
func (r *recordingMetrics) IncCompositeFailed()                    {}
func (r *recordingMetrics) IncEventPublished(string)               {}

func TestMetrics_UsesRoutePattern(t *testing.T) {
	t.Parallel()

	rec := &recordingMetrics{}
	r := chi.NewRouter()
	r.Use(Metrics(rec))
	r.Get("/api/memes/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, path := range []string{"/api/memes/a", "/api/memes/b", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	if len(rec.calls) != 3 {
		t.Fatalf("calls = %d, want 3", len(rec.calls))
	}
	for _, call := range rec.calls[:2] {
		if call.route != "/api/memes/{id}" || call.status != http.StatusNotFound || call.method != http.MethodGet {
			t.Errorf("unexpected call %+v", call)
		}
	}
	if rec.calls[2].route != unmatchedRoute {
		t.Errorf("unmatched route label = %q", rec.calls[2].route)
	}
}
