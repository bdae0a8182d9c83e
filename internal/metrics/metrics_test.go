package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

var (
	_ Recorder = (*NoopRecorder)(nil)
	_ Recorder = (*InMemoryRecorder)(nil)
	_ Recorder = (*PrometheusRecorder)(nil)
)

func TestInMemoryRecorder_Counters(t *testing.T) {
	t.Parallel()

	m := NewInMemory()
	m.IncSignup()
	m.IncLogin(StatusSuccess)
	m.IncLogin(StatusFailed)
	m.IncLogin(StatusFailed)
	m.IncMemeCreated()
	m.IncMemeViewed()
	m.IncMemeLiked()
	m.IncMemeLiked()
	m.ObserveCompositeDuration(150 * time.Millisecond)
	m.ObserveCompositeDuration(50 * time.Millisecond)
	m.IncCompositeFailed()
	m.IncEventPublished(StatusSuccess)
	m.IncEventPublished(StatusDropped)
	m.ObserveHTTPRequest("GET", "/api/memes", 200, time.Millisecond)
	m.ObserveHTTPRequest("POST", "/api/memes", 500, time.Millisecond)

	snap := m.Snapshot()
	want := Snapshot{
		HTTPRequests:             2,
		HTTPServerErrors:         1,
		Signups:                  1,
		LoginsSucceeded:          1,
		LoginsFailed:             2,
		MemesCreated:             1,
		MemesViewed:              1,
		MemesLiked:               2,
		CompositeCount:           2,
		CompositeDurationTotalNs: (200 * time.Millisecond).Nanoseconds(),
		CompositeFailures:        1,
		EventsPublished:          1,
		EventsDropped:            1,
	}
	if snap != want {
		t.Errorf("Snapshot() = %+v, want %+v", snap, want)
	}
}

func TestInMemoryRecorder_Concurrent(t *testing.T) {
	t.Parallel()

	m := NewInMemory()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncMemeLiked()
		}()
	}
	wg.Wait()

	if got := m.Snapshot().MemesLiked; got != 50 {
		t.Errorf("MemesLiked = %d, want 50", got)
	}
}

func TestPrometheusRecorder_Counters(t *testing.T) {
	t.Parallel()

	p := NewPrometheus()
	p.IncSignup()
	p.IncLogin(StatusFailed)
	p.IncMemeLiked()
	p.IncMemeLiked()
	p.IncEventPublished(StatusDropped)

	if got := testutil.ToFloat64(p.signups); got != 1 {
		t.Errorf("signups = %v, want 1", got)
	}
	if got := testutil.ToFloat64(p.logins.WithLabelValues(StatusFailed)); got != 1 {
		t.Errorf("failed logins = %v, want 1", got)
	}
	if got := testutil.ToFloat64(p.memesLiked); got != 2 {
		t.Errorf("likes = %v, want 2", got)
	}
	if got := testutil.ToFloat64(p.eventsPublished.WithLabelValues(StatusDropped)); got != 1 {
		t.Errorf("dropped events = %v, want 1", got)
	}
}

func TestPrometheusRecorder_Handler(t *testing.T) {
	t.Parallel()

	p := NewPrometheus()
	p.ObserveHTTPRequest("GET", "/api/memes/{id}", 404, 10*time.Millisecond)
	p.IncMemeCreated()

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`mememage_http_requests_total{method="GET",route="/api/memes/{id}",status="404"} 1`,
		`mememage_memes_created_total 1`,
		`go_goroutines`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}
