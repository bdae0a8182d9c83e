package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mememage/mememage/internal/metrics"
)

func TestMetricsHandler_Snapshot(t *testing.T) {
	recorder := metrics.NewInMemory()
	recorder.IncSignup()
	recorder.IncMemeLiked()
	recorder.IncMemeLiked()
	recorder.ObserveCompositeDuration(1500 * time.Millisecond)

	h := NewMetricsHandler(nil, recorder)

	rec := httptest.NewRecorder()
	h.Metrics(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	for _, line := range []string{
		"mememage_signups_total 1\n",
		"mememage_meme_likes_total 2\n",
		"mememage_composite_duration_seconds_count 1\n",
		"mememage_composite_duration_seconds_sum 1.500000\n",
	} {
		if !strings.Contains(body, line) {
			t.Errorf("missing %q in:\n%s", line, body)
		}
	}
}

func TestMetricsHandler_Prometheus(t *testing.T) {
	recorder := metrics.NewPrometheus()
	recorder.IncSignup()

	h := NewMetricsHandler(recorder.Handler(), nil)

	rec := httptest.NewRecorder()
	h.Metrics(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "mememage_signups_total 1") {
		t.Errorf("expected signups counter in exposition:\n%s", rec.Body.String())
	}
}

func TestMetricsHandler_Unconfigured(t *testing.T) {
	rec := httptest.NewRecorder()
	NewMetricsHandler(nil, nil).Metrics(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rec.Code)
	}
}
