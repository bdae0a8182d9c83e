package handler

import (
	"fmt"
	"net/http"

	"github.com/mememage/mememage/internal/metrics"
)

// MetricsHandler exposes metrics in Prometheus exposition format.
// A registry handler is preferred; otherwise an in-memory snapshot is rendered.
type MetricsHandler struct {
	exposition  http.Handler
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler. Either argument may be nil.
func NewMetricsHandler(exposition http.Handler, snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{exposition: exposition, snapshotter: snapshotter}
}

// Metrics writes the current metrics.
// GET /metrics
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.exposition != nil {
		h.exposition.ServeHTTP(w, r)
		return
	}
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "mememage_http_requests_total %d\n", snap.HTTPRequests)
	writeMetric(w, "mememage_http_server_errors_total %d\n", snap.HTTPServerErrors)

	writeMetric(w, "mememage_signups_total %d\n", snap.Signups)
	writeMetric(w, "mememage_logins_total{status=\"success\"} %d\n", snap.LoginsSucceeded)
	writeMetric(w, "mememage_logins_total{status=\"failed\"} %d\n", snap.LoginsFailed)

	writeMetric(w, "mememage_memes_created_total %d\n", snap.MemesCreated)
	writeMetric(w, "mememage_meme_views_total %d\n", snap.MemesViewed)
	writeMetric(w, "mememage_meme_likes_total %d\n", snap.MemesLiked)

	writeMetric(w, "mememage_composite_duration_seconds_count %d\n", snap.CompositeCount)
	writeMetric(w, "mememage_composite_duration_seconds_sum %.6f\n", float64(snap.CompositeDurationTotalNs)/1e9)
	writeMetric(w, "mememage_composite_failures_total %d\n", snap.CompositeFailures)

	writeMetric(w, "mememage_events_published_total{status=\"success\"} %d\n", snap.EventsPublished)
	writeMetric(w, "mememage_events_published_total{status=\"dropped\"} %d\n", snap.EventsDropped)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
