package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mememage"

// PrometheusRecorder exports metrics through a dedicated Prometheus registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	signups           prometheus.Counter
	logins            *prometheus.CounterVec
	memesCreated      prometheus.Counter
	memesViewed       prometheus.Counter
	memesLiked        prometheus.Counter
	compositeDuration prometheus.Histogram
	compositeFailures prometheus.Counter
	eventsPublished   *prometheus.CounterVec
}

// NewPrometheus creates a recorder with its own registry, including
// the Go runtime and process collectors.
func NewPrometheus() *PrometheusRecorder {
	p := &PrometheusRecorder{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		}, []string{"method", "route"}),
		signups: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signups_total",
			Help:      "Total number of accounts created.",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Total number of login attempts.",
		}, []string{"status"}),
		memesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "memes",
			Name:      "created_total",
			Help:      "Total number of memes created.",
		}),
		memesViewed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "memes",
			Name:      "viewed_total",
			Help:      "Total number of meme views recorded.",
		}),
		memesLiked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "memes",
			Name:      "liked_total",
			Help:      "Total number of meme likes recorded.",
		}),
		compositeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "compositor",
			Name:      "duration_seconds",
			Help:      "Duration of successful image compositing.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
		}),
		compositeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "compositor",
			Name:      "failures_total",
			Help:      "Total number of failed compositing attempts.",
		}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Activity events sent to the stream.",
		}, []string{"status"}),
	}

	p.registry.MustRegister(
		p.httpRequests,
		p.httpDuration,
		p.signups,
		p.logins,
		p.memesCreated,
		p.memesViewed,
		p.memesLiked,
		p.compositeDuration,
		p.compositeFailures,
		p.eventsPublished,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return p
}

// Registry returns the underlying registry.
func (p *PrometheusRecorder) Registry() *prometheus.Registry {
	return p.registry
}

// Handler returns an HTTP handler exposing the registered metrics.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest records a handled request.
func (p *PrometheusRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// IncSignup increments the signup counter.
func (p *PrometheusRecorder) IncSignup() { p.signups.Inc() }

// IncLogin increments the login counter for status.
func (p *PrometheusRecorder) IncLogin(status string) { p.logins.WithLabelValues(status).Inc() }

// IncMemeCreated increments the meme created counter.
func (p *PrometheusRecorder) IncMemeCreated() { p.memesCreated.Inc() }

// IncMemeViewed increments the meme viewed counter.
func (p *PrometheusRecorder) IncMemeViewed() { p.memesViewed.Inc() }

// IncMemeLiked increments the meme liked counter.
func (p *PrometheusRecorder) IncMemeLiked() { p.memesLiked.Inc() }

// ObserveCompositeDuration records compositing duration.
func (p *PrometheusRecorder) ObserveCompositeDuration(duration time.Duration) {
	p.compositeDuration.Observe(duration.Seconds())
}

// IncCompositeFailed increments the compositing failure counter.
func (p *PrometheusRecorder) IncCompositeFailed() { p.compositeFailures.Inc() }

// IncEventPublished increments the event counter for status.
func (p *PrometheusRecorder) IncEventPublished(status string) {
	p.eventsPublished.WithLabelValues(status).Inc()
}
