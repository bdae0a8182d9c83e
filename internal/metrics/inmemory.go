package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	HTTPRequests             uint64
	HTTPServerErrors         uint64
	Signups                  uint64
	LoginsSucceeded          uint64
	LoginsFailed             uint64
	MemesCreated             uint64
	MemesViewed              uint64
	MemesLiked               uint64
	CompositeCount           uint64
	CompositeDurationTotalNs int64
	CompositeFailures        uint64
	EventsPublished          uint64
	EventsDropped            uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	httpRequests             uint64
	httpServerErrors         uint64
	signups                  uint64
	loginsSucceeded          uint64
	loginsFailed             uint64
	memesCreated             uint64
	memesViewed              uint64
	memesLiked               uint64
	compositeCount           uint64
	compositeDurationTotalNs int64
	compositeFailures        uint64
	eventsPublished          uint64
	eventsDropped            uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		HTTPRequests:             atomic.LoadUint64(&m.httpRequests),
		HTTPServerErrors:         atomic.LoadUint64(&m.httpServerErrors),
		Signups:                  atomic.LoadUint64(&m.signups),
		LoginsSucceeded:          atomic.LoadUint64(&m.loginsSucceeded),
		LoginsFailed:             atomic.LoadUint64(&m.loginsFailed),
		MemesCreated:             atomic.LoadUint64(&m.memesCreated),
		MemesViewed:              atomic.LoadUint64(&m.memesViewed),
		MemesLiked:               atomic.LoadUint64(&m.memesLiked),
		CompositeCount:           atomic.LoadUint64(&m.compositeCount),
		CompositeDurationTotalNs: atomic.LoadInt64(&m.compositeDurationTotalNs),
		CompositeFailures:        atomic.LoadUint64(&m.compositeFailures),
		EventsPublished:          atomic.LoadUint64(&m.eventsPublished),
		EventsDropped:            atomic.LoadUint64(&m.eventsDropped),
	}
}

// ObserveHTTPRequest counts a handled request.
func (m *InMemoryRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	atomic.AddUint64(&m.httpRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&m.httpServerErrors, 1)
	}
}

// IncSignup increments the signup counter.
func (m *InMemoryRecorder) IncSignup() {
	atomic.AddUint64(&m.signups, 1)
}

// IncLogin increments the login counter for status.
func (m *InMemoryRecorder) IncLogin(status string) {
	if status == StatusSuccess {
		atomic.AddUint64(&m.loginsSucceeded, 1)
		return
	}
	atomic.AddUint64(&m.loginsFailed, 1)
}

// IncMemeCreated increments the meme created counter.
func (m *InMemoryRecorder) IncMemeCreated() {
	atomic.AddUint64(&m.memesCreated, 1)
}

// IncMemeViewed increments the meme viewed counter.
func (m *InMemoryRecorder) IncMemeViewed() {
	atomic.AddUint64(&m.memesViewed, 1)
}

// IncMemeLiked increments the meme liked counter.
func (m *InMemoryRecorder) IncMemeLiked() {
	atomic.AddUint64(&m.memesLiked, 1)
}

// ObserveCompositeDuration records compositing duration.
func (m *InMemoryRecorder) ObserveCompositeDuration(duration time.Duration) {
	atomic.AddUint64(&m.compositeCount, 1)
	atomic.AddInt64(&m.compositeDurationTotalNs, duration.Nanoseconds())
}

// IncCompositeFailed increments the compositing failure counter.
func (m *InMemoryRecorder) IncCompositeFailed() {
	atomic.AddUint64(&m.compositeFailures, 1)
}

// IncEventPublished increments the event counter for status.
func (m *InMemoryRecorder) IncEventPublished(status string) {
	if status == StatusSuccess {
		atomic.AddUint64(&m.eventsPublished, 1)
		return
	}
	atomic.AddUint64(&m.eventsDropped, 1)
}
