package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// ObserveHTTPRequest is a no-op.
func (n *NoopRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {}

// IncSignup is a no-op.
func (n *NoopRecorder) IncSignup() {}

// IncLogin is a no-op.
func (n *NoopRecorder) IncLogin(status string) {}

// IncMemeCreated is a no-op.
func (n *NoopRecorder) IncMemeCreated() {}

// IncMemeViewed is a no-op.
func (n *NoopRecorder) IncMemeViewed() {}

// IncMemeLiked is a no-op.
func (n *NoopRecorder) IncMemeLiked() {}

// ObserveCompositeDuration is a no-op.
func (n *NoopRecorder) ObserveCompositeDuration(duration time.Duration) {}

// IncCompositeFailed is a no-op.
func (n *NoopRecorder) IncCompositeFailed() {}

// IncEventPublished is a no-op.
func (n *NoopRecorder) IncEventPublished(status string) {}
