// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Outcome labels shared by the counters below.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusDropped = "dropped"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus or keep them in memory.
type Recorder interface {
	// HTTP metrics
	ObserveHTTPRequest(method, route string, status int, duration time.Duration)

	// Account metrics
	IncSignup()
	IncLogin(status string) // status: "success" or "failed"

	// Meme metrics
	IncMemeCreated()
	IncMemeViewed()
	IncMemeLiked()
	ObserveCompositeDuration(duration time.Duration)
	IncCompositeFailed()

	// Activity stream metrics
	IncEventPublished(status string) // status: "success" or "dropped"
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
