package events

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mememage/mememage/internal/metrics"
)

func newUnreachableClient(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestPublisher_PublishRejectsInvalidEvent(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := NewPublisher(newUnreachableClient(t), logger, nil)

	_, err := p.Publish(context.Background(), Event{Type: TypeMemeCreated})
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestPublisher_PublishAsyncCountsDropped(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recorder := metrics.NewInMemory()
	p := NewPublisher(newUnreachableClient(t), logger, recorder)

	p.PublishAsync(New(TypeUserSignedUp, "user-1", "", time.Now()))
	p.PublishAsync(New(TypeUserSignedUp, "user-2", "", time.Now()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Wait(ctx); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	snap := recorder.Snapshot()
	if snap.EventsDropped != 2 {
		t.Errorf("EventsDropped = %d, want 2", snap.EventsDropped)
	}
	if snap.EventsPublished != 0 {
		t.Errorf("EventsPublished = %d, want 0", snap.EventsPublished)
	}
}

func TestPublisher_WaitHonoursContext(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := NewPublisher(newUnreachableClient(t), logger, nil)

	// Nothing pending: returns immediately.
	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("Wait with nothing pending: %v", err)
	}

	p.pending.Add(1)
	defer p.pending.Done()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Wait(ctx); err == nil {
		t.Error("expected context error while publishes are pending")
	}
}

func TestNoop(t *testing.T) {
	t.Parallel()

	// Must not panic or block.
	Noop{}.PublishAsync(New(TypeUserSignedUp, "user-1", "", time.Now()))
}
