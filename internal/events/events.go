// Package events publishes meme activity to a Redis stream.
package events

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// Type identifies what happened.
type Type string

// Event types.
const (
	TypeUserSignedUp Type = "user.signed_up"
	TypeMemeCreated  Type = "meme.created"
	TypeMemeLiked    Type = "meme.liked"
)

// Event is the payload written to the stream.
type Event struct {
	ID         string `json:"id"`
	Type       Type   `json:"type"`
	UserID     string `json:"uid,omitempty"`
	MemeID     string `json:"mid,omitempty"`
	Likes      int64  `json:"likes,omitempty"`
	OccurredAt int64  `json:"t"` // Unix milliseconds
}

// New creates an event stamped with a ULID derived from at.
func New(typ Type, userID, memeID string, at time.Time) Event {
	return Event{
		ID:         ulid.MustNew(ulid.Timestamp(at), ulid.DefaultEntropy()).String(),
		Type:       typ,
		UserID:     userID,
		MemeID:     memeID,
		OccurredAt: at.UnixMilli(),
	}
}

// Validate checks that the event is well formed for its type.
func Validate(e Event) error {
	if e.ID == "" {
		return fmt.Errorf("id is required")
	}
	if _, err := ulid.ParseStrict(e.ID); err != nil {
		return fmt.Errorf("id must be a ULID: %w", err)
	}
	if e.OccurredAt <= 0 {
		return fmt.Errorf("occurred_at must be set")
	}

	switch e.Type {
	case TypeUserSignedUp:
		if e.UserID == "" {
			return fmt.Errorf("uid is required for %s", e.Type)
		}
	case TypeMemeCreated:
		if e.UserID == "" || e.MemeID == "" {
			return fmt.Errorf("uid and mid are required for %s", e.Type)
		}
	case TypeMemeLiked:
		if e.MemeID == "" {
			return fmt.Errorf("mid is required for %s", e.Type)
		}
		if e.Likes <= 0 {
			return fmt.Errorf("likes must be positive for %s", e.Type)
		}
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	return nil
}
