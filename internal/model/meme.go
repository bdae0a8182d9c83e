package model

import (
	"path"
	"time"

	"github.com/google/uuid"
)

// MemeURLPrefix is the public URL root under which rendered memes are served.
const MemeURLPrefix = "/uploads/memes/"

// Meme represents a captioned image.
// Views and Likes start at zero and only ever increase.
type Meme struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	Title        string    `json:"title"`
	ImageURL     string    `json:"image_url"`
	TopText      *string   `json:"top_text"`
	BottomText   *string   `json:"bottom_text"`
	TemplateName *string   `json:"template_name"`
	Views        int32     `json:"views"`
	Likes        int32     `json:"likes"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewMeme holds the fields needed to persist a meme.
// The ID is assigned by the caller so the rendered file and the row share it.
type NewMeme struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Title        string
	ImageURL     string
	TopText      *string
	BottomText   *string
	TemplateName *string
}

// MemeFileName returns the on-disk file name for a rendered meme.
func MemeFileName(id uuid.UUID) string {
	return id.String() + ".jpg"
}

// MemeImageURL returns the public URL of a rendered meme.
func MemeImageURL(id uuid.UUID) string {
	return path.Join(MemeURLPrefix, MemeFileName(id))
}

// OptionalString converts an empty string into nil.
func OptionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringValue dereferences s, treating nil as empty.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
