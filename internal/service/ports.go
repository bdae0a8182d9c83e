package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/mememage/mememage/internal/events"
	"github.com/mememage/mememage/internal/model"
)

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, username, email, passwordHash string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// MemeStore persists memes and their counters.
type MemeStore interface {
	CreateMeme(ctx context.Context, params model.NewMeme) (*model.Meme, error)
	ListMemes(ctx context.Context, limit, offset int) ([]*model.Meme, error)
	GetMemeByID(ctx context.Context, id uuid.UUID) (*model.Meme, error)
	ListUserMemes(ctx context.Context, userID uuid.UUID) ([]*model.Meme, error)
	IncrementViews(ctx context.Context, id uuid.UUID) error
	IncrementLikes(ctx context.Context, id uuid.UUID) (int64, error)
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(userID, username string) (string, error)
}

// TemplateSource locates the image a meme is drawn on.
type TemplateSource interface {
	Resolve(name string) (string, error)
	Stage(data string) (path string, cleanup func(), err error)
}

// EventPublisher receives activity events. Delivery is best effort.
type EventPublisher interface {
	PublishAsync(event events.Event)
}
