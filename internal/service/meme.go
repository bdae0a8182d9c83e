package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/mememage/mememage/internal/compositor"
	"github.com/mememage/mememage/internal/events"
	"github.com/mememage/mememage/internal/metrics"
	"github.com/mememage/mememage/internal/model"
	"github.com/mememage/mememage/internal/repository"
)

// Listing defaults.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// CreateMemeInput defines input for creating a meme.
type CreateMemeInput struct {
	Title        string  `json:"title" validate:"min=1,max=100,nonul"`
	TopText      *string `json:"top_text" validate:"omitempty,max=200,nonul"`
	BottomText   *string `json:"bottom_text" validate:"omitempty,max=200,nonul"`
	TemplateName *string `json:"template_name" validate:"omitempty,max=64,nonul"`
	ImageData    *string `json:"image_data"`
}

// MemeService handles meme business logic.
type MemeService struct {
	memes      MemeStore
	compositor compositor.Compositor
	templates  TemplateSource
	outputDir  string
	events     EventPublisher
	metrics    metrics.Recorder
	logger     *slog.Logger
	now        func() time.Time
}

// NewMemeService creates a new MemeService writing rendered images to outputDir.
func NewMemeService(memes MemeStore, comp compositor.Compositor, templates TemplateSource, outputDir string, publisher EventPublisher, recorder metrics.Recorder, logger *slog.Logger) *MemeService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &MemeService{
		memes:      memes,
		compositor: comp,
		templates:  templates,
		outputDir:  outputDir,
		events:     publisher,
		metrics:    recorder,
		logger:     logger.With("component", "service.meme"),
		now:        time.Now,
	}
}

// Create renders and stores a new meme owned by the token subject.
// Input is validated before the subject is parsed, and nothing is
// persisted unless compositing succeeds.
func (s *MemeService) Create(ctx context.Context, subject string, in CreateMemeInput) (*model.Meme, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	userID, err := parseSubject(subject)
	if err != nil {
		return nil, err
	}

	templatePath, cleanup, err := s.template(in)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	id := uuid.New()
	outputPath := filepath.Join(s.outputDir, model.MemeFileName(id))

	start := time.Now()
	err = s.compositor.Composite(ctx, templatePath, model.StringValue(in.TopText), model.StringValue(in.BottomText), outputPath)
	if err != nil {
		s.metrics.IncCompositeFailed()
		return nil, fmt.Errorf("%w: %v", ErrCompositing, err)
	}
	s.metrics.ObserveCompositeDuration(time.Since(start))

	meme, err := s.memes.CreateMeme(ctx, model.NewMeme{
		ID:           id,
		UserID:       userID,
		Title:        in.Title,
		ImageURL:     model.MemeImageURL(id),
		TopText:      in.TopText,
		BottomText:   in.BottomText,
		TemplateName: in.TemplateName,
	})
	if err != nil {
		if rmErr := os.Remove(outputPath); rmErr != nil && !os.IsNotExist(rmErr) {
			s.logger.Warn("failed to remove orphaned image", "path", outputPath, "error", rmErr)
		}
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUnknownAccount
		}
		return nil, fmt.Errorf("failed to save meme: %w", err)
	}

	s.metrics.IncMemeCreated()
	s.events.PublishAsync(events.New(events.TypeMemeCreated, userID.String(), meme.ID.String(), s.now()))

	return meme, nil
}

// template picks the source image: uploaded data wins over a template name.
// The returned cleanup func is always safe to call.
func (s *MemeService) template(in CreateMemeInput) (string, func(), error) {
	if data := model.StringValue(in.ImageData); data != "" {
		path, cleanup, err := s.templates.Stage(data)
		if err != nil {
			if errors.Is(err, compositor.ErrInvalidImageData) {
				return "", nil, invalid("image_data", "image_data must be a base64 encoded JPEG, PNG or GIF image")
			}
			return "", nil, fmt.Errorf("failed to stage upload: %w", err)
		}
		return path, cleanup, nil
	}

	path, err := s.templates.Resolve(model.StringValue(in.TemplateName))
	if err != nil {
		if errors.Is(err, compositor.ErrTemplateNotFound) {
			return "", nil, invalid("template_name", "unknown template %q", model.StringValue(in.TemplateName))
		}
		return "", nil, fmt.Errorf("failed to resolve template: %w", err)
	}
	return path, func() {}, nil
}

// List returns memes newest first. Negative values fall back to the
// defaults and limit is capped at MaxListLimit.
func (s *MemeService) List(ctx context.Context, limit, offset int) ([]*model.Meme, error) {
	limit, offset = normalizePage(limit, offset)

	memes, err := s.memes.ListMemes(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch memes: %w", err)
	}
	return memes, nil
}

// Get returns a meme and records a view. The view is best effort:
// a failed increment is logged and the meme is still returned.
func (s *MemeService) Get(ctx context.Context, id string) (*model.Meme, error) {
	memeID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrMemeNotFound
	}

	meme, err := s.memes.GetMemeByID(ctx, memeID)
	if err != nil {
		if errors.Is(err, repository.ErrMemeNotFound) {
			return nil, ErrMemeNotFound
		}
		return nil, fmt.Errorf("failed to get meme: %w", err)
	}

	if err := s.memes.IncrementViews(ctx, memeID); err != nil {
		s.logger.Warn("failed to increment views", "meme_id", memeID, "error", err)
		return meme, nil
	}
	meme.Views++
	s.metrics.IncMemeViewed()

	return meme, nil
}

// Like adds one like and returns the new total.
func (s *MemeService) Like(ctx context.Context, id string) (int64, error) {
	memeID, err := uuid.Parse(id)
	if err != nil {
		return 0, ErrMemeNotFound
	}

	likes, err := s.memes.IncrementLikes(ctx, memeID)
	if err != nil {
		if errors.Is(err, repository.ErrMemeNotFound) {
			return 0, ErrMemeNotFound
		}
		return 0, fmt.Errorf("failed to like meme: %w", err)
	}

	s.metrics.IncMemeLiked()
	event := events.New(events.TypeMemeLiked, "", memeID.String(), s.now())
	event.Likes = likes
	s.events.PublishAsync(event)

	return likes, nil
}

// ListForUser returns the memes owned by the token subject, newest first.
func (s *MemeService) ListForUser(ctx context.Context, subject string) ([]*model.Meme, error) {
	userID, err := parseSubject(subject)
	if err != nil {
		return nil, err
	}

	memes, err := s.memes.ListUserMemes(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch memes: %w", err)
	}
	return memes, nil
}

func parseSubject(subject string) (uuid.UUID, error) {
	id, err := uuid.Parse(subject)
	if err != nil {
		return uuid.Nil, invalid("sub", "invalid user ID")
	}
	return id, nil
}

func normalizePage(limit, offset int) (int, int) {
	if limit < 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
