package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mememage/mememage/internal/model"
)

const memeColumns = `id, user_id, title, image_url, top_text, bottom_text, template_name, views, likes, created_at`

// CreateMeme inserts a new meme with zeroed counters.
// A missing owner surfaces as ErrUserNotFound.
func (r *Repository) CreateMeme(ctx context.Context, params model.NewMeme) (*model.Meme, error) {
	if params.ID == uuid.Nil {
		params.ID = uuid.New()
	}

	query := `
		INSERT INTO memes (id, user_id, title, image_url, top_text, bottom_text, template_name, views, likes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, 0)
		RETURNING ` + memeColumns

	meme, err := scanMeme(r.pool.QueryRow(ctx, query,
		params.ID,
		params.UserID,
		params.Title,
		params.ImageURL,
		params.TopText,
		params.BottomText,
		params.TemplateName,
	))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create meme: %w", err)
	}

	return meme, nil
}

// GetMemeByID retrieves a meme by its ID.
func (r *Repository) GetMemeByID(ctx context.Context, id uuid.UUID) (*model.Meme, error) {
	query := `SELECT ` + memeColumns + ` FROM memes WHERE id = $1`

	meme, err := scanMeme(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMemeNotFound
		}
		return nil, fmt.Errorf("failed to get meme by ID: %w", err)
	}

	return meme, nil
}

// ListMemes returns memes newest first.
func (r *Repository) ListMemes(ctx context.Context, limit, offset int) ([]*model.Meme, error) {
	query := `
		SELECT ` + memeColumns + `
		FROM memes
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list memes: %w", err)
	}
	return collectMemes(rows)
}

// ListUserMemes returns all memes owned by userID, newest first.
func (r *Repository) ListUserMemes(ctx context.Context, userID uuid.UUID) ([]*model.Meme, error) {
	query := `
		SELECT ` + memeColumns + `
		FROM memes
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user memes: %w", err)
	}
	return collectMemes(rows)
}

// IncrementViews atomically adds one view to a meme.
func (r *Repository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE memes SET views = views + 1 WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to increment views: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrMemeNotFound
	}

	return nil
}

// IncrementLikes atomically adds one like to a meme and returns the new total.
func (r *Repository) IncrementLikes(ctx context.Context, id uuid.UUID) (int64, error) {
	query := `UPDATE memes SET likes = likes + 1 WHERE id = $1 RETURNING likes`

	var likes int64
	if err := r.pool.QueryRow(ctx, query, id).Scan(&likes); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrMemeNotFound
		}
		return 0, fmt.Errorf("failed to increment likes: %w", err)
	}

	return likes, nil
}

func collectMemes(rows pgx.Rows) ([]*model.Meme, error) {
	defer rows.Close()

	memes := make([]*model.Meme, 0)
	for rows.Next() {
		meme, err := scanMeme(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meme: %w", err)
		}
		memes = append(memes, meme)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating memes: %w", err)
	}

	return memes, nil
}

// scanMeme scans a single row into a Meme model.
func scanMeme(row pgx.Row) (*model.Meme, error) {
	var meme model.Meme
	err := row.Scan(
		&meme.ID,
		&meme.UserID,
		&meme.Title,
		&meme.ImageURL,
		&meme.TopText,
		&meme.BottomText,
		&meme.TemplateName,
		&meme.Views,
		&meme.Likes,
		&meme.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &meme, nil
}
