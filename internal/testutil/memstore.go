package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mememage/mememage/internal/model"
	"github.com/mememage/mememage/internal/repository"
)

// MemoryStore is an in-memory stand-in for repository.Repository.
// It returns the same sentinel errors and is safe for concurrent use.
type MemoryStore struct {
	mu    sync.Mutex
	now   time.Time
	users map[uuid.UUID]*model.User
	memes map[uuid.UUID]*model.Meme

	// Err, when set, is returned by every method.
	Err error
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		users: make(map[uuid.UUID]*model.User),
		memes: make(map[uuid.UUID]*model.Meme),
	}
}

// tick returns a strictly increasing timestamp so ordering is deterministic.
func (s *MemoryStore) tick() time.Time {
	s.now = s.now.Add(time.Millisecond)
	return s.now
}

// Ping implements the health check contract.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return s.Err
}

// CreateUser stores a new user, enforcing unique username and email.
func (s *MemoryStore) CreateUser(ctx context.Context, username, email, passwordHash string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}
	for _, u := range s.users {
		if u.Username == username {
			return nil, repository.ErrUsernameExists
		}
		if u.Email == email {
			return nil, repository.ErrEmailExists
		}
	}

	now := s.tick()
	user := &model.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.users[user.ID] = user

	copied := *user
	return &copied, nil
}

// GetUserByID returns the user with the given id.
func (s *MemoryStore) GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.findUser(func(u *model.User) bool { return u.ID == id })
}

// GetUserByUsername returns the user with the given username.
func (s *MemoryStore) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.findUser(func(u *model.User) bool { return u.Username == username })
}

// GetUserByEmail returns the user with the given email.
func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.findUser(func(u *model.User) bool { return u.Email == email })
}

func (s *MemoryStore) findUser(match func(*model.User) bool) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}
	for _, u := range s.users {
		if match(u) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

// UserCount returns the number of stored users.
func (s *MemoryStore) UserCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// CreateMeme stores a meme with zeroed counters.
func (s *MemoryStore) CreateMeme(ctx context.Context, params model.NewMeme) (*model.Meme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}
	if _, ok := s.users[params.UserID]; !ok {
		return nil, repository.ErrUserNotFound
	}
	if params.ID == uuid.Nil {
		params.ID = uuid.New()
	}

	meme := &model.Meme{
		ID:           params.ID,
		UserID:       params.UserID,
		Title:        params.Title,
		ImageURL:     params.ImageURL,
		TopText:      params.TopText,
		BottomText:   params.BottomText,
		TemplateName: params.TemplateName,
		CreatedAt:    s.tick(),
	}
	s.memes[meme.ID] = meme

	copied := *meme
	return &copied, nil
}

// GetMemeByID returns the meme with the given id.
func (s *MemoryStore) GetMemeByID(ctx context.Context, id uuid.UUID) (*model.Meme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}
	meme, ok := s.memes[id]
	if !ok {
		return nil, repository.ErrMemeNotFound
	}
	copied := *meme
	return &copied, nil
}

// ListMemes returns memes newest first.
func (s *MemoryStore) ListMemes(ctx context.Context, limit, offset int) ([]*model.Meme, error) {
	return s.list(func(*model.Meme) bool { return true }, limit, offset)
}

// ListUserMemes returns the memes owned by userID, newest first.
func (s *MemoryStore) ListUserMemes(ctx context.Context, userID uuid.UUID) ([]*model.Meme, error) {
	return s.list(func(m *model.Meme) bool { return m.UserID == userID }, -1, 0)
}

func (s *MemoryStore) list(match func(*model.Meme) bool, limit, offset int) ([]*model.Meme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}

	all := make([]*model.Meme, 0, len(s.memes))
	for _, m := range s.memes {
		if match(m) {
			copied := *m
			all = append(all, &copied)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if offset >= len(all) {
		return []*model.Meme{}, nil
	}
	all = all[offset:]
	if limit >= 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

// IncrementViews adds one view to a meme.
func (s *MemoryStore) IncrementViews(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}
	meme, ok := s.memes[id]
	if !ok {
		return repository.ErrMemeNotFound
	}
	meme.Views++
	return nil
}

// IncrementLikes adds one like to a meme and returns the new total.
func (s *MemoryStore) IncrementLikes(ctx context.Context, id uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return 0, s.Err
	}
	meme, ok := s.memes[id]
	if !ok {
		return 0, repository.ErrMemeNotFound
	}
	meme.Likes++
	return int64(meme.Likes), nil
}
