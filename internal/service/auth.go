package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mememage/mememage/internal/auth"
	"github.com/mememage/mememage/internal/events"
	"github.com/mememage/mememage/internal/metrics"
	"github.com/mememage/mememage/internal/model"
	"github.com/mememage/mememage/internal/repository"
)

// SignupInput defines input for creating an account.
type SignupInput struct {
	Username string `json:"username" validate:"min=3,max=30"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"min=8"`
}

// LoginInput defines input for logging in.
// Only presence is checked; format rules apply at signup.
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is a freshly issued session.
type AuthResult struct {
	Token string
	User  *model.User
}

// AuthService handles signup and login.
type AuthService struct {
	users      UserStore
	tokens     TokenIssuer
	bcryptCost int
	events     EventPublisher
	metrics    metrics.Recorder
	logger     *slog.Logger
	now        func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, tokens TokenIssuer, bcryptCost int, publisher EventPublisher, recorder metrics.Recorder, logger *slog.Logger) *AuthService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &AuthService{
		users:      users,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		events:     publisher,
		metrics:    recorder,
		logger:     logger.With("component", "service.auth"),
		now:        time.Now,
	}
}

// Signup registers a new account and issues a token for it.
// Checks run in order: input, username, email; nothing is written on failure.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	if err := s.ensureFree(ctx, in.Username, s.users.GetUserByUsername, ErrUsernameTaken); err != nil {
		return nil, err
	}
	if err := s.ensureFree(ctx, in.Email, s.users.GetUserByEmail, ErrEmailTaken); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, invalid("password", "password must be at most 72 bytes")
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, in.Username, in.Email, hash)
	if err != nil {
		// A concurrent signup can win between the checks and the insert.
		switch {
		case errors.Is(err, repository.ErrUsernameExists):
			return nil, ErrUsernameTaken
		case errors.Is(err, repository.ErrEmailExists):
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID.String(), user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to create token: %w", err)
	}

	s.metrics.IncSignup()
	s.events.PublishAsync(events.New(events.TypeUserSignedUp, user.ID.String(), "", s.now()))
	s.logger.Info("user_signed_up", "user_id", user.ID)

	return &AuthResult{Token: token, User: user}, nil
}

// Login verifies credentials and issues a token.
// Unknown usernames and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByUsername(ctx, in.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.metrics.IncLogin(metrics.StatusFailed)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	ok, err := auth.VerifyPassword(in.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		s.metrics.IncLogin(metrics.StatusFailed)
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID.String(), user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to create token: %w", err)
	}

	s.metrics.IncLogin(metrics.StatusSuccess)
	return &AuthResult{Token: token, User: user}, nil
}

func (s *AuthService) ensureFree(ctx context.Context, value string, lookup func(context.Context, string) (*model.User, error), taken error) error {
	_, err := lookup(ctx, value)
	switch {
	case err == nil:
		return taken
	case errors.Is(err, repository.ErrUserNotFound):
		return nil
	default:
		return fmt.Errorf("failed to check availability: %w", err)
	}
}
