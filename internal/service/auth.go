package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"filevault/internal/auth"
	"filevault/internal/model"
	"filevault/internal/repository"
	"filevault/internal/session"
)

// AuthService defines the credential and session use cases.
type AuthService interface {
	// Register creates a new account with a slow-hashed password.
	// Registering an email twice yields ErrAlreadyExists.
	Register(ctx context.Context, email, password string) (*model.User, error)

	// Authenticate verifies credentials and issues a session token.
	// Unknown email and wrong password both yield ErrUnauthorized.
	Authenticate(ctx context.Context, email, password string) (string, error)

	// Resolve maps a session token to its user identifier.
	// Absent and expired tokens yield ErrUnauthorized.
	Resolve(ctx context.Context, token string) (string, error)

	// Logout revokes the session behind token. An unknown token yields
	// ErrUnauthorized, matching Resolve.
	Logout(ctx context.Context, token string) error

	// Me returns the account of an already-resolved user identifier.
	Me(ctx context.Context, userID string) (*model.User, error)
}

type authService struct {
	users    repository.UserRepository
	sessions *session.Manager
	hasher   *auth.Hasher
}

// NewAuthService constructs an AuthService over the given stores.
func NewAuthService(users repository.UserRepository, sessions *session.Manager, hasher *auth.Hasher) AuthService {
	return &authService{users: users, sessions: sessions, hasher: hasher}
}

func (s *authService) Register(ctx context.Context, email, password string) (*model.User, error) {
	if email == "" {
		return nil, ErrMissingEmail
	}
	if password == "" {
		return nil, ErrMissingPassword
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	u := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	stored, err := s.users.Create(ctx, u)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return stored, nil
}

func (s *authService) Authenticate(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", ErrUnauthorized
	}

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Burn a comparison anyway so response timing does not reveal
			// whether the email exists.
			s.hasher.VerifyDummy(password)
			return "", ErrUnauthorized
		}
		return "", fmt.Errorf("find user: %w", err)
	}

	if !s.hasher.Verify(u.PasswordHash, password) {
		return "", ErrUnauthorized
	}

	token, err := s.sessions.Issue(ctx, u.ID)
	if err != nil {
		return "", fmt.Errorf("issue session: %w", err)
	}
	return token, nil
}

func (s *authService) Resolve(ctx context.Context, token string) (string, error) {
	userID, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			return "", ErrUnauthorized
		}
		return "", err
	}
	return userID, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	if _, err := s.Resolve(ctx, token); err != nil {
		return err
	}
	return s.sessions.Revoke(ctx, token)
}

func (s *authService) Me(ctx context.Context, userID string) (*model.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}
