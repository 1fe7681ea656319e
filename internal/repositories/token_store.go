package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/pullsense/internal/models"
	"github.com/desertthunder/pullsense/internal/shared"
)

// SessionTokenStore implements services.TokenStore using [SessionRepository].
//
// The current session's token is read on every call so a login or logout in another process takes effect immediately.
type SessionTokenStore struct {
	repo *SessionRepository
}

// NewSessionTokenStore creates a new SessionTokenStore with the given repository
func NewSessionTokenStore(repo *SessionRepository) *SessionTokenStore {
	return &SessionTokenStore{repo: repo}
}

// Token returns the current access token, or "" when nobody is logged in.
func (s *SessionTokenStore) Token(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	session, err := s.repo.Current()
	if errors.Is(err, shared.ErrNotAuthenticated) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load session: %w", err)
	}
	return session.AccessToken(), nil
}

// Save stores a new session for email, replacing any previous login.
func (s *SessionTokenStore) Save(ctx context.Context, email, accessToken, tokenType string) (*models.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if _, err := s.repo.DeleteAll(); err != nil {
		return nil, err
	}

	session := models.NewSession(0, email, accessToken, tokenType)
	if err := s.repo.Create(session); err != nil {
		return nil, err
	}
	return session, nil
}

// Clear removes every stored session.
func (s *SessionTokenStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.repo.DeleteAll()
	return err
}
