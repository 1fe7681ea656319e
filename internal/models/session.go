package models

import (
	"fmt"
	"strings"
	"time"
)

// Session is a locally persisted login. Its token is attached as a bearer token to backend requests.
type Session struct {
	id          string
	sequence    int
	email       string
	accessToken string
	tokenType   string
	createdAt   time.Time
	updatedAt   time.Time
	deletedAt   *time.Time
}

// NewSession creates a Session with timestamps set to now.
func NewSession(sequence int, email, accessToken, tokenType string) *Session {
	now := time.Now().UTC()
	if tokenType == "" {
		tokenType = "bearer"
	}
	return &Session{
		sequence:    sequence,
		email:       email,
		accessToken: accessToken,
		tokenType:   tokenType,
		createdAt:   now,
		updatedAt:   now,
	}
}

func (s *Session) ID() string            { return s.id }
func (s *Session) Sequence() int         { return s.sequence }
func (s *Session) Email() string         { return s.email }
func (s *Session) AccessToken() string   { return s.accessToken }
func (s *Session) TokenType() string     { return s.tokenType }
func (s *Session) CreatedAt() time.Time  { return s.createdAt }
func (s *Session) UpdatedAt() time.Time  { return s.updatedAt }
func (s *Session) DeletedAt() *time.Time { return s.deletedAt }
func (s *Session) IsDeleted() bool       { return s.deletedAt != nil }

func (s *Session) SetID(id string)             { s.id = id }
func (s *Session) SetSequence(n int)           { s.sequence = n }
func (s *Session) SetAccessToken(token string) { s.accessToken = token }
func (s *Session) SetCreatedAt(t time.Time)    { s.createdAt = t }
func (s *Session) SetUpdatedAt(t time.Time)    { s.updatedAt = t }
func (s *Session) SetDeletedAt(t *time.Time)   { s.deletedAt = t }

// Validate checks that the session carries an email and a token.
func (s *Session) Validate() error {
	if strings.TrimSpace(s.email) == "" {
		return fmt.Errorf("session email is required")
	}
	if strings.TrimSpace(s.accessToken) == "" {
		return fmt.Errorf("session access token is required")
	}
	return nil
}

var _ Model = (*Session)(nil)
