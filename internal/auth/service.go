package auth

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/udyogbooks/udyogbooks/internal/shared"
)

// Service wraps authentication business rules on top of the session store.
type Service struct {
	repo     Repository
	sessions *shared.SessionManager
}

// NewService constructs a new Service.
func NewService(repo Repository, sessions *shared.SessionManager) *Service {
	return &Service{repo: repo, sessions: sessions}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates and issues a fresh session token.
func (s *Service) Login(ctx context.Context, email, password string) (*User, *shared.Session, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}
	sess, err := s.sessions.Issue(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("issue session: %w", err)
	}
	return user, sess, nil
}

// Refresh rotates an active session token.
func (s *Service) Refresh(ctx context.Context, token string) (*shared.Session, error) {
	return s.sessions.Refresh(ctx, token)
}

// Logout revokes the session token.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Revoke(ctx, token)
}

// UserFromSession resolves the session owner.
func (s *Service) UserFromSession(ctx context.Context, sess *shared.Session) (*User, error) {
	if !sess.Active() {
		return nil, shared.ErrSessionInvalid
	}
	return s.repo.FindByID(ctx, sess.UserID)
}
