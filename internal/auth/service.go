// Package auth manages the credential lifecycle and identity profile
// hydration. Profiles live on the remote mirror under /users/{id}; this
// is the only read-through-remote path in the system, used for identity
// and never for lists or items.
package auth

import (
	"context"
	"fmt"

	"github.com/dnguyen/listsync/internal/mirror"
	"github.com/dnguyen/listsync/internal/model"
)

// Provider is the slice of the credential service the Service needs.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*Token, error)
	SignUp(ctx context.Context, email, password string) (*Token, error)
	UpdatePassword(ctx context.Context, idToken, newPassword string) (*Token, error)
}

// Service coordinates the credential provider, the mirror-held profile,
// and the persisted session.
type Service struct {
	provider Provider
	mirror   mirror.Mirror
	sessions SessionStore
}

// NewService creates an identity service over the given collaborators.
func NewService(provider Provider, m mirror.Mirror, sessions SessionStore) *Service {
	return &Service{
		provider: provider,
		mirror:   m,
		sessions: sessions,
	}
}

// Login signs in with email and password, hydrates the profile from
// the mirror, and persists the session.
func (s *Service) Login(ctx context.Context, email, password string) (*model.User, error) {
	tok, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}

	user, err := s.hydrateProfile(ctx, tok.UserID, email)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Save(Session{UserID: tok.UserID, Email: email, IDToken: tok.IDToken}); err != nil {
		return nil, fmt.Errorf("persisting session: %w", err)
	}

	return user, nil
}

// Register creates a new account, writes its profile to the mirror,
// and persists the session.
func (s *Service) Register(ctx context.Context, email, password, displayName string) (*model.User, error) {
	tok, err := s.provider.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}

	user := model.User{
		ID:          tok.UserID,
		Email:       email,
		DisplayName: displayName,
	}
	if err := s.mirror.SetUser(ctx, tok.UserID, user); err != nil {
		return nil, err
	}

	if err := s.sessions.Save(Session{UserID: tok.UserID, Email: email, IDToken: tok.IDToken}); err != nil {
		return nil, fmt.Errorf("persisting session: %w", err)
	}

	return &user, nil
}

// Resume restores a persisted session on process start. It returns
// (nil, nil) when no session is stored; otherwise the profile is
// hydrated from the mirror like on login.
func (s *Service) Resume(ctx context.Context) (*model.User, error) {
	sess, err := s.sessions.Load()
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}

	return s.hydrateProfile(ctx, sess.UserID, sess.Email)
}

// ChangePassword re-authenticates with the current password, then
// updates it and refreshes the persisted session token.
func (s *Service) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	sess, err := s.sessions.Load()
	if err != nil {
		return err
	}
	if sess == nil {
		return fmt.Errorf("user not authenticated")
	}

	tok, err := s.provider.SignIn(ctx, sess.Email, currentPassword)
	if err != nil {
		return err
	}

	updated, err := s.provider.UpdatePassword(ctx, tok.IDToken, newPassword)
	if err != nil {
		return err
	}

	return s.sessions.Save(Session{
		UserID:  sess.UserID,
		Email:   sess.Email,
		IDToken: updated.IDToken,
	})
}

// SignOut drops the persisted session. Local data is left untouched.
func (s *Service) SignOut() error {
	return s.sessions.Clear()
}

// hydrateProfile reads the profile from the mirror, falling back to a
// profile synthesized from credential metadata when the stored one is
// absent or has no display name.
func (s *Service) hydrateProfile(ctx context.Context, userID, email string) (*model.User, error) {
	stored, err := s.mirror.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if stored != nil && stored.DisplayName != "" {
		return stored, nil
	}

	return &model.User{
		ID:          userID,
		Email:       email,
		DisplayName: model.FallbackDisplayName(email),
	}, nil
}
