// Package service contains the business rules, sitting between the HTTP
// handlers and the repositories:
//
//	handler (HTTP) → service (rules) → repository (SQL)
//
// Services accept plain values and context, never *http.Request, and return
// domain errors, never status codes. The handlers own the translation in
// both directions.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/avasilyev/commentboard/internal/auth"
	"github.com/avasilyev/commentboard/internal/model"
	"github.com/avasilyev/commentboard/internal/repository"
)

// AuthService resolves normalized OAuth profiles to user accounts.
type AuthService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

// NewAuthService creates an AuthService.
func NewAuthService(users repository.UserRepository, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		logger: logger,
	}
}

// Login turns a normalized profile into the one user account for that
// external identity, creating it on first login.
//
// Identity is write-once: if the account already exists, the stored name and
// email win over whatever the provider reported this time. The returned user
// is always the canonical stored row — the repository guarantees a single
// row per (provider, provider_user_id) even when two first logins race.
func (s *AuthService) Login(ctx context.Context, profile *auth.Profile) (*model.User, error) {
	if profile == nil {
		return nil, fmt.Errorf("service/auth: profile must not be nil")
	}

	user := &model.User{
		Provider:       profile.Provider,
		ProviderUserID: profile.ProviderUserID,
		Name:           profile.Name,
		Email:          profile.Email,
	}

	if err := s.users.FindOrCreate(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: resolving user %s/%s: %w",
			profile.Provider, profile.ProviderUserID, err)
	}

	s.logger.Info("user logged in",
		slog.String("userID", user.ID),
		slog.String("provider", user.Provider),
		slog.String("name", user.Name),
	)

	return user, nil
}

// UserByID fetches a user for an authenticated session.
// Returns apperror.ErrNotFound when the session references a user that no
// longer exists (e.g. the database file was recreated under a live cookie).
func (s *AuthService) UserByID(ctx context.Context, id string) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}
