package users

import (
	"context"
	"errors"
	"strings"

	"mission-backend/internal/shared/telemetry"
)

var errNotConfigured = errors.New("users service not configured")

type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// UpsertFromAuth records the identity returned by an OAuth provider.
func (s *Service) UpsertFromAuth(ctx context.Context, user User) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errNotConfigured
	}
	user = user.normalized()
	if user.ID == "" || user.Email == "" {
		return User{}, ErrInvalid
	}
	stored, created, err := s.Repo.Upsert(ctx, user)
	if err != nil {
		return User{}, err
	}
	if created {
		telemetry.Info("user.created", map[string]any{"user_id": stored.ID, "provider": stored.Provider})
	}
	return stored, nil
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errNotConfigured
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return User{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, userID)
}
