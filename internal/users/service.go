package users

import (
	"context"
	"errors"
	"strings"
)

type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// Touch makes sure a user row exists before documents are attached to it.
func (s *Service) Touch(ctx context.Context, userID string) error {
	if s == nil || s.Repo == nil {
		return errors.New("users service not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return errors.New("user id is required")
	}
	return s.Repo.EnsureExists(ctx, userID)
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return User{}, errors.New("user id is required")
	}
	return s.Repo.GetByID(ctx, userID)
}

// SyncDocumentCount stores a freshly counted total rather than incrementing,
// so the counter self-heals after partial failures.
func (s *Service) SyncDocumentCount(ctx context.Context, userID string, count int) error {
	if s == nil || s.Repo == nil {
		return errors.New("users service not configured")
	}
	if count < 0 {
		count = 0
	}
	return s.Repo.SetDocumentCount(ctx, userID, count)
}
