package users

import (
	"context"
	"errors"
	"strings"

	"notes-backend/internal/shared/telemetry"
)

type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// UpsertFromAuth persists the identity from OAuth so participant names stay
// stable between logins.
func (s *Service) UpsertFromAuth(ctx context.Context, user User) error {
	if s == nil || s.Repo == nil {
		return errors.New("users service not configured")
	}
	if strings.TrimSpace(user.ID) == "" || strings.TrimSpace(user.Email) == "" {
		return errors.New("user id and email are required")
	}
	return s.Repo.Upsert(ctx, user)
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

// ParticipantName is the name recorded as a note's participant: the email
// from the token, else the stored profile email. Guests have none.
func (s *Service) ParticipantName(ctx context.Context, userID, tokenEmail string) string {
	if email := strings.TrimSpace(tokenEmail); email != "" {
		return email
	}
	if s == nil || s.Repo == nil || strings.TrimSpace(userID) == "" || IsGuest(userID) {
		return ""
	}
	user, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			telemetry.Warn("users.lookup_failed", map[string]any{"user_id": userID, "error": err.Error()})
		}
		return ""
	}
	return user.Email
}
