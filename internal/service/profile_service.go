package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/neuroguard/neuroguard-api/internal/domain"
	"github.com/neuroguard/neuroguard-api/internal/repository/ports"
)

// ProfileService resolves a validated identity claim to the account's
// public profile.
type ProfileService struct {
	users ports.UserRepository
}

func NewProfileService(users ports.UserRepository) *ProfileService {
	return &ProfileService{users: users}
}

func (s *ProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (domain.Profile, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Profile{}, domain.NewNotFound("User not found")
		}
		return domain.Profile{}, domain.NewInternal(err)
	}
	return domain.ProfileOf(user), nil
}
