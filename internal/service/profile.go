package service

import (
	"context"
	"fmt"
	"time"

	"github.com/avelhart/opsuite/internal/domain"
	"github.com/google/uuid"
)

// ProfileService handles scheduling profile operations
type ProfileService struct {
	profileRepo ProfileRepository
}

// NewProfileService creates a new profile service
func NewProfileService(profileRepo ProfileRepository) *ProfileService {
	return &ProfileService{profileRepo: profileRepo}
}

// Create validates and persists a scheduling profile. A user may hold at most
// one individual profile; business names must be unique among the user's
// profiles. Both rules are also backed by partial unique indexes.
func (s *ProfileService) Create(ctx context.Context, userID uuid.UUID, input domain.ProfileCreate) (*domain.SchedulingProfile, error) {
	profile, err := domain.NewSchedulingProfile(userID, input, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	existing, err := s.profileRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	for _, p := range existing {
		if profile.Type == domain.ProfileTypeIndividual && p.Type == domain.ProfileTypeIndividual {
			return nil, domain.ConflictError("PROFILE_ALREADY_EXISTS",
				"user %s already has an individual profile", userID)
		}
		if profile.Type == domain.ProfileTypeBusiness && p.BusinessName == profile.BusinessName {
			return nil, domain.ConflictError("BUSINESS_NAME_ALREADY_EXISTS",
				"user %s already has a profile named %q", userID, profile.BusinessName)
		}
	}

	if err := s.profileRepo.Create(ctx, profile); err != nil {
		return nil, err
	}

	return profile, nil
}

// Get retrieves a profile by ID
func (s *ProfileService) Get(ctx context.Context, id uuid.UUID) (*domain.SchedulingProfile, error) {
	profile, err := s.profileRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if profile == nil {
		return nil, domain.NotFoundError("PROFILE_NOT_FOUND", "profile %s not found", id)
	}
	return profile, nil
}

// ListByUser returns all profiles owned by a user
func (s *ProfileService) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.SchedulingProfile, error) {
	return s.profileRepo.ListByUser(ctx, userID)
}
