package service

import (
	"context"
	"fmt"
	"time"

	"github.com/avelhart/opsuite/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ScheduleRepository is the persistence contract for recurring schedules
type ScheduleRepository interface {
	Create(ctx context.Context, s *domain.Schedule) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Schedule, error)
	ListByProfile(ctx context.Context, profileID uuid.UUID) ([]domain.Schedule, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool, now time.Time) error
}

// ProfileRepository is the persistence contract for scheduling profiles
type ProfileRepository interface {
	Create(ctx context.Context, p *domain.SchedulingProfile) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.SchedulingProfile, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.SchedulingProfile, error)
}

// AvailabilityRepository is the persistence contract for availabilities and
// time slots
type AvailabilityRepository interface {
	Create(ctx context.Context, av *domain.Availability) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Availability, error)
	HasOverlapping(ctx context.Context, hostProfileID uuid.UUID, start, end time.Time) (bool, error)
	ListByProfile(ctx context.Context, hostProfileID uuid.UUID, from, to time.Time) ([]domain.Availability, error)
	GetSlot(ctx context.Context, id uuid.UUID) (*domain.TimeSlot, error)
	GetSlotForUpdate(ctx context.Context, id uuid.UUID) (*domain.TimeSlot, error)
	GetSlotOwner(ctx context.Context, slotID uuid.UUID) (uuid.UUID, error)
	UpdateSlotStatus(ctx context.Context, slotID uuid.UUID, from, to domain.SlotStatus) (bool, error)
	ListAvailableSlots(ctx context.Context, hostProfileID uuid.UUID, from, to time.Time) ([]domain.TimeSlot, error)
	ListSlotsByAvailability(ctx context.Context, availabilityID uuid.UUID) ([]domain.TimeSlot, error)
}

// ScheduleService manages recurring schedules and expands them into concrete
// availabilities
type ScheduleService struct {
	scheduleRepo     ScheduleRepository
	profileRepo      ProfileRepository
	availabilityRepo AvailabilityRepository
	tx               TxManager
}

// NewScheduleService creates a new schedule service
func NewScheduleService(
	scheduleRepo ScheduleRepository,
	profileRepo ProfileRepository,
	availabilityRepo AvailabilityRepository,
	tx TxManager,
) *ScheduleService {
	return &ScheduleService{
		scheduleRepo:     scheduleRepo,
		profileRepo:      profileRepo,
		availabilityRepo: availabilityRepo,
		tx:               tx,
	}
}

// ownedProfile loads a profile and verifies the caller owns it
func (s *ScheduleService) ownedProfile(ctx context.Context, profileID, userID uuid.UUID) (*domain.SchedulingProfile, error) {
	profile, err := s.profileRepo.GetByID(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if profile == nil {
		return nil, domain.NotFoundError("PROFILE_NOT_FOUND", "profile %s not found", profileID)
	}
	if profile.UserID != userID {
		return nil, domain.ForbiddenError("UNAUTHORIZED_PROFILE_ACCESS",
			"user %s does not own profile %s", userID, profileID)
	}
	return profile, nil
}

// Create validates and persists a new recurring schedule
func (s *ScheduleService) Create(ctx context.Context, profileID, userID uuid.UUID, input domain.ScheduleCreate) (*domain.Schedule, error) {
	if _, err := s.ownedProfile(ctx, profileID, userID); err != nil {
		return nil, err
	}

	schedule, err := domain.NewSchedule(profileID, input, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.scheduleRepo.Create(ctx, schedule); err != nil {
		return nil, err
	}

	return schedule, nil
}

// ListByProfile returns a profile's schedules
func (s *ScheduleService) ListByProfile(ctx context.Context, profileID uuid.UUID) ([]domain.Schedule, error) {
	return s.scheduleRepo.ListByProfile(ctx, profileID)
}

// Pause deactivates a schedule; paused schedules are skipped by generation
func (s *ScheduleService) Pause(ctx context.Context, scheduleID, userID uuid.UUID) error {
	return s.setActive(ctx, scheduleID, userID, false)
}

// Resume reactivates a paused schedule
func (s *ScheduleService) Resume(ctx context.Context, scheduleID, userID uuid.UUID) error {
	return s.setActive(ctx, scheduleID, userID, true)
}

func (s *ScheduleService) setActive(ctx context.Context, scheduleID, userID uuid.UUID, active bool) error {
	schedule, err := s.scheduleRepo.GetByID(ctx, scheduleID)
	if err != nil {
		return fmt.Errorf("failed to get schedule: %w", err)
	}
	if schedule == nil {
		return domain.NotFoundError("SCHEDULE_NOT_FOUND", "schedule %s not found", scheduleID)
	}
	if _, err := s.ownedProfile(ctx, schedule.ProfileID, userID); err != nil {
		return err
	}

	return s.scheduleRepo.SetActive(ctx, scheduleID, active, time.Now().UTC())
}

// Generate expands a schedule over [fromDate, toDate] into concrete
// availabilities with generated slots. Dates whose window would overlap an
// existing availability of the host are skipped, not failed. The expansion is
// deterministic: the same schedule and range always yield the same slot
// boundaries.
func (s *ScheduleService) Generate(ctx context.Context, scheduleID, userID uuid.UUID, fromDate, toDate time.Time) (*domain.GenerationResult, error) {
	schedule, err := s.scheduleRepo.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	if schedule == nil {
		return nil, domain.NotFoundError("SCHEDULE_NOT_FOUND", "schedule %s not found", scheduleID)
	}
	if _, err := s.ownedProfile(ctx, schedule.ProfileID, userID); err != nil {
		return nil, err
	}

	from := fromDate.UTC().Truncate(24 * time.Hour)
	to := toDate.UTC().Truncate(24 * time.Hour)
	if to.Before(from) {
		return nil, domain.ValidationError("INVALID_DATE_RANGE", "generation range end precedes start")
	}

	result := &domain.GenerationResult{}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		now := time.Now().UTC()
		for day := from; !day.After(to); day = day.Add(24 * time.Hour) {
			if !schedule.IsEffectiveOn(day) {
				continue
			}

			start, end := schedule.WindowOn(day)

			overlapping, err := s.availabilityRepo.HasOverlapping(ctx, schedule.ProfileID, start, end)
			if err != nil {
				return err
			}
			if overlapping {
				result.SkippedCount++
				result.SkippedDates = append(result.SkippedDates, day.Format("2006-01-02"))
				continue
			}

			av, err := domain.NewAvailability(schedule.ProfileID, &schedule.ID, start, end,
				schedule.SlotDurationMinutes, schedule.Constraints, now)
			if err != nil {
				return err
			}
			if err := s.availabilityRepo.Create(ctx, av); err != nil {
				return err
			}

			result.GeneratedCount++
			result.AvailabilityIDs = append(result.AvailabilityIDs, av.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("schedule_id", scheduleID.String()).
		Int("generated", result.GeneratedCount).
		Int("skipped", result.SkippedCount).
		Msg("availabilities generated")

	return result, nil
}
