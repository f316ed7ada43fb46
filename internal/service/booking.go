package service

import (
	"context"
	"fmt"
	"time"

	"github.com/avelhart/opsuite/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AppointmentRepository is the persistence contract for appointments
type AppointmentRepository interface {
	Create(ctx context.Context, a *domain.Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Appointment, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Appointment, error)
	Update(ctx context.Context, a *domain.Appointment) error
	ListByProfile(ctx context.Context, profileID uuid.UUID, limit, offset int) ([]domain.Appointment, error)
}

// BookingService owns one-off availabilities and the slot booking engine
type BookingService struct {
	availabilityRepo AvailabilityRepository
	appointmentRepo  AppointmentRepository
	profileRepo      ProfileRepository
	tx               TxManager
}

// NewBookingService creates a new booking service
func NewBookingService(
	availabilityRepo AvailabilityRepository,
	appointmentRepo AppointmentRepository,
	profileRepo ProfileRepository,
	tx TxManager,
) *BookingService {
	return &BookingService{
		availabilityRepo: availabilityRepo,
		appointmentRepo:  appointmentRepo,
		profileRepo:      profileRepo,
		tx:               tx,
	}
}

func (s *BookingService) ownedProfile(ctx context.Context, profileID, userID uuid.UUID) (*domain.SchedulingProfile, error) {
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

// CreateAvailability creates a one-off availability window with generated
// slots. The window must not overlap any existing availability of the host.
func (s *BookingService) CreateAvailability(ctx context.Context, profileID, userID uuid.UUID, input domain.AvailabilityCreate) (*domain.Availability, error) {
	if _, err := s.ownedProfile(ctx, profileID, userID); err != nil {
		return nil, err
	}

	av, err := domain.NewAvailability(profileID, nil, input.StartTime, input.EndTime,
		input.SlotDurationMinutes, input.Constraints, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		overlapping, err := s.availabilityRepo.HasOverlapping(ctx, profileID, av.StartTime, av.EndTime)
		if err != nil {
			return err
		}
		if overlapping {
			return domain.ConflictError("AVAILABILITY_OVERLAP",
				"profile %s already has availability overlapping [%s, %s)", profileID, av.StartTime, av.EndTime)
		}
		return s.availabilityRepo.Create(ctx, av)
	})
	if err != nil {
		return nil, err
	}

	return av, nil
}

// GetAvailableSlots returns a host's bookable slots within [from, to),
// ascending by start time
func (s *BookingService) GetAvailableSlots(ctx context.Context, profileID uuid.UUID, from, to time.Time) ([]domain.TimeSlot, error) {
	if !from.Before(to) {
		return nil, domain.ValidationError("INVALID_TIME_RANGE", "window start must precede end")
	}
	return s.availabilityRepo.ListAvailableSlots(ctx, profileID, from, to)
}

// BlockSlots blocks the caller's available slots. Slots that do not belong to
// the caller's profile, or are not currently available, are silently skipped
// rather than failed; the returned ids are the slots actually blocked.
func (s *BookingService) BlockSlots(ctx context.Context, profileID, userID uuid.UUID, slotIDs []uuid.UUID) ([]uuid.UUID, error) {
	return s.transitionSlots(ctx, profileID, userID, slotIDs, domain.SlotStatusAvailable, domain.SlotStatusBlocked)
}

// UnblockSlots reverses Block for the caller's blocked slots, with the same
// silent-skip semantics
func (s *BookingService) UnblockSlots(ctx context.Context, profileID, userID uuid.UUID, slotIDs []uuid.UUID) ([]uuid.UUID, error) {
	return s.transitionSlots(ctx, profileID, userID, slotIDs, domain.SlotStatusBlocked, domain.SlotStatusAvailable)
}

func (s *BookingService) transitionSlots(ctx context.Context, profileID, userID uuid.UUID, slotIDs []uuid.UUID, from, to domain.SlotStatus) ([]uuid.UUID, error) {
	if _, err := s.ownedProfile(ctx, profileID, userID); err != nil {
		return nil, err
	}

	processed := []uuid.UUID{}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		for _, slotID := range slotIDs {
			owner, err := s.availabilityRepo.GetSlotOwner(ctx, slotID)
			if err != nil {
				return err
			}
			if owner != profileID {
				// not the caller's slot (or unknown id): bulk ops are
				// best-effort, the id is just excluded from the result
				continue
			}

			changed, err := s.availabilityRepo.UpdateSlotStatus(ctx, slotID, from, to)
			if err != nil {
				return err
			}
			if changed {
				processed = append(processed, slotID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return processed, nil
}

// BookAppointment atomically books an available slot for a guest. The row
// lock on the slot serializes concurrent bookers; the unique constraint on
// the appointment's slot id is the final backstop, surfacing as a conflict.
func (s *BookingService) BookAppointment(ctx context.Context, hostProfileID, guestProfileID, slotID, userID uuid.UUID) (*domain.Appointment, error) {
	guest, err := s.ownedProfile(ctx, guestProfileID, userID)
	if err != nil {
		return nil, err
	}
	if hostProfileID == guest.ID {
		return nil, domain.ValidationError("INVALID_BOOKING", "host and guest profiles must differ")
	}

	var appt *domain.Appointment
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		slot, err := s.availabilityRepo.GetSlotForUpdate(ctx, slotID)
		if err != nil {
			return fmt.Errorf("failed to get slot: %w", err)
		}
		if slot == nil {
			return domain.NotFoundError("TIMESLOT_NOT_FOUND", "time slot %s not found", slotID)
		}

		av, err := s.availabilityRepo.GetByID(ctx, slot.AvailabilityID)
		if err != nil {
			return fmt.Errorf("failed to get availability: %w", err)
		}
		if av == nil || av.HostProfileID != hostProfileID {
			return domain.NotFoundError("TIMESLOT_NOT_FOUND",
				"time slot %s does not belong to host %s", slotID, hostProfileID)
		}

		if slot.Status != domain.SlotStatusAvailable {
			return domain.ConflictError("TIMESLOT_NOT_AVAILABLE",
				"time slot %s is %s", slotID, slot.Status)
		}

		now := time.Now().UTC()
		if av.Constraints.MinAdvanceBookingMinutes > 0 {
			earliest := now.Add(time.Duration(av.Constraints.MinAdvanceBookingMinutes) * time.Minute)
			if slot.StartTime.Before(earliest) {
				return domain.InvalidStateError("BOOKING_TOO_LATE",
					"slot starts within the %d minute advance window", av.Constraints.MinAdvanceBookingMinutes)
			}
		}
		if av.Constraints.MaxAdvanceBookingDays > 0 {
			latest := now.AddDate(0, 0, av.Constraints.MaxAdvanceBookingDays)
			if slot.StartTime.After(latest) {
				return domain.InvalidStateError("BOOKING_TOO_EARLY",
					"slot starts beyond the %d day booking horizon", av.Constraints.MaxAdvanceBookingDays)
			}
		}

		changed, err := s.availabilityRepo.UpdateSlotStatus(ctx, slotID, domain.SlotStatusAvailable, domain.SlotStatusBooked)
		if err != nil {
			return err
		}
		if !changed {
			return domain.ConflictError("TIMESLOT_NOT_AVAILABLE", "time slot %s is no longer available", slotID)
		}

		appt = domain.NewAppointment(slotID, hostProfileID, guestProfileID, now)
		return s.appointmentRepo.Create(ctx, appt)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("appointment_id", appt.ID.String()).
		Str("slot_id", slotID.String()).
		Str("host_profile_id", hostProfileID.String()).
		Str("guest_profile_id", guestProfileID.String()).
		Msg("appointment booked")

	return appt, nil
}

// CancelAppointment cancels a booked appointment and releases its slot. The
// host may always cancel; the guest is held to the availability's
// cancellation deadline.
func (s *BookingService) CancelAppointment(ctx context.Context, appointmentID, profileID, userID uuid.UUID) (*domain.Appointment, error) {
	caller, err := s.ownedProfile(ctx, profileID, userID)
	if err != nil {
		return nil, err
	}

	var appt *domain.Appointment
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		appt, err = s.appointmentRepo.GetByIDForUpdate(ctx, appointmentID)
		if err != nil {
			return fmt.Errorf("failed to get appointment: %w", err)
		}
		if appt == nil {
			return domain.NotFoundError("APPOINTMENT_NOT_FOUND", "appointment %s not found", appointmentID)
		}

		isHost := appt.HostProfileID == caller.ID
		isGuest := appt.GuestProfileID == caller.ID
		if !isHost && !isGuest {
			return domain.ForbiddenError("UNAUTHORIZED_PROFILE_ACCESS",
				"profile %s is not a party to appointment %s", caller.ID, appointmentID)
		}

		slot, err := s.availabilityRepo.GetSlot(ctx, appt.TimeSlotID)
		if err != nil {
			return fmt.Errorf("failed to get slot: %w", err)
		}

		now := time.Now().UTC()
		if isGuest && !isHost && slot != nil {
			av, err := s.availabilityRepo.GetByID(ctx, slot.AvailabilityID)
			if err != nil {
				return fmt.Errorf("failed to get availability: %w", err)
			}
			if av != nil && av.Constraints.CancellationDeadlineMinutes > 0 {
				deadline := slot.StartTime.Add(-time.Duration(av.Constraints.CancellationDeadlineMinutes) * time.Minute)
				if now.After(deadline) {
					return domain.InvalidStateError("CANCELLATION_DEADLINE_PASSED",
						"appointment %s can no longer be cancelled by the guest", appointmentID)
				}
			}
		}

		if err := appt.Cancel(caller.ID, now); err != nil {
			return err
		}
		if err := s.appointmentRepo.Update(ctx, appt); err != nil {
			return err
		}

		// release the slot for rebooking
		if _, err := s.availabilityRepo.UpdateSlotStatus(ctx, appt.TimeSlotID, domain.SlotStatusBooked, domain.SlotStatusAvailable); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return appt, nil
}

// CompleteAppointment marks a finished appointment completed; host only,
// and only after the slot has ended
func (s *BookingService) CompleteAppointment(ctx context.Context, appointmentID, profileID, userID uuid.UUID) (*domain.Appointment, error) {
	caller, err := s.ownedProfile(ctx, profileID, userID)
	if err != nil {
		return nil, err
	}

	var appt *domain.Appointment
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		appt, err = s.appointmentRepo.GetByIDForUpdate(ctx, appointmentID)
		if err != nil {
			return fmt.Errorf("failed to get appointment: %w", err)
		}
		if appt == nil {
			return domain.NotFoundError("APPOINTMENT_NOT_FOUND", "appointment %s not found", appointmentID)
		}
		if appt.HostProfileID != caller.ID {
			return domain.ForbiddenError("UNAUTHORIZED_PROFILE_ACCESS",
				"only the host may complete appointment %s", appointmentID)
		}

		now := time.Now().UTC()
		slot, err := s.availabilityRepo.GetSlot(ctx, appt.TimeSlotID)
		if err != nil {
			return fmt.Errorf("failed to get slot: %w", err)
		}
		if slot != nil && now.Before(slot.EndTime) {
			return domain.InvalidStateError("APPOINTMENT_NOT_FINISHED",
				"appointment %s has not ended yet", appointmentID)
		}

		if err := appt.Complete(now); err != nil {
			return err
		}
		return s.appointmentRepo.Update(ctx, appt)
	})
	if err != nil {
		return nil, err
	}

	return appt, nil
}

// ListAppointments returns appointments where the caller's profile is host or
// guest
func (s *BookingService) ListAppointments(ctx context.Context, profileID, userID uuid.UUID, limit, offset int) ([]domain.Appointment, error) {
	if _, err := s.ownedProfile(ctx, profileID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.appointmentRepo.ListByProfile(ctx, profileID, limit, offset)
}
