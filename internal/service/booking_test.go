package service

import (
	"context"
	"testing"
	"time"

	"github.com/avelhart/opsuite/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newBookingFixture() (*MockAvailabilityRepository, *MockAppointmentRepository, *MockProfileRepository, *BookingService) {
	availabilityRepo := new(MockAvailabilityRepository)
	appointmentRepo := new(MockAppointmentRepository)
	profileRepo := new(MockProfileRepository)
	svc := NewBookingService(availabilityRepo, appointmentRepo, profileRepo, stubTx{})
	return availabilityRepo, appointmentRepo, profileRepo, svc
}

func TestCreateAvailability(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Hour)

	t.Run("creates a window partitioned into slots", func(t *testing.T) {
		availabilityRepo, _, profileRepo, svc := newBookingFixture()

		profile := ownedTestProfile(userID)
		profileRepo.On("GetByID", mock.Anything, profile.ID).Return(profile, nil)
		availabilityRepo.On("HasOverlapping", mock.Anything, profile.ID, mock.Anything, mock.Anything).Return(false, nil)
		availabilityRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		av, err := svc.CreateAvailability(ctx, profile.ID, userID, domain.AvailabilityCreate{
			StartTime:           start,
			EndTime:             start.Add(2 * time.Hour),
			SlotDurationMinutes: 45,
		})

		assert.NoError(t, err)
		assert.Equal(t, profile.ID, av.HostProfileID)
		assert.Nil(t, av.ScheduleID)
		// 120 minutes fit two whole 45 minute slots, the remainder is dropped
		assert.Len(t, av.Slots, 2)
		availabilityRepo.AssertExpectations(t)
	})

	t.Run("rejects an overlapping window", func(t *testing.T) {
		availabilityRepo, _, profileRepo, svc := newBookingFixture()

		profile := ownedTestProfile(userID)
		profileRepo.On("GetByID", mock.Anything, profile.ID).Return(profile, nil)
		availabilityRepo.On("HasOverlapping", mock.Anything, profile.ID, mock.Anything, mock.Anything).Return(true, nil)

		_, err := svc.CreateAvailability(ctx, profile.ID, userID, domain.AvailabilityCreate{
			StartTime:           start,
			EndTime:             start.Add(time.Hour),
			SlotDurationMinutes: 30,
		})

		assertDomainCode(t, err, "AVAILABILITY_OVERLAP")
		availabilityRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects a window shorter than one slot", func(t *testing.T) {
		_, _, profileRepo, svc := newBookingFixture()

		profile := ownedTestProfile(userID)
		profileRepo.On("GetByID", mock.Anything, profile.ID).Return(profile, nil)

		_, err := svc.CreateAvailability(ctx, profile.ID, userID, domain.AvailabilityCreate{
			StartTime:           start,
			EndTime:             start.Add(20 * time.Minute),
			SlotDurationMinutes: 30,
		})

		assertDomainCode(t, err, "INVALID_TIME_RANGE")
	})
}

func TestBlockSlots(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("blocks owned available slots and skips the rest", func(t *testing.T) {
		availabilityRepo, _, profileRepo, svc := newBookingFixture()

		profile := ownedTestProfile(userID)
		profileRepo.On("GetByID", mock.Anything, profile.ID).Return(profile, nil)

		owned := uuid.New()
		foreign := uuid.New()
		alreadyBooked := uuid.New()

		availabilityRepo.On("GetSlotOwner", mock.Anything, owned).Return(profile.ID, nil)
		availabilityRepo.On("GetSlotOwner", mock.Anything, foreign).Return(uuid.New(), nil)
		availabilityRepo.On("GetSlotOwner", mock.Anything, alreadyBooked).Return(profile.ID, nil)
		availabilityRepo.On("UpdateSlotStatus", mock.Anything, owned, domain.SlotStatusAvailable, domain.SlotStatusBlocked).Return(true, nil)
		availabilityRepo.On("UpdateSlotStatus", mock.Anything, alreadyBooked, domain.SlotStatusAvailable, domain.SlotStatusBlocked).Return(false, nil)

		processed, err := svc.BlockSlots(ctx, profile.ID, userID, []uuid.UUID{owned, foreign, alreadyBooked})

		assert.NoError(t, err)
		assert.Equal(t, []uuid.UUID{owned}, processed)
	})

	t.Run("unblock reverses the transition", func(t *testing.T) {
		availabilityRepo, _, profileRepo, svc := newBookingFixture()

		profile := ownedTestProfile(userID)
		profileRepo.On("GetByID", mock.Anything, profile.ID).Return(profile, nil)

		slotID := uuid.New()
		availabilityRepo.On("GetSlotOwner", mock.Anything, slotID).Return(profile.ID, nil)
		availabilityRepo.On("UpdateSlotStatus", mock.Anything, slotID, domain.SlotStatusBlocked, domain.SlotStatusAvailable).Return(true, nil)

		processed, err := svc.UnblockSlots(ctx, profile.ID, userID, []uuid.UUID{slotID})

		assert.NoError(t, err)
		assert.Equal(t, []uuid.UUID{slotID}, processed)
	})
}

func TestBookAppointment(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	hostProfileID := uuid.New()

	futureSlot := func(availabilityID uuid.UUID, startsIn time.Duration) *domain.TimeSlot {
		start := time.Now().UTC().Add(startsIn)
		return &domain.TimeSlot{
			ID:             uuid.New(),
			AvailabilityID: availabilityID,
			StartTime:      start,
			EndTime:        start.Add(30 * time.Minute),
			Status:         domain.SlotStatusAvailable,
		}
	}

	hostAvailability := func(constraints domain.BookingConstraints) *domain.Availability {
		return &domain.Availability{
			ID:            uuid.New(),
			HostProfileID: hostProfileID,
			Constraints:   constraints,
		}
	}

	t.Run("books an available slot", func(t *testing.T) {
		availabilityRepo, appointmentRepo, profileRepo, svc := newBookingFixture()

		guest := ownedTestProfile(userID)
		av := hostAvailability(domain.BookingConstraints{})
		slot := futureSlot(av.ID, 48*time.Hour)

		profileRepo.On("GetByID", mock.Anything, guest.ID).Return(guest, nil)
		availabilityRepo.On("GetSlotForUpdate", mock.Anything, slot.ID).Return(slot, nil)
		availabilityRepo.On("GetByID", mock.Anything, av.ID).Return(av, nil)
		availabilityRepo.On("UpdateSlotStatus", mock.Anything, slot.ID, domain.SlotStatusAvailable, domain.SlotStatusBooked).Return(true, nil)
		appointmentRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		appt, err := svc.BookAppointment(ctx, hostProfileID, guest.ID, slot.ID, userID)

		assert.NoError(t, err)
		assert.Equal(t, domain.AppointmentStatusBooked, appt.Status)
		assert.Equal(t, slot.ID, appt.TimeSlotID)
		assert.Equal(t, hostProfileID, appt.HostProfileID)
		assert.Equal(t, guest.ID, appt.GuestProfileID)
		appointmentRepo.AssertExpectations(t)
	})

	t.Run("refuses a slot that is not available", func(t *testing.T) {
		availabilityRepo, appointmentRepo, profileRepo, svc := newBookingFixture()

		guest := ownedTestProfile(userID)
		av := hostAvailability(domain.BookingConstraints{})
		slot := futureSlot(av.ID, 48*time.Hour)
		slot.Status = domain.SlotStatusBooked

		profileRepo.On("GetByID", mock.Anything, guest.ID).Return(guest, nil)
		availabilityRepo.On("GetSlotForUpdate", mock.Anything, slot.ID).Return(slot, nil)
		availabilityRepo.On("GetByID", mock.Anything, av.ID).Return(av, nil)

		_, err := svc.BookAppointment(ctx, hostProfileID, guest.ID, slot.ID, userID)

		assertDomainCode(t, err, "TIMESLOT_NOT_AVAILABLE")
		appointmentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("refuses a slot raced away by a concurrent booker", func(t *testing.T) {
		availabilityRepo, _, profileRepo, svc := newBookingFixture()

		guest := ownedTestProfile(userID)
		av := hostAvailability(domain.BookingConstraints{})
		slot := futureSlot(av.ID, 48*time.Hour)

		profileRepo.On("GetByID", mock.Anything, guest.ID).Return(guest, nil)
		availabilityRepo.On("GetSlotForUpdate", mock.Anything, slot.ID).Return(slot, nil)
		availabilityRepo.On("GetByID", mock.Anything, av.ID).Return(av, nil)
		availabilityRepo.On("UpdateSlotStatus", mock.Anything, slot.ID, domain.SlotStatusAvailable, domain.SlotStatusBooked).Return(false, nil)

		_, err := svc.BookAppointment(ctx, hostProfileID, guest.ID, slot.ID, userID)

		assertDomainCode(t, err, "TIMESLOT_NOT_AVAILABLE")
	})

	t.Run("enforces the minimum advance window", func(t *testing.T) {
		availabilityRepo, _, profileRepo, svc := newBookingFixture()

		guest := ownedTestProfile(userID)
		av := hostAvailability(domain.BookingConstraints{MinAdvanceBookingMinutes: 60})
		slot := futureSlot(av.ID, 10*time.Minute)

		profileRepo.On("GetByID", mock.Anything, guest.ID).Return(guest, nil)
		availabilityRepo.On("GetSlotForUpdate", mock.Anything, slot.ID).Return(slot, nil)
		availabilityRepo.On("GetByID", mock.Anything, av.ID).Return(av, nil)

		_, err := svc.BookAppointment(ctx, hostProfileID, guest.ID, slot.ID, userID)

		assertDomainCode(t, err, "BOOKING_TOO_LATE")
	})

	t.Run("enforces the booking horizon", func(t *testing.T) {
		availabilityRepo, _, profileRepo, svc := newBookingFixture()

		guest := ownedTestProfile(userID)
		av := hostAvailability(domain.BookingConstraints{MaxAdvanceBookingDays: 7})
		slot := futureSlot(av.ID, 30*24*time.Hour)

		profileRepo.On("GetByID", mock.Anything, guest.ID).Return(guest, nil)
		availabilityRepo.On("GetSlotForUpdate", mock.Anything, slot.ID).Return(slot, nil)
		availabilityRepo.On("GetByID", mock.Anything, av.ID).Return(av, nil)

		_, err := svc.BookAppointment(ctx, hostProfileID, guest.ID, slot.ID, userID)

		assertDomainCode(t, err, "BOOKING_TOO_EARLY")
	})

	t.Run("host cannot book their own slot", func(t *testing.T) {
		_, _, profileRepo, svc := newBookingFixture()

		guest := ownedTestProfile(userID)
		profileRepo.On("GetByID", mock.Anything, guest.ID).Return(guest, nil)

		_, err := svc.BookAppointment(ctx, guest.ID, guest.ID, uuid.New(), userID)

		assertDomainCode(t, err, "INVALID_BOOKING")
	})

	t.Run("unknown slot is not found", func(t *testing.T) {
		availabilityRepo, _, profileRepo, svc := newBookingFixture()

		guest := ownedTestProfile(userID)
		slotID := uuid.New()

		profileRepo.On("GetByID", mock.Anything, guest.ID).Return(guest, nil)
		availabilityRepo.On("GetSlotForUpdate", mock.Anything, slotID).Return(nil, nil)

		_, err := svc.BookAppointment(ctx, hostProfileID, guest.ID, slotID, userID)

		assertDomainCode(t, err, "TIMESLOT_NOT_FOUND")
	})
}

func TestCancelAppointment(t *testing.T) {
	ctx := context.Background()
	hostUserID := uuid.New()
	guestUserID := uuid.New()

	type parties struct {
		host  *domain.SchedulingProfile
		guest *domain.SchedulingProfile
		av    *domain.Availability
		slot  *domain.TimeSlot
		appt  *domain.Appointment
	}

	setup := func(constraints domain.BookingConstraints, startsIn time.Duration) parties {
		host := ownedTestProfile(hostUserID)
		guest := ownedTestProfile(guestUserID)
		av := &domain.Availability{ID: uuid.New(), HostProfileID: host.ID, Constraints: constraints}
		start := time.Now().UTC().Add(startsIn)
		slot := &domain.TimeSlot{
			ID:             uuid.New(),
			AvailabilityID: av.ID,
			StartTime:      start,
			EndTime:        start.Add(30 * time.Minute),
			Status:         domain.SlotStatusBooked,
		}
		appt := domain.NewAppointment(slot.ID, host.ID, guest.ID, time.Now().UTC())
		return parties{host: host, guest: guest, av: av, slot: slot, appt: appt}
	}

	t.Run("guest cancels before the deadline and the slot is released", func(t *testing.T) {
		availabilityRepo, appointmentRepo, profileRepo, svc := newBookingFixture()

		p := setup(domain.BookingConstraints{CancellationDeadlineMinutes: 60}, 3*time.Hour)

		profileRepo.On("GetByID", mock.Anything, p.guest.ID).Return(p.guest, nil)
		appointmentRepo.On("GetByIDForUpdate", mock.Anything, p.appt.ID).Return(p.appt, nil)
		availabilityRepo.On("GetSlot", mock.Anything, p.slot.ID).Return(p.slot, nil)
		availabilityRepo.On("GetByID", mock.Anything, p.av.ID).Return(p.av, nil)
		appointmentRepo.On("Update", mock.Anything, p.appt).Return(nil)
		availabilityRepo.On("UpdateSlotStatus", mock.Anything, p.slot.ID, domain.SlotStatusBooked, domain.SlotStatusAvailable).Return(true, nil)

		appt, err := svc.CancelAppointment(ctx, p.appt.ID, p.guest.ID, guestUserID)

		assert.NoError(t, err)
		assert.Equal(t, domain.AppointmentStatusCancelled, appt.Status)
		assert.Equal(t, p.guest.ID, *appt.CanceledBy)
		availabilityRepo.AssertExpectations(t)
	})

	t.Run("a released slot can be booked again", func(t *testing.T) {
		availabilityRepo, appointmentRepo, profileRepo, svc := newBookingFixture()

		p := setup(domain.BookingConstraints{}, 72*time.Hour)
		rebooker := ownedTestProfile(uuid.New())

		profileRepo.On("GetByID", mock.Anything, p.guest.ID).Return(p.guest, nil)
		profileRepo.On("GetByID", mock.Anything, rebooker.ID).Return(rebooker, nil)
		appointmentRepo.On("GetByIDForUpdate", mock.Anything, p.appt.ID).Return(p.appt, nil)
		availabilityRepo.On("GetSlot", mock.Anything, p.slot.ID).Return(p.slot, nil)
		availabilityRepo.On("GetSlotForUpdate", mock.Anything, p.slot.ID).Return(p.slot, nil)
		availabilityRepo.On("GetByID", mock.Anything, p.av.ID).Return(p.av, nil)
		appointmentRepo.On("Update", mock.Anything, p.appt).Return(nil)
		appointmentRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		availabilityRepo.On("UpdateSlotStatus", mock.Anything, p.slot.ID, domain.SlotStatusBooked, domain.SlotStatusAvailable).
			Run(func(mock.Arguments) { p.slot.Status = domain.SlotStatusAvailable }).
			Return(true, nil)
		availabilityRepo.On("UpdateSlotStatus", mock.Anything, p.slot.ID, domain.SlotStatusAvailable, domain.SlotStatusBooked).
			Run(func(mock.Arguments) { p.slot.Status = domain.SlotStatusBooked }).
			Return(true, nil)

		_, err := svc.CancelAppointment(ctx, p.appt.ID, p.guest.ID, guestUserID)
		assert.NoError(t, err)
		assert.Equal(t, domain.SlotStatusAvailable, p.slot.Status)

		appt, err := svc.BookAppointment(ctx, p.host.ID, rebooker.ID, p.slot.ID, rebooker.UserID)

		assert.NoError(t, err)
		assert.Equal(t, domain.AppointmentStatusBooked, appt.Status)
		assert.Equal(t, p.slot.ID, appt.TimeSlotID)
	})

	t.Run("guest is held to the cancellation deadline", func(t *testing.T) {
		availabilityRepo, appointmentRepo, profileRepo, svc := newBookingFixture()

		p := setup(domain.BookingConstraints{CancellationDeadlineMinutes: 60}, 10*time.Minute)

		profileRepo.On("GetByID", mock.Anything, p.guest.ID).Return(p.guest, nil)
		appointmentRepo.On("GetByIDForUpdate", mock.Anything, p.appt.ID).Return(p.appt, nil)
		availabilityRepo.On("GetSlot", mock.Anything, p.slot.ID).Return(p.slot, nil)
		availabilityRepo.On("GetByID", mock.Anything, p.av.ID).Return(p.av, nil)

		_, err := svc.CancelAppointment(ctx, p.appt.ID, p.guest.ID, guestUserID)

		assertDomainCode(t, err, "CANCELLATION_DEADLINE_PASSED")
		appointmentRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("host may cancel regardless of the deadline", func(t *testing.T) {
		availabilityRepo, appointmentRepo, profileRepo, svc := newBookingFixture()

		p := setup(domain.BookingConstraints{CancellationDeadlineMinutes: 60}, 10*time.Minute)

		profileRepo.On("GetByID", mock.Anything, p.host.ID).Return(p.host, nil)
		appointmentRepo.On("GetByIDForUpdate", mock.Anything, p.appt.ID).Return(p.appt, nil)
		availabilityRepo.On("GetSlot", mock.Anything, p.slot.ID).Return(p.slot, nil)
		appointmentRepo.On("Update", mock.Anything, p.appt).Return(nil)
		availabilityRepo.On("UpdateSlotStatus", mock.Anything, p.slot.ID, domain.SlotStatusBooked, domain.SlotStatusAvailable).Return(true, nil)

		appt, err := svc.CancelAppointment(ctx, p.appt.ID, p.host.ID, hostUserID)

		assert.NoError(t, err)
		assert.Equal(t, domain.AppointmentStatusCancelled, appt.Status)
	})

	t.Run("a third party may not cancel", func(t *testing.T) {
		_, appointmentRepo, profileRepo, svc := newBookingFixture()

		p := setup(domain.BookingConstraints{}, time.Hour)
		strangerUser := uuid.New()
		stranger := ownedTestProfile(strangerUser)

		profileRepo.On("GetByID", mock.Anything, stranger.ID).Return(stranger, nil)
		appointmentRepo.On("GetByIDForUpdate", mock.Anything, p.appt.ID).Return(p.appt, nil)

		_, err := svc.CancelAppointment(ctx, p.appt.ID, stranger.ID, strangerUser)

		assertDomainCode(t, err, "UNAUTHORIZED_PROFILE_ACCESS")
	})

	t.Run("a cancelled appointment cannot be cancelled again", func(t *testing.T) {
		availabilityRepo, appointmentRepo, profileRepo, svc := newBookingFixture()

		p := setup(domain.BookingConstraints{}, time.Hour)
		assert.NoError(t, p.appt.Cancel(p.host.ID, time.Now().UTC()))

		profileRepo.On("GetByID", mock.Anything, p.host.ID).Return(p.host, nil)
		appointmentRepo.On("GetByIDForUpdate", mock.Anything, p.appt.ID).Return(p.appt, nil)
		availabilityRepo.On("GetSlot", mock.Anything, p.slot.ID).Return(p.slot, nil)

		_, err := svc.CancelAppointment(ctx, p.appt.ID, p.host.ID, hostUserID)

		assertDomainCode(t, err, "APPOINTMENT_NOT_BOOKED")
	})

	t.Run("complete requires the slot to have ended", func(t *testing.T) {
		availabilityRepo, appointmentRepo, profileRepo, svc := newBookingFixture()

		p := setup(domain.BookingConstraints{}, time.Hour)

		profileRepo.On("GetByID", mock.Anything, p.host.ID).Return(p.host, nil)
		appointmentRepo.On("GetByIDForUpdate", mock.Anything, p.appt.ID).Return(p.appt, nil)
		availabilityRepo.On("GetSlot", mock.Anything, p.slot.ID).Return(p.slot, nil)

		_, err := svc.CompleteAppointment(ctx, p.appt.ID, p.host.ID, hostUserID)

		assertDomainCode(t, err, "APPOINTMENT_NOT_FINISHED")
	})

	t.Run("host completes a finished appointment", func(t *testing.T) {
		availabilityRepo, appointmentRepo, profileRepo, svc := newBookingFixture()

		p := setup(domain.BookingConstraints{}, -2*time.Hour)

		profileRepo.On("GetByID", mock.Anything, p.host.ID).Return(p.host, nil)
		appointmentRepo.On("GetByIDForUpdate", mock.Anything, p.appt.ID).Return(p.appt, nil)
		availabilityRepo.On("GetSlot", mock.Anything, p.slot.ID).Return(p.slot, nil)
		appointmentRepo.On("Update", mock.Anything, p.appt).Return(nil)

		appt, err := svc.CompleteAppointment(ctx, p.appt.ID, p.host.ID, hostUserID)

		assert.NoError(t, err)
		assert.Equal(t, domain.AppointmentStatusCompleted, appt.Status)
		assert.NotNil(t, appt.CompletedAt)
	})

	t.Run("guest may not complete", func(t *testing.T) {
		_, appointmentRepo, profileRepo, svc := newBookingFixture()

		p := setup(domain.BookingConstraints{}, -2*time.Hour)

		profileRepo.On("GetByID", mock.Anything, p.guest.ID).Return(p.guest, nil)
		appointmentRepo.On("GetByIDForUpdate", mock.Anything, p.appt.ID).Return(p.appt, nil)

		_, err := svc.CompleteAppointment(ctx, p.appt.ID, p.guest.ID, guestUserID)

		assertDomainCode(t, err, "UNAUTHORIZED_PROFILE_ACCESS")
	})
}

func TestGetAvailableSlots(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects an inverted window", func(t *testing.T) {
		_, _, _, svc := newBookingFixture()

		now := time.Now().UTC()
		_, err := svc.GetAvailableSlots(ctx, uuid.New(), now, now)

		assertDomainCode(t, err, "INVALID_TIME_RANGE")
	})

	t.Run("passes the window through", func(t *testing.T) {
		availabilityRepo, _, _, svc := newBookingFixture()

		profileID := uuid.New()
		from := time.Now().UTC()
		to := from.Add(24 * time.Hour)
		availabilityRepo.On("ListAvailableSlots", mock.Anything, profileID, from, to).Return([]domain.TimeSlot{}, nil)

		slots, err := svc.GetAvailableSlots(ctx, profileID, from, to)

		assert.NoError(t, err)
		assert.Empty(t, slots)
	})
}
