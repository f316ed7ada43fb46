package domain

import (
	"time"

	"github.com/google/uuid"
)

// SlotStatus is the state of a bookable time slot
type SlotStatus string

const (
	SlotStatusAvailable SlotStatus = "available"
	SlotStatusBooked    SlotStatus = "booked"
	SlotStatusBlocked   SlotStatus = "blocked"
)

// Availability is a concrete time window owned by a host profile and
// partitioned into bookable slots
type Availability struct {
	ID                  uuid.UUID  `json:"id"`
	HostProfileID       uuid.UUID  `json:"host_profile_id"`
	ScheduleID          *uuid.UUID `json:"schedule_id,omitempty"`
	StartTime           time.Time  `json:"start_time"`
	EndTime             time.Time  `json:"end_time"`
	SlotDurationMinutes int        `json:"slot_duration_minutes"`
	Constraints         BookingConstraints `json:"constraints"`
	CreatedAt           time.Time  `json:"created_at"`
	Slots               []TimeSlot `json:"slots,omitempty"`
}

// TimeSlot is the smallest bookable unit
type TimeSlot struct {
	ID             uuid.UUID  `json:"id"`
	AvailabilityID uuid.UUID  `json:"availability_id"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        time.Time  `json:"end_time"`
	Status         SlotStatus `json:"status"`
}

// AvailabilityCreate represents one-off availability creation data
type AvailabilityCreate struct {
	StartTime           time.Time          `json:"start_time" validate:"required"`
	EndTime             time.Time          `json:"end_time" validate:"required"`
	SlotDurationMinutes int                `json:"slot_duration_minutes" validate:"required,min=1"`
	Constraints         BookingConstraints `json:"constraints"`
}

// NewAvailability validates the window and partitions it into contiguous
// non-overlapping slots of the given duration. A trailing remainder shorter
// than one slot is dropped. The window must fit at least one whole slot.
func NewAvailability(hostProfileID uuid.UUID, scheduleID *uuid.UUID, start, end time.Time, slotDurationMinutes int, constraints BookingConstraints, now time.Time) (*Availability, error) {
	if !start.Before(end) {
		return nil, ValidationError("INVALID_TIME_RANGE", "availability start must precede end")
	}
	if slotDurationMinutes <= 0 {
		return nil, ValidationError("INVALID_SLOT_DURATION", "slot duration must be positive")
	}

	slotLen := time.Duration(slotDurationMinutes) * time.Minute
	if end.Sub(start) < slotLen {
		return nil, ValidationError("INVALID_TIME_RANGE",
			"window of %s does not fit a %d minute slot", end.Sub(start), slotDurationMinutes)
	}

	av := &Availability{
		ID:                  uuid.New(),
		HostProfileID:       hostProfileID,
		ScheduleID:          scheduleID,
		StartTime:           start.UTC(),
		EndTime:             end.UTC(),
		SlotDurationMinutes: slotDurationMinutes,
		Constraints:         constraints,
		CreatedAt:           now,
	}

	for cur := av.StartTime; !cur.Add(slotLen).After(av.EndTime); cur = cur.Add(slotLen) {
		av.Slots = append(av.Slots, TimeSlot{
			ID:             uuid.New(),
			AvailabilityID: av.ID,
			StartTime:      cur,
			EndTime:        cur.Add(slotLen),
			Status:         SlotStatusAvailable,
		})
	}

	return av, nil
}

// Overlaps reports whether the half-open windows [StartTime, EndTime) of the
// two availabilities intersect
func (a *Availability) Overlaps(start, end time.Time) bool {
	return a.StartTime.Before(end) && start.Before(a.EndTime)
}

// GenerationResult reports the outcome of expanding a schedule over a range
type GenerationResult struct {
	GeneratedCount  int         `json:"generated_count"`
	SkippedCount    int         `json:"skipped_count"`
	AvailabilityIDs []uuid.UUID `json:"availability_ids"`
	SkippedDates    []string    `json:"skipped_dates,omitempty"`
}
