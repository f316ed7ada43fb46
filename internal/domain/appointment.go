package domain

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus is the lifecycle state of an appointment
type AppointmentStatus string

const (
	AppointmentStatusBooked    AppointmentStatus = "booked"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
)

// Appointment claims exactly one time slot for a guest with a host
type Appointment struct {
	ID             uuid.UUID         `json:"id"`
	TimeSlotID     uuid.UUID         `json:"time_slot_id"`
	HostProfileID  uuid.UUID         `json:"host_profile_id"`
	GuestProfileID uuid.UUID         `json:"guest_profile_id"`
	Status         AppointmentStatus `json:"status"`
	CreatedAt      time.Time         `json:"created_at"`
	CanceledAt     *time.Time        `json:"canceled_at,omitempty"`
	CanceledBy     *uuid.UUID        `json:"canceled_by,omitempty"`
	CompletedAt    *time.Time        `json:"completed_at,omitempty"`
}

// NewAppointment books the given slot for a guest
func NewAppointment(slotID, hostProfileID, guestProfileID uuid.UUID, now time.Time) *Appointment {
	return &Appointment{
		ID:             uuid.New(),
		TimeSlotID:     slotID,
		HostProfileID:  hostProfileID,
		GuestProfileID: guestProfileID,
		Status:         AppointmentStatusBooked,
		CreatedAt:      now,
	}
}

// Cancel marks a booked appointment cancelled
func (a *Appointment) Cancel(by uuid.UUID, now time.Time) error {
	if a.Status != AppointmentStatusBooked {
		return InvalidStateError("APPOINTMENT_NOT_BOOKED",
			"appointment %s is %s and cannot be cancelled", a.ID, a.Status)
	}
	a.Status = AppointmentStatusCancelled
	a.CanceledAt = &now
	a.CanceledBy = &by
	return nil
}

// Complete marks a booked appointment completed
func (a *Appointment) Complete(now time.Time) error {
	if a.Status != AppointmentStatusBooked {
		return InvalidStateError("APPOINTMENT_NOT_BOOKED",
			"appointment %s is %s and cannot be completed", a.ID, a.Status)
	}
	a.Status = AppointmentStatusCompleted
	a.CompletedAt = &now
	return nil
}
