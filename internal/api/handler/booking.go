package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/avelhart/opsuite/internal/api/middleware"
	"github.com/avelhart/opsuite/internal/api/response"
	"github.com/avelhart/opsuite/internal/domain"
	"github.com/avelhart/opsuite/internal/service"
	"github.com/google/uuid"
)

// BookingHandler handles availability, slot and appointment endpoints
type BookingHandler struct {
	bookingService *service.BookingService
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(bookingService *service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// CreateAvailability creates a one-off availability window
func (h *BookingHandler) CreateAvailability(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	profileID, err := urlID(r, "profileID")
	if err != nil {
		response.BadRequest(w, "invalid profile ID")
		return
	}

	var input domain.AvailabilityCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationMessages(err))
		return
	}

	av, err := h.bookingService.CreateAvailability(r.Context(), profileID, userID, input)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, av)
}

// ListSlots returns a profile's bookable slots within a time window
func (h *BookingHandler) ListSlots(w http.ResponseWriter, r *http.Request) {
	profileID, err := urlID(r, "profileID")
	if err != nil {
		response.BadRequest(w, "invalid profile ID")
		return
	}

	from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	if err != nil {
		response.BadRequest(w, "invalid from timestamp")
		return
	}
	to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if err != nil {
		response.BadRequest(w, "invalid to timestamp")
		return
	}

	slots, err := h.bookingService.GetAvailableSlots(r.Context(), profileID, from, to)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, slots)
}

// BlockSlots blocks the caller's slots in bulk
func (h *BookingHandler) BlockSlots(w http.ResponseWriter, r *http.Request) {
	h.slotOp(w, r, h.bookingService.BlockSlots)
}

// UnblockSlots unblocks the caller's slots in bulk
func (h *BookingHandler) UnblockSlots(w http.ResponseWriter, r *http.Request) {
	h.slotOp(w, r, h.bookingService.UnblockSlots)
}

func (h *BookingHandler) slotOp(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, profileID, userID uuid.UUID, slotIDs []uuid.UUID) ([]uuid.UUID, error)) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	profileID, err := urlID(r, "profileID")
	if err != nil {
		response.BadRequest(w, "invalid profile ID")
		return
	}

	var input struct {
		SlotIDs []uuid.UUID `json:"slot_ids" validate:"required,min=1"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationMessages(err))
		return
	}

	processed, err := op(r.Context(), profileID, userID, input.SlotIDs)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, map[string]any{
		"processed_slot_ids": processed,
	})
}

// Book books an available slot for the caller's guest profile
func (h *BookingHandler) Book(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var input struct {
		HostProfileID  uuid.UUID `json:"host_profile_id" validate:"required"`
		GuestProfileID uuid.UUID `json:"guest_profile_id" validate:"required"`
		TimeSlotID     uuid.UUID `json:"time_slot_id" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationMessages(err))
		return
	}

	appt, err := h.bookingService.BookAppointment(r.Context(), input.HostProfileID, input.GuestProfileID, input.TimeSlotID, userID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, appt)
}

// Cancel cancels a booked appointment
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.appointmentOp(w, r, h.bookingService.CancelAppointment)
}

// Complete marks an appointment as completed
func (h *BookingHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.appointmentOp(w, r, h.bookingService.CompleteAppointment)
}

func (h *BookingHandler) appointmentOp(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, appointmentID, profileID, userID uuid.UUID) (*domain.Appointment, error)) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	appointmentID, err := urlID(r, "appointmentID")
	if err != nil {
		response.BadRequest(w, "invalid appointment ID")
		return
	}

	var input struct {
		ProfileID uuid.UUID `json:"profile_id" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationMessages(err))
		return
	}

	appt, err := op(r.Context(), appointmentID, input.ProfileID, userID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, appt)
}

// ListAppointments returns the profile's appointments as host or guest
func (h *BookingHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	profileID, err := urlID(r, "profileID")
	if err != nil {
		response.BadRequest(w, "invalid profile ID")
		return
	}

	limit := queryInt(r, "limit")
	offset := queryInt(r, "offset")

	appts, err := h.bookingService.ListAppointments(r.Context(), profileID, userID, limit, offset)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, appts)
}
