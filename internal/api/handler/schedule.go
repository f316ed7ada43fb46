package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/avelhart/opsuite/internal/api/middleware"
	"github.com/avelhart/opsuite/internal/api/response"
	"github.com/avelhart/opsuite/internal/domain"
	"github.com/avelhart/opsuite/internal/service"
	"github.com/google/uuid"
)

// ScheduleHandler handles recurring schedule endpoints
type ScheduleHandler struct {
	scheduleService *service.ScheduleService
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(scheduleService *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: scheduleService}
}

// Create defines a recurring schedule on a profile
func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	var input domain.ScheduleCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationMessages(err))
		return
	}

	schedule, err := h.scheduleService.Create(r.Context(), profileID, userID, input)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, schedule)
}

// List returns the profile's schedules
func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	profileID, err := urlID(r, "profileID")
	if err != nil {
		response.BadRequest(w, "invalid profile ID")
		return
	}

	schedules, err := h.scheduleService.ListByProfile(r.Context(), profileID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, schedules)
}

// Pause stops a schedule from producing availabilities
func (h *ScheduleHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.scheduleService.Pause)
}

// Resume reactivates a paused schedule
func (h *ScheduleHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.scheduleService.Resume)
}

func (h *ScheduleHandler) toggle(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, scheduleID, userID uuid.UUID) error) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	scheduleID, err := urlID(r, "scheduleID")
	if err != nil {
		response.BadRequest(w, "invalid schedule ID")
		return
	}

	if err := op(r.Context(), scheduleID, userID); err != nil {
		response.FromError(w, err)
		return
	}

	response.NoContent(w)
}

// Generate expands a schedule into concrete availabilities and slots for a
// date range
func (h *ScheduleHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	scheduleID, err := urlID(r, "scheduleID")
	if err != nil {
		response.BadRequest(w, "invalid schedule ID")
		return
	}

	var input struct {
		FromDate string `json:"from_date" validate:"required"`
		ToDate   string `json:"to_date" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationMessages(err))
		return
	}

	fromDate, err := domain.ParseDate(input.FromDate)
	if err != nil {
		response.FromError(w, err)
		return
	}
	toDate, err := domain.ParseDate(input.ToDate)
	if err != nil {
		response.FromError(w, err)
		return
	}

	result, err := h.scheduleService.Generate(r.Context(), scheduleID, userID, fromDate, toDate)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, result)
}
