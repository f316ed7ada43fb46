package handler

import (
	"encoding/json"
	"net/http"

	"github.com/avelhart/opsuite/internal/api/middleware"
	"github.com/avelhart/opsuite/internal/api/response"
	"github.com/avelhart/opsuite/internal/domain"
	"github.com/avelhart/opsuite/internal/service"
)

// ProfileHandler handles scheduling profile endpoints
type ProfileHandler struct {
	profileService *service.ProfileService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// Create creates a scheduling profile for the caller
func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var input domain.ProfileCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationMessages(err))
		return
	}

	profile, err := h.profileService.Create(r.Context(), userID, input)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, profile)
}

// Get returns one profile
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "profileID")
	if err != nil {
		response.BadRequest(w, "invalid profile ID")
		return
	}

	profile, err := h.profileService.Get(r.Context(), id)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, profile)
}

// List returns the caller's profiles
func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	profiles, err := h.profileService.ListByUser(r.Context(), userID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, profiles)
}
