package handler

import (
	"encoding/json"
	"net/http"

	"github.com/avelhart/opsuite/internal/api/middleware"
	"github.com/avelhart/opsuite/internal/api/response"
	"github.com/avelhart/opsuite/internal/domain"
	"github.com/avelhart/opsuite/internal/service"
)

// AuthHandler handles authentication and role management endpoints
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register handles user registration
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input domain.UserCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationMessages(err))
		return
	}

	user, err := h.authService.Register(r.Context(), input)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, map[string]any{
		"id":           user.ID,
		"email":        user.Email,
		"display_name": user.DisplayName,
	})
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input domain.UserLogin
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationMessages(err))
		return
	}

	tokens, err := h.authService.Login(r.Context(), input)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, tokens)
}

// Refresh handles token refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var input struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationMessages(err))
		return
	}

	tokens, err := h.authService.Refresh(r.Context(), input.RefreshToken)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, tokens)
}

// Me returns the current authenticated user
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	user, err := h.authService.GetUser(r.Context(), userID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	roles, _ := middleware.GetUserRoles(r.Context())

	response.OK(w, map[string]any{
		"id":           user.ID,
		"email":        user.Email,
		"display_name": user.DisplayName,
		"roles":        roles,
	})
}

// ListRoles returns all defined roles
func (h *AuthHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.authService.ListRoles(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, roles)
}

// AssignRole grants a role to a user
func (h *AuthHandler) AssignRole(w http.ResponseWriter, r *http.Request) {
	userID, err := urlID(r, "userID")
	if err != nil {
		response.BadRequest(w, "invalid user ID")
		return
	}

	var input struct {
		Role string `json:"role" validate:"required,max=100"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationMessages(err))
		return
	}

	callerRoles, _ := middleware.GetUserRoles(r.Context())
	if err := h.authService.AssignRole(r.Context(), callerRoles, userID, input.Role); err != nil {
		response.FromError(w, err)
		return
	}

	response.NoContent(w)
}

// RevokeRole removes a role from a user
func (h *AuthHandler) RevokeRole(w http.ResponseWriter, r *http.Request) {
	userID, err := urlID(r, "userID")
	if err != nil {
		response.BadRequest(w, "invalid user ID")
		return
	}

	var input struct {
		Role string `json:"role" validate:"required,max=100"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationMessages(err))
		return
	}

	callerRoles, _ := middleware.GetUserRoles(r.Context())
	if err := h.authService.RevokeRole(r.Context(), callerRoles, userID, input.Role); err != nil {
		response.FromError(w, err)
		return
	}

	response.NoContent(w)
}
