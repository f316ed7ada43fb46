package handler

import (
	"encoding/json"
	"net/http"

	"github.com/avelhart/opsuite/internal/api/middleware"
	"github.com/avelhart/opsuite/internal/api/response"
	"github.com/avelhart/opsuite/internal/domain"
	"github.com/avelhart/opsuite/internal/service"
)

// WorkflowHandler handles workflow definition endpoints
type WorkflowHandler struct {
	workflowService *service.WorkflowService
}

// NewWorkflowHandler creates a new workflow handler
func NewWorkflowHandler(workflowService *service.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{workflowService: workflowService}
}

// Create defines a new approval workflow
func (h *WorkflowHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var input domain.WorkflowCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationMessages(err))
		return
	}

	workflow, err := h.workflowService.Create(r.Context(), userID, input)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, workflow)
}

// List returns workflow definitions, optionally only active ones
func (h *WorkflowHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	workflows, err := h.workflowService.List(r.Context(), activeOnly)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, workflows)
}

// Get returns one workflow with its steps
func (h *WorkflowHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "workflowID")
	if err != nil {
		response.BadRequest(w, "invalid workflow ID")
		return
	}

	workflow, err := h.workflowService.Get(r.Context(), id)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, workflow)
}

// SetActive toggles whether a workflow accepts new approval requests
func (h *WorkflowHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "workflowID")
	if err != nil {
		response.BadRequest(w, "invalid workflow ID")
		return
	}

	var input struct {
		Active *bool `json:"active" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationMessages(err))
		return
	}

	if err := h.workflowService.SetActive(r.Context(), id, *input.Active); err != nil {
		response.FromError(w, err)
		return
	}

	response.NoContent(w)
}
