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

// ApprovalHandler handles document approval endpoints
type ApprovalHandler struct {
	approvalService *service.ApprovalService
}

// NewApprovalHandler creates a new approval handler
func NewApprovalHandler(approvalService *service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvalService: approvalService}
}

// Submit starts an approval workflow for a document
func (h *ApprovalHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	documentID, err := urlID(r, "documentID")
	if err != nil {
		response.BadRequest(w, "invalid document ID")
		return
	}

	var input struct {
		WorkflowID uuid.UUID `json:"workflow_id" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationMessages(err))
		return
	}

	request, err := h.approvalService.Submit(r.Context(), documentID, input.WorkflowID, userID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, request)
}

// Approve records an approval for the step named in the request body
func (h *ApprovalHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.approvalService.Approve)
}

// Reject records a rejection for the step named in the request body,
// terminating the request
func (h *ApprovalHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.approvalService.Reject)
}

type decideFunc func(ctx context.Context, requestID uuid.UUID, stepOrder int, deciderID uuid.UUID, deciderRoles []string, comment string) (*domain.ApprovalRequest, error)

func (h *ApprovalHandler) decide(w http.ResponseWriter, r *http.Request, op decideFunc) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	requestID, err := urlID(r, "requestID")
	if err != nil {
		response.BadRequest(w, "invalid request ID")
		return
	}

	// the caller names the step it is deciding so a replayed or stale
	// decision cannot land on a later step
	var input struct {
		StepOrder int    `json:"step_order" validate:"required,min=1"`
		Comment   string `json:"comment,omitempty" validate:"omitempty,max=2000"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationMessages(err))
		return
	}

	roles, _ := middleware.GetUserRoles(r.Context())
	request, err := op(r.Context(), requestID, input.StepOrder, userID, roles, input.Comment)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, request)
}

// Cancel withdraws a live approval request
func (h *ApprovalHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	requestID, err := urlID(r, "requestID")
	if err != nil {
		response.BadRequest(w, "invalid request ID")
		return
	}

	roles, _ := middleware.GetUserRoles(r.Context())
	request, err := h.approvalService.Cancel(r.Context(), requestID, userID, roles)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, request)
}

// Status returns the request's progress and recorded decisions
func (h *ApprovalHandler) Status(w http.ResponseWriter, r *http.Request) {
	requestID, err := urlID(r, "requestID")
	if err != nil {
		response.BadRequest(w, "invalid request ID")
		return
	}

	status, err := h.approvalService.Status(r.Context(), requestID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, status)
}
