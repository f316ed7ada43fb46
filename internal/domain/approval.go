package domain

import (
	"time"

	"github.com/google/uuid"
)

// ApprovalStatus is the lifecycle state of an approval request
type ApprovalStatus string

const (
	ApprovalStatusPending    ApprovalStatus = "pending"
	ApprovalStatusInProgress ApprovalStatus = "in_progress"
	ApprovalStatusApproved   ApprovalStatus = "approved"
	ApprovalStatusRejected   ApprovalStatus = "rejected"
	ApprovalStatusCancelled  ApprovalStatus = "cancelled"
)

// Decision is the outcome of one approval step
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// ApprovalRequest tracks one document's traversal of a workflow
type ApprovalRequest struct {
	ID               uuid.UUID      `json:"id"`
	DocumentID       uuid.UUID      `json:"document_id"`
	WorkflowID       uuid.UUID      `json:"workflow_id"`
	CurrentStepOrder int            `json:"current_step_order"`
	TotalSteps       int            `json:"total_steps"`
	Status           ApprovalStatus `json:"status"`
	RequestedBy      uuid.UUID      `json:"requested_by"`
	RequestedAt      time.Time      `json:"requested_at"`
	CompletedAt      *time.Time     `json:"completed_at,omitempty"`
	Decisions        []ApprovalDecision `json:"decisions,omitempty"`
}

// ApprovalDecision is one append-only ledger entry for a decided step
type ApprovalDecision struct {
	ID         uuid.UUID `json:"id"`
	RequestID  uuid.UUID `json:"request_id"`
	StepOrder  int       `json:"step_order"`
	Decision   Decision  `json:"decision"`
	DecidedBy  uuid.UUID `json:"decided_by"`
	Comment    string    `json:"comment,omitempty"`
	DecidedAt  time.Time `json:"decided_at"`
}

// NewApprovalRequest starts a traversal of the given workflow for a document
func NewApprovalRequest(documentID uuid.UUID, wf *Workflow, requestedBy uuid.UUID, now time.Time) *ApprovalRequest {
	return &ApprovalRequest{
		ID:               uuid.New(),
		DocumentID:       documentID,
		WorkflowID:       wf.ID,
		CurrentStepOrder: wf.FirstStepOrder(),
		TotalSteps:       wf.StepCount(),
		Status:           ApprovalStatusPending,
		RequestedBy:      requestedBy,
		RequestedAt:      now,
	}
}

// IsLive reports whether the request still accepts decisions
func (r *ApprovalRequest) IsLive() bool {
	return r.Status == ApprovalStatusPending || r.Status == ApprovalStatusInProgress
}

// EnsureDecidable verifies the request accepts a decision at the given step.
// Any step other than the live current one is rejected, which keeps replayed
// or concurrently raced calls from corrupting the ledger order.
func (r *ApprovalRequest) EnsureDecidable(stepOrder int) error {
	if !r.IsLive() {
		return InvalidStateError("APPROVAL_REQUEST_NOT_IN_PROGRESS",
			"approval request %s is %s and accepts no further decisions", r.ID, r.Status)
	}
	if stepOrder != r.CurrentStepOrder {
		return InvalidStateError("APPROVAL_STEP_ORDER_VIOLATION",
			"decision targets step %d but current step is %d", stepOrder, r.CurrentStepOrder)
	}
	return nil
}

// RecordApproval appends an approved decision for the current step and
// advances the request. Returns the decision and whether the request has
// reached its terminal approved state.
func (r *ApprovalRequest) RecordApproval(wf *Workflow, decidedBy uuid.UUID, comment string, now time.Time) (ApprovalDecision, bool, error) {
	if err := r.EnsureDecidable(r.CurrentStepOrder); err != nil {
		return ApprovalDecision{}, false, err
	}

	decision := ApprovalDecision{
		ID:        uuid.New(),
		RequestID: r.ID,
		StepOrder: r.CurrentStepOrder,
		Decision:  DecisionApproved,
		DecidedBy: decidedBy,
		Comment:   comment,
		DecidedAt: now,
	}
	r.Decisions = append(r.Decisions, decision)

	if wf.IsLastStep(r.CurrentStepOrder) {
		r.Status = ApprovalStatusApproved
		r.CompletedAt = &now
		return decision, true, nil
	}

	r.Status = ApprovalStatusInProgress
	r.CurrentStepOrder = wf.NextStepOrder(r.CurrentStepOrder)
	return decision, false, nil
}

// RecordRejection appends a rejected decision and terminates the request.
// CurrentStepOrder is frozen at the rejected step.
func (r *ApprovalRequest) RecordRejection(decidedBy uuid.UUID, comment string, now time.Time) (ApprovalDecision, error) {
	if err := r.EnsureDecidable(r.CurrentStepOrder); err != nil {
		return ApprovalDecision{}, err
	}

	decision := ApprovalDecision{
		ID:        uuid.New(),
		RequestID: r.ID,
		StepOrder: r.CurrentStepOrder,
		Decision:  DecisionRejected,
		DecidedBy: decidedBy,
		Comment:   comment,
		DecidedAt: now,
	}
	r.Decisions = append(r.Decisions, decision)
	r.Status = ApprovalStatusRejected
	r.CompletedAt = &now
	return decision, nil
}

// Cancel terminates a live request without a decision
func (r *ApprovalRequest) Cancel(now time.Time) error {
	if !r.IsLive() {
		return InvalidStateError("APPROVAL_REQUEST_NOT_IN_PROGRESS",
			"approval request %s is %s and cannot be cancelled", r.ID, r.Status)
	}
	r.Status = ApprovalStatusCancelled
	r.CompletedAt = &now
	return nil
}

// CanApprove implements the current-step-role-or-admin rule: the decider must
// hold the step's required role, or the admin override role.
func CanApprove(step *WorkflowStep, roles []string) bool {
	return HasRole(roles, step.RequiredRole) || HasRole(roles, RoleAdmin)
}

// ApprovalStatusView is the read-only projection of a request's progress
type ApprovalStatusView struct {
	RequestID        uuid.UUID          `json:"request_id"`
	DocumentID       uuid.UUID          `json:"document_id"`
	WorkflowID       uuid.UUID          `json:"workflow_id"`
	Status           ApprovalStatus     `json:"status"`
	CurrentStepOrder int                `json:"current_step_order"`
	CurrentStepName  string             `json:"current_step_name,omitempty"`
	TotalSteps       int                `json:"total_steps"`
	RequestedBy      uuid.UUID          `json:"requested_by"`
	RequestedAt      time.Time          `json:"requested_at"`
	CompletedAt      *time.Time         `json:"completed_at,omitempty"`
	Decisions        []ApprovalDecision `json:"decisions"`
}
