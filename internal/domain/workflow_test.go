package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func codeOf(t *testing.T, err error) string {
	t.Helper()
	de, ok := AsDomainError(err)
	if !assert.True(t, ok, "expected a domain error, got %v", err) {
		return ""
	}
	return de.Code
}

func TestNewWorkflow(t *testing.T) {
	createdBy := uuid.New()
	now := time.Now().UTC()

	t.Run("sorts steps by order", func(t *testing.T) {
		wf, err := NewWorkflow(WorkflowCreate{
			Name: "Review",
			Steps: []WorkflowStepCreate{
				{StepOrder: 5, RequiredRole: RoleAdmin},
				{StepOrder: 2, RequiredRole: RoleReviewer},
			},
		}, createdBy, now)

		assert.NoError(t, err)
		assert.Equal(t, 2, wf.Steps[0].StepOrder)
		assert.Equal(t, 5, wf.Steps[1].StepOrder)
		assert.True(t, wf.IsActive)
	})

	t.Run("rejects duplicate step orders", func(t *testing.T) {
		_, err := NewWorkflow(WorkflowCreate{
			Name: "Review",
			Steps: []WorkflowStepCreate{
				{StepOrder: 1, RequiredRole: RoleReviewer},
				{StepOrder: 1, RequiredRole: RoleAdmin},
			},
		}, createdBy, now)

		assert.Equal(t, "DUPLICATE_STEP_ORDER", codeOf(t, err))
	})

	t.Run("rejects a blank name", func(t *testing.T) {
		_, err := NewWorkflow(WorkflowCreate{
			Name:  "   ",
			Steps: []WorkflowStepCreate{{StepOrder: 1, RequiredRole: RoleReviewer}},
		}, createdBy, now)

		assert.Equal(t, "INVALID_WORKFLOW_NAME", codeOf(t, err))
	})

	t.Run("rejects a step without a role", func(t *testing.T) {
		_, err := NewWorkflow(WorkflowCreate{
			Name:  "Review",
			Steps: []WorkflowStepCreate{{StepOrder: 1, RequiredRole: " "}},
		}, createdBy, now)

		assert.Equal(t, "INVALID_STEP_ROLE", codeOf(t, err))
	})
}

func TestWorkflowStepNavigation(t *testing.T) {
	wf, err := NewWorkflow(WorkflowCreate{
		Name: "Three stage",
		Steps: []WorkflowStepCreate{
			{StepOrder: 10, RequiredRole: RoleReviewer},
			{StepOrder: 20, RequiredRole: RoleReviewer},
			{StepOrder: 30, RequiredRole: RoleAdmin},
		},
	}, uuid.New(), time.Now().UTC())
	assert.NoError(t, err)

	assert.Equal(t, 3, wf.StepCount())
	assert.Equal(t, 10, wf.FirstStepOrder())
	assert.Equal(t, 20, wf.NextStepOrder(10))
	assert.Equal(t, 0, wf.NextStepOrder(30))
	assert.False(t, wf.IsLastStep(20))
	assert.True(t, wf.IsLastStep(30))

	step, ok := wf.StepAt(20)
	assert.True(t, ok)
	assert.Equal(t, RoleReviewer, step.RequiredRole)

	_, ok = wf.StepAt(15)
	assert.False(t, ok)
}

func TestApprovalRequestLifecycle(t *testing.T) {
	wf, _ := NewWorkflow(WorkflowCreate{
		Name: "Two stage",
		Steps: []WorkflowStepCreate{
			{StepOrder: 1, RequiredRole: RoleReviewer},
			{StepOrder: 2, RequiredRole: RoleAdmin},
		},
	}, uuid.New(), time.Now().UTC())

	t.Run("full approval walk", func(t *testing.T) {
		now := time.Now().UTC()
		req := NewApprovalRequest(uuid.New(), wf, uuid.New(), now)

		assert.Equal(t, ApprovalStatusPending, req.Status)
		assert.Equal(t, 1, req.CurrentStepOrder)

		_, terminal, err := req.RecordApproval(wf, uuid.New(), "ok", now)
		assert.NoError(t, err)
		assert.False(t, terminal)
		assert.Equal(t, ApprovalStatusInProgress, req.Status)
		assert.Equal(t, 2, req.CurrentStepOrder)

		_, terminal, err = req.RecordApproval(wf, uuid.New(), "", now)
		assert.NoError(t, err)
		assert.True(t, terminal)
		assert.Equal(t, ApprovalStatusApproved, req.Status)
		assert.NotNil(t, req.CompletedAt)
	})

	t.Run("rejection freezes the current step", func(t *testing.T) {
		now := time.Now().UTC()
		req := NewApprovalRequest(uuid.New(), wf, uuid.New(), now)

		decision, err := req.RecordRejection(uuid.New(), "nope", now)
		assert.NoError(t, err)
		assert.Equal(t, DecisionRejected, decision.Decision)
		assert.Equal(t, ApprovalStatusRejected, req.Status)
		assert.Equal(t, 1, req.CurrentStepOrder)
	})

	t.Run("terminal requests refuse further decisions", func(t *testing.T) {
		now := time.Now().UTC()
		req := NewApprovalRequest(uuid.New(), wf, uuid.New(), now)
		_, err := req.RecordRejection(uuid.New(), "", now)
		assert.NoError(t, err)

		_, _, err = req.RecordApproval(wf, uuid.New(), "", now)
		assert.Equal(t, "APPROVAL_REQUEST_NOT_IN_PROGRESS", codeOf(t, err))

		assert.Equal(t, "APPROVAL_REQUEST_NOT_IN_PROGRESS", codeOf(t, req.Cancel(now)))
	})

	t.Run("out of order decisions are refused", func(t *testing.T) {
		req := NewApprovalRequest(uuid.New(), wf, uuid.New(), time.Now().UTC())

		err := req.EnsureDecidable(2)
		assert.Equal(t, "APPROVAL_STEP_ORDER_VIOLATION", codeOf(t, err))
	})

	t.Run("cancel terminates a live request", func(t *testing.T) {
		now := time.Now().UTC()
		req := NewApprovalRequest(uuid.New(), wf, uuid.New(), now)

		assert.NoError(t, req.Cancel(now))
		assert.Equal(t, ApprovalStatusCancelled, req.Status)
		assert.False(t, req.IsLive())
	})
}

func TestCanApprove(t *testing.T) {
	step := &WorkflowStep{StepOrder: 1, RequiredRole: RoleReviewer}

	assert.True(t, CanApprove(step, []string{RoleReviewer}))
	assert.True(t, CanApprove(step, []string{RoleAdmin}))
	assert.False(t, CanApprove(step, []string{"AUDITOR"}))
	assert.False(t, CanApprove(step, nil))
}
