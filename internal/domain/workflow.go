package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Workflow is an ordered sequence of required-role approval steps
type Workflow struct {
	ID          uuid.UUID      `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	IsActive    bool           `json:"is_active"`
	Steps       []WorkflowStep `json:"steps"`
	CreatedAt   time.Time      `json:"created_at"`
	CreatedBy   uuid.UUID      `json:"created_by"`
}

// WorkflowStep is one required-role stage of a workflow
type WorkflowStep struct {
	ID           uuid.UUID `json:"id"`
	WorkflowID   uuid.UUID `json:"workflow_id"`
	StepOrder    int       `json:"step_order"`
	RequiredRole string    `json:"required_role"`
	Name         string    `json:"name,omitempty"`
	Description  string    `json:"description,omitempty"`
}

// WorkflowCreate represents workflow creation data
type WorkflowCreate struct {
	Name        string               `json:"name" validate:"required,max=255"`
	Description string               `json:"description,omitempty" validate:"omitempty,max=2000"`
	Steps       []WorkflowStepCreate `json:"steps" validate:"required,min=1,dive"`
}

// WorkflowStepCreate represents one step of a workflow being created
type WorkflowStepCreate struct {
	StepOrder    int    `json:"step_order" validate:"required,min=1"`
	RequiredRole string `json:"required_role" validate:"required,max=100"`
	Name         string `json:"name,omitempty" validate:"omitempty,max=255"`
	Description  string `json:"description,omitempty" validate:"omitempty,max=2000"`
}

// NewWorkflow builds a workflow from creation data, enforcing unique step
// orders. Steps are stored sorted by step order.
func NewWorkflow(input WorkflowCreate, createdBy uuid.UUID, now time.Time) (*Workflow, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ValidationError("INVALID_WORKFLOW_NAME", "workflow name is empty")
	}
	if len(input.Steps) == 0 {
		return nil, ValidationError("INVALID_WORKFLOW_STEPS", "workflow requires at least one step")
	}

	wf := &Workflow{
		ID:          uuid.New(),
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		IsActive:    true,
		CreatedAt:   now,
		CreatedBy:   createdBy,
	}

	seen := make(map[int]struct{}, len(input.Steps))
	for _, s := range input.Steps {
		if s.StepOrder < 1 {
			return nil, ValidationError("INVALID_STEP_ORDER", "step order must be >= 1, got %d", s.StepOrder)
		}
		if _, dup := seen[s.StepOrder]; dup {
			return nil, ConflictError("DUPLICATE_STEP_ORDER", "step order %d appears more than once", s.StepOrder)
		}
		seen[s.StepOrder] = struct{}{}

		role := strings.TrimSpace(s.RequiredRole)
		if role == "" {
			return nil, ValidationError("INVALID_STEP_ROLE", "step %d has no required role", s.StepOrder)
		}

		wf.Steps = append(wf.Steps, WorkflowStep{
			ID:           uuid.New(),
			WorkflowID:   wf.ID,
			StepOrder:    s.StepOrder,
			RequiredRole: role,
			Name:         strings.TrimSpace(s.Name),
			Description:  strings.TrimSpace(s.Description),
		})
	}

	sort.Slice(wf.Steps, func(i, j int) bool { return wf.Steps[i].StepOrder < wf.Steps[j].StepOrder })

	return wf, nil
}

// StepCount returns the number of steps
func (w *Workflow) StepCount() int {
	return len(w.Steps)
}

// FirstStepOrder returns the lowest step order. Steps are kept sorted.
func (w *Workflow) FirstStepOrder() int {
	if len(w.Steps) == 0 {
		return 0
	}
	return w.Steps[0].StepOrder
}

// StepAt returns the step with the given order, if any
func (w *Workflow) StepAt(order int) (*WorkflowStep, bool) {
	for i := range w.Steps {
		if w.Steps[i].StepOrder == order {
			return &w.Steps[i], true
		}
	}
	return nil, false
}

// NextStepOrder returns the step order following the given one, or 0 if the
// given order is the last step.
func (w *Workflow) NextStepOrder(order int) int {
	for i := range w.Steps {
		if w.Steps[i].StepOrder == order && i+1 < len(w.Steps) {
			return w.Steps[i+1].StepOrder
		}
	}
	return 0
}

// IsLastStep reports whether the given order is the workflow's final step
func (w *Workflow) IsLastStep(order int) bool {
	return len(w.Steps) > 0 && w.Steps[len(w.Steps)-1].StepOrder == order
}
