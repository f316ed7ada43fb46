package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/avelhart/opsuite/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WorkflowRepository handles workflow definition data access
type WorkflowRepository struct {
	db *DB
}

// NewWorkflowRepository creates a new workflow repository
func NewWorkflowRepository(db *DB) *WorkflowRepository {
	return &WorkflowRepository{db: db}
}

// Create persists a workflow and its steps
func (r *WorkflowRepository) Create(ctx context.Context, wf *domain.Workflow) error {
	q := r.db.querier(ctx)

	query := `
		INSERT INTO workflows (id, name, description, is_active, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := q.Exec(ctx, query,
		wf.ID, wf.Name, wf.Description, wf.IsActive, wf.CreatedAt, wf.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to create workflow: %w", err)
	}

	stepQuery := `
		INSERT INTO workflow_steps (id, workflow_id, step_order, required_role, name, description)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, s := range wf.Steps {
		_, err := q.Exec(ctx, stepQuery,
			s.ID, s.WorkflowID, s.StepOrder, s.RequiredRole, s.Name, s.Description,
		)
		if err != nil {
			if IsUniqueViolation(err, "workflow_steps_workflow_id_step_order_key") {
				return domain.ConflictError("DUPLICATE_STEP_ORDER",
					"step order %d already exists in workflow %s", s.StepOrder, wf.ID)
			}
			return fmt.Errorf("failed to create workflow step: %w", err)
		}
	}

	return nil
}

// GetByID retrieves a workflow with its steps ordered by step_order
func (r *WorkflowRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Workflow, error) {
	q := r.db.querier(ctx)

	query := `
		SELECT id, name, COALESCE(description, ''), is_active, created_at, created_by
		FROM workflows
		WHERE id = $1
	`

	var wf domain.Workflow
	err := q.QueryRow(ctx, query, id).Scan(
		&wf.ID, &wf.Name, &wf.Description, &wf.IsActive, &wf.CreatedAt, &wf.CreatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get workflow: %w", err)
	}

	steps, err := r.listSteps(ctx, id)
	if err != nil {
		return nil, err
	}
	wf.Steps = steps

	return &wf, nil
}

// List retrieves workflows, optionally only active ones, steps ordered by
// step_order ascending
func (r *WorkflowRepository) List(ctx context.Context, activeOnly bool) ([]domain.Workflow, error) {
	q := r.db.querier(ctx)

	query := `
		SELECT id, name, COALESCE(description, ''), is_active, created_at, created_by
		FROM workflows
	`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}
	defer rows.Close()

	var workflows []domain.Workflow
	for rows.Next() {
		var wf domain.Workflow
		if err := rows.Scan(&wf.ID, &wf.Name, &wf.Description, &wf.IsActive, &wf.CreatedAt, &wf.CreatedBy); err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}
		workflows = append(workflows, wf)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range workflows {
		steps, err := r.listSteps(ctx, workflows[i].ID)
		if err != nil {
			return nil, err
		}
		workflows[i].Steps = steps
	}

	return workflows, nil
}

// SetActive toggles a workflow's active flag
func (r *WorkflowRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	query := `UPDATE workflows SET is_active = $2 WHERE id = $1`

	tag, err := r.db.querier(ctx).Exec(ctx, query, id, active)
	if err != nil {
		return fmt.Errorf("failed to set workflow active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundError("WORKFLOW_NOT_FOUND", "workflow %s not found", id)
	}
	return nil
}

func (r *WorkflowRepository) listSteps(ctx context.Context, workflowID uuid.UUID) ([]domain.WorkflowStep, error) {
	query := `
		SELECT id, workflow_id, step_order, required_role, COALESCE(name, ''), COALESCE(description, '')
		FROM workflow_steps
		WHERE workflow_id = $1
		ORDER BY step_order ASC
	`

	rows, err := r.db.querier(ctx).Query(ctx, query, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow steps: %w", err)
	}
	defer rows.Close()

	var steps []domain.WorkflowStep
	for rows.Next() {
		var s domain.WorkflowStep
		if err := rows.Scan(&s.ID, &s.WorkflowID, &s.StepOrder, &s.RequiredRole, &s.Name, &s.Description); err != nil {
			return nil, fmt.Errorf("failed to scan workflow step: %w", err)
		}
		steps = append(steps, s)
	}
	return steps, rows.Err()
}
