package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/avelhart/opsuite/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ApprovalRepository handles approval request and decision data access
type ApprovalRepository struct {
	db *DB
}

// NewApprovalRepository creates a new approval repository
func NewApprovalRepository(db *DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

// Create persists a new approval request
func (r *ApprovalRepository) Create(ctx context.Context, req *domain.ApprovalRequest) error {
	query := `
		INSERT INTO approval_requests
			(id, document_id, workflow_id, current_step_order, total_steps, status, requested_by, requested_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.querier(ctx).Exec(ctx, query,
		req.ID, req.DocumentID, req.WorkflowID, req.CurrentStepOrder, req.TotalSteps,
		req.Status, req.RequestedBy, req.RequestedAt, req.CompletedAt,
	)
	if err != nil {
		if IsUniqueViolation(err, "approval_requests_one_live_per_document") {
			return domain.ConflictError("APPROVAL_REQUEST_ALREADY_ACTIVE",
				"document %s already has an active approval request", req.DocumentID)
		}
		return fmt.Errorf("failed to create approval request: %w", err)
	}
	return nil
}

const approvalColumns = `id, document_id, workflow_id, current_step_order, total_steps, status, requested_by, requested_at, completed_at`

func scanApproval(row pgx.Row) (*domain.ApprovalRequest, error) {
	var req domain.ApprovalRequest
	err := row.Scan(
		&req.ID, &req.DocumentID, &req.WorkflowID, &req.CurrentStepOrder, &req.TotalSteps,
		&req.Status, &req.RequestedBy, &req.RequestedAt, &req.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan approval request: %w", err)
	}
	return &req, nil
}

// GetByID retrieves an approval request without locking
func (r *ApprovalRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ApprovalRequest, error) {
	query := `SELECT ` + approvalColumns + ` FROM approval_requests WHERE id = $1`
	return scanApproval(r.db.querier(ctx).QueryRow(ctx, query, id))
}

// GetByIDForUpdate retrieves an approval request holding a row lock for the
// rest of the transaction. Concurrent deciders on the same request serialize
// here; the loser re-reads already-advanced state and fails the step check.
func (r *ApprovalRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.ApprovalRequest, error) {
	query := `SELECT ` + approvalColumns + ` FROM approval_requests WHERE id = $1 FOR UPDATE`
	return scanApproval(r.db.querier(ctx).QueryRow(ctx, query, id))
}

// GetLiveByDocument retrieves the pending or in-progress request for a
// document, if one exists
func (r *ApprovalRepository) GetLiveByDocument(ctx context.Context, documentID uuid.UUID) (*domain.ApprovalRequest, error) {
	query := `
		SELECT ` + approvalColumns + `
		FROM approval_requests
		WHERE document_id = $1 AND status IN ('pending', 'in_progress')
	`
	return scanApproval(r.db.querier(ctx).QueryRow(ctx, query, documentID))
}

// Update persists the mutable fields of an approval request
func (r *ApprovalRepository) Update(ctx context.Context, req *domain.ApprovalRequest) error {
	query := `
		UPDATE approval_requests
		SET current_step_order = $2, status = $3, completed_at = $4
		WHERE id = $1
	`

	tag, err := r.db.querier(ctx).Exec(ctx, query,
		req.ID, req.CurrentStepOrder, req.Status, req.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update approval request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundError("APPROVAL_REQUEST_NOT_FOUND", "approval request %s not found", req.ID)
	}
	return nil
}

// AppendDecision appends one ledger entry; (request_id, step_order) is unique
// so a replayed decision surfaces as a conflict instead of a duplicate row
func (r *ApprovalRepository) AppendDecision(ctx context.Context, d *domain.ApprovalDecision) error {
	query := `
		INSERT INTO approval_decisions (id, request_id, step_order, decision, decided_by, comment, decided_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.querier(ctx).Exec(ctx, query,
		d.ID, d.RequestID, d.StepOrder, d.Decision, d.DecidedBy, d.Comment, d.DecidedAt,
	)
	if err != nil {
		if IsUniqueViolation(err, "approval_decisions_request_id_step_order_key") {
			return domain.ConflictError("DUPLICATE_DECISION",
				"step %d of request %s has already been decided", d.StepOrder, d.RequestID)
		}
		return fmt.Errorf("failed to append decision: %w", err)
	}
	return nil
}

// ListDecisions returns the ledger of a request in step order
func (r *ApprovalRepository) ListDecisions(ctx context.Context, requestID uuid.UUID) ([]domain.ApprovalDecision, error) {
	query := `
		SELECT id, request_id, step_order, decision, decided_by, COALESCE(comment, ''), decided_at
		FROM approval_decisions
		WHERE request_id = $1
		ORDER BY step_order ASC
	`

	rows, err := r.db.querier(ctx).Query(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list decisions: %w", err)
	}
	defer rows.Close()

	var decisions []domain.ApprovalDecision
	for rows.Next() {
		var d domain.ApprovalDecision
		if err := rows.Scan(&d.ID, &d.RequestID, &d.StepOrder, &d.Decision, &d.DecidedBy, &d.Comment, &d.DecidedAt); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}
