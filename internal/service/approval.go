package service

import (
	"context"
	"fmt"
	"time"

	"github.com/avelhart/opsuite/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ApprovalRepository is the persistence contract for approval requests and
// their decision ledger
type ApprovalRepository interface {
	Create(ctx context.Context, req *domain.ApprovalRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ApprovalRequest, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.ApprovalRequest, error)
	GetLiveByDocument(ctx context.Context, documentID uuid.UUID) (*domain.ApprovalRequest, error)
	Update(ctx context.Context, req *domain.ApprovalRequest) error
	AppendDecision(ctx context.Context, d *domain.ApprovalDecision) error
	ListDecisions(ctx context.Context, requestID uuid.UUID) ([]domain.ApprovalDecision, error)
}

// ApprovalDocumentRepository is the slice of document persistence the
// approval engine needs
type ApprovalDocumentRepository interface {
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Document, error)
	Update(ctx context.Context, doc *domain.Document) error
	CountVersions(ctx context.Context, documentID uuid.UUID) (int, error)
}

// ApprovalService drives documents through multi-step approval workflows
type ApprovalService struct {
	approvalRepo ApprovalRepository
	documentRepo ApprovalDocumentRepository
	workflows    *WorkflowService
	tx           TxManager
}

// NewApprovalService creates a new approval service
func NewApprovalService(
	approvalRepo ApprovalRepository,
	documentRepo ApprovalDocumentRepository,
	workflows *WorkflowService,
	tx TxManager,
) *ApprovalService {
	return &ApprovalService{
		approvalRepo: approvalRepo,
		documentRepo: documentRepo,
		workflows:    workflows,
		tx:           tx,
	}
}

// Submit starts an approval request for a document against an active
// workflow. The document must have at least one version and no live request.
func (s *ApprovalService) Submit(ctx context.Context, documentID, workflowID, requestedBy uuid.UUID) (*domain.ApprovalRequest, error) {
	var req *domain.ApprovalRequest

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		doc, err := s.documentRepo.GetByIDForUpdate(ctx, documentID)
		if err != nil {
			return fmt.Errorf("failed to get document: %w", err)
		}
		if doc == nil {
			return domain.NotFoundError("DOCUMENT_NOT_FOUND", "document %s not found", documentID)
		}
		if doc.Status != domain.DocumentStatusDraft && doc.Status != domain.DocumentStatusRejected {
			return domain.InvalidStateError("INVALID_DOCUMENT_STATE",
				"document %s is %s and cannot be submitted", doc.ID, doc.Status)
		}

		versions, err := s.documentRepo.CountVersions(ctx, documentID)
		if err != nil {
			return fmt.Errorf("failed to count versions: %w", err)
		}
		if versions == 0 {
			return domain.InvalidStateError("DOCUMENT_HAS_NO_VERSIONS",
				"document %s has no versions to approve", documentID)
		}

		wf, err := s.workflows.Get(ctx, workflowID)
		if err != nil {
			return err
		}
		if !wf.IsActive {
			return domain.InvalidStateError("WORKFLOW_NOT_ACTIVE",
				"workflow %s is not active", workflowID)
		}

		live, err := s.approvalRepo.GetLiveByDocument(ctx, documentID)
		if err != nil {
			return fmt.Errorf("failed to check live request: %w", err)
		}
		if live != nil {
			return domain.ConflictError("APPROVAL_REQUEST_ALREADY_ACTIVE",
				"document %s already has an active approval request", documentID)
		}

		now := time.Now().UTC()
		req = domain.NewApprovalRequest(documentID, wf, requestedBy, now)
		if err := s.approvalRepo.Create(ctx, req); err != nil {
			return err
		}

		doc.Status = domain.DocumentStatusPendingApproval
		doc.UpdatedAt = now
		doc.UpdatedBy = requestedBy
		return s.documentRepo.Update(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("request_id", req.ID.String()).
		Str("document_id", documentID.String()).
		Str("workflow_id", workflowID.String()).
		Msg("approval request submitted")

	return req, nil
}

// Approve records an approved decision for the named step. The caller states
// which step it believes it is deciding; a stale step order fails rather than
// silently deciding whatever step the request has advanced to. The request row
// is locked for the whole transaction, so a concurrent decider is serialized
// behind this call and fails the step-order or state check.
func (s *ApprovalService) Approve(ctx context.Context, requestID uuid.UUID, stepOrder int, deciderID uuid.UUID, deciderRoles []string, comment string) (*domain.ApprovalRequest, error) {
	return s.decide(ctx, requestID, stepOrder, deciderID, deciderRoles, comment, domain.DecisionApproved)
}

// Reject records a rejected decision for the named step and terminates the
// request. The document returns to a resubmittable state.
func (s *ApprovalService) Reject(ctx context.Context, requestID uuid.UUID, stepOrder int, deciderID uuid.UUID, deciderRoles []string, comment string) (*domain.ApprovalRequest, error) {
	return s.decide(ctx, requestID, stepOrder, deciderID, deciderRoles, comment, domain.DecisionRejected)
}

func (s *ApprovalService) decide(ctx context.Context, requestID uuid.UUID, stepOrder int, deciderID uuid.UUID, deciderRoles []string, comment string, decision domain.Decision) (*domain.ApprovalRequest, error) {
	var req *domain.ApprovalRequest

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		req, err = s.approvalRepo.GetByIDForUpdate(ctx, requestID)
		if err != nil {
			return fmt.Errorf("failed to get approval request: %w", err)
		}
		if req == nil {
			return domain.NotFoundError("APPROVAL_REQUEST_NOT_FOUND", "approval request %s not found", requestID)
		}
		if err := req.EnsureDecidable(stepOrder); err != nil {
			return err
		}

		wf, err := s.workflows.Get(ctx, req.WorkflowID)
		if err != nil {
			return err
		}

		step, ok := wf.StepAt(req.CurrentStepOrder)
		if !ok {
			return fmt.Errorf("workflow %s has no step %d", wf.ID, req.CurrentStepOrder)
		}
		if !domain.CanApprove(step, deciderRoles) {
			return domain.ForbiddenError("UNAUTHORIZED_APPROVER",
				"deciding step %d requires role %s", step.StepOrder, step.RequiredRole)
		}

		now := time.Now().UTC()

		var recorded domain.ApprovalDecision
		var terminal bool
		switch decision {
		case domain.DecisionApproved:
			recorded, terminal, err = req.RecordApproval(wf, deciderID, comment, now)
		case domain.DecisionRejected:
			recorded, err = req.RecordRejection(deciderID, comment, now)
			terminal = true
		}
		if err != nil {
			return err
		}

		if err := s.approvalRepo.AppendDecision(ctx, &recorded); err != nil {
			return err
		}
		if err := s.approvalRepo.Update(ctx, req); err != nil {
			return err
		}

		if terminal {
			doc, err := s.documentRepo.GetByIDForUpdate(ctx, req.DocumentID)
			if err != nil {
				return fmt.Errorf("failed to get document: %w", err)
			}
			if doc == nil {
				return domain.NotFoundError("DOCUMENT_NOT_FOUND", "document %s not found", req.DocumentID)
			}
			switch req.Status {
			case domain.ApprovalStatusApproved:
				doc.Status = domain.DocumentStatusApproved
			case domain.ApprovalStatusRejected:
				doc.Status = domain.DocumentStatusRejected
			}
			doc.UpdatedAt = now
			doc.UpdatedBy = deciderID
			if err := s.documentRepo.Update(ctx, doc); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("request_id", requestID.String()).
		Str("decision", string(decision)).
		Str("status", string(req.Status)).
		Int("current_step", req.CurrentStepOrder).
		Msg("approval decision recorded")

	return req, nil
}

// Cancel terminates a live request without a decision; only the requester or
// an admin may cancel. The document returns to draft.
func (s *ApprovalService) Cancel(ctx context.Context, requestID, userID uuid.UUID, roles []string) (*domain.ApprovalRequest, error) {
	var req *domain.ApprovalRequest

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		req, err = s.approvalRepo.GetByIDForUpdate(ctx, requestID)
		if err != nil {
			return fmt.Errorf("failed to get approval request: %w", err)
		}
		if req == nil {
			return domain.NotFoundError("APPROVAL_REQUEST_NOT_FOUND", "approval request %s not found", requestID)
		}
		if req.RequestedBy != userID && !domain.HasRole(roles, domain.RoleAdmin) {
			return domain.ForbiddenError("UNAUTHORIZED_APPROVER",
				"only the requester or an admin may cancel request %s", requestID)
		}

		now := time.Now().UTC()
		if err := req.Cancel(now); err != nil {
			return err
		}
		if err := s.approvalRepo.Update(ctx, req); err != nil {
			return err
		}

		doc, err := s.documentRepo.GetByIDForUpdate(ctx, req.DocumentID)
		if err != nil {
			return fmt.Errorf("failed to get document: %w", err)
		}
		if doc != nil {
			doc.Status = domain.DocumentStatusDraft
			doc.UpdatedAt = now
			doc.UpdatedBy = userID
			if err := s.documentRepo.Update(ctx, doc); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return req, nil
}

// Status returns the read-only projection of a request's progress
func (s *ApprovalService) Status(ctx context.Context, requestID uuid.UUID) (*domain.ApprovalStatusView, error) {
	req, err := s.approvalRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get approval request: %w", err)
	}
	if req == nil {
		return nil, domain.NotFoundError("APPROVAL_REQUEST_NOT_FOUND", "approval request %s not found", requestID)
	}

	decisions, err := s.approvalRepo.ListDecisions(ctx, requestID)
	if err != nil {
		return nil, err
	}

	view := &domain.ApprovalStatusView{
		RequestID:        req.ID,
		DocumentID:       req.DocumentID,
		WorkflowID:       req.WorkflowID,
		Status:           req.Status,
		CurrentStepOrder: req.CurrentStepOrder,
		TotalSteps:       req.TotalSteps,
		RequestedBy:      req.RequestedBy,
		RequestedAt:      req.RequestedAt,
		CompletedAt:      req.CompletedAt,
		Decisions:        decisions,
	}
	if view.Decisions == nil {
		view.Decisions = []domain.ApprovalDecision{}
	}

	if wf, err := s.workflows.Get(ctx, req.WorkflowID); err == nil {
		if step, ok := wf.StepAt(req.CurrentStepOrder); ok {
			view.CurrentStepName = step.Name
		}
	}

	return view, nil
}
