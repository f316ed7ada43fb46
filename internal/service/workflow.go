package service

import (
	"context"
	"fmt"
	"time"

	"github.com/avelhart/opsuite/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// WorkflowRepository is the persistence contract for workflow definitions
type WorkflowRepository interface {
	Create(ctx context.Context, wf *domain.Workflow) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Workflow, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Workflow, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

// WorkflowCache caches workflow definitions; a nil-returning Get is a miss
type WorkflowCache interface {
	Get(ctx context.Context, workflowID uuid.UUID) (*domain.Workflow, error)
	Set(ctx context.Context, wf *domain.Workflow) error
	Invalidate(ctx context.Context, workflowID uuid.UUID) error
}

// TxManager runs a function inside one transaction; the unit of work for a
// use-case invocation
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// WorkflowService handles workflow definition operations
type WorkflowService struct {
	workflowRepo WorkflowRepository
	cache        WorkflowCache
}

// NewWorkflowService creates a new workflow service
func NewWorkflowService(workflowRepo WorkflowRepository, cache WorkflowCache) *WorkflowService {
	return &WorkflowService{workflowRepo: workflowRepo, cache: cache}
}

// Create validates and persists a new workflow definition
func (s *WorkflowService) Create(ctx context.Context, createdBy uuid.UUID, input domain.WorkflowCreate) (*domain.Workflow, error) {
	wf, err := domain.NewWorkflow(input, createdBy, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.workflowRepo.Create(ctx, wf); err != nil {
		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	return wf, nil
}

// List retrieves workflow definitions, optionally only active ones
func (s *WorkflowService) List(ctx context.Context, activeOnly bool) ([]domain.Workflow, error) {
	workflows, err := s.workflowRepo.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}
	return workflows, nil
}

// Get retrieves one workflow definition, preferring the cache. Definitions
// only ever change their active flag, which invalidates the cache.
func (s *WorkflowService) Get(ctx context.Context, id uuid.UUID) (*domain.Workflow, error) {
	if s.cache != nil {
		if wf, err := s.cache.Get(ctx, id); err == nil && wf != nil {
			return wf, nil
		}
	}

	wf, err := s.workflowRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get workflow: %w", err)
	}
	if wf == nil {
		return nil, domain.NotFoundError("WORKFLOW_NOT_FOUND", "workflow %s not found", id)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, wf); err != nil {
			log.Warn().Err(err).Str("workflow_id", id.String()).Msg("failed to cache workflow")
		}
	}

	return wf, nil
}

// SetActive toggles a workflow's active flag; inactive workflows cannot start
// new approval requests
func (s *WorkflowService) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if err := s.workflowRepo.SetActive(ctx, id, active); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, id); err != nil {
			log.Warn().Err(err).Str("workflow_id", id.String()).Msg("failed to invalidate workflow cache")
		}
	}

	return nil
}
