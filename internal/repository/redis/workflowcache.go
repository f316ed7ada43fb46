package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avelhart/opsuite/internal/domain"
	"github.com/google/uuid"
)

const (
	workflowCachePrefix = "workflow:"
	workflowCacheTTL    = 10 * time.Minute
)

// WorkflowCache caches workflow definitions in Redis. Definitions are
// append-only apart from the active flag, so cached copies stay correct as
// long as activation toggles invalidate.
type WorkflowCache struct {
	client *Client
}

// NewWorkflowCache creates a new workflow cache
func NewWorkflowCache(client *Client) *WorkflowCache {
	return &WorkflowCache{client: client}
}

// Get retrieves a cached workflow definition
func (c *WorkflowCache) Get(ctx context.Context, workflowID uuid.UUID) (*domain.Workflow, error) {
	key := fmt.Sprintf("%s%s", workflowCachePrefix, workflowID.String())

	data, err := c.client.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, nil // Cache miss
	}

	var wf domain.Workflow
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal workflow: %w", err)
	}

	return &wf, nil
}

// Set caches a workflow definition
func (c *WorkflowCache) Set(ctx context.Context, wf *domain.Workflow) error {
	key := fmt.Sprintf("%s%s", workflowCachePrefix, wf.ID.String())

	data, err := json.Marshal(wf)
	if err != nil {
		return fmt.Errorf("failed to marshal workflow: %w", err)
	}

	return c.client.rdb.Set(ctx, key, data, workflowCacheTTL).Err()
}

// Invalidate removes a cached workflow definition
func (c *WorkflowCache) Invalidate(ctx context.Context, workflowID uuid.UUID) error {
	key := fmt.Sprintf("%s%s", workflowCachePrefix, workflowID.String())
	return c.client.rdb.Del(ctx, key).Err()
}
