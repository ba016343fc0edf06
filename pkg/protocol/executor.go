package protocol

import (
	"context"

	"github.com/fluxionhq/fluxion/pkg/models"
)

// ExecutionRequest is the caller-facing input for one run: either an inline
// graph or a persisted workflow id, plus the initial input and options.
type ExecutionRequest struct {
	Graph      *models.Graph
	WorkflowID string
	SessionID  string
	Input      any
	Options    models.RunOptions
}

// Executor drives one run to completion. The fixed-graph scheduler and the
// agentic loop controller are the two implementations; callers choose one
// explicitly, never by runtime type inspection.
type Executor interface {
	Execute(ctx context.Context, req ExecutionRequest) (*models.ExecutionResult, error)
}
