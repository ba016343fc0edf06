// Package protocol defines the interfaces and contracts between the engine
// and its node handlers, executors, and backends.
package protocol

import (
	"context"

	"github.com/fluxionhq/fluxion/pkg/models"
)

// Node is one executable handler instance bound to a graph node's config.
// Execute reads prior run state and returns exactly one result keyed by the
// output handle it activated. Handler-level failures come back as an
// error-status result on models.HandleMain, not as a Go error; the error
// return is reserved for internal faults.
type Node interface {
	// ID returns the graph node id this instance is bound to
	ID() string

	// Kind returns the node kind this handler implements
	Kind() models.NodeKind

	// Execute runs the node against the current run state
	Execute(ctx context.Context, state *models.RunState) (map[string]models.NodeResult, error)
}

// NodeFactory creates node instances and provides metadata about the kind.
type NodeFactory interface {
	// Create creates a new node instance with the given configuration
	Create(ctx context.Context, id string, config map[string]any) (Node, error)

	// Kind returns the node kind this factory produces
	Kind() models.NodeKind

	// Name returns the human-readable name for this node kind
	Name() string

	// Description returns a description of what this node does
	Description() string

	// Schema returns the JSON schema for configuring this node
	Schema() map[string]any
}
