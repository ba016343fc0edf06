// Package testutil provides test data builders shared across packages.
package testutil

import (
	"github.com/google/uuid"

	"github.com/fluxionhq/fluxion/pkg/models"
)

// CreateTestNode creates a node with sensible defaults that overrides can
// adjust.
func CreateTestNode(overrides ...func(*models.Node)) *models.Node {
	node := &models.Node{
		ID:     uuid.New().String(),
		Kind:   models.NodeKindTransform,
		Name:   "Test Node",
		Config: map[string]any{"source": "input"},
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// WithID sets the node id.
func WithID(id string) func(*models.Node) {
	return func(n *models.Node) {
		n.ID = id
	}
}

// WithKind sets the node kind.
func WithKind(kind models.NodeKind) func(*models.Node) {
	return func(n *models.Node) {
		n.Kind = kind
	}
}

// WithConfig sets the node configuration.
func WithConfig(config map[string]any) func(*models.Node) {
	return func(n *models.Node) {
		n.Config = config
	}
}

// CreateTestGraph wires the given nodes in a straight line, each edge on the
// default handle.
func CreateTestGraph(nodes ...*models.Node) *models.Graph {
	edges := make([]models.Edge, 0, len(nodes))

	for i := 1; i < len(nodes); i++ {
		edges = append(edges, models.Edge{
			Source: nodes[i-1].ID,
			Target: nodes[i].ID,
		})
	}

	return &models.Graph{
		ID:    uuid.New().String(),
		Name:  "test-graph",
		Nodes: nodes,
		Edges: edges,
	}
}
