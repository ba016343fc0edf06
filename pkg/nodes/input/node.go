// Package input provides the entry node that seeds run state with the
// initial run input.
package input

import (
	"context"
	"time"

	"github.com/fluxionhq/fluxion/pkg/models"
)

// InputNode seeds the conversation with the run input as the first user
// message. It never fails.
type InputNode struct {
	id string
}

// NewInputNode creates a new input node.
func NewInputNode(id string, _ map[string]any) (*InputNode, error) {
	return &InputNode{id: id}, nil
}

// ID returns the node ID.
func (n *InputNode) ID() string {
	return n.id
}

// Kind returns the node kind.
func (n *InputNode) Kind() models.NodeKind {
	return models.NodeKindInput
}

// Execute appends the run input as the first message and exposes it on the
// main handle.
func (n *InputNode) Execute(_ context.Context, state *models.RunState) (map[string]models.NodeResult, error) {
	started := time.Now()

	state.AppendMessage(models.Message{
		Role:    models.RoleUser,
		Content: state.InputString(),
	})

	return map[string]models.NodeResult{
		models.HandleMain: {
			NodeID: n.id,
			Kind:   models.NodeKindInput,
			Status: models.NodeStatusSuccess,
			Input:  state.Input,
			Output: map[string]any{
				"input": state.Input,
			},
			Duration:  time.Since(started),
			Timestamp: started,
		},
	}, nil
}
