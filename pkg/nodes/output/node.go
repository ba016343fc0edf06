// Package output provides the terminal node that collects a run's final value.
package output

import (
	"context"
	"time"

	"github.com/fluxionhq/fluxion/pkg/models"
	"github.com/fluxionhq/fluxion/pkg/template"
)

// OutputNode designates the run's final value: either a template-resolved
// expression or a prior node's output. It never fails; a missing source
// yields a null value.
type OutputNode struct {
	id     string
	source string
	value  string
}

// NewOutputNode creates a new output node.
func NewOutputNode(id string, config map[string]any) (*OutputNode, error) {
	node := &OutputNode{id: id}

	if source, ok := config["source"].(string); ok {
		node.source = source
	}

	if value, ok := config["value"].(string); ok {
		node.value = value
	}

	return node, nil
}

// ID returns the node ID.
func (n *OutputNode) ID() string {
	return n.id
}

// Kind returns the node kind.
func (n *OutputNode) Kind() models.NodeKind {
	return models.NodeKindOutput
}

// Execute collects the designated final value.
func (n *OutputNode) Execute(_ context.Context, state *models.RunState) (map[string]models.NodeResult, error) {
	started := time.Now()

	var value any

	switch {
	case n.value != "":
		value = template.Resolve(n.value, state)
	case n.source != "":
		if res, ok := state.Result(n.source); ok && res.Status == models.NodeStatusSuccess {
			value = collapse(res.Output)
		}
	default:
		// With no explicit designation the most recent assistant message is
		// the natural final value.
		for i := len(state.Messages) - 1; i >= 0; i-- {
			if state.Messages[i].Role == models.RoleAssistant {
				value = state.Messages[i].Content

				break
			}
		}
	}

	return map[string]models.NodeResult{
		models.HandleMain: {
			NodeID: n.id,
			Kind:   models.NodeKindOutput,
			Status: models.NodeStatusSuccess,
			Output: map[string]any{
				"value": value,
			},
			Duration:  time.Since(started),
			Timestamp: started,
		},
	}, nil
}

// collapse unwraps single-entry output maps so callers get the bare value.
func collapse(output map[string]any) any {
	if len(output) == 1 {
		for _, v := range output {
			return v
		}
	}

	return output
}
