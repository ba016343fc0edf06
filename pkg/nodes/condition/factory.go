package condition

import (
	"context"

	"github.com/fluxionhq/fluxion/pkg/models"
	"github.com/fluxionhq/fluxion/pkg/protocol"
)

// ConditionNodeFactory creates ConditionNode instances.
type ConditionNodeFactory struct{}

// Create creates a new ConditionNode instance.
func (f *ConditionNodeFactory) Create(_ context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewConditionNode(id, config)
}

// Kind returns the factory kind.
func (f *ConditionNodeFactory) Kind() models.NodeKind {
	return models.NodeKindCondition
}

// Name returns the factory name.
func (f *ConditionNodeFactory) Name() string {
	return "Condition"
}

// Description returns the factory description.
func (f *ConditionNodeFactory) Description() string {
	return "Evaluates a boolean expression and routes execution to the true or false branch"
}

// Schema returns the JSON schema for condition node configuration.
func (f *ConditionNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"expression": map[string]any{
				"type":        "string",
				"description": "Comparison expression, e.g. \"{{node.score.value}} >= 0.5\". Template placeholders resolve first.",
			},
		},
		"required": []any{"expression"},
	}
}

// NewConditionNodeFactory creates a new factory instance.
func NewConditionNodeFactory() protocol.NodeFactory {
	return &ConditionNodeFactory{}
}
