package transform

import (
	"context"

	"github.com/fluxionhq/fluxion/pkg/models"
	"github.com/fluxionhq/fluxion/pkg/protocol"
)

// TransformNodeFactory creates TransformNode instances.
type TransformNodeFactory struct{}

// Create creates a new TransformNode instance.
func (f *TransformNodeFactory) Create(_ context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewTransformNode(id, config)
}

// Kind returns the factory kind.
func (f *TransformNodeFactory) Kind() models.NodeKind {
	return models.NodeKindTransform
}

// Name returns the factory name.
func (f *TransformNodeFactory) Name() string {
	return "Transform"
}

// Description returns the factory description.
func (f *TransformNodeFactory) Description() string {
	return "Extracts a value from a prior node's output via dot-notation path traversal"
}

// Schema returns the JSON schema for transform node configuration.
func (f *TransformNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"source": map[string]any{
				"type":        "string",
				"description": "Node id whose output to read.",
			},
			"path": map[string]any{
				"type":        "string",
				"description": "Dot-notation path walking mapping keys and sequence indices, e.g. \"json.items.0.name\".",
			},
		},
		"required": []any{"source"},
	}
}

// NewTransformNodeFactory creates a new factory instance.
func NewTransformNodeFactory() protocol.NodeFactory {
	return &TransformNodeFactory{}
}
