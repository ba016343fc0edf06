package output

import (
	"context"

	"github.com/fluxionhq/fluxion/pkg/models"
	"github.com/fluxionhq/fluxion/pkg/protocol"
)

// OutputNodeFactory creates OutputNode instances.
type OutputNodeFactory struct{}

// Create creates a new OutputNode instance.
func (f *OutputNodeFactory) Create(_ context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewOutputNode(id, config)
}

// Kind returns the factory kind.
func (f *OutputNodeFactory) Kind() models.NodeKind {
	return models.NodeKindOutput
}

// Name returns the factory name.
func (f *OutputNodeFactory) Name() string {
	return "Output"
}

// Description returns the factory description.
func (f *OutputNodeFactory) Description() string {
	return "Collects the designated final value of the run"
}

// Schema returns the JSON schema for output node configuration.
func (f *OutputNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"source": map[string]any{
				"type":        "string",
				"description": "Node id whose output becomes the final value.",
			},
			"value": map[string]any{
				"type":        "string",
				"description": "Template expression for the final value; takes precedence over source.",
			},
		},
	}
}

// NewOutputNodeFactory creates a new factory instance.
func NewOutputNodeFactory() protocol.NodeFactory {
	return &OutputNodeFactory{}
}
