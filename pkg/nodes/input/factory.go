package input

import (
	"context"

	"github.com/fluxionhq/fluxion/pkg/models"
	"github.com/fluxionhq/fluxion/pkg/protocol"
)

// InputNodeFactory creates InputNode instances.
type InputNodeFactory struct{}

// Create creates a new InputNode instance.
func (f *InputNodeFactory) Create(_ context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewInputNode(id, config)
}

// Kind returns the factory kind.
func (f *InputNodeFactory) Kind() models.NodeKind {
	return models.NodeKindInput
}

// Name returns the factory name.
func (f *InputNodeFactory) Name() string {
	return "Input"
}

// Description returns the factory description.
func (f *InputNodeFactory) Description() string {
	return "Seeds the run with the caller-supplied initial input"
}

// Schema returns the JSON schema for input node configuration.
func (f *InputNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

// NewInputNodeFactory creates a new factory instance.
func NewInputNodeFactory() protocol.NodeFactory {
	return &InputNodeFactory{}
}
