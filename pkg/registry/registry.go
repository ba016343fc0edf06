// Package registry holds the fixed dispatch table from node kind to handler
// factory.
package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xeipuuv/gojsonschema"

	"github.com/fluxionhq/fluxion/pkg/models"
	"github.com/fluxionhq/fluxion/pkg/protocol"
)

// Registry maps node kinds to their factories. The kind set is closed; an
// unregistered kind is a caller error, not a fallback path.
type Registry struct {
	logger    *slog.Logger
	factories map[models.NodeKind]protocol.NodeFactory
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger,
		factories: make(map[models.NodeKind]protocol.NodeFactory),
	}
}

// Register adds a node factory to the dispatch table.
func (r *Registry) Register(factory protocol.NodeFactory) {
	r.factories[factory.Kind()] = factory
}

// Create validates the node's config against the factory schema and builds a
// handler instance.
func (r *Registry) Create(ctx context.Context, node *models.Node) (protocol.Node, error) {
	factory, ok := r.factories[node.Kind]
	if !ok {
		return nil, fmt.Errorf("node kind %q not registered", node.Kind)
	}

	config := node.Config
	if config == nil {
		config = map[string]any{}
	}

	if err := ValidateConfig(factory.Schema(), config); err != nil {
		return nil, fmt.Errorf("invalid config for node %q: %w", node.ID, err)
	}

	return factory.Create(ctx, node.ID, config)
}

// Kinds returns the registered kinds.
func (r *Registry) Kinds() []models.NodeKind {
	kinds := make([]models.NodeKind, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}

	return kinds
}

// ValidateConfig checks a config mapping against a JSON schema.
func ValidateConfig(schema map[string]any, config map[string]any) error {
	if schema == nil {
		return nil
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewGoLoader(config),
	)
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}

	if !result.Valid() {
		detail := ""
		for _, desc := range result.Errors() {
			if detail != "" {
				detail += "; "
			}

			detail += desc.String()
		}

		return fmt.Errorf("config does not match schema: %s", detail)
	}

	return nil
}
