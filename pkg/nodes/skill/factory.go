package skill

import (
	"context"

	"github.com/fluxionhq/fluxion/pkg/models"
	"github.com/fluxionhq/fluxion/pkg/protocol"
)

// SkillNodeFactory creates SkillNode instances.
type SkillNodeFactory struct{}

// Create creates a new SkillNode instance.
func (f *SkillNodeFactory) Create(_ context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewSkillNode(id, config)
}

// Kind returns the factory kind.
func (f *SkillNodeFactory) Kind() models.NodeKind {
	return models.NodeKindSkill
}

// Name returns the factory name.
func (f *SkillNodeFactory) Name() string {
	return "Skill"
}

// Description returns the factory description.
func (f *SkillNodeFactory) Description() string {
	return "Invokes an external skill endpoint over HTTP with a template-resolved payload"
}

// Schema returns the JSON schema for skill node configuration.
func (f *SkillNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "Skill endpoint URL. Supports template placeholders.",
			},
			"method": map[string]any{
				"type": "string",
				"enum": []any{"GET", "POST", "PUT", "PATCH", "DELETE"},
			},
			"headers": map[string]any{
				"type": "object",
			},
			"auth_token": map[string]any{
				"type":        "string",
				"description": "Bearer token sent in the Authorization header.",
			},
			"body": map[string]any{
				"type":        "string",
				"description": "Request payload template.",
			},
			"timeout": map[string]any{
				"type":    "number",
				"minimum": 1,
				"maximum": 300,
			},
		},
		"required": []any{"url"},
	}
}

// NewSkillNodeFactory creates a new factory instance.
func NewSkillNodeFactory() protocol.NodeFactory {
	return &SkillNodeFactory{}
}
