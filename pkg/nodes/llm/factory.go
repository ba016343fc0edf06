package llm

import (
	"context"

	"github.com/fluxionhq/fluxion/pkg/llm"
	"github.com/fluxionhq/fluxion/pkg/models"
	"github.com/fluxionhq/fluxion/pkg/protocol"
)

// LLMNodeFactory creates LLMNode instances bound to one backend client.
type LLMNodeFactory struct {
	client llm.Client
}

// Create creates a new LLMNode instance.
func (f *LLMNodeFactory) Create(_ context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewLLMNode(id, f.client, config)
}

// Kind returns the factory kind.
func (f *LLMNodeFactory) Kind() models.NodeKind {
	return models.NodeKindLLM
}

// Name returns the factory name.
func (f *LLMNodeFactory) Name() string {
	return "LLM"
}

// Description returns the factory description.
func (f *LLMNodeFactory) Description() string {
	return "Sends a resolved prompt plus the conversation to the chat backend and appends the assistant reply"
}

// Schema returns the JSON schema for llm node configuration.
func (f *LLMNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"prompt": map[string]any{
				"type":        "string",
				"description": "Prompt template. Supports {{input}}, {{context}} and {{node.<id>}} placeholders.",
			},
			"model": map[string]any{
				"type":        "string",
				"description": "Backend model override for this node.",
			},
			"temperature": map[string]any{
				"type":    "number",
				"minimum": 0,
				"maximum": 2,
			},
			"system_prompt": map[string]any{
				"type": "string",
			},
			"timeout": map[string]any{
				"type":        "number",
				"description": "Call deadline in seconds (default 30).",
				"minimum":     1,
				"maximum":     300,
			},
		},
		"required": []any{"prompt"},
	}
}

// NewLLMNodeFactory creates a new factory instance.
func NewLLMNodeFactory(client llm.Client) protocol.NodeFactory {
	return &LLMNodeFactory{client: client}
}
