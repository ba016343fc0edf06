// Package llm provides the chat-completion backend client consumed by the
// llm node handler and the agentic loop controller.
package llm

import (
	"context"

	"github.com/fluxionhq/fluxion/pkg/models"
)

// Tool describes a callable skill in the backend's function-calling format.
type Tool struct {
	Type     string      `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction carries the skill name, description and JSON-schema parameters.
type ToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// ChatRequest is the input to a chat completion. A nil Temperature leaves the
// backend default in place; zero is sent as-is.
type ChatRequest struct {
	Model       string           `json:"model,omitempty"`
	Messages    []models.Message `json:"messages"`
	Temperature *float64         `json:"temperature,omitempty"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
	Tools       []Tool           `json:"tools,omitempty"`
}

// ChatResponse is the backend's answer: either assistant content or one or
// more structured tool-invocation requests. Usage comes from the backend and
// is accumulated by the caller, never recomputed locally.
type ChatResponse struct {
	Content      string            `json:"content"`
	ToolCalls    []models.ToolCall `json:"tool_calls,omitempty"`
	Usage        models.Usage      `json:"usage"`
	FinishReason string            `json:"finish_reason,omitempty"`
}

// Client is the chat backend boundary. Both calls honor the context deadline.
type Client interface {
	// Chat sends the conversation (plus optional tool schemas) and returns
	// the assistant response
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Embed returns the embedding vector for one text, used by memory
	// similarity retrieval
	Embed(ctx context.Context, text string) ([]float64, error)
}

// ToolsForSkills converts persisted skill records into the wire tool schema.
func ToolsForSkills(skills []models.Skill) []Tool {
	if len(skills) == 0 {
		return nil
	}

	tools := make([]Tool, 0, len(skills))

	for _, skill := range skills {
		params := skill.Parameters
		if params == nil {
			params = map[string]any{"type": "object", "properties": map[string]any{}}
		}

		tools = append(tools, Tool{
			Type: "function",
			Function: ToolFunction{
				Name:        skill.Name,
				Description: skill.Description,
				Parameters:  params,
			},
		})
	}

	return tools
}
