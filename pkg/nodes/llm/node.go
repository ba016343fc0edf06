// Package llm provides the chat-completion node for workflow graph execution.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fluxionhq/fluxion/pkg/llm"
	"github.com/fluxionhq/fluxion/pkg/models"
	"github.com/fluxionhq/fluxion/pkg/template"
)

// DefaultTimeoutSeconds caps a single backend call unless configured.
const DefaultTimeoutSeconds = 30

// LLMNode resolves its prompt template against run state, sends the prompt
// plus conversation to the chat backend and appends the assistant reply.
type LLMNode struct {
	id     string
	client llm.Client
	config LLMConfig
}

// LLMConfig defines the configuration for llm nodes. Temperature is a pointer
// so a configured zero is distinguishable from "not set".
type LLMConfig struct {
	Prompt       string   `json:"prompt"`
	Model        string   `json:"model,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"`
	SystemPrompt string   `json:"system_prompt,omitempty"`
	Timeout      int      `json:"timeout,omitempty"`
}

// NewLLMNode creates a new llm node bound to the given backend client.
func NewLLMNode(id string, client llm.Client, config map[string]any) (*LLMNode, error) {
	if client == nil {
		return nil, errors.New("llm node requires a chat backend client")
	}

	parsed := LLMConfig{Timeout: DefaultTimeoutSeconds}

	prompt, ok := config["prompt"].(string)
	if !ok || prompt == "" {
		return nil, errors.New("missing required field 'prompt'")
	}

	parsed.Prompt = prompt

	if model, ok := config["model"].(string); ok {
		parsed.Model = model
	}

	if temp, ok := floatValue(config["temperature"]); ok {
		parsed.Temperature = &temp
	}

	if system, ok := config["system_prompt"].(string); ok {
		parsed.SystemPrompt = system
	}

	if timeout, ok := intValue(config["timeout"]); ok && timeout > 0 {
		parsed.Timeout = timeout
	}

	return &LLMNode{
		id:     id,
		client: client,
		config: parsed,
	}, nil
}

// ID returns the node ID.
func (n *LLMNode) ID() string {
	return n.id
}

// Kind returns the node kind.
func (n *LLMNode) Kind() models.NodeKind {
	return models.NodeKindLLM
}

// Execute sends the resolved prompt and conversation to the backend. Backend
// errors and timeouts become an error-status result; the run keeps going
// elsewhere.
func (n *LLMNode) Execute(ctx context.Context, state *models.RunState) (map[string]models.NodeResult, error) {
	started := time.Now()
	prompt := template.Resolve(n.config.Prompt, state)

	messages := make([]models.Message, 0, len(state.Messages)+2)

	system := n.config.SystemPrompt
	if system == "" {
		system = state.Options.SystemPrompt
	}

	if system != "" {
		messages = append(messages, models.Message{Role: models.RoleSystem, Content: system})
	}

	messages = append(messages, state.Messages...)
	messages = append(messages, models.Message{Role: models.RoleUser, Content: prompt})

	model := n.config.Model
	if model == "" {
		model = state.Options.Model
	}

	temperature := n.config.Temperature
	if temperature == nil {
		temperature = state.Options.Temperature
	}

	callCtx, cancel := context.WithTimeout(ctx, time.Duration(n.config.Timeout)*time.Second)
	defer cancel()

	resp, err := n.client.Chat(callCtx, &llm.ChatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
	})
	if err != nil {
		return n.errorResult(prompt, started, fmt.Sprintf("chat backend call failed: %v", err)), nil
	}

	state.AppendMessage(models.Message{Role: models.RoleUser, Content: prompt})
	state.AppendMessage(models.Message{Role: models.RoleAssistant, Content: resp.Content})
	state.AddUsage(resp.Usage)

	return map[string]models.NodeResult{
		models.HandleMain: {
			NodeID: n.id,
			Kind:   models.NodeKindLLM,
			Status: models.NodeStatusSuccess,
			Input:  prompt,
			Output: map[string]any{
				"response":      resp.Content,
				"finish_reason": resp.FinishReason,
			},
			Duration:  time.Since(started),
			Timestamp: started,
		},
	}, nil
}

// intValue accepts both Go-constructed and JSON-decoded numerics.
func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func floatValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

func (n *LLMNode) errorResult(prompt string, started time.Time, message string) map[string]models.NodeResult {
	return map[string]models.NodeResult{
		models.HandleMain: {
			NodeID:    n.id,
			Kind:      models.NodeKindLLM,
			Status:    models.NodeStatusError,
			Input:     prompt,
			Error:     message,
			Duration:  time.Since(started),
			Timestamp: started,
		},
	}
}
