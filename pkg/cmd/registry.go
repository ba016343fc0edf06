// Package cmd provides common initialization for the fluxion binaries.
package cmd

import (
	"log/slog"
	"time"

	"github.com/fluxionhq/fluxion/pkg/llm"
	"github.com/fluxionhq/fluxion/pkg/registry"
)

// LLMOptions carries the chat backend flags shared by the CLI commands.
type LLMOptions struct {
	APIKey         string
	BaseURL        string
	Model          string
	EmbeddingModel string
	TimeoutSeconds int
}

// NewLLMClient builds the OpenAI-compatible chat client from CLI options.
func NewLLMClient(opts LLMOptions) *llm.OpenAIClient {
	return llm.NewOpenAIClient(llm.Config{
		APIKey:         opts.APIKey,
		BaseURL:        opts.BaseURL,
		Model:          opts.Model,
		EmbeddingModel: opts.EmbeddingModel,
		Timeout:        time.Duration(opts.TimeoutSeconds) * time.Second,
	})
}

// NewRegistry builds the node registry with every built-in kind registered.
func NewRegistry(logger *slog.Logger, client llm.Client) *registry.Registry {
	return registry.NewDefaultRegistry(logger, client)
}
