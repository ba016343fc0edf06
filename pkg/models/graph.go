package models

import (
	"github.com/go-playground/validator/v10"
)

// Edge declares a data/order dependency from Source to Target. SourceHandle
// selects a specific output handle on multi-output nodes (condition true/false);
// empty matches any non-error output.
type Edge struct {
	Source       string `json:"source"        validate:"required"`
	Target       string `json:"target"        validate:"required"`
	SourceHandle string `json:"source_handle,omitempty"`
}

// RunOptions carries optional per-run configuration supplied by the caller.
// Temperature is a pointer so an explicit zero can override a graph default.
type RunOptions struct {
	Model        string   `json:"model,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"`
	SystemPrompt string   `json:"system_prompt,omitempty"`
}

// Graph is the declarative node/edge definition produced by the visual editor.
type Graph struct {
	ID      string     `json:"id"`
	Name    string     `json:"name,omitempty"`
	Nodes   []*Node    `json:"nodes"       validate:"required,min=1,dive"`
	Edges   []Edge     `json:"edges"       validate:"dive"`
	Options RunOptions `json:"options,omitempty"`
}

var validate = validator.New()

// Validate checks struct-level constraints (required fields, kind enum).
// Structural graph properties (cycles, dangling edges) are the compiler's job.
func (g *Graph) Validate() error {
	return validate.Struct(g)
}
