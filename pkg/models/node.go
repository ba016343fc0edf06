// Package models defines the core domain models for workflow graph execution.
package models

import (
	"time"
)

// NodeKind identifies the behavior of a node. The set is closed: the
// scheduler dispatches through a fixed factory table keyed by kind.
type NodeKind string

const (
	NodeKindInput     NodeKind = "input"
	NodeKindLLM       NodeKind = "llm"
	NodeKindSkill     NodeKind = "skill"
	NodeKindTransform NodeKind = "transform"
	NodeKindOutput    NodeKind = "output"
	NodeKindCondition NodeKind = "condition"
)

// Kinds lists every supported node kind in a stable order.
func Kinds() []NodeKind {
	return []NodeKind{
		NodeKindInput,
		NodeKindLLM,
		NodeKindSkill,
		NodeKindTransform,
		NodeKindOutput,
		NodeKindCondition,
	}
}

// Node is one unit of work in a workflow graph. Nodes are immutable once a
// run starts; kind-specific settings live in Config.
type Node struct {
	ID     string         `json:"id"     validate:"required"`
	Kind   NodeKind       `json:"kind"   validate:"required,oneof=input llm skill transform output condition"`
	Name   string         `json:"name,omitempty"`
	Config map[string]any `json:"config,omitempty"`
}

// NodeStatus defines the possible states of a node execution.
type NodeStatus string

const (
	NodeStatusPending NodeStatus = "pending"
	NodeStatusRunning NodeStatus = "running"
	NodeStatusSuccess NodeStatus = "success"
	NodeStatusError   NodeStatus = "error"
	NodeStatusSkipped NodeStatus = "skipped"
)

// Output handles shared by node implementations. Condition nodes use
// HandleTrue/HandleFalse; everything else emits on HandleMain.
const (
	HandleMain  = "main"
	HandleTrue  = "true"
	HandleFalse = "false"
)

// NodeResult records what happened when a single node executed. Results are
// immutable once appended to a trace.
type NodeResult struct {
	NodeID    string         `json:"node_id"`
	Kind      NodeKind       `json:"kind"`
	Status    NodeStatus     `json:"status"`
	Handle    string         `json:"handle,omitempty"`
	Input     any            `json:"input,omitempty"`
	Output    map[string]any `json:"output,omitempty"`
	Error     string         `json:"error,omitempty"`
	Duration  time.Duration  `json:"duration"`
	Timestamp time.Time      `json:"timestamp"`
}

// Failed reports whether the node ended in an error state.
func (r NodeResult) Failed() bool {
	return r.Status == NodeStatusError
}
