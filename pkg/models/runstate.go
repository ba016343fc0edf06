package models

import (
	"encoding/json"
	"fmt"
	"sync"
)

// RunState is the mutable context carried across node executions within one
// run. It is exclusively owned by the execution that created it and must not
// be shared across concurrent runs. The usage/call accumulators are
// synchronized so that an implementation executing independent branches in
// parallel stays correct.
type RunState struct {
	ExecutionID string `json:"execution_id"`
	WorkflowID  string `json:"workflow_id,omitempty"`
	SessionID   string `json:"session_id,omitempty"`

	// Input is the original run input, addressable from templates.
	Input   any        `json:"input"`
	Options RunOptions `json:"options,omitempty"`

	// Messages is the append-only, role-tagged conversation log.
	Messages []Message `json:"messages"`

	// CurrentNode is informational only.
	CurrentNode string `json:"current_node,omitempty"`

	mu            sync.Mutex
	results       map[string]NodeResult
	usage         Usage
	calls         int
	memoryContext string
}

// NewRunState creates the state for a single run.
func NewRunState(executionID string, input any, opts RunOptions) *RunState {
	return &RunState{
		ExecutionID: executionID,
		Input:       input,
		Options:     opts,
		results:     make(map[string]NodeResult),
	}
}

// AppendMessage appends one message to the conversation log.
func (s *RunState) AppendMessage(msg Message) {
	s.Messages = append(s.Messages, msg)
}

// SetResult records a node's last produced result.
func (s *RunState) SetResult(res NodeResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results[res.NodeID] = res
}

// Result returns the last result produced by the given node.
func (s *RunState) Result(nodeID string) (NodeResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, ok := s.results[nodeID]

	return res, ok
}

// Results returns a copy of the per-node result map.
func (s *RunState) Results() map[string]NodeResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]NodeResult, len(s.results))
	for id, res := range s.results {
		out[id] = res
	}

	return out
}

// AddUsage folds backend-reported token usage into the run counter.
func (s *RunState) AddUsage(u Usage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.usage.Add(u)
}

// Usage returns the accumulated token usage.
func (s *RunState) Usage() Usage {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.usage
}

// IncCalls increments the external-call counter.
func (s *RunState) IncCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
}

// Calls returns the number of external calls issued so far.
func (s *RunState) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.calls
}

// SetMemoryContext overrides what {{context}} resolves to. The agentic loop
// uses this to inject retrieved memory instead of node outputs.
func (s *RunState) SetMemoryContext(ctx string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.memoryContext = ctx
}

// MemoryContext returns the injected memory serialization, if any.
func (s *RunState) MemoryContext() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.memoryContext
}

// InputString renders the run input as a string for template substitution.
func (s *RunState) InputString() string {
	switch v := s.Input.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}

		return string(data)
	}
}

// ContextJSON serializes the accumulated successful node outputs, keyed by
// node id, for template substitution.
func (s *RunState) ContextJSON() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	outputs := make(map[string]any, len(s.results))

	for id, res := range s.results {
		if res.Status == NodeStatusSuccess {
			outputs[id] = res.Output
		}
	}

	data, err := json.Marshal(outputs)
	if err != nil {
		return "{}"
	}

	return string(data)
}
