package models

import "time"

// ExecutionResult is what a caller receives after a run finishes, one way or
// another. Trace is ordered by the plan's topological order, not by
// completion time, so identical runs diff cleanly.
type ExecutionResult struct {
	ExecutionID string       `json:"execution_id"`
	WorkflowID  string       `json:"workflow_id,omitempty"`
	Output      any          `json:"output"`
	Trace       []NodeResult `json:"trace"`
	Usage       Usage        `json:"usage"`
	Calls       int          `json:"calls"`
	Success     bool         `json:"success"`
	Error       string       `json:"error,omitempty"`
	StartedAt   time.Time    `json:"started_at"`
	FinishedAt  time.Time    `json:"finished_at"`
}
