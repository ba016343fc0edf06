// Package events defines the execution lifecycle notifications published by
// the engine.
package events

import (
	"time"

	"github.com/fluxionhq/fluxion/pkg/models"
)

type EventType string

// Topic carries all execution lifecycle events.
const Topic = "fluxion.executions"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	ExecutionStartedEvent   EventType = "execution.started"
	ExecutionCompletedEvent EventType = "execution.completed"
	ExecutionFailedEvent    EventType = "execution.failed"
	ExecutionCancelledEvent EventType = "execution.cancelled"
	NodeFinishedEvent       EventType = "node.finished"
	NodeFailedEvent         EventType = "node.failed"
	SkillInvokedEvent       EventType = "skill.invoked"
)

type BaseEvent struct {
	ID          string         `json:"id"`
	Type        EventType      `json:"type"`
	Timestamp   time.Time      `json:"timestamp"`
	WorkflowID  string         `json:"workflow_id,omitempty"`
	ExecutionID string         `json:"execution_id"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type ExecutionStarted struct {
	BaseEvent

	Input any `json:"input,omitempty"`
}

func (e ExecutionStarted) GetType() EventType {
	return ExecutionStartedEvent
}

type ExecutionCompleted struct {
	BaseEvent

	Output   any           `json:"output,omitempty"`
	Usage    models.Usage  `json:"usage"`
	Calls    int           `json:"calls"`
	Duration time.Duration `json:"duration"`
}

func (e ExecutionCompleted) GetType() EventType {
	return ExecutionCompletedEvent
}

type ExecutionFailed struct {
	BaseEvent

	Error    string        `json:"error"`
	Duration time.Duration `json:"duration"`
}

func (e ExecutionFailed) GetType() EventType {
	return ExecutionFailedEvent
}

type ExecutionCancelled struct {
	BaseEvent

	CompletedNodes int `json:"completed_nodes"`
}

func (e ExecutionCancelled) GetType() EventType {
	return ExecutionCancelledEvent
}

type NodeFinished struct {
	BaseEvent

	NodeID   string          `json:"node_id"`
	Kind     models.NodeKind `json:"kind"`
	Status   string          `json:"status"`
	Duration time.Duration   `json:"duration"`
}

func (e NodeFinished) GetType() EventType {
	return NodeFinishedEvent
}

type NodeFailed struct {
	BaseEvent

	NodeID string          `json:"node_id"`
	Kind   models.NodeKind `json:"kind"`
	Error  string          `json:"error"`
}

func (e NodeFailed) GetType() EventType {
	return NodeFailedEvent
}

type SkillInvoked struct {
	BaseEvent

	SkillName string `json:"skill_name"`
	Iteration int    `json:"iteration"`
	Status    string `json:"status"`
}

func (e SkillInvoked) GetType() EventType {
	return SkillInvokedEvent
}
