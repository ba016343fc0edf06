// Package workflow implements the fixed-graph scheduler: it compiles a
// declarative node/edge graph into a deterministic plan and runs each node in
// topological order, isolating failures to the branches that depend on them.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fluxionhq/fluxion/pkg/compiler"
	"github.com/fluxionhq/fluxion/pkg/eventbus"
	"github.com/fluxionhq/fluxion/pkg/events"
	"github.com/fluxionhq/fluxion/pkg/models"
	"github.com/fluxionhq/fluxion/pkg/otelhelper"
	"github.com/fluxionhq/fluxion/pkg/protocol"
	"github.com/fluxionhq/fluxion/pkg/registry"
)

// GraphLoader resolves a persisted workflow id to its graph definition.
type GraphLoader interface {
	GraphByID(ctx context.Context, id string) (*models.Graph, error)
}

// GraphExecutor runs compiled workflow graphs. It is safe for concurrent use;
// each Execute call owns its run state exclusively.
type GraphExecutor struct {
	logger   *slog.Logger
	registry *registry.Registry
	loader   GraphLoader
	eventBus eventbus.EventBus
	tracer   trace.Tracer
}

// Option configures optional executor collaborators.
type Option func(*GraphExecutor)

// WithGraphLoader lets Execute resolve requests that carry a workflow id
// instead of an inline graph.
func WithGraphLoader(loader GraphLoader) Option {
	return func(e *GraphExecutor) {
		e.loader = loader
	}
}

// WithEventBus publishes lifecycle events for each run and node.
func WithEventBus(bus eventbus.EventBus) Option {
	return func(e *GraphExecutor) {
		e.eventBus = bus
	}
}

// WithTracer emits one span per run and per executed node.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *GraphExecutor) {
		e.tracer = tracer
	}
}

// NewGraphExecutor creates an executor dispatching through the given registry.
func NewGraphExecutor(logger *slog.Logger, reg *registry.Registry, opts ...Option) *GraphExecutor {
	executor := &GraphExecutor{
		logger:   logger.With("module", "graph_executor"),
		registry: reg,
	}

	for _, opt := range opts {
		opt(executor)
	}

	return executor
}

// Execute compiles the request's graph and runs it to completion. Structural
// errors (cycles, dangling edges, duplicate ids) are fatal and no node runs.
// Handler failures are not: they mark the failing node and its dependents and
// the rest of the graph still executes.
func (e *GraphExecutor) Execute(ctx context.Context, req protocol.ExecutionRequest) (*models.ExecutionResult, error) {
	startedAt := time.Now()
	executionID := generateExecutionID()

	logger := e.logger.With("execution_id", executionID, "workflow_id", req.WorkflowID)

	graph := req.Graph
	if graph == nil {
		if e.loader == nil || req.WorkflowID == "" {
			return nil, fmt.Errorf("execution request carries neither a graph nor a resolvable workflow id")
		}

		loaded, err := e.loader.GraphByID(ctx, req.WorkflowID)
		if err != nil {
			return nil, fmt.Errorf("failed to load workflow %s: %w", req.WorkflowID, err)
		}

		graph = loaded
	}

	if err := graph.Validate(); err != nil {
		return nil, fmt.Errorf("invalid graph: %w", err)
	}

	plan, err := compiler.Compile(graph)
	if err != nil {
		return nil, err
	}

	logger.Info("Starting graph execution", "nodes", len(plan.Order))

	var runSpan trace.Span

	if e.tracer != nil {
		ctx, runSpan = otelhelper.StartSpan(ctx, e.tracer, "workflow.execute",
			attribute.String(otelhelper.WorkflowIDKey, req.WorkflowID),
			attribute.String(otelhelper.ExecutionIDKey, executionID),
		)
		defer runSpan.End()
	}

	state := models.NewRunState(executionID, req.Input, mergeOptions(graph.Options, req.Options))
	state.WorkflowID = req.WorkflowID
	state.SessionID = req.SessionID

	e.publish(ctx, executionID, events.ExecutionStarted{
		BaseEvent: e.baseEvent(events.ExecutionStartedEvent, req.WorkflowID, executionID),
		Input:     req.Input,
	})

	cancelled := false

	for _, nodeID := range plan.Order {
		if ctx.Err() != nil {
			cancelled = true

			break
		}

		node := plan.Nodes[nodeID]

		switch decide(plan.Incoming[nodeID], state) {
		case verdictRun:
			e.runNode(ctx, logger, node, state)
		case verdictPropagate:
			e.propagateFailure(ctx, node, plan.Incoming[nodeID], state)
		case verdictSkip:
			state.SetResult(models.NodeResult{
				NodeID:    nodeID,
				Kind:      node.Kind,
				Status:    models.NodeStatusSkipped,
				Timestamp: time.Now(),
			})
		}
	}

	result := e.assemble(plan, state, req.WorkflowID, startedAt, cancelled)

	if runSpan != nil && !result.Success {
		otelhelper.SetError(runSpan, errors.New(result.Error),
			attribute.String(otelhelper.ExecutionIDKey, executionID),
		)
	}

	if cancelled {
		e.publish(ctx, executionID, events.ExecutionCancelled{
			BaseEvent:      e.baseEvent(events.ExecutionCancelledEvent, req.WorkflowID, executionID),
			CompletedNodes: len(result.Trace),
		})
		logger.Warn("Execution cancelled", "completed_nodes", len(result.Trace))

		return result, ctx.Err()
	}

	if result.Success {
		e.publish(ctx, executionID, events.ExecutionCompleted{
			BaseEvent: e.baseEvent(events.ExecutionCompletedEvent, req.WorkflowID, executionID),
			Output:    result.Output,
			Usage:     result.Usage,
			Calls:     result.Calls,
			Duration:  result.FinishedAt.Sub(result.StartedAt),
		})
	} else {
		e.publish(ctx, executionID, events.ExecutionFailed{
			BaseEvent: e.baseEvent(events.ExecutionFailedEvent, req.WorkflowID, executionID),
			Error:     result.Error,
			Duration:  result.FinishedAt.Sub(result.StartedAt),
		})
	}

	logger.Info("Finished graph execution",
		"success", result.Success,
		"calls", result.Calls,
		"total_tokens", result.Usage.TotalTokens,
	)

	return result, nil
}

// runNode dispatches one node through the registry and records its result.
func (e *GraphExecutor) runNode(ctx context.Context, logger *slog.Logger, node *models.Node, state *models.RunState) {
	started := time.Now()
	state.CurrentNode = node.ID

	nodeCtx := ctx

	var span trace.Span

	if e.tracer != nil {
		nodeCtx, span = otelhelper.StartSpan(ctx, e.tracer, "workflow.node",
			attribute.String(otelhelper.NodeIDKey, node.ID),
			attribute.String(otelhelper.NodeKindKey, string(node.Kind)),
		)
		defer span.End()
	}

	result := e.executeNode(nodeCtx, node, state)
	result.Handle = normalizeHandle(result)

	state.SetResult(result)

	if result.Failed() {
		if span != nil {
			otelhelper.SetError(span, errors.New(result.Error),
				attribute.String(otelhelper.NodeIDKey, node.ID),
			)
		}

		logger.Warn("Node failed", "node_id", node.ID, "kind", node.Kind, "error", result.Error)
		e.publish(ctx, state.ExecutionID, events.NodeFailed{
			BaseEvent: e.baseEvent(events.NodeFailedEvent, state.WorkflowID, state.ExecutionID),
			NodeID:    node.ID,
			Kind:      node.Kind,
			Error:     result.Error,
		})

		return
	}

	logger.Debug("Node finished", "node_id", node.ID, "kind", node.Kind, "handle", result.Handle, "duration", time.Since(started))
	e.publish(ctx, state.ExecutionID, events.NodeFinished{
		BaseEvent: e.baseEvent(events.NodeFinishedEvent, state.WorkflowID, state.ExecutionID),
		NodeID:    node.ID,
		Kind:      node.Kind,
		Status:    string(result.Status),
		Duration:  result.Duration,
	})
}

// executeNode turns every failure mode, including handler construction and
// internal faults, into an error-status result so one bad node cannot abort
// the run.
func (e *GraphExecutor) executeNode(ctx context.Context, node *models.Node, state *models.RunState) models.NodeResult {
	started := time.Now()

	handler, err := e.registry.Create(ctx, node)
	if err != nil {
		return errorResult(node, started, fmt.Sprintf("failed to create handler: %v", err))
	}

	outputs, err := handler.Execute(ctx, state)
	if err != nil {
		return errorResult(node, started, fmt.Sprintf("internal fault: %v", err))
	}

	for handle, result := range outputs {
		if result.Handle == "" {
			result.Handle = handle
		}

		return result
	}

	return errorResult(node, started, "handler returned no result")
}

func errorResult(node *models.Node, started time.Time, detail string) models.NodeResult {
	return models.NodeResult{
		NodeID:    node.ID,
		Kind:      node.Kind,
		Status:    models.NodeStatusError,
		Error:     detail,
		Duration:  time.Since(started),
		Timestamp: started,
	}
}

// propagateFailure marks a node whose upstream failed without executing it.
func (e *GraphExecutor) propagateFailure(ctx context.Context, node *models.Node, incoming []models.Edge, state *models.RunState) {
	failedSource := ""

	for _, edge := range incoming {
		if res, ok := state.Result(edge.Source); ok && res.Failed() {
			failedSource = edge.Source

			break
		}
	}

	result := models.NodeResult{
		NodeID:    node.ID,
		Kind:      node.Kind,
		Status:    models.NodeStatusError,
		Error:     fmt.Sprintf("upstream failure: node %q did not succeed", failedSource),
		Timestamp: time.Now(),
	}

	state.SetResult(result)

	e.publish(ctx, state.ExecutionID, events.NodeFailed{
		BaseEvent: e.baseEvent(events.NodeFailedEvent, state.WorkflowID, state.ExecutionID),
		NodeID:    node.ID,
		Kind:      node.Kind,
		Error:     result.Error,
	})
}

type verdict int

const (
	verdictRun verdict = iota
	verdictSkip
	verdictPropagate
)

// decide classifies a node from its incoming edges. Any failed parent poisons
// the node; otherwise it runs when at least one edge is satisfied. A node with
// only unsatisfied edges sits on a pruned branch and is skipped. Roots always
// run.
func decide(incoming []models.Edge, state *models.RunState) verdict {
	if len(incoming) == 0 {
		return verdictRun
	}

	satisfied := false

	for _, edge := range incoming {
		source, ok := state.Result(edge.Source)
		if !ok {
			continue
		}

		if source.Failed() {
			return verdictPropagate
		}

		if source.Status != models.NodeStatusSuccess {
			continue
		}

		if edge.SourceHandle == "" || edge.SourceHandle == source.Handle {
			satisfied = true
		}
	}

	if satisfied {
		return verdictRun
	}

	return verdictSkip
}

// assemble builds the final result. The trace follows plan order, and the run
// succeeds when every output node succeeded (vacuously true without one).
func (e *GraphExecutor) assemble(plan *compiler.Plan, state *models.RunState, workflowID string, startedAt time.Time, cancelled bool) *models.ExecutionResult {
	results := state.Results()
	trace := make([]models.NodeResult, 0, len(results))

	success := true
	errDetail := ""

	var output any

	outputs := make(map[string]any)

	for _, nodeID := range plan.Order {
		res, ok := results[nodeID]
		if !ok {
			continue
		}

		trace = append(trace, res)

		node := plan.Nodes[nodeID]
		if node.Kind != models.NodeKindOutput {
			continue
		}

		if res.Status != models.NodeStatusSuccess {
			success = false

			if errDetail == "" {
				errDetail = fmt.Sprintf("output node %q failed: %s", nodeID, res.Error)
			}

			continue
		}

		outputs[nodeID] = res.Output["value"]
	}

	switch len(outputs) {
	case 0:
	case 1:
		for _, v := range outputs {
			output = v
		}
	default:
		output = outputs
	}

	if cancelled {
		success = false

		if errDetail == "" {
			errDetail = "execution cancelled"
		}
	}

	return &models.ExecutionResult{
		ExecutionID: state.ExecutionID,
		WorkflowID:  workflowID,
		Output:      output,
		Trace:       trace,
		Usage:       state.Usage(),
		Calls:       state.Calls(),
		Success:     success,
		Error:       errDetail,
		StartedAt:   startedAt,
		FinishedAt:  time.Now(),
	}
}

func (e *GraphExecutor) publish(ctx context.Context, executionID string, event eventbus.Event) {
	if e.eventBus == nil {
		return
	}

	if err := e.eventBus.Publish(ctx, executionID, event); err != nil {
		e.logger.Warn("Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}

func (e *GraphExecutor) baseEvent(eventType events.EventType, workflowID, executionID string) events.BaseEvent {
	id := uuid.New().String()
	if e.eventBus != nil {
		id = e.eventBus.GenerateID()
	}

	return events.BaseEvent{
		ID:          id,
		Type:        eventType,
		Timestamp:   time.Now(),
		WorkflowID:  workflowID,
		ExecutionID: executionID,
	}
}

func normalizeHandle(result models.NodeResult) string {
	if result.Failed() {
		return ""
	}

	if result.Handle == "" {
		return models.HandleMain
	}

	return result.Handle
}

// mergeOptions overlays non-zero request options on the graph defaults.
func mergeOptions(base, override models.RunOptions) models.RunOptions {
	merged := base

	if override.Model != "" {
		merged.Model = override.Model
	}

	if override.Temperature != nil {
		merged.Temperature = override.Temperature
	}

	if override.SystemPrompt != "" {
		merged.SystemPrompt = override.SystemPrompt
	}

	return merged
}

func generateExecutionID() string {
	return "exec-" + uuid.New().String()[:8]
}
