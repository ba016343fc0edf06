// Package agentic implements the conversational loop controller: a
// model-driven alternative to the fixed-graph scheduler where the chat
// backend decides which skills to invoke, bounded by an iteration limit.
package agentic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fluxionhq/fluxion/pkg/eventbus"
	"github.com/fluxionhq/fluxion/pkg/events"
	"github.com/fluxionhq/fluxion/pkg/llm"
	"github.com/fluxionhq/fluxion/pkg/memory"
	"github.com/fluxionhq/fluxion/pkg/models"
	skillnode "github.com/fluxionhq/fluxion/pkg/nodes/skill"
	"github.com/fluxionhq/fluxion/pkg/otelhelper"
	"github.com/fluxionhq/fluxion/pkg/protocol"
	"github.com/fluxionhq/fluxion/pkg/registry"
)

// ErrLoopExhausted reports that the model was still requesting skill
// invocations when the iteration bound was reached. The returned result is
// partial and carries everything produced so far.
var ErrLoopExhausted = errors.New("agentic loop exhausted iteration bound")

// DefaultMaxIterations bounds one turn unless configured otherwise.
const DefaultMaxIterations = 8

// SkillSource resolves the skills a workflow exposes to the model.
type SkillSource interface {
	SkillsForWorkflow(ctx context.Context, workflowID string) ([]models.Skill, error)
}

// Config tunes the loop controller.
type Config struct {
	// MaxIterations caps model round-trips per turn; zero means the default.
	MaxIterations int

	// HistoryLimit bounds the recency window seeded from the memory gateway;
	// zero lets the gateway decide.
	HistoryLimit int

	// SimilarityTopK is how many long-term entries to retrieve; zero disables
	// similarity seeding.
	SimilarityTopK int
}

// Controller drives one conversational turn to completion.
type Controller struct {
	logger   *slog.Logger
	client   llm.Client
	gateway  memory.Gateway
	skills   SkillSource
	eventBus eventbus.EventBus
	tracer   trace.Tracer
	config   Config
}

// Option configures optional controller collaborators.
type Option func(*Controller)

// WithSkillSource exposes persisted skills to the model as callable tools.
func WithSkillSource(source SkillSource) Option {
	return func(c *Controller) {
		c.skills = source
	}
}

// WithEventBus publishes lifecycle and skill-invocation events.
func WithEventBus(bus eventbus.EventBus) Option {
	return func(c *Controller) {
		c.eventBus = bus
	}
}

// WithTracer emits one span per turn and per model iteration.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Controller) {
		c.tracer = tracer
	}
}

// NewController creates a loop controller. The memory gateway may be nil, in
// which case turns run stateless.
func NewController(logger *slog.Logger, client llm.Client, gateway memory.Gateway, config Config, opts ...Option) *Controller {
	if config.MaxIterations <= 0 {
		config.MaxIterations = DefaultMaxIterations
	}

	controller := &Controller{
		logger:  logger.With("module", "agentic_controller"),
		client:  client,
		gateway: gateway,
		config:  config,
	}

	for _, opt := range opts {
		opt(controller)
	}

	return controller
}

// Execute runs one turn: seed the conversation from memory, then alternate
// between model calls and requested skill invocations until the model answers
// in plain content or the iteration bound trips. Exhaustion returns the
// partial result alongside ErrLoopExhausted.
func (c *Controller) Execute(ctx context.Context, req protocol.ExecutionRequest) (*models.ExecutionResult, error) {
	startedAt := time.Now()
	executionID := "turn-" + uuid.New().String()[:8]

	logger := c.logger.With(
		"execution_id", executionID,
		"workflow_id", req.WorkflowID,
		"session_id", req.SessionID,
	)

	var turnSpan trace.Span

	if c.tracer != nil {
		ctx, turnSpan = otelhelper.StartSpan(ctx, c.tracer, "agentic.turn",
			attribute.String(otelhelper.WorkflowIDKey, req.WorkflowID),
			attribute.String(otelhelper.ExecutionIDKey, executionID),
			attribute.String(otelhelper.SessionIDKey, req.SessionID),
		)
		defer turnSpan.End()
	}

	state := models.NewRunState(executionID, req.Input, req.Options)
	state.WorkflowID = req.WorkflowID
	state.SessionID = req.SessionID

	session := &models.AgenticSession{
		WorkflowID: req.WorkflowID,
		SessionID:  req.SessionID,
		State:      state,
	}

	if c.skills != nil {
		skills, err := c.skills.SkillsForWorkflow(ctx, req.WorkflowID)
		if err != nil {
			return nil, fmt.Errorf("failed to load skills for workflow %s: %w", req.WorkflowID, err)
		}

		session.Skills = skills
	}

	userInput := state.InputString()
	inputEmbedding := c.seed(ctx, logger, state, userInput)

	if req.Options.SystemPrompt != "" {
		state.AppendMessage(models.Message{Role: models.RoleSystem, Content: req.Options.SystemPrompt})
	}

	history := c.history(ctx, logger, req.WorkflowID, req.SessionID)
	for _, msg := range history {
		state.AppendMessage(msg)
	}

	userMessage := models.Message{Role: models.RoleUser, Content: userInput}
	state.AppendMessage(userMessage)

	c.publish(ctx, executionID, events.ExecutionStarted{
		BaseEvent: c.baseEvent(events.ExecutionStartedEvent, req.WorkflowID, executionID),
		Input:     req.Input,
	})

	logger.Info("Starting agentic turn", "skills", len(session.Skills), "history", len(history))

	tools := llm.ToolsForSkills(session.Skills)
	invocations := make([]models.NodeResult, 0)

	for iteration := 1; iteration <= c.config.MaxIterations; iteration++ {
		if ctx.Err() != nil {
			result := c.assemble(state, invocations, "", startedAt, false, "turn cancelled")
			c.publish(ctx, executionID, events.ExecutionCancelled{
				BaseEvent:      c.baseEvent(events.ExecutionCancelledEvent, req.WorkflowID, executionID),
				CompletedNodes: len(invocations),
			})

			return result, ctx.Err()
		}

		resp, err := c.client.Chat(ctx, &llm.ChatRequest{
			Model:       req.Options.Model,
			Messages:    state.Messages,
			Temperature: req.Options.Temperature,
			Tools:       tools,
		})
		if err != nil {
			detail := fmt.Sprintf("chat backend failed on iteration %d: %v", iteration, err)

			if turnSpan != nil {
				otelhelper.SetError(turnSpan, err, attribute.Int(otelhelper.IterationKey, iteration))
			}

			result := c.assemble(state, invocations, "", startedAt, false, detail)
			c.publish(ctx, executionID, events.ExecutionFailed{
				BaseEvent: c.baseEvent(events.ExecutionFailedEvent, req.WorkflowID, executionID),
				Error:     detail,
				Duration:  time.Since(startedAt),
			})

			return result, fmt.Errorf("chat backend: %w", err)
		}

		state.AddUsage(resp.Usage)

		if len(resp.ToolCalls) == 0 {
			state.AppendMessage(models.Message{Role: models.RoleAssistant, Content: resp.Content})

			c.remember(ctx, logger, req.WorkflowID, req.SessionID, userMessage, inputEmbedding, resp.Content)

			result := c.assemble(state, invocations, resp.Content, startedAt, true, "")
			c.publish(ctx, executionID, events.ExecutionCompleted{
				BaseEvent: c.baseEvent(events.ExecutionCompletedEvent, req.WorkflowID, executionID),
				Output:    resp.Content,
				Usage:     result.Usage,
				Calls:     result.Calls,
				Duration:  time.Since(startedAt),
			})

			logger.Info("Finished agentic turn",
				"iterations", iteration,
				"calls", result.Calls,
				"total_tokens", result.Usage.TotalTokens,
			)

			return result, nil
		}

		state.AppendMessage(models.Message{
			Role:      models.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, call := range resp.ToolCalls {
			invocation := c.invoke(ctx, logger, session, call, iteration)
			session.LastInvocation = &invocation
			invocations = append(invocations, invocation)
		}
	}

	detail := fmt.Sprintf("model still requested skills after %d iterations", c.config.MaxIterations)
	logger.Warn("Agentic turn exhausted", "max_iterations", c.config.MaxIterations)

	if turnSpan != nil {
		otelhelper.SetError(turnSpan, ErrLoopExhausted,
			attribute.Int(otelhelper.IterationKey, c.config.MaxIterations),
		)
	}

	c.remember(ctx, logger, req.WorkflowID, req.SessionID, userMessage, inputEmbedding, "")

	result := c.assemble(state, invocations, "", startedAt, false, detail)
	c.publish(ctx, executionID, events.ExecutionFailed{
		BaseEvent: c.baseEvent(events.ExecutionFailedEvent, req.WorkflowID, executionID),
		Error:     detail,
		Duration:  time.Since(startedAt),
	})

	return result, ErrLoopExhausted
}

// invoke dispatches one model-requested skill call through the skill node
// handler. Unknown skills and schema-invalid arguments come back to the model
// as tool-role error messages instead of aborting the turn.
func (c *Controller) invoke(ctx context.Context, logger *slog.Logger, session *models.AgenticSession, call models.ToolCall, iteration int) models.NodeResult {
	state := session.State
	started := time.Now()

	skill, found := findSkill(session.Skills, call.Name)
	if !found {
		detail := fmt.Sprintf("unknown skill %q", call.Name)
		state.AppendMessage(toolMessage(call, "error: "+detail))

		return invocationError(call, started, detail)
	}

	if err := validateArguments(skill.Parameters, call.Arguments); err != nil {
		detail := fmt.Sprintf("invalid arguments for skill %q: %v", call.Name, err)
		state.AppendMessage(toolMessage(call, "error: "+detail))

		return invocationError(call, started, detail)
	}

	var span trace.Span

	if c.tracer != nil {
		ctx, span = otelhelper.StartSpan(ctx, c.tracer, "agentic.skill",
			attribute.String(otelhelper.SkillNameKey, call.Name),
			attribute.Int(otelhelper.IterationKey, iteration),
		)
		defer span.End()
	}

	node := skillnode.NewSkillNodeForEndpoint(call.ID, skill.Endpoint, call.Arguments)

	outputs, err := node.Execute(ctx, state)
	if err != nil {
		detail := fmt.Sprintf("internal fault invoking skill %q: %v", call.Name, err)

		if span != nil {
			otelhelper.SetError(span, err)
		}

		state.AppendMessage(toolMessage(call, "error: "+detail))

		return invocationError(call, started, detail)
	}

	result := outputs[models.HandleMain]
	state.SetResult(result)

	c.publish(ctx, state.ExecutionID, events.SkillInvoked{
		BaseEvent: c.baseEvent(events.SkillInvokedEvent, session.WorkflowID, state.ExecutionID),
		SkillName: call.Name,
		Iteration: iteration,
		Status:    string(result.Status),
	})

	if result.Failed() {
		if span != nil {
			otelhelper.SetError(span, errors.New(result.Error),
				attribute.String(otelhelper.SkillNameKey, call.Name),
			)
		}

		logger.Warn("Skill invocation failed", "skill", call.Name, "error", result.Error)
		state.AppendMessage(toolMessage(call, "error: "+result.Error))

		return result
	}

	logger.Debug("Skill invoked", "skill", call.Name, "iteration", iteration)

	body, _ := result.Output["body"].(string)
	state.AppendMessage(toolMessage(call, body))

	return result
}

// seed retrieves similarity-ranked long-term entries and injects them as the
// run's memory context. It returns the input embedding for later persistence.
func (c *Controller) seed(ctx context.Context, logger *slog.Logger, state *models.RunState, input string) []float64 {
	if c.gateway == nil || c.config.SimilarityTopK <= 0 || input == "" {
		return nil
	}

	embedding, err := c.client.Embed(ctx, input)
	if err != nil {
		logger.Warn("Failed to embed input, skipping similarity retrieval", "error", err)

		return nil
	}

	entries, err := c.gateway.SearchSimilar(ctx, state.WorkflowID, embedding, c.config.SimilarityTopK)
	if err != nil {
		logger.Warn("Similarity retrieval failed", "error", err)

		return embedding
	}

	if len(entries) == 0 {
		return embedding
	}

	texts := make([]string, len(entries))
	for i, entry := range entries {
		texts[i] = entry.Text
	}

	state.SetMemoryContext(strings.Join(texts, "\n"))

	return embedding
}

func (c *Controller) history(ctx context.Context, logger *slog.Logger, workflowID, sessionID string) []models.Message {
	if c.gateway == nil {
		return nil
	}

	history, err := c.gateway.RecentHistory(ctx, workflowID, sessionID, c.config.HistoryLimit)
	if err != nil {
		logger.Warn("Failed to load session history, starting fresh", "error", err)

		return nil
	}

	return history
}

// remember persists the turn's user message and final answer. Memory write
// failures are logged, never fatal: the answer was already produced.
func (c *Controller) remember(ctx context.Context, logger *slog.Logger, workflowID, sessionID string, userMessage models.Message, inputEmbedding []float64, answer string) {
	if c.gateway == nil {
		return
	}

	if err := c.gateway.Append(ctx, workflowID, sessionID, userMessage, inputEmbedding); err != nil {
		logger.Warn("Failed to persist user message", "error", err)
	}

	if answer == "" {
		return
	}

	var answerEmbedding []float64
	if c.config.SimilarityTopK > 0 {
		if embedding, err := c.client.Embed(ctx, answer); err == nil {
			answerEmbedding = embedding
		}
	}

	assistant := models.Message{Role: models.RoleAssistant, Content: answer}
	if err := c.gateway.Append(ctx, workflowID, sessionID, assistant, answerEmbedding); err != nil {
		logger.Warn("Failed to persist assistant message", "error", err)
	}
}

func (c *Controller) assemble(state *models.RunState, invocations []models.NodeResult, output string, startedAt time.Time, success bool, errDetail string) *models.ExecutionResult {
	var out any
	if output != "" {
		out = output
	}

	return &models.ExecutionResult{
		ExecutionID: state.ExecutionID,
		WorkflowID:  state.WorkflowID,
		Output:      out,
		Trace:       invocations,
		Usage:       state.Usage(),
		Calls:       state.Calls(),
		Success:     success,
		Error:       errDetail,
		StartedAt:   startedAt,
		FinishedAt:  time.Now(),
	}
}

func (c *Controller) publish(ctx context.Context, key string, event eventbus.Event) {
	if c.eventBus == nil {
		return
	}

	if err := c.eventBus.Publish(ctx, key, event); err != nil {
		c.logger.Warn("Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}

func (c *Controller) baseEvent(eventType events.EventType, workflowID, executionID string) events.BaseEvent {
	id := uuid.New().String()
	if c.eventBus != nil {
		id = c.eventBus.GenerateID()
	}

	return events.BaseEvent{
		ID:          id,
		Type:        eventType,
		Timestamp:   time.Now(),
		WorkflowID:  workflowID,
		ExecutionID: executionID,
	}
}

func findSkill(skills []models.Skill, name string) (models.Skill, bool) {
	for _, skill := range skills {
		if skill.Name == name {
			return skill, true
		}
	}

	return models.Skill{}, false
}

// validateArguments checks the model-produced JSON against the skill's
// parameter schema before any network call happens.
func validateArguments(schema map[string]any, arguments string) error {
	var parsed map[string]any

	if arguments == "" {
		parsed = map[string]any{}
	} else if err := json.Unmarshal([]byte(arguments), &parsed); err != nil {
		return fmt.Errorf("arguments are not valid JSON: %w", err)
	}

	return registry.ValidateConfig(schema, parsed)
}

func toolMessage(call models.ToolCall, content string) models.Message {
	return models.Message{
		Role:       models.RoleTool,
		Content:    content,
		Name:       call.Name,
		ToolCallID: call.ID,
	}
}

func invocationError(call models.ToolCall, started time.Time, detail string) models.NodeResult {
	return models.NodeResult{
		NodeID:    call.ID,
		Kind:      models.NodeKindSkill,
		Status:    models.NodeStatusError,
		Input:     call.Arguments,
		Error:     detail,
		Duration:  time.Since(started),
		Timestamp: started,
	}
}
