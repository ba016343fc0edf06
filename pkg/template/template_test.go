package template

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fluxionhq/fluxion/pkg/models"
)

func TestResolve_Input(t *testing.T) {
	state := models.NewRunState("exec-1", "hi", models.RunOptions{})

	assert.Equal(t, "say hi", Resolve("say {{input}}", state))
	assert.Equal(t, "say  hi ", Resolve("say  {{ input }} ", state))
}

func TestResolve_UnknownPlaceholderLeftVerbatim(t *testing.T) {
	state := models.NewRunState("exec-1", "hi", models.RunOptions{})

	assert.Equal(t, "hi and {{unknown}}", Resolve("{{input}} and {{unknown}}", state))
}

func TestResolve_StructuredInputRendersAsJSON(t *testing.T) {
	state := models.NewRunState("exec-1", map[string]any{"q": "weather"}, models.RunOptions{})

	assert.Equal(t, `{"q":"weather"}`, Resolve("{{input}}", state))
}

func TestResolve_NodeOutput(t *testing.T) {
	state := models.NewRunState("exec-1", nil, models.RunOptions{})
	state.SetResult(models.NodeResult{
		NodeID: "ask",
		Status: models.NodeStatusSuccess,
		Output: map[string]any{"response": "sunny"},
	})

	assert.Equal(t, "it is sunny", Resolve("it is {{node.ask}}", state))
}

func TestResolve_NodeOutputMultiValueRendersAsJSON(t *testing.T) {
	state := models.NewRunState("exec-1", nil, models.RunOptions{})
	state.SetResult(models.NodeResult{
		NodeID: "call",
		Status: models.NodeStatusSuccess,
		Output: map[string]any{"status_code": 200, "body": "ok"},
	})

	assert.JSONEq(t, `{"status_code":200,"body":"ok"}`, Resolve("{{node.call}}", state))
}

func TestResolve_FailedNodeLeftVerbatim(t *testing.T) {
	state := models.NewRunState("exec-1", nil, models.RunOptions{})
	state.SetResult(models.NodeResult{
		NodeID: "bad",
		Status: models.NodeStatusError,
		Error:  "boom",
	})

	assert.Equal(t, "{{node.bad}}", Resolve("{{node.bad}}", state))
}

func TestResolve_ContextCollectsSuccessfulOutputs(t *testing.T) {
	state := models.NewRunState("exec-1", nil, models.RunOptions{})
	state.SetResult(models.NodeResult{
		NodeID: "a",
		Status: models.NodeStatusSuccess,
		Output: map[string]any{"value": 1},
	})
	state.SetResult(models.NodeResult{
		NodeID: "b",
		Status: models.NodeStatusError,
		Error:  "boom",
	})

	assert.JSONEq(t, `{"a":{"value":1}}`, Resolve("{{context}}", state))
}

func TestResolve_MemoryContextOverridesNodeOutputs(t *testing.T) {
	state := models.NewRunState("exec-1", nil, models.RunOptions{})
	state.SetResult(models.NodeResult{
		NodeID: "a",
		Status: models.NodeStatusSuccess,
		Output: map[string]any{"value": 1},
	})
	state.SetMemoryContext("remembered facts")

	assert.Equal(t, "remembered facts", Resolve("{{context}}", state))
}

func TestResolve_NilStateAndNoPlaceholders(t *testing.T) {
	assert.Equal(t, "plain", Resolve("plain", nil))
	assert.Equal(t, "{{input}}", Resolve("{{input}}", nil))

	state := models.NewRunState("exec-1", "x", models.RunOptions{})
	assert.Equal(t, "no placeholders", Resolve("no placeholders", state))
}
