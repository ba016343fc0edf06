package input

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxionhq/fluxion/pkg/models"
)

func TestInputNode_Execute_SeedsConversation(t *testing.T) {
	state := models.NewRunState("exec-1", "hello there", models.RunOptions{})

	node, err := NewInputNode("in", nil)
	require.NoError(t, err)

	outputs, err := node.Execute(context.Background(), state)
	require.NoError(t, err)

	result := outputs[models.HandleMain]
	assert.Equal(t, models.NodeStatusSuccess, result.Status)
	assert.Equal(t, "hello there", result.Output["input"])

	require.Len(t, state.Messages, 1)
	assert.Equal(t, models.RoleUser, state.Messages[0].Role)
	assert.Equal(t, "hello there", state.Messages[0].Content)
}

func TestInputNode_Execute_StructuredInput(t *testing.T) {
	state := models.NewRunState("exec-1", map[string]any{"city": "Berlin"}, models.RunOptions{})

	node, err := NewInputNode("in", nil)
	require.NoError(t, err)

	outputs, err := node.Execute(context.Background(), state)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"city": "Berlin"}, outputs[models.HandleMain].Output["input"])
	require.Len(t, state.Messages, 1)
	assert.JSONEq(t, `{"city":"Berlin"}`, state.Messages[0].Content)
}
