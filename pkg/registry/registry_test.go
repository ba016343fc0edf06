package registry

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxionhq/fluxion/pkg/mocks"
	"github.com/fluxionhq/fluxion/pkg/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func TestNewDefaultRegistry_RegistersEveryKind(t *testing.T) {
	reg := NewDefaultRegistry(testLogger(), new(mocks.MockLLMClient))

	kinds := reg.Kinds()
	assert.Len(t, kinds, len(models.Kinds()))

	for _, kind := range models.Kinds() {
		assert.Contains(t, kinds, kind)
	}
}

func TestRegistry_Create_UnknownKind(t *testing.T) {
	reg := NewRegistry(testLogger())

	_, err := reg.Create(context.Background(), &models.Node{ID: "x", Kind: "mystery"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestRegistry_Create_SchemaRejectsBadConfig(t *testing.T) {
	reg := NewDefaultRegistry(testLogger(), new(mocks.MockLLMClient))

	// Skill config without the required url.
	_, err := reg.Create(context.Background(), &models.Node{
		ID:     "call",
		Kind:   models.NodeKindSkill,
		Config: map[string]any{"method": "POST"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")

	// Timeout outside the schema bounds.
	_, err = reg.Create(context.Background(), &models.Node{
		ID:   "call",
		Kind: models.NodeKindSkill,
		Config: map[string]any{
			"url":     "http://skills.local/sum",
			"timeout": float64(9000),
		},
	})
	require.Error(t, err)
}

func TestRegistry_Create_ValidConfig(t *testing.T) {
	reg := NewDefaultRegistry(testLogger(), new(mocks.MockLLMClient))

	node, err := reg.Create(context.Background(), &models.Node{
		ID:     "call",
		Kind:   models.NodeKindSkill,
		Config: map[string]any{"url": "http://skills.local/sum"},
	})
	require.NoError(t, err)
	assert.Equal(t, "call", node.ID())
	assert.Equal(t, models.NodeKindSkill, node.Kind())
}

func TestValidateConfig_NilSchemaAcceptsAnything(t *testing.T) {
	assert.NoError(t, ValidateConfig(nil, map[string]any{"whatever": true}))
}
