package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxionhq/fluxion/pkg/models"
)

func TestInMemoryGateway_RecentHistoryWindow(t *testing.T) {
	ctx := context.Background()
	gateway := NewInMemoryGateway(3)

	for i := range 5 {
		msg := models.Message{Role: models.RoleUser, Content: fmt.Sprintf("message %d", i)}
		require.NoError(t, gateway.Append(ctx, "wf-1", "sess-1", msg, nil))
	}

	history, err := gateway.RecentHistory(ctx, "wf-1", "sess-1", 0)
	require.NoError(t, err)

	require.Len(t, history, 3, "window caps retained messages")
	assert.Equal(t, "message 2", history[0].Content)
	assert.Equal(t, "message 4", history[2].Content)
}

func TestInMemoryGateway_RecentHistoryLimit(t *testing.T) {
	ctx := context.Background()
	gateway := NewInMemoryGateway(10)

	for i := range 5 {
		msg := models.Message{Role: models.RoleUser, Content: fmt.Sprintf("message %d", i)}
		require.NoError(t, gateway.Append(ctx, "wf-1", "sess-1", msg, nil))
	}

	history, err := gateway.RecentHistory(ctx, "wf-1", "sess-1", 2)
	require.NoError(t, err)

	require.Len(t, history, 2)
	assert.Equal(t, "message 3", history[0].Content)
	assert.Equal(t, "message 4", history[1].Content)
}

func TestInMemoryGateway_SessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	gateway := NewInMemoryGateway(10)

	require.NoError(t, gateway.Append(ctx, "wf-1", "sess-a", models.Message{Role: models.RoleUser, Content: "a"}, nil))
	require.NoError(t, gateway.Append(ctx, "wf-1", "sess-b", models.Message{Role: models.RoleUser, Content: "b"}, nil))

	history, err := gateway.RecentHistory(ctx, "wf-1", "sess-a", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "a", history[0].Content)
}

func TestInMemoryGateway_SearchSimilarRanksByCosine(t *testing.T) {
	ctx := context.Background()
	gateway := NewInMemoryGateway(10)

	entries := []struct {
		text      string
		embedding []float64
	}{
		{"about cats", []float64{1, 0, 0}},
		{"about dogs", []float64{0, 1, 0}},
		{"about cats and dogs", []float64{0.7, 0.7, 0}},
	}

	for _, e := range entries {
		msg := models.Message{Role: models.RoleUser, Content: e.text}
		require.NoError(t, gateway.Append(ctx, "wf-1", "sess-1", msg, e.embedding))
	}

	hits, err := gateway.SearchSimilar(ctx, "wf-1", []float64{1, 0, 0}, 2)
	require.NoError(t, err)

	require.Len(t, hits, 2)
	assert.Equal(t, "about cats", hits[0].Text)
	assert.Equal(t, "about cats and dogs", hits[1].Text)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestInMemoryGateway_SearchSimilarSkipsUnembedded(t *testing.T) {
	ctx := context.Background()
	gateway := NewInMemoryGateway(10)

	require.NoError(t, gateway.Append(ctx, "wf-1", "sess-1", models.Message{Role: models.RoleUser, Content: "no embedding"}, nil))

	hits, err := gateway.SearchSimilar(ctx, "wf-1", []float64{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float64{1, 2, 3}, []float64{1, 2, 3}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float64{1, 0}, []float64{-1, 0}), 1e-9)

	// Degenerate inputs score zero instead of dividing by zero.
	assert.Zero(t, CosineSimilarity(nil, nil))
	assert.Zero(t, CosineSimilarity([]float64{1}, []float64{1, 2}))
	assert.Zero(t, CosineSimilarity([]float64{0, 0}, []float64{1, 2}))
}
