package compiler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxionhq/fluxion/pkg/models"
	"github.com/fluxionhq/fluxion/pkg/testutil"
)

func node(id string, kind models.NodeKind) *models.Node {
	return &models.Node{ID: id, Kind: kind}
}

func TestCompile_LinearGraph(t *testing.T) {
	graph := testutil.CreateTestGraph(
		testutil.CreateTestNode(testutil.WithID("in"), testutil.WithKind(models.NodeKindInput)),
		testutil.CreateTestNode(testutil.WithID("ask"), testutil.WithKind(models.NodeKindLLM)),
		testutil.CreateTestNode(testutil.WithID("out"), testutil.WithKind(models.NodeKindOutput)),
	)

	plan, err := Compile(graph)
	require.NoError(t, err)

	assert.Equal(t, []string{"in", "ask", "out"}, plan.Order)
	assert.Len(t, plan.Nodes, 3)
	assert.Len(t, plan.Incoming["out"], 1)
	assert.Len(t, plan.Outgoing["in"], 1)
}

func TestCompile_TopologicalOrderRespectsEdges(t *testing.T) {
	// Diamond: a -> b, a -> c, b -> d, c -> d.
	graph := &models.Graph{
		ID: "diamond",
		Nodes: []*models.Node{
			node("a", models.NodeKindInput),
			node("b", models.NodeKindTransform),
			node("c", models.NodeKindTransform),
			node("d", models.NodeKindOutput),
		},
		Edges: []models.Edge{
			{Source: "a", Target: "b"},
			{Source: "a", Target: "c"},
			{Source: "b", Target: "d"},
			{Source: "c", Target: "d"},
		},
	}

	plan, err := Compile(graph)
	require.NoError(t, err)

	position := make(map[string]int, len(plan.Order))
	for i, id := range plan.Order {
		position[id] = i
	}

	for _, edge := range graph.Edges {
		assert.Less(t, position[edge.Source], position[edge.Target],
			"edge %s->%s violated by order %v", edge.Source, edge.Target, plan.Order)
	}
}

func TestCompile_IndependentNodesKeepDeclarationOrder(t *testing.T) {
	graph := &models.Graph{
		ID: "independent",
		Nodes: []*models.Node{
			node("third", models.NodeKindTransform),
			node("first", models.NodeKindTransform),
			node("second", models.NodeKindTransform),
		},
	}

	for range 10 {
		plan, err := Compile(graph)
		require.NoError(t, err)
		assert.Equal(t, []string{"third", "first", "second"}, plan.Order)
	}
}

func TestCompile_CycleDetected(t *testing.T) {
	graph := &models.Graph{
		ID: "cyclic",
		Nodes: []*models.Node{
			node("a", models.NodeKindTransform),
			node("b", models.NodeKindTransform),
			node("c", models.NodeKindTransform),
		},
		Edges: []models.Edge{
			{Source: "a", Target: "b"},
			{Source: "b", Target: "c"},
			{Source: "c", Target: "a"},
		},
	}

	_, err := Compile(graph)
	require.Error(t, err)

	var compileErr *CompileError

	require.True(t, errors.As(err, &compileErr))
	assert.Equal(t, CycleDetected, compileErr.Kind)
}

func TestCompile_SelfLoopIsACycle(t *testing.T) {
	graph := &models.Graph{
		ID:    "self",
		Nodes: []*models.Node{node("a", models.NodeKindTransform)},
		Edges: []models.Edge{{Source: "a", Target: "a"}},
	}

	_, err := Compile(graph)
	require.Error(t, err)

	var compileErr *CompileError

	require.True(t, errors.As(err, &compileErr))
	assert.Equal(t, CycleDetected, compileErr.Kind)
}

func TestCompile_DanglingEdge(t *testing.T) {
	graph := &models.Graph{
		ID:    "dangling",
		Nodes: []*models.Node{node("a", models.NodeKindInput)},
		Edges: []models.Edge{{Source: "a", Target: "ghost"}},
	}

	_, err := Compile(graph)
	require.Error(t, err)

	var compileErr *CompileError

	require.True(t, errors.As(err, &compileErr))
	assert.Equal(t, DanglingEdge, compileErr.Kind)
	assert.Equal(t, "ghost", compileErr.NodeID)
}

func TestCompile_DuplicateNodeID(t *testing.T) {
	graph := &models.Graph{
		ID: "duplicate",
		Nodes: []*models.Node{
			node("a", models.NodeKindInput),
			node("a", models.NodeKindOutput),
		},
	}

	_, err := Compile(graph)
	require.Error(t, err)

	var compileErr *CompileError

	require.True(t, errors.As(err, &compileErr))
	assert.Equal(t, DuplicateID, compileErr.Kind)
	assert.Equal(t, "a", compileErr.NodeID)
}
