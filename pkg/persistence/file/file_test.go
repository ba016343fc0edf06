package file

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxionhq/fluxion/pkg/models"
	"github.com/fluxionhq/fluxion/pkg/persistence"
)

func testGraph(id string) *models.Graph {
	return &models.Graph{
		ID:   id,
		Name: "test graph",
		Nodes: []*models.Node{
			{ID: "in", Kind: models.NodeKindInput},
			{ID: "out", Kind: models.NodeKindOutput, Config: map[string]any{"source": "in"}},
		},
		Edges: []models.Edge{{Source: "in", Target: "out"}},
	}
}

func TestPersistence_HealthCheck(t *testing.T) {
	ctx := context.Background()

	store := NewPersistence(t.TempDir())
	require.NoError(t, store.HealthCheck(ctx))
	require.NoError(t, store.Close(ctx))

	missing := NewPersistence("/nonexistent/fluxion-data")
	assert.Error(t, missing.HealthCheck(ctx))
}

func TestPersistence_StripsFileScheme(t *testing.T) {
	dir := t.TempDir()

	store := NewPersistence("file://" + dir)
	require.NoError(t, store.HealthCheck(context.Background()))
}

func TestGraphRepository_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	repo := NewGraphRepository(t.TempDir())

	saved := testGraph("wf-1")
	require.NoError(t, repo.SaveGraph(ctx, saved))

	loaded, err := repo.GraphByID(ctx, "wf-1")
	require.NoError(t, err)

	assert.Equal(t, saved.ID, loaded.ID)
	require.Len(t, loaded.Nodes, 2)
	assert.Equal(t, models.NodeKindInput, loaded.Nodes[0].Kind)
	require.Len(t, loaded.Edges, 1)
	assert.Equal(t, "in", loaded.Edges[0].Source)
}

func TestGraphRepository_GraphByID_NotFound(t *testing.T) {
	repo := NewGraphRepository(t.TempDir())

	_, err := repo.GraphByID(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, persistence.IsGraphNotFound(err))
}

func TestGraphRepository_SaveGraph_RequiresID(t *testing.T) {
	repo := NewGraphRepository(t.TempDir())

	err := repo.SaveGraph(context.Background(), &models.Graph{})
	require.Error(t, err)
}

func TestGraphRepository_Graphs(t *testing.T) {
	ctx := context.Background()
	repo := NewGraphRepository(t.TempDir())

	require.NoError(t, repo.SaveGraph(ctx, testGraph("wf-1")))
	require.NoError(t, repo.SaveGraph(ctx, testGraph("wf-2")))

	graphs, err := repo.Graphs(ctx)
	require.NoError(t, err)
	assert.Len(t, graphs, 2)
}

func TestGraphRepository_DeleteGraph(t *testing.T) {
	ctx := context.Background()
	repo := NewGraphRepository(t.TempDir())

	require.NoError(t, repo.SaveGraph(ctx, testGraph("wf-1")))
	require.NoError(t, repo.DeleteGraph(ctx, "wf-1"))

	_, err := repo.GraphByID(ctx, "wf-1")
	assert.True(t, persistence.IsGraphNotFound(err))

	err = repo.DeleteGraph(ctx, "wf-1")
	assert.True(t, persistence.IsGraphNotFound(err))
}

func testSkill(name string) models.Skill {
	return models.Skill{
		Name:        name,
		Description: "adds numbers",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"a": map[string]any{"type": "number"},
			},
		},
		Endpoint: models.SkillEndpoint{URL: "http://skills.local/" + name},
	}
}

func TestSkillRepository_SaveAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewSkillRepository(t.TempDir())

	require.NoError(t, repo.SaveSkill(ctx, "wf-1", testSkill("sum")))
	require.NoError(t, repo.SaveSkill(ctx, "wf-1", testSkill("weather")))

	skills, err := repo.SkillsForWorkflow(ctx, "wf-1")
	require.NoError(t, err)
	require.Len(t, skills, 2)
	assert.Equal(t, "sum", skills[0].Name)
}

func TestSkillRepository_SaveSkill_UpsertsByName(t *testing.T) {
	ctx := context.Background()
	repo := NewSkillRepository(t.TempDir())

	require.NoError(t, repo.SaveSkill(ctx, "wf-1", testSkill("sum")))

	updated := testSkill("sum")
	updated.Description = "adds two numbers"
	require.NoError(t, repo.SaveSkill(ctx, "wf-1", updated))

	skills, err := repo.SkillsForWorkflow(ctx, "wf-1")
	require.NoError(t, err)
	require.Len(t, skills, 1)
	assert.Equal(t, "adds two numbers", skills[0].Description)
}

func TestSkillRepository_SaveSkill_RejectsInvalid(t *testing.T) {
	repo := NewSkillRepository(t.TempDir())

	err := repo.SaveSkill(context.Background(), "wf-1", models.Skill{Name: "broken"})
	require.Error(t, err)
}

func TestSkillRepository_NoDocumentMeansNoSkills(t *testing.T) {
	repo := NewSkillRepository(t.TempDir())

	skills, err := repo.SkillsForWorkflow(context.Background(), "wf-unknown")
	require.NoError(t, err)
	assert.Empty(t, skills)
}

func TestSkillRepository_DeleteSkill(t *testing.T) {
	ctx := context.Background()
	repo := NewSkillRepository(t.TempDir())

	require.NoError(t, repo.SaveSkill(ctx, "wf-1", testSkill("sum")))
	require.NoError(t, repo.DeleteSkill(ctx, "wf-1", "sum"))

	skills, err := repo.SkillsForWorkflow(ctx, "wf-1")
	require.NoError(t, err)
	assert.Empty(t, skills)

	assert.ErrorIs(t, repo.DeleteSkill(ctx, "wf-1", "sum"), persistence.ErrSkillNotFound)
}
