// Package persistence provides the storage abstraction for workflow graphs
// and skill definitions.
package persistence

import (
	"context"

	"github.com/fluxionhq/fluxion/pkg/models"
)

// GraphRepository stores workflow graph definitions.
type GraphRepository interface {
	Graphs(ctx context.Context) ([]*models.Graph, error)
	GraphByID(ctx context.Context, id string) (*models.Graph, error)
	SaveGraph(ctx context.Context, graph *models.Graph) error
	DeleteGraph(ctx context.Context, id string) error
}

// SkillRepository stores the skills a workflow exposes to the agentic loop.
type SkillRepository interface {
	SkillsForWorkflow(ctx context.Context, workflowID string) ([]models.Skill, error)
	SaveSkill(ctx context.Context, workflowID string, skill models.Skill) error
	DeleteSkill(ctx context.Context, workflowID, name string) error
}

// Persistence aggregates the repositories behind one backend.
type Persistence interface {
	GraphRepository() GraphRepository
	SkillRepository() SkillRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
