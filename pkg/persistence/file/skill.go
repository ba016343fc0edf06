package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fluxionhq/fluxion/pkg/models"
	"github.com/fluxionhq/fluxion/pkg/persistence"
)

// SkillRepository stores one JSON document per workflow holding all of its
// skills, under <root>/skills/<workflow-id>.json.
type SkillRepository struct {
	root string
}

// NewSkillRepository creates a skill repository rooted at the given directory.
func NewSkillRepository(root string) *SkillRepository {
	return &SkillRepository{root: root}
}

func (r *SkillRepository) path(workflowID string) string {
	return filepath.Join(r.root, "skills", workflowID+".json")
}

// SkillsForWorkflow returns the workflow's skills; no document means no
// skills, not an error.
func (r *SkillRepository) SkillsForWorkflow(_ context.Context, workflowID string) ([]models.Skill, error) {
	data, err := os.ReadFile(r.path(workflowID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read skills for workflow %s: %w", workflowID, err)
	}

	var skills []models.Skill
	if err := json.Unmarshal(data, &skills); err != nil {
		return nil, fmt.Errorf("failed to decode skills for workflow %s: %w", workflowID, err)
	}

	return skills, nil
}

// SaveSkill validates and upserts one skill by name.
func (r *SkillRepository) SaveSkill(ctx context.Context, workflowID string, skill models.Skill) error {
	if err := skill.Validate(); err != nil {
		return fmt.Errorf("invalid skill %q: %w", skill.Name, err)
	}

	skills, err := r.SkillsForWorkflow(ctx, workflowID)
	if err != nil {
		return err
	}

	replaced := false

	for i, existing := range skills {
		if existing.Name == skill.Name {
			skills[i] = skill
			replaced = true

			break
		}
	}

	if !replaced {
		skills = append(skills, skill)
	}

	return r.write(workflowID, skills)
}

// DeleteSkill removes one skill by name.
func (r *SkillRepository) DeleteSkill(ctx context.Context, workflowID, name string) error {
	skills, err := r.SkillsForWorkflow(ctx, workflowID)
	if err != nil {
		return err
	}

	kept := make([]models.Skill, 0, len(skills))

	for _, skill := range skills {
		if skill.Name != name {
			kept = append(kept, skill)
		}
	}

	if len(kept) == len(skills) {
		return persistence.ErrSkillNotFound
	}

	return r.write(workflowID, kept)
}

func (r *SkillRepository) write(workflowID string, skills []models.Skill) error {
	if err := os.MkdirAll(filepath.Dir(r.path(workflowID)), dirPerm); err != nil {
		return fmt.Errorf("failed to create skills directory: %w", err)
	}

	data, err := json.MarshalIndent(skills, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode skills: %w", err)
	}

	if err := os.WriteFile(r.path(workflowID), data, 0o600); err != nil {
		return fmt.Errorf("failed to write skills for workflow %s: %w", workflowID, err)
	}

	return nil
}
