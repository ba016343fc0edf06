// Package file provides file-based persistence for graphs and skills. Each
// record is one JSON document under the configured root directory.
package file

import (
	"context"
	"os"
	"strings"

	"github.com/fluxionhq/fluxion/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface on the file
// system.
type Persistence struct {
	root      string
	graphRepo *GraphRepository
	skillRepo *SkillRepository
}

// NewPersistence creates a file backend rooted at the given directory. A
// file:// prefix is accepted and stripped.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:      cleanRoot,
		graphRepo: NewGraphRepository(cleanRoot),
		skillRepo: NewSkillRepository(cleanRoot),
	}
}

// GraphRepository returns the graph repository.
func (p *Persistence) GraphRepository() persistence.GraphRepository {
	return p.graphRepo
}

// SkillRepository returns the skill repository.
func (p *Persistence) SkillRepository() persistence.SkillRepository {
	return p.skillRepo
}

// HealthCheck verifies the root directory exists.
func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close is a no-op for the file backend.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}
