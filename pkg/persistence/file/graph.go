package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fluxionhq/fluxion/pkg/models"
	"github.com/fluxionhq/fluxion/pkg/persistence"
)

const dirPerm = 0o755

// GraphRepository stores one JSON file per graph under <root>/graphs.
type GraphRepository struct {
	root string
}

// NewGraphRepository creates a graph repository rooted at the given directory.
func NewGraphRepository(root string) *GraphRepository {
	return &GraphRepository{root: root}
}

func (r *GraphRepository) dir() string {
	return filepath.Join(r.root, "graphs")
}

func (r *GraphRepository) path(id string) string {
	return filepath.Join(r.dir(), id+".json")
}

// Graphs returns every stored graph.
func (r *GraphRepository) Graphs(ctx context.Context) ([]*models.Graph, error) {
	entries, err := fs.Glob(os.DirFS(r.dir()), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list graph files: %w", err)
	}

	graphs := make([]*models.Graph, 0, len(entries))

	for _, entry := range entries {
		id := entry[:len(entry)-len(".json")]

		graph, err := r.GraphByID(ctx, id)
		if err != nil {
			return nil, err
		}

		graphs = append(graphs, graph)
	}

	return graphs, nil
}

// GraphByID loads one graph; a missing file maps to ErrGraphNotFound.
func (r *GraphRepository) GraphByID(_ context.Context, id string) (*models.Graph, error) {
	data, err := os.ReadFile(r.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewGraphError("GraphByID", id, persistence.ErrGraphNotFound)
		}

		return nil, persistence.NewGraphError("GraphByID", id, err)
	}

	var graph models.Graph
	if err := json.Unmarshal(data, &graph); err != nil {
		return nil, persistence.NewGraphError("GraphByID", id, err)
	}

	return &graph, nil
}

// SaveGraph writes the graph document, creating the directory on first use.
func (r *GraphRepository) SaveGraph(_ context.Context, graph *models.Graph) error {
	if graph.ID == "" {
		return persistence.NewGraphError("SaveGraph", "", fmt.Errorf("graph has no id"))
	}

	if err := os.MkdirAll(r.dir(), dirPerm); err != nil {
		return persistence.NewGraphError("SaveGraph", graph.ID, err)
	}

	data, err := json.MarshalIndent(graph, "", "  ")
	if err != nil {
		return persistence.NewGraphError("SaveGraph", graph.ID, err)
	}

	if err := os.WriteFile(r.path(graph.ID), data, 0o600); err != nil {
		return persistence.NewGraphError("SaveGraph", graph.ID, err)
	}

	return nil
}

// DeleteGraph removes the graph document.
func (r *GraphRepository) DeleteGraph(_ context.Context, id string) error {
	if err := os.Remove(r.path(id)); err != nil {
		if os.IsNotExist(err) {
			return persistence.NewGraphError("DeleteGraph", id, persistence.ErrGraphNotFound)
		}

		return persistence.NewGraphError("DeleteGraph", id, err)
	}

	return nil
}
