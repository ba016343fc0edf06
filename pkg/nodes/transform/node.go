// Package transform provides the best-effort value extraction node.
package transform

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/fluxionhq/fluxion/pkg/models"
)

// TransformNode extracts a value from a prior node's output via dot-notation
// path traversal. Transform is definitionally best-effort: a missing path
// segment or a type mismatch yields a null result, never an error.
type TransformNode struct {
	id     string
	source string
	path   string
}

// NewTransformNode creates a new transform node.
func NewTransformNode(id string, config map[string]any) (*TransformNode, error) {
	source, ok := config["source"].(string)
	if !ok || source == "" {
		return nil, errors.New("missing required field 'source'")
	}

	path, _ := config["path"].(string)

	return &TransformNode{
		id:     id,
		source: source,
		path:   path,
	}, nil
}

// ID returns the node ID.
func (n *TransformNode) ID() string {
	return n.id
}

// Kind returns the node kind.
func (n *TransformNode) Kind() models.NodeKind {
	return models.NodeKindTransform
}

// Execute walks the source node's output along the configured path.
func (n *TransformNode) Execute(_ context.Context, state *models.RunState) (map[string]models.NodeResult, error) {
	started := time.Now()

	var value any

	if res, ok := state.Result(n.source); ok && res.Status == models.NodeStatusSuccess {
		value = traverse(res.Output, n.path)
	}

	return map[string]models.NodeResult{
		models.HandleMain: {
			NodeID: n.id,
			Kind:   models.NodeKindTransform,
			Status: models.NodeStatusSuccess,
			Input:  n.path,
			Output: map[string]any{
				"value": value,
			},
			Duration:  time.Since(started),
			Timestamp: started,
		},
	}, nil
}

// traverse walks mapping keys and sequence indices along a dot-notation path
// like "a.b.0.c". Any miss downgrades to nil.
func traverse(value any, path string) any {
	if path == "" {
		return value
	}

	current := value

	for _, segment := range strings.Split(path, ".") {
		switch v := current.(type) {
		case map[string]any:
			next, ok := v[segment]
			if !ok {
				return nil
			}

			current = next
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil
			}

			current = v[idx]
		default:
			return nil
		}
	}

	return current
}
