// Package condition provides the branching node that selects one outgoing
// edge handle based on a configured expression.
package condition

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fluxionhq/fluxion/pkg/models"
	"github.com/fluxionhq/fluxion/pkg/template"
)

// Comparison operators, checked in order so two-character operators win.
var operators = []string{"==", "!=", ">=", "<=", " contains ", ">", "<"}

// ConditionNode evaluates a boolean expression against run state and
// activates either the true or the false handle, pruning the other branch.
type ConditionNode struct {
	id         string
	expression string
}

// NewConditionNode creates a new condition node.
func NewConditionNode(id string, config map[string]any) (*ConditionNode, error) {
	expression, ok := config["expression"].(string)
	if !ok || expression == "" {
		return nil, errors.New("missing required field 'expression'")
	}

	return &ConditionNode{
		id:         id,
		expression: expression,
	}, nil
}

// ID returns the node ID.
func (n *ConditionNode) ID() string {
	return n.id
}

// Kind returns the node kind.
func (n *ConditionNode) Kind() models.NodeKind {
	return models.NodeKindCondition
}

// Execute resolves the expression template and evaluates it. A malformed
// expression produces an error-status result, which prunes both branches.
func (n *ConditionNode) Execute(_ context.Context, state *models.RunState) (map[string]models.NodeResult, error) {
	started := time.Now()
	resolved := template.Resolve(n.expression, state)

	verdict, err := evaluate(resolved)
	if err != nil {
		return map[string]models.NodeResult{
			models.HandleMain: {
				NodeID:    n.id,
				Kind:      models.NodeKindCondition,
				Status:    models.NodeStatusError,
				Input:     resolved,
				Error:     fmt.Sprintf("condition evaluation failed: %v", err),
				Duration:  time.Since(started),
				Timestamp: started,
			},
		}, nil
	}

	handle := models.HandleFalse
	if verdict {
		handle = models.HandleTrue
	}

	return map[string]models.NodeResult{
		handle: {
			NodeID: n.id,
			Kind:   models.NodeKindCondition,
			Status: models.NodeStatusSuccess,
			Handle: handle,
			Input:  resolved,
			Output: map[string]any{
				"result":    verdict,
				"evaluated": resolved,
			},
			Duration:  time.Since(started),
			Timestamp: started,
		},
	}, nil
}

// evaluate handles "left OP right" comparisons; a bare operand falls back to
// truthiness.
func evaluate(expression string) (bool, error) {
	expression = strings.TrimSpace(expression)

	for _, op := range operators {
		idx := strings.Index(expression, op)
		if idx < 0 {
			continue
		}

		left := strings.TrimSpace(expression[:idx])
		right := strings.TrimSpace(expression[idx+len(op):])

		if left == "" || right == "" {
			return false, fmt.Errorf("malformed expression %q: missing operand", expression)
		}

		return compare(unquote(left), strings.TrimSpace(op), unquote(right))
	}

	return truthy(expression), nil
}

func compare(left, op, right string) (bool, error) {
	leftNum, leftErr := strconv.ParseFloat(left, 64)
	rightNum, rightErr := strconv.ParseFloat(right, 64)
	numeric := leftErr == nil && rightErr == nil

	switch op {
	case "==":
		if numeric {
			return leftNum == rightNum, nil
		}

		return left == right, nil
	case "!=":
		if numeric {
			return leftNum != rightNum, nil
		}

		return left != right, nil
	case "contains":
		return strings.Contains(left, right), nil
	case ">", "<", ">=", "<=":
		if !numeric {
			return false, fmt.Errorf("operator %q requires numeric operands, got %q and %q", op, left, right)
		}

		switch op {
		case ">":
			return leftNum > rightNum, nil
		case "<":
			return leftNum < rightNum, nil
		case ">=":
			return leftNum >= rightNum, nil
		default:
			return leftNum <= rightNum, nil
		}
	default:
		return false, fmt.Errorf("unsupported operator %q", op)
	}
}

func truthy(value string) bool {
	if value == "" {
		return false
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f != 0
	}

	return true
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}

	return s
}
