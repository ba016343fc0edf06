package persistence

import (
	"errors"
	"fmt"
)

// Standard error types all backends return for missing records.
var (
	ErrGraphNotFound = errors.New("graph not found")
	ErrSkillNotFound = errors.New("skill not found")
)

// GraphError wraps graph storage failures with the operation and id.
type GraphError struct {
	Op      string
	GraphID string
	Err     error
}

func (e *GraphError) Error() string {
	return fmt.Sprintf("%s operation failed for graph %s: %v", e.Op, e.GraphID, e.Err)
}

func (e *GraphError) Unwrap() error {
	return e.Err
}

func (e *GraphError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewGraphError creates a graph error with context.
func NewGraphError(op, graphID string, err error) *GraphError {
	return &GraphError{Op: op, GraphID: graphID, Err: err}
}

// IsGraphNotFound checks if an error indicates a missing graph.
func IsGraphNotFound(err error) bool {
	return errors.Is(err, ErrGraphNotFound)
}
