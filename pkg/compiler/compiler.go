// Package compiler validates workflow graphs and produces deterministic
// execution plans.
package compiler

import (
	"fmt"

	"github.com/fluxionhq/fluxion/pkg/models"
)

// ErrorKind classifies structural graph problems.
type ErrorKind string

const (
	CycleDetected ErrorKind = "cycle_detected"
	DanglingEdge  ErrorKind = "dangling_edge"
	DuplicateID   ErrorKind = "duplicate_id"
)

// CompileError is fatal: no node runs when compilation fails.
type CompileError struct {
	Kind   ErrorKind
	NodeID string
	Detail string
}

func (e *CompileError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("compile: %s (node %q): %s", e.Kind, e.NodeID, e.Detail)
	}

	return fmt.Sprintf("compile: %s: %s", e.Kind, e.Detail)
}

// Plan is the validated, topologically ordered execution plan for a graph.
// Order is deterministic: independent nodes keep their declaration order.
type Plan struct {
	Graph *models.Graph
	Order []string
	Nodes map[string]*models.Node

	// Incoming and Outgoing index edges by target and source node id.
	Incoming map[string][]models.Edge
	Outgoing map[string][]models.Edge
}

// Compile validates edges and node ids, rejects cycles, and orders the nodes
// with Kahn's algorithm. Ties between ready nodes break by declaration order,
// so the same graph always yields the same plan.
func Compile(graph *models.Graph) (*Plan, error) {
	nodes := make(map[string]*models.Node, len(graph.Nodes))
	declIndex := make(map[string]int, len(graph.Nodes))

	for i, node := range graph.Nodes {
		if _, exists := nodes[node.ID]; exists {
			return nil, &CompileError{
				Kind:   DuplicateID,
				NodeID: node.ID,
				Detail: "node id declared more than once",
			}
		}

		nodes[node.ID] = node
		declIndex[node.ID] = i
	}

	incoming := make(map[string][]models.Edge)
	outgoing := make(map[string][]models.Edge)
	indegree := make(map[string]int, len(nodes))

	for _, edge := range graph.Edges {
		if _, ok := nodes[edge.Source]; !ok {
			return nil, &CompileError{
				Kind:   DanglingEdge,
				NodeID: edge.Source,
				Detail: fmt.Sprintf("edge %s->%s references unknown source", edge.Source, edge.Target),
			}
		}

		if _, ok := nodes[edge.Target]; !ok {
			return nil, &CompileError{
				Kind:   DanglingEdge,
				NodeID: edge.Target,
				Detail: fmt.Sprintf("edge %s->%s references unknown target", edge.Source, edge.Target),
			}
		}

		incoming[edge.Target] = append(incoming[edge.Target], edge)
		outgoing[edge.Source] = append(outgoing[edge.Source], edge)
		indegree[edge.Target]++
	}

	// Kahn's algorithm over a ready list kept in declaration order.
	ready := make([]string, 0, len(nodes))

	for _, node := range graph.Nodes {
		if indegree[node.ID] == 0 {
			ready = append(ready, node.ID)
		}
	}

	order := make([]string, 0, len(nodes))

	for len(ready) > 0 {
		// Pick the ready node declared earliest.
		best := 0
		for i := 1; i < len(ready); i++ {
			if declIndex[ready[i]] < declIndex[ready[best]] {
				best = i
			}
		}

		current := ready[best]
		ready = append(ready[:best], ready[best+1:]...)
		order = append(order, current)

		for _, edge := range outgoing[current] {
			indegree[edge.Target]--
			if indegree[edge.Target] == 0 {
				ready = append(ready, edge.Target)
			}
		}
	}

	if len(order) != len(nodes) {
		return nil, &CompileError{
			Kind:   CycleDetected,
			Detail: fmt.Sprintf("%d of %d nodes are part of a cycle", len(nodes)-len(order), len(nodes)),
		}
	}

	return &Plan{
		Graph:    graph,
		Order:    order,
		Nodes:    nodes,
		Incoming: incoming,
		Outgoing: outgoing,
	}, nil
}
