// Package graph holds the module dependency graph: for each module
// identifier, the ordered list of identifiers it directly depends on.
//
// The graph is populated externally and shared read-only by every loader.
// DependenciesOf performs no cycle detection of its own; recursive callers
// carry their own traversal state, and Validate is available to check a
// graph up front.
package graph

import (
	"fmt"
	"sync"

	"github.com/gantry-io/gantry/errz"
)

// Graph is a directed graph whose nodes are module identifiers and whose
// edges are "depends on" relations. Dependency order is the declaration
// order and is preserved across calls: resolution tie-breaks are
// first-declared-dependency-wins.
type Graph struct {
	mu    sync.RWMutex
	deps  map[string][]string
	order []string
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{deps: map[string][]string{}}
}

// Declare records the direct dependencies of id, in the given order.
// Declaring the same identifier twice is an error: one module has exactly
// one dependency ordering. Dependencies may name modules that are never
// declared themselves; they are treated as nodes with no dependencies.
func (g *Graph) Declare(id string, deps ...string) error {
	if id == "" {
		return fmt.Errorf("graph: empty module identifier")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.deps[id]; ok {
		return fmt.Errorf("graph: module %q already declared", id)
	}
	stored := make([]string, len(deps))
	copy(stored, deps)
	g.deps[id] = stored
	g.order = append(g.order, id)
	return nil
}

// Has returns true if id was declared.
func (g *Graph) Has(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.deps[id]
	return ok
}

// DependenciesOf returns the direct dependencies of id in declared order.
// The returned slice is a fresh copy on every call. An undeclared id has no
// dependencies.
func (g *Graph) DependenciesOf(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	deps, ok := g.deps[id]
	if !ok || len(deps) == 0 {
		return nil
	}
	out := make([]string, len(deps))
	copy(out, deps)
	return out
}

// Modules returns all declared module identifiers in declaration order.
func (g *Graph) Modules() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Len returns the number of declared modules.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.order)
}

// Validate checks the graph for dependency cycles and returns a CycleError
// naming the first cycle found, or nil. The check is deterministic for a
// given declaration order.
func (g *Graph) Validate() error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.validate()
}

const (
	unvisited = iota
	visiting
	visited
)

func (g *Graph) validate() error {
	state := make(map[string]int, len(g.order))
	var stack []string

	var visit func(id string) error
	visit = func(id string) error {
		switch state[id] {
		case visiting:
			path := make([]string, len(stack), len(stack)+1)
			copy(path, stack)
			return errz.NewCycleError(id, append(path, id))
		case visited:
			return nil
		}
		state[id] = visiting
		stack = append(stack, id)
		for _, dep := range g.deps[id] {
			if err := visit(dep); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = visited
		return nil
	}

	for _, id := range g.order {
		if err := visit(id); err != nil {
			return err
		}
	}
	return nil
}

// LoadOrder returns every module in an order where each module appears
// after all of its dependencies. The order is deterministic for a given
// declaration order. Returns a CycleError if the graph has a cycle.
func (g *Graph) LoadOrder() ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if err := g.validate(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var all []string
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			all = append(all, id)
		}
	}
	for _, id := range g.order {
		add(id)
	}

	indegree := make(map[string]int)
	dependents := make(map[string][]string)
	for _, id := range g.order {
		for _, dep := range g.deps[id] {
			add(dep)
			indegree[id]++
			dependents[dep] = append(dependents[dep], id)
		}
	}

	var queue []string
	for _, id := range all {
		if indegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]string, 0, len(all))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		for _, dep := range dependents[id] {
			indegree[dep]--
			if indegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}
	return order, nil
}
