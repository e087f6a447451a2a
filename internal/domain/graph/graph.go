// Package graph orders workflow steps by their declared dependencies.
//
// A Graph is built once per workflow invocation and is immutable. Every
// query that returns several steps orders them deterministically, breaking
// ties lexicographically.
package graph

import "sort"

// Node is one step and the names it depends on.
type Node struct {
	Name      string
	DependsOn []string
}

// Graph is a validated step dependency graph.
type Graph struct {
	names      Set
	dependsOn  map[string][]string
	dependedBy map[string][]string
}

// Build validates nodes and returns the graph. Every dependency must name
// another node; a duplicate node name is rejected.
func Build(nodes []Node) (*Graph, error) {
	g := &Graph{
		names:      make(Set, len(nodes)),
		dependsOn:  make(map[string][]string, len(nodes)),
		dependedBy: make(map[string][]string, len(nodes)),
	}

	for _, node := range nodes {
		if g.names.Has(node.Name) {
			return nil, newDuplicateStepError(node.Name)
		}
		g.names.Add(node.Name)
	}

	for _, node := range nodes {
		deps := NewSet(node.DependsOn...).Sorted()
		for _, dep := range deps {
			if !g.names.Has(dep) {
				return nil, newUnknownDependencyError(node.Name, dep)
			}
			g.dependedBy[dep] = append(g.dependedBy[dep], node.Name)
		}
		g.dependsOn[node.Name] = deps
	}

	for name := range g.dependedBy {
		sort.Strings(g.dependedBy[name])
	}

	return g, nil
}

// Len returns the number of steps.
func (g *Graph) Len() int {
	return len(g.names)
}

// Contains reports whether the step is part of the graph.
func (g *Graph) Contains(name string) bool {
	return g.names.Has(name)
}

// Steps returns every step name, sorted.
func (g *Graph) Steps() []string {
	return g.names.Sorted()
}

// DependenciesOf returns the direct dependencies of a step, sorted.
func (g *Graph) DependenciesOf(name string) []string {
	return append([]string(nil), g.dependsOn[name]...)
}

// DependentsOf returns the steps that directly depend on name, sorted.
func (g *Graph) DependentsOf(name string) []string {
	return append([]string(nil), g.dependedBy[name]...)
}

// IsReady reports whether every dependency of name is in completed.
func (g *Graph) IsReady(name string, completed Set) bool {
	for _, dep := range g.dependsOn[name] {
		if !completed.Has(dep) {
			return false
		}
	}
	return true
}

// TopologicalOrder returns all steps so that each one follows its
// dependencies. Among steps that are ready at the same time the
// lexicographically smallest goes first. A cycle yields a
// DependencyError listing every step that could not be ordered.
func (g *Graph) TopologicalOrder() ([]string, error) {
	inDegree := make(map[string]int, len(g.names))
	ready := make([]string, 0, len(g.names))
	for name := range g.names {
		inDegree[name] = len(g.dependsOn[name])
		if inDegree[name] == 0 {
			ready = append(ready, name)
		}
	}

	order := make([]string, 0, len(g.names))
	for len(ready) > 0 {
		sort.Strings(ready)
		name := ready[0]
		ready = ready[1:]
		order = append(order, name)

		for _, dependent := range g.dependedBy[name] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	if len(order) != len(g.names) {
		remaining := make([]string, 0, len(g.names)-len(order))
		for name, degree := range inDegree {
			if degree > 0 {
				remaining = append(remaining, name)
			}
		}
		sort.Strings(remaining)
		return nil, newCircularDependencyError(remaining)
	}

	return order, nil
}

// FindCycle returns one dependency cycle as a path whose first and last
// elements are the same step, or nil when the graph is acyclic.
func (g *Graph) FindCycle() []string {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(g.names))
	var stack []string
	var cycle []string

	var visit func(name string) bool
	visit = func(name string) bool {
		color[name] = gray
		stack = append(stack, name)

		for _, dep := range g.dependsOn[name] {
			switch color[dep] {
			case gray:
				for i, onStack := range stack {
					if onStack == dep {
						cycle = append(append([]string(nil), stack[i:]...), dep)
						return true
					}
				}
			case white:
				if visit(dep) {
					return true
				}
			}
		}

		stack = stack[:len(stack)-1]
		color[name] = black
		return false
	}

	for _, name := range g.Steps() {
		if color[name] == white && visit(name) {
			return cycle
		}
	}
	return nil
}

// ParallelGroups partitions the steps into waves. Every step in a wave
// depends only on steps from earlier waves; each wave is sorted.
func (g *Graph) ParallelGroups() ([][]string, error) {
	if _, err := g.TopologicalOrder(); err != nil {
		return nil, err
	}

	completed := make(Set, len(g.names))
	var groups [][]string
	for len(completed) < len(g.names) {
		var wave []string
		for _, name := range g.Steps() {
			if !completed.Has(name) && g.IsReady(name, completed) {
				wave = append(wave, name)
			}
		}
		for _, name := range wave {
			completed.Add(name)
		}
		groups = append(groups, wave)
	}
	return groups, nil
}

// TransitiveDependents returns every step that directly or indirectly
// depends on name. The step itself is not included.
func (g *Graph) TransitiveDependents(name string) Set {
	found := Set{}
	queue := append([]string(nil), g.dependedBy[name]...)
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == name || found.Has(next) {
			continue
		}
		found.Add(next)
		queue = append(queue, g.dependedBy[next]...)
	}
	return found
}
