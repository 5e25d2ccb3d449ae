// Package graph provides a directed dependency graph used for analysis of registered services.
package graph

import "slices"

// Graph maps each node to the nodes it depends on.
//
// Nodes are iterated in the order they were first added so results are deterministic.
// A Graph is not safe for concurrent use.
type Graph[K comparable] struct {
	nodes map[K][]K
	order []K
}

// Analysis summarizes a [Graph].
type Analysis[K comparable] struct {
	Cycles        [][]K
	Depths        map[K]int
	Roots         []K
	TotalServices int
}

// New creates an empty [Graph].
func New[K comparable]() *Graph[K] {
	return &Graph[K]{
		nodes: make(map[K][]K),
	}
}

// SetDependencies adds key to the graph and replaces its dependencies.
func (g *Graph[K]) SetDependencies(key K, deps []K) {
	g.ensure(key)

	edges := make([]K, 0, len(deps))
	for _, dep := range deps {
		if !slices.Contains(edges, dep) {
			edges = append(edges, dep)
		}
	}
	g.nodes[key] = edges
}

// AddDependency adds an edge from key to dependsOn. Duplicate edges are ignored.
func (g *Graph[K]) AddDependency(key, dependsOn K) {
	g.ensure(key)

	if !slices.Contains(g.nodes[key], dependsOn) {
		g.nodes[key] = append(g.nodes[key], dependsOn)
	}
}

// Dependencies returns the direct dependencies of key in declaration order.
func (g *Graph[K]) Dependencies(key K) []K {
	return g.nodes[key]
}

// Has returns true if key was added to the graph.
func (g *Graph[K]) Has(key K) bool {
	_, ok := g.nodes[key]
	return ok
}

// Nodes returns every node that was added, in insertion order.
func (g *Graph[K]) Nodes() []K {
	return append([]K(nil), g.order...)
}

// Len returns the number of nodes.
func (g *Graph[K]) Len() int {
	return len(g.order)
}

// Clear removes every node.
func (g *Graph[K]) Clear() {
	g.nodes = make(map[K][]K)
	g.order = nil
}

// DetectCycles returns the cycles found by a depth-first search.
//
// Each cycle starts and ends with the same node, e.g. [A B A].
func (g *Graph[K]) DetectCycles() [][]K {
	var cycles [][]K
	visited := make(map[K]bool, len(g.order))
	onStack := make(map[K]int)
	var stack []K

	var visit func(K)
	visit = func(n K) {
		visited[n] = true
		onStack[n] = len(stack)
		stack = append(stack, n)

		for _, dep := range g.nodes[n] {
			if i, ok := onStack[dep]; ok {
				cycle := append(append([]K(nil), stack[i:]...), dep)
				cycles = append(cycles, cycle)
				continue
			}
			if !visited[dep] {
				visit(dep)
			}
		}

		stack = stack[:len(stack)-1]
		delete(onStack, n)
	}

	for _, n := range g.order {
		if !visited[n] {
			visit(n)
		}
	}

	return cycles
}

// Depth returns the length of the longest dependency chain starting at key.
//
// A node without dependencies has depth 0. A node already on the current chain
// counts as 0, so the walk terminates on cyclic graphs.
func (g *Graph[K]) Depth(key K) int {
	d, _ := g.depth(key, make(map[K]bool), make(map[K]int))
	return d
}

// depth reports whether the result is independent of path. Only those results are
// stored in done: a node that reaches a cycle can get a different depth on another chain.
func (g *Graph[K]) depth(n K, path map[K]bool, done map[K]int) (int, bool) {
	if d, ok := done[n]; ok {
		return d, true
	}
	if path[n] {
		return 0, false
	}

	deps := g.nodes[n]
	if len(deps) == 0 {
		done[n] = 0
		return 0, true
	}

	path[n] = true
	defer delete(path, n)

	longest, clean := 0, true
	for _, dep := range deps {
		d, ok := g.depth(dep, path, done)
		if !ok {
			clean = false
		}
		if d+1 > longest {
			longest = d + 1
		}
	}

	if clean {
		done[n] = longest
	}
	return longest, clean
}

// Roots returns the nodes without dependencies, in insertion order.
func (g *Graph[K]) Roots() []K {
	var roots []K
	for _, n := range g.order {
		if len(g.nodes[n]) == 0 {
			roots = append(roots, n)
		}
	}
	return roots
}

// CreationPath returns the order in which key and everything it depends on
// should be created: dependencies first, in declaration order, each once,
// ending with key itself. Edges that close a cycle are skipped.
func (g *Graph[K]) CreationPath(key K) []K {
	var path []K
	done := make(map[K]bool)
	active := make(map[K]bool)

	var visit func(K)
	visit = func(n K) {
		if done[n] || active[n] {
			return
		}

		active[n] = true
		for _, dep := range g.nodes[n] {
			visit(dep)
		}
		delete(active, n)

		done[n] = true
		path = append(path, n)
	}
	visit(key)

	return path
}

// Analyze returns the cycles, the depth of every node, the roots, and the number of nodes.
func (g *Graph[K]) Analyze() Analysis[K] {
	depths := make(map[K]int, len(g.order))
	done := make(map[K]int, len(g.order))
	for _, n := range g.order {
		depths[n], _ = g.depth(n, make(map[K]bool), done)
	}

	return Analysis[K]{
		Cycles:        g.DetectCycles(),
		Depths:        depths,
		Roots:         g.Roots(),
		TotalServices: len(g.order),
	}
}

func (g *Graph[K]) ensure(key K) {
	if _, ok := g.nodes[key]; !ok {
		g.nodes[key] = nil
		g.order = append(g.order, key)
	}
}
