package depgraph

import (
	"sort"

	"github.com/matzehuels/depmap/pkg/apkbuild"
)

// Unlimited disables the depth bound of traversal queries.
const Unlimited = -1

// Dependencies returns the packages name depends on through edges of
// kind. In recursive mode the search is breadth-first and expands each
// node once; maxDepth >= 0 bounds the number of hops. The result is
// sorted, unique, and never contains name itself. Unknown names yield nil.
func (g *Graph) Dependencies(name string, kind Kind, recursive bool, maxDepth int) []string {
	return g.traverse(name, kind, recursive, maxDepth, g.out, func(e Edge) string { return e.To })
}

// ReverseDependencies returns the packages that depend on name; it is
// [Graph.Dependencies] over incoming edges.
func (g *Graph) ReverseDependencies(name string, kind Kind, recursive bool, maxDepth int) []string {
	return g.traverse(name, kind, recursive, maxDepth, g.in, func(e Edge) string { return e.From })
}

func (g *Graph) traverse(name string, kind Kind, recursive bool, maxDepth int, adj map[string][]Edge, next func(Edge) string) []string {
	if !g.Has(name) {
		return nil
	}
	if !recursive {
		maxDepth = 1
	}

	visited := map[string]struct{}{name: {}}
	frontier := []string{name}
	var out []string
	for depth := 0; len(frontier) > 0; depth++ {
		if maxDepth >= 0 && depth >= maxDepth {
			break
		}
		var nextFrontier []string
		for _, n := range frontier {
			for _, e := range adj[n] {
				if !kind.Has(e.Kind) {
					continue
				}
				m := next(e)
				if _, seen := visited[m]; seen {
					continue
				}
				visited[m] = struct{}{}
				out = append(out, m)
				nextFrontier = append(nextFrontier, m)
			}
		}
		frontier = nextFrontier
	}
	sort.Strings(out)
	return out
}

// successors returns the distinct targets of name's edges of kind, in
// edge insertion order.
func (g *Graph) successors(name string, kind Kind) []string {
	return distinct(g.out[name], kind, func(e Edge) string { return e.To })
}

func (g *Graph) predecessors(name string, kind Kind) []string {
	return distinct(g.in[name], kind, func(e Edge) string { return e.From })
}

func distinct(edges []Edge, kind Kind, end func(Edge) string) []string {
	var out []string
	seen := make(map[string]struct{}, len(edges))
	for _, e := range edges {
		if !kind.Has(e.Kind) {
			continue
		}
		n := end(e)
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// Path returns a shortest dependency chain from source to target,
// ignoring edge kinds. Ties follow edge insertion order. Path(a, a) is
// [a]. ok is false when either end is unknown or target is unreachable.
func (g *Graph) Path(source, target string) (path []string, ok bool) {
	if !g.Has(source) || !g.Has(target) {
		return nil, false
	}
	if source == target {
		return []string{source}, true
	}

	parent := map[string]string{source: ""}
	queue := []string{source}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, m := range g.successors(n, All) {
			if _, seen := parent[m]; seen {
				continue
			}
			parent[m] = n
			if m == target {
				return buildPath(parent, source, target), true
			}
			queue = append(queue, m)
		}
	}
	return nil, false
}

func buildPath(parent map[string]string, source, target string) []string {
	var rev []string
	for n := target; n != source; n = parent[n] {
		rev = append(rev, n)
	}
	rev = append(rev, source)
	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	return rev
}

// Depth returns the length of the longest shortest path from name to any
// of its recursive dependencies: 0 for a package without dependencies.
func (g *Graph) Depth(name string) int {
	if !g.Has(name) {
		return 0
	}
	dist := map[string]int{name: 0}
	queue := []string{name}
	deepest := 0
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, m := range g.successors(n, All) {
			if _, seen := dist[m]; seen {
				continue
			}
			dist[m] = dist[n] + 1
			deepest = max(deepest, dist[m])
			queue = append(queue, m)
		}
	}
	return deepest
}

// LeafPackages returns the packages nothing depends on, sorted.
func (g *Graph) LeafPackages() []string {
	var out []string
	for _, n := range g.nodes {
		if len(g.in[n]) == 0 {
			out = append(out, n)
		}
	}
	return out
}

// RootPackages returns the packages that depend on nothing, sorted.
func (g *Graph) RootPackages() []string {
	var out []string
	for _, n := range g.nodes {
		if len(g.out[n]) == 0 {
			out = append(out, n)
		}
	}
	return out
}

// Subgraph returns a graph over the given packages plus, when depth is
// not zero, their dependencies of kind up to depth hops. Only edges of
// kind between included nodes are kept.
func (g *Graph) Subgraph(names []string, kind Kind, depth int) *Graph {
	keep := make(map[string]struct{})
	for _, n := range names {
		if !g.Has(n) {
			continue
		}
		keep[n] = struct{}{}
		if depth != 0 {
			for _, d := range g.Dependencies(n, kind, true, depth) {
				keep[d] = struct{}{}
			}
		}
	}
	return g.induced(keep, kind)
}

// ReverseSubgraph is [Graph.Subgraph] over reverse dependencies.
func (g *Graph) ReverseSubgraph(name string, kind Kind, depth int) *Graph {
	keep := make(map[string]struct{})
	if g.Has(name) {
		keep[name] = struct{}{}
		for _, d := range g.ReverseDependencies(name, kind, true, depth) {
			keep[d] = struct{}{}
		}
	}
	return g.induced(keep, kind)
}

func (g *Graph) induced(keep map[string]struct{}, kind Kind) *Graph {
	sub := &Graph{
		packages: make(map[string]*apkbuild.Package, len(keep)),
		index:    g.index,
		out:      make(map[string][]Edge),
		in:       make(map[string][]Edge),
		edges:    make(map[Edge]struct{}),
	}
	for n := range keep {
		sub.packages[n] = g.packages[n]
		sub.nodes = append(sub.nodes, n)
	}
	sort.Strings(sub.nodes)
	for _, n := range sub.nodes {
		for _, e := range g.out[n] {
			if _, ok := keep[e.To]; !ok || !kind.Has(e.Kind) {
				continue
			}
			sub.edges[e] = struct{}{}
			sub.out[n] = append(sub.out[n], e)
			sub.in[e.To] = append(sub.in[e.To], e)
		}
	}
	return sub
}
