package depgraph

import (
	"errors"
	"sort"

	"github.com/matzehuels/depmap/pkg/apkbuild"
	"github.com/matzehuels/depmap/pkg/resolve"
)

// ErrDuplicatePackage is returned by [Graph.AddPackage] for a name that is
// already a node.
var ErrDuplicatePackage = errors.New("duplicate package")

// Edge is a typed dependency from From to To.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
	Kind Kind   `json:"kind"`
}

// Unresolved is a declared dependency that matched no package.
type Unresolved struct {
	From  string `json:"from"`
	Token string `json:"token"`
	Kind  Kind   `json:"kind"`
}

// Graph is a directed graph over canonical package names.
//
// Nodes and edges are added only by [New] and [Graph.AddPackage]. All
// query methods are read-only and may run concurrently once construction
// has finished.
type Graph struct {
	packages map[string]*apkbuild.Package
	index    *resolve.Index

	nodes    []string // sorted
	out      map[string][]Edge
	in       map[string][]Edge
	edges    map[Edge]struct{}
	missing  []Unresolved
	selfRefs int
}

// New builds a graph from records keyed by canonical name. Every
// dependency token is resolved through a [resolve.Index] built over the
// whole set; tokens that resolve to nothing are kept in
// [Graph.Unresolved].
func New(records map[string]*apkbuild.Package) *Graph {
	g := &Graph{
		packages: make(map[string]*apkbuild.Package, len(records)),
		index:    resolve.NewIndex(records),
		out:      make(map[string][]Edge),
		in:       make(map[string][]Edge),
		edges:    make(map[Edge]struct{}),
	}
	for name, rec := range records {
		g.packages[name] = rec
		g.nodes = append(g.nodes, name)
	}
	sort.Strings(g.nodes)

	for _, name := range g.nodes {
		g.link(name, g.packages[name])
	}
	return g
}

// AddPackage adds one record after construction. Its aliases are indexed,
// its dependencies linked, and previously unresolved tokens that it now
// satisfies become edges. Existing edges are never re-targeted.
//
// AddPackage must not run concurrently with queries.
func (g *Graph) AddPackage(rec *apkbuild.Package) error {
	if rec == nil || rec.Name == "" {
		return errors.New("package has no name")
	}
	if _, ok := g.packages[rec.Name]; ok {
		return ErrDuplicatePackage
	}
	g.packages[rec.Name] = rec
	i := sort.SearchStrings(g.nodes, rec.Name)
	g.nodes = append(g.nodes, "")
	copy(g.nodes[i+1:], g.nodes[i:])
	g.nodes[i] = rec.Name
	g.index.Add(rec)

	pending := g.missing
	g.missing = nil
	for _, u := range pending {
		g.addDep(u.From, u.Token, u.Kind)
	}
	g.link(rec.Name, rec)
	return nil
}

func (g *Graph) link(name string, rec *apkbuild.Package) {
	if rec == nil {
		return
	}
	for _, tok := range rec.RuntimeDeps() {
		g.addDep(name, tok, Runtime)
	}
	for _, tok := range rec.BuildDeps() {
		g.addDep(name, tok, Build)
	}
	for _, tok := range rec.CheckDeps() {
		g.addDep(name, tok, Check)
	}
}

func (g *Graph) addDep(from, token string, kind Kind) {
	target, ok := g.index.Resolve(token)
	if !ok {
		g.missing = append(g.missing, Unresolved{From: from, Token: token, Kind: kind})
		return
	}
	if _, known := g.packages[target]; !known {
		g.missing = append(g.missing, Unresolved{From: from, Token: token, Kind: kind})
		return
	}
	if target == from {
		g.selfRefs++
		return
	}
	e := Edge{From: from, To: target, Kind: kind}
	if _, dup := g.edges[e]; dup {
		return
	}
	g.edges[e] = struct{}{}
	g.out[from] = append(g.out[from], e)
	g.in[target] = append(g.in[target], e)
}

// Has reports whether name is a node.
func (g *Graph) Has(name string) bool {
	_, ok := g.packages[name]
	return ok
}

// Package returns the record for name.
func (g *Graph) Package(name string) (*apkbuild.Package, bool) {
	p, ok := g.packages[name]
	return p, ok
}

// Packages returns all node names, sorted.
func (g *Graph) Packages() []string {
	out := make([]string, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Index returns the resolver the graph was built with.
func (g *Graph) Index() *resolve.Index { return g.index }

// NodeCount returns the number of packages.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of typed edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Edges returns every edge, grouped by source in node order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, len(g.edges))
	for _, n := range g.nodes {
		out = append(out, g.out[n]...)
	}
	return out
}

// OutEdges returns the edges leaving name in insertion order.
func (g *Graph) OutEdges(name string) []Edge { return append([]Edge(nil), g.out[name]...) }

// InEdges returns the edges entering name in insertion order.
func (g *Graph) InEdges(name string) []Edge { return append([]Edge(nil), g.in[name]...) }

// Unresolved returns the dependency tokens that matched no package, in
// the order they were encountered.
func (g *Graph) Unresolved() []Unresolved {
	return append([]Unresolved(nil), g.missing...)
}

// SelfReferences counts dependencies that resolved to their own package
// (typically a subpackage of the same recipe). They add no edge.
func (g *Graph) SelfReferences() int { return g.selfRefs }
