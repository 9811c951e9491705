// Package depgraph builds and queries the dependency graph of an aports
// tree.
//
// # Overview
//
// Nodes are canonical package names. Edges are typed with a [Kind]:
// [Runtime] for depends, [Build] for the three makedepends variants and
// [Check] for checkdepends. The same target may be linked under several
// kinds; a given (from, to, kind) triple appears once.
//
// [New] resolves every declared token through a [resolve.Index] built
// over the full record set, so aliases from provides and names of split
// subpackages land on the package that owns them:
//
//	g := depgraph.New(records)
//	deps := g.Dependencies("curl", depgraph.Runtime, true, depgraph.Unlimited)
//
// Tokens that resolve to nothing are not edges; they are listed by
// [Graph.Unresolved]. A dependency that resolves to its own package adds
// no edge.
//
// # Queries
//
// Traversals ([Graph.Dependencies], [Graph.ReverseDependencies]) are
// breadth-first and return sorted names without the start node.
// [Graph.Path] finds a shortest chain ignoring kinds. [Graph.FindCycles]
// enumerates elementary cycles with Johnson's algorithm. [Graph.Tree]
// renders a depth-first tree view that cuts only repeats on the current
// path. [Graph.MostDepended] and [Graph.MostDependencies] rank by
// transitive closure size, computed once over the strongly connected
// component DAG.
//
// Querying an unknown package yields an empty result, never an error.
//
// # Concurrency
//
// A Graph is immutable once [New] returns, apart from
// [Graph.AddPackage]. Concurrent queries are safe as long as no
// AddPackage call runs at the same time.
package depgraph
