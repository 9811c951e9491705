// Package dot draws dependency sub-graphs as Graphviz diagrams.
//
// [ToDOT] selects the neighbourhood of a root package (its dependencies,
// or its dependents with Reverse) up to a depth and emits DOT source.
// Edges are styled by kind:
//
//	runtime  solid green
//	build    dashed blue
//	check    dotted orange
//
// An edge linking the same pair under several kinds is drawn once per
// kind. [RenderSVG] lays the source out in-process with
// [github.com/goccy/go-graphviz]:
//
//	src, err := dot.ToDOT(g, dot.Options{Root: "curl", Depth: 2})
//	svg, err := dot.RenderSVG(ctx, src)
package dot
