// Package render converts rendered SVG into other output formats.
//
// Graph drawing itself lives in the [dot] subpackage, which produces
// Graphviz source and SVG. [ToPDF] and [ToPNG] convert that SVG with the
// external rsvg-convert tool from librsvg:
//
//	svg, err := dot.RenderSVG(ctx, src)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0) // 2x scale
//
// [dot]: github.com/matzehuels/depmap/pkg/render/dot
package render
