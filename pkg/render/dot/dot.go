package dot

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/depmap/pkg/depgraph"
	"github.com/matzehuels/depmap/pkg/errors"
	"github.com/matzehuels/depmap/pkg/render"
)

// Options configures diagram generation.
type Options struct {
	// Root selects the package the diagram is centred on. Empty draws
	// the whole graph.
	Root string
	// Kind filters edges; zero means all kinds.
	Kind depgraph.Kind
	// Depth bounds the hops from Root; negative is unbounded.
	Depth int
	// Reverse draws Root's dependents instead of its dependencies.
	Reverse bool
	// RankDir is the Graphviz rankdir, "TB" by default.
	RankDir string
	// ColorByRepo fills nodes by repository.
	ColorByRepo bool
	// Detailed adds version and repository to node labels.
	Detailed bool
}

var edgeStyles = map[depgraph.Kind]string{
	depgraph.Runtime: `color="#16a34a", style=solid`,
	depgraph.Build:   `color="#2563eb", style=dashed`,
	depgraph.Check:   `color="#ea580c", style=dotted`,
}

// RepoColors are node fills used with ColorByRepo.
var RepoColors = map[string]string{
	"main":         "#dbeafe",
	"community":    "#dcfce7",
	"testing":      "#fef9c3",
	"unmaintained": "#f3f4f6",
}

const (
	defaultFill = "white"
	rootFill    = "#fde68a"
)

// ToDOT converts the selected part of g to DOT source. An unknown root is
// a PACKAGE_NOT_FOUND error.
func ToDOT(g *depgraph.Graph, opts Options) (string, error) {
	if opts.Kind == 0 {
		opts.Kind = depgraph.All
	}
	if opts.RankDir == "" {
		opts.RankDir = "TB"
	}
	switch opts.RankDir {
	case "TB", "BT", "LR", "RL":
	default:
		return "", errors.New(errors.ErrCodeInvalidFormat, "invalid rankdir %q (want TB, BT, LR or RL)", opts.RankDir)
	}

	sub := g
	if opts.Root != "" {
		if !g.Has(opts.Root) {
			return "", errors.New(errors.ErrCodePackageNotFound, "package %q not found", opts.Root)
		}
		if opts.Reverse {
			sub = g.ReverseSubgraph(opts.Root, opts.Kind, opts.Depth)
		} else {
			sub = g.Subgraph([]string{opts.Root}, opts.Kind, opts.Depth)
		}
	}

	var buf bytes.Buffer
	buf.WriteString("digraph depmap {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", opts.RankDir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\", fontsize=14, margin=\"0.15,0.05\"];\n")
	buf.WriteString("  edge [arrowsize=0.7];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, name := range sub.Packages() {
		fmt.Fprintf(&buf, "  %q [%s];\n", name, strings.Join(nodeAttrs(sub, name, opts), ", "))
	}

	buf.WriteString("\n")
	edges := sub.Edges()
	slices.SortFunc(edges, func(a, b depgraph.Edge) int {
		return cmp.Or(cmp.Compare(a.From, b.From), cmp.Compare(a.To, b.To), cmp.Compare(a.Kind, b.Kind))
	})
	for _, e := range edges {
		if !opts.Kind.Has(e.Kind) {
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.From, e.To, edgeStyles[e.Kind])
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}

func nodeAttrs(g *depgraph.Graph, name string, opts Options) []string {
	rec, _ := g.Package(name)
	label := name
	if opts.Detailed && rec != nil {
		label = fmt.Sprintf("%s\n%s", name, rec.FullVersion())
		if rec.Repo != "" {
			label += "\n" + rec.Repo
		}
	}
	attrs := []string{fmt.Sprintf("label=%q", label)}

	fill := defaultFill
	if opts.ColorByRepo && rec != nil {
		if c, ok := RepoColors[rec.Repo]; ok {
			fill = c
		}
	}
	if name == opts.Root {
		if !opts.ColorByRepo {
			fill = rootFill
		}
		attrs = append(attrs, "penwidth=2.5")
	}
	if fill != defaultFill {
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", fill))
	}
	return attrs
}

// RenderSVG lays out DOT source with Graphviz and returns the SVG.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

// RenderPDF renders DOT source to PDF through SVG.
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders DOT source to PNG through SVG at the given scale.
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}

var (
	svgTagRE  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRE = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with one whose
// width and height match the viewBox, so browsers scale it predictably.
func normalizeViewBox(svg []byte) []byte {
	m := viewBoxRE.FindSubmatch(svg)
	if m == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(m[3]), 64)
	h, _ := strconv.ParseFloat(string(m[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRE.ReplaceAll(svg, []byte(tag))
}
