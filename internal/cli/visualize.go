package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/depmap/pkg/depgraph"
	"github.com/matzehuels/depmap/pkg/errors"
	"github.com/matzehuels/depmap/pkg/render/dot"
)

// Output formats accepted by visualize.
const (
	formatDOT = "dot"
	formatSVG = "svg"
	formatPDF = "pdf"
	formatPNG = "png"
)

type visualizeOpts struct {
	depth    int
	kind     string
	reverse  bool
	format   string
	output   string
	rankDir  string
	noColor  bool
	detailed bool
	scale    float64
}

func (c *CLI) visualizeCommand() *cobra.Command {
	var opts visualizeOpts

	cmd := &cobra.Command{
		Use:   "visualize <package>",
		Short: "Draw the dependency graph around a package",
		Long: `Draw the dependencies (or, with --reverse, the dependents) of a package
with Graphviz.

Edges are styled by type: runtime solid green, build dashed blue, check
dotted orange. Nodes are filled by repository. PDF and PNG output need
rsvg-convert on PATH.`,
		Example: `  depmap visualize curl --depth 2 -o curl.svg
  depmap visualize musl --reverse --depth 1 --type runtime
  depmap visualize git --format dot | dot -Tpng > git.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format == "" {
				opts.format = formatFromOutput(opts.output)
			}
			switch opts.format {
			case formatDOT, formatSVG, formatPDF, formatPNG:
			default:
				return errors.New(errors.ErrCodeInvalidFormat, "unknown format %q (want dot, svg, pdf or png)", opts.format)
			}
			return c.runVisualize(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().IntVarP(&opts.depth, "depth", "d", 2, "maximum hops from the package (-1 for unlimited)")
	cmd.Flags().StringVarP(&opts.kind, "type", "t", "all", "dependency type: runtime, build, check or all")
	cmd.Flags().BoolVar(&opts.reverse, "reverse", false, "draw dependents instead of dependencies")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: dot, svg, pdf, png (default from -o, else svg)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&opts.rankDir, "rankdir", "TB", "Graphviz rank direction: TB, LR, BT, RL")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "do not fill nodes by repository")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "add version and repository to labels")
	cmd.Flags().Float64Var(&opts.scale, "scale", 2, "PNG scale factor")

	return cmd
}

func formatFromOutput(output string) string {
	for _, f := range []string{formatDOT, formatSVG, formatPDF, formatPNG} {
		if strings.HasSuffix(strings.ToLower(output), "."+f) {
			return f
		}
	}
	return formatSVG
}

func (c *CLI) runVisualize(ctx context.Context, name string, opts visualizeOpts) error {
	kind, err := depgraph.ParseKind(opts.kind)
	if err != nil {
		return err
	}
	g, err := c.loadGraph(ctx)
	if err != nil {
		return err
	}
	if err := requirePackage(g, name); err != nil {
		return err
	}

	src, err := dot.ToDOT(g, dot.Options{
		Root:        name,
		Kind:        kind,
		Depth:       opts.depth,
		Reverse:     opts.reverse,
		RankDir:     opts.rankDir,
		ColorByRepo: !opts.noColor,
		Detailed:    opts.detailed,
	})
	if err != nil {
		return err
	}

	var data []byte
	if opts.format == formatDOT {
		data = []byte(src)
	} else {
		spin := newSpinner(ctx, fmt.Sprintf("Rendering %s...", opts.format))
		spin.Start()
		data, err = renderDOT(ctx, src, opts)
		if err != nil {
			spin.StopWithError("Rendering failed")
			return err
		}
		spin.Stop()
	}

	if opts.output == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	printSuccess("Rendered %s", name)
	printFile(opts.output)
	return nil
}

func renderDOT(ctx context.Context, src string, opts visualizeOpts) ([]byte, error) {
	switch opts.format {
	case formatPDF:
		return dot.RenderPDF(ctx, src)
	case formatPNG:
		return dot.RenderPNG(ctx, src, opts.scale)
	default:
		return dot.RenderSVG(ctx, src)
	}
}
