package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/depmap/pkg/depgraph"
	"github.com/matzehuels/depmap/pkg/errors"
)

type depsOpts struct {
	recursive bool
	depth     int
	kind      string
	tree      bool
	json      bool
}

func (o *depsOpts) register(cmd *cobra.Command, tree bool) {
	cmd.Flags().BoolVarP(&o.recursive, "recursive", "r", false, "follow dependencies transitively")
	cmd.Flags().IntVarP(&o.depth, "depth", "d", depgraph.Unlimited, "maximum hops when recursive (-1 for unlimited)")
	cmd.Flags().StringVarP(&o.kind, "type", "t", "all", "dependency type: runtime, build, check or all")
	cmd.Flags().BoolVar(&o.json, "json", false, "print JSON")
	if tree {
		cmd.Flags().BoolVar(&o.tree, "tree", false, "print a dependency tree")
	}
}

func (c *CLI) depsCommand() *cobra.Command {
	var opts depsOpts
	cmd := &cobra.Command{
		Use:   "deps <package>",
		Short: "List the dependencies of a package",
		Example: `  depmap deps curl
  depmap deps curl -r --type runtime
  depmap deps git --tree --depth 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDeps(cmd, args[0], opts, false)
		},
	}
	opts.register(cmd, true)
	return cmd
}

func (c *CLI) rdepsCommand() *cobra.Command {
	var opts depsOpts
	cmd := &cobra.Command{
		Use:   "rdeps <package>",
		Short: "List the packages that depend on a package",
		Example: `  depmap rdeps musl --type runtime
  depmap rdeps openssl -r --depth 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDeps(cmd, args[0], opts, true)
		},
	}
	opts.register(cmd, false)
	return cmd
}

func (c *CLI) runDeps(cmd *cobra.Command, name string, opts depsOpts, reverse bool) error {
	kind, err := depgraph.ParseKind(opts.kind)
	if err != nil {
		return err
	}
	g, err := c.loadGraph(cmd.Context())
	if err != nil {
		return err
	}
	if err := requirePackage(g, name); err != nil {
		return err
	}

	if opts.tree {
		t := g.Tree(name, kind, opts.depth)
		if opts.json {
			return printJSON(t)
		}
		fmt.Fprintln(stdout, renderTree(g, t))
		printDetail("%d nodes", t.Size())
		return nil
	}

	var names []string
	if reverse {
		names = g.ReverseDependencies(name, kind, opts.recursive, opts.depth)
	} else {
		names = g.Dependencies(name, kind, opts.recursive, opts.depth)
	}
	if names == nil {
		names = []string{}
	}
	if opts.json {
		return printJSON(names)
	}

	what := "dependencies"
	if reverse {
		what = "reverse dependencies"
	}
	scope := "direct"
	if opts.recursive {
		scope = "recursive"
	}
	printTitle(fmt.Sprintf("%s: %d %s %s (%s)", name, len(names), scope, what, kind))
	printPackages(g, names)
	return nil
}

func (c *CLI) pathCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "path <from> <to>",
		Short:   "Show the shortest dependency chain between two packages",
		Example: `  depmap path git musl`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := c.loadGraph(cmd.Context())
			if err != nil {
				return err
			}
			for _, n := range args {
				if err := requirePackage(g, n); err != nil {
					return err
				}
			}
			path, ok := g.Path(args[0], args[1])
			if !ok {
				return errors.New(errors.ErrCodeNotFound, "%s does not depend on %s", args[0], args[1])
			}
			if asJSON {
				return printJSON(path)
			}
			printTitle(fmt.Sprintf("%d hops", len(path)-1))
			printChain(g, path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func (c *CLI) cyclesCommand() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "cycles",
		Short: "List circular dependencies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := c.loadGraph(cmd.Context())
			if err != nil {
				return err
			}
			cycles := g.FindCyclesLimit(limit)
			if asJSON {
				return printJSON(cycles)
			}
			if len(cycles) == 0 {
				printSuccess("No circular dependencies")
				return nil
			}
			printWarning("%d circular dependencies", len(cycles))
			for _, cyc := range cycles {
				printChain(g, append(slices.Clone(cyc), cyc[0]))
			}
			if limit > 0 && len(cycles) == limit {
				printDetail("stopped at --limit %d", limit)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 100, "stop after this many cycles (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// requirePackage validates name and checks that g knows it.
func requirePackage(g *depgraph.Graph, name string) error {
	if err := errors.ValidatePackageName(name); err != nil {
		return err
	}
	if !g.Has(name) {
		return errors.New(errors.ErrCodePackageNotFound, "package %q not found", name)
	}
	return nil
}
