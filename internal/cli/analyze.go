package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/depmap/pkg/analyzer"
	"github.com/matzehuels/depmap/pkg/depgraph"
	"github.com/matzehuels/depmap/pkg/errors"
)

var headerStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)

// newTable returns a table in the CLI's border style.
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(StyleDim).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

func rankedTable(title string, g *depgraph.Graph, ranked []depgraph.Ranked) *table.Table {
	t := newTable("#", title, "Count")
	for i, r := range ranked {
		t.Row(strconv.Itoa(i+1), pkgName(g, r.Name), strconv.Itoa(r.Count))
	}
	return t
}

func (c *CLI) statsCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print graph statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := c.loadGraph(cmd.Context())
			if err != nil {
				return err
			}
			st := g.Statistics()
			if asJSON {
				return printJSON(st)
			}

			printTitle("Dependency graph")
			printKeyValue("Packages", st.Nodes)
			printKeyValue("Edges", st.Edges)
			for _, k := range depgraph.Kinds {
				printKeyValue("  "+k.String(), st.EdgesByKind[k.String()])
			}
			printKeyValue("Density", fmt.Sprintf("%.6f", st.Density))
			printKeyValue("Avg degree", fmt.Sprintf("%.2f", st.AvgOutDegree))
			printKeyValue("Components", st.Components)
			printKeyValue("Acyclic", st.IsAcyclic)
			printKeyValue("Unresolved", st.Unresolved)
			printKeyValue("Self references", g.SelfReferences())
			printNewline()
			fmt.Fprintln(stdout, rankedTable("Most depended", g, g.MostDepended(10)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

type analyzeOpts struct {
	repo    string
	compare []string
	json    bool
}

func (c *CLI) analyzeCommand() *cobra.Command {
	var opts analyzeOpts
	cmd := &cobra.Command{
		Use:   "analyze [package]",
		Short: "Analyse a package or a repository",
		Example: `  depmap analyze curl
  depmap analyze curl --compare wget,aria2
  depmap analyze --repo community`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 0) == (opts.repo == "") {
				return errors.New(errors.ErrCodeInvalidInput, "give either a package or --repo")
			}
			g, err := c.loadGraph(cmd.Context())
			if err != nil {
				return err
			}
			an := analyzer.New(g, c.Config.Analysis.Options())
			if opts.repo != "" {
				return c.printRepoAnalysis(g, an, opts)
			}
			return c.printPackageAnalysis(g, an, args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.repo, "repo", "", "analyse a repository instead of a package")
	cmd.Flags().StringSliceVar(&opts.compare, "compare", nil, "packages to compare dependencies with")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print JSON")
	return cmd
}

type packageReport struct {
	analyzer.PackageAnalysis
	Install analyzer.InstallEstimate `json:"install"`
	Common  []string                 `json:"common_deps,omitempty"`
	Unique  []string                 `json:"unique_deps,omitempty"`
}

func (c *CLI) printPackageAnalysis(g *depgraph.Graph, an *analyzer.Analyzer, name string, opts analyzeOpts) error {
	if err := requirePackage(g, name); err != nil {
		return err
	}
	for _, o := range opts.compare {
		if err := requirePackage(g, o); err != nil {
			return err
		}
	}
	pa, _ := an.AnalyzePackage(name)
	rep := packageReport{PackageAnalysis: pa, Install: an.InstallEstimate(name)}
	if len(opts.compare) > 0 {
		rep.Common = an.CommonDependencies(append([]string{name}, opts.compare...))
		rep.Unique = an.UniqueDependencies(name, opts.compare)
	}
	if opts.json {
		return printJSON(rep)
	}

	printTitle(pa.Name + " " + pa.Version)
	printKeyValue("Repository", pa.Repo)
	printKeyValue("Direct deps", pa.DirectDeps)
	printKeyValue("  runtime", pa.RuntimeDeps)
	printKeyValue("  build", pa.BuildDeps)
	printKeyValue("  check", pa.CheckDeps)
	printKeyValue("Total deps", pa.TotalDeps)
	printKeyValue("Direct rdeps", pa.DirectRdeps)
	printKeyValue("Total rdeps", pa.TotalRdeps)
	printKeyValue("Depth", pa.Depth)
	printKeyValue("Install size", fmt.Sprintf("%d packages", rep.Install.Packages))

	var flags []string
	if pa.IsLeaf {
		flags = append(flags, "leaf")
	}
	if pa.IsRoot {
		flags = append(flags, "root")
	}
	if pa.IsCore {
		flags = append(flags, "core")
	}
	if len(flags) > 0 {
		printKeyValue("Role", strings.Join(flags, ", "))
	}
	if len(opts.compare) > 0 {
		printNewline()
		printInfo("%d dependencies shared with %v", len(rep.Common), opts.compare)
		printInfo("%d dependencies only %s needs", len(rep.Unique), name)
		printPackages(g, rep.Unique)
	}
	return nil
}

func (c *CLI) printRepoAnalysis(g *depgraph.Graph, an *analyzer.Analyzer, opts analyzeOpts) error {
	if err := errors.ValidateRepoName(opts.repo); err != nil {
		return err
	}
	ra := an.AnalyzeRepo(opts.repo)
	if ra.Packages == 0 {
		return errors.New(errors.ErrCodeNotFound, "no packages in repository %q", opts.repo)
	}
	if opts.json {
		return printJSON(ra)
	}

	printTitle("Repository " + ra.Name)
	printKeyValue("Packages", ra.Packages)
	printKeyValue("Dependencies", ra.TotalDeps)
	printKeyValue("Average", fmt.Sprintf("%.2f", ra.AvgDeps))
	for _, r := range an.Repos() {
		if n, ok := ra.CrossRepoDeps[r]; ok {
			printKeyValue("  into "+r, n)
		}
	}
	printNewline()
	fmt.Fprintln(stdout, rankedTable("Most depended", g, ra.MostDepended))
	fmt.Fprintln(stdout, rankedTable("Most dependencies", g, ra.MostDependencies))
	return nil
}

func (c *CLI) reportCommand() *cobra.Command {
	var (
		asJSON bool
		output string
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write the full analysis report",
		Example: `  depmap report
  depmap report --json -o report.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := c.loadGraph(cmd.Context())
			if err != nil {
				return err
			}
			prog := newProgress(c.Logger)
			rep := analyzer.New(g, c.Config.Analysis.Options()).Report()
			prog.done("Report built")

			if output != "" {
				return writeReport(output, rep)
			}
			if asJSON {
				return printJSON(rep)
			}
			printReport(g, rep)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the JSON report to a file")
	return cmd
}

func writeReport(path string, rep analyzer.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	printSuccess("Report written")
	printFile(path)
	return nil
}

func printReport(g *depgraph.Graph, rep analyzer.Report) {
	printTitle("Summary")
	printKeyValue("Packages", rep.Summary.Packages)
	printKeyValue("Edges", rep.Summary.Edges)
	printKeyValue("Density", fmt.Sprintf("%.6f", rep.Summary.Density))
	printKeyValue("Acyclic", rep.Summary.IsAcyclic)
	printKeyValue("Components", rep.Summary.Components)
	printNewline()

	repos := newTable("Repository", "Packages", "Avg deps")
	for _, name := range sortedRepoNames(rep.Repos) {
		r := rep.Repos[name]
		repos.Row(name, strconv.Itoa(r.Packages), fmt.Sprintf("%.2f", r.AvgDeps))
	}
	fmt.Fprintln(stdout, repos)
	fmt.Fprintln(stdout, rankedTable("Most depended", g, rep.MostDepended))
	fmt.Fprintln(stdout, rankedTable("Most dependencies", g, rep.MostDependencies))

	if len(rep.BasePackages) > 0 {
		printTitle("Base packages")
		printPackages(g, rep.BasePackages)
	}
	if rep.CycleCount > 0 {
		suffix := ""
		if rep.CyclesTruncated {
			suffix = "+"
		}
		printWarning("%d%s circular dependencies", rep.CycleCount, suffix)
		for _, cyc := range rep.Cycles {
			printChain(g, cyc)
		}
	}
}

func sortedRepoNames(m map[string]analyzer.RepoSummary) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
