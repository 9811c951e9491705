package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/depmap/pkg/apkbuild"
	"github.com/matzehuels/depmap/pkg/depgraph"
	"github.com/matzehuels/depmap/pkg/scanner"
	"github.com/matzehuels/depmap/pkg/store"
)

type scanOpts struct {
	repos   []string
	workers int
	noCache bool
	pkg     string
	json    bool
}

func (c *CLI) scanCommand() *cobra.Command {
	var opts scanOpts

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Parse every APKBUILD in the aports checkout and save a snapshot",
		Long: `Scan walks <aports>/<repo>/<package>/APKBUILD for each configured
repository, parses the recipes in parallel and saves the result as the
snapshot later commands query.

With --package a single recipe is parsed and printed; nothing is saved.`,
		Example: `  depmap scan --aports ~/src/aports
  depmap scan --repos main,community --workers 16
  depmap scan --package curl --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.pkg != "" {
				return c.runScanPackage(cmd.Context(), opts)
			}
			return c.runScan(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.repos, "repos", nil, "repositories in precedence order (default from config)")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "parallel parsers (default from config, else GOMAXPROCS)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "ignore the parse cache")
	cmd.Flags().StringVar(&opts.pkg, "package", "", "parse only this package and print it")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print JSON")

	return cmd
}

func (c *CLI) newScanner(ctx context.Context, noCache bool) (*scanner.Scanner, func(), error) {
	pc, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, nil, err
	}
	return scanner.New(pc, nil, c.Logger), func() { pc.Close() }, nil
}

func (c *CLI) runScan(ctx context.Context, opts scanOpts) error {
	root, err := c.requireAports()
	if err != nil {
		return err
	}
	sc, closeCache, err := c.newScanner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer closeCache()

	var counter cacheCounter
	defer counter.track()()

	spin := newSpinner(ctx, "Discovering recipes...")
	spin.Start()

	sopts := c.scanOptions(opts.repos, opts.workers)
	sopts.Progress = func(done, total int, path string) {
		spin.SetMessage("Parsing %d/%d", done, total)
	}
	res, err := sc.Scan(ctx, root, sopts)
	if err != nil {
		spin.StopWithError("Scan failed")
		return err
	}
	spin.Stop()

	g := depgraph.New(res.Packages)
	snap := store.NewSnapshot(res, g.Index())
	st, err := c.newStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Save(ctx, snap); err != nil {
		return err
	}

	if opts.json {
		return printJSON(res.Summary())
	}
	printScanSummary(res, g)
	printDetail("%d parsed, %d from cache", counter.misses.Load(), counter.hits.Load())
	if path, err := c.Config.SnapshotPath(); err == nil && c.Config.Store.Backend == backendFile {
		printFile(path)
	}
	printNewline()
	printNextStep("Next", appName+" stats")
	return nil
}

func printScanSummary(res *scanner.Result, g *depgraph.Graph) {
	sum := res.Summary()
	printSuccess("Scanned %d recipes in %s", res.TotalFiles, res.ScanTime.Round(time.Millisecond))
	printKeyValue("Packages", sum.Packages)
	repos := make([]string, 0, len(sum.ByRepo))
	for r := range sum.ByRepo {
		repos = append(repos, r)
	}
	sort.Strings(repos)
	for _, r := range repos {
		printKeyValue("  "+r, sum.ByRepo[r])
	}
	printKeyValue("Dependencies", sum.TotalDeps)
	printKeyValue("Average", fmt.Sprintf("%.2f", sum.AvgDeps))
	if sum.MaxDepsPackage != "" {
		printKeyValue("Most", fmt.Sprintf("%s (%d)", sum.MaxDepsPackage, sum.MaxDeps))
	}
	printKeyValue("Edges", g.EdgeCount())
	printKeyValue("Unresolved", len(g.Unresolved()))

	var skipped int
	var failed []scanner.FileError
	for _, fe := range res.Errors {
		if fe.NotAPackage() {
			skipped++
		} else {
			failed = append(failed, fe)
		}
	}
	if skipped > 0 {
		printDetail("%d recipes without pkgname skipped", skipped)
	}
	if len(failed) > 0 {
		printWarning("%d recipes failed", len(failed))
		for _, fe := range failed[:min(len(failed), 5)] {
			printDetail("%s", fe.Error())
		}
	}
}

func (c *CLI) runScanPackage(ctx context.Context, opts scanOpts) error {
	root, err := c.requireAports()
	if err != nil {
		return err
	}
	sc, closeCache, err := c.newScanner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer closeCache()

	rec, err := sc.ScanPackage(ctx, root, opts.pkg, c.scanOptions(opts.repos, opts.workers))
	if err != nil {
		return err
	}
	if opts.json {
		return printJSON(rec)
	}
	printRecord(rec)
	return nil
}

func printRecord(rec *apkbuild.Package) {
	printTitle(rec.Name + " " + rec.FullVersion())
	if rec.Description != "" {
		printDetail("%s", rec.Description)
	}
	printKeyValue("Repository", rec.Repo)
	printKeyValue("License", rec.License)
	printKeyValue("URL", rec.URL)
	printKeyValue("Maintainer", rec.Maintainer)
	for _, l := range []struct {
		key  string
		vals []string
	}{
		{"Depends", rec.Depends},
		{"Makedepends", rec.BuildDeps()},
		{"Checkdepends", rec.CheckDepends},
		{"Provides", rec.Provides},
		{"Subpackages", rec.Subpackages},
	} {
		if len(l.vals) > 0 {
			printKeyValue(l.key, strings.Join(l.vals, " "))
		}
	}
	printFile(rec.FilePath)
}

func printJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
