// Package analyzer derives per-package, per-repository and whole-tree
// statistics from a dependency graph.
package analyzer

import (
	"cmp"
	"slices"
	"sort"

	"github.com/matzehuels/depmap/pkg/depgraph"
)

// Defaults for [Options].
const (
	DefaultCoreThreshold = 50
	DefaultBaseThreshold = 20
	DefaultCycleLimit    = 1000
)

// Options tunes classification thresholds.
type Options struct {
	// CoreThreshold is the number of direct dependents above which a
	// package counts as core.
	CoreThreshold int
	// BaseThreshold is the recursive dependent count above which a package
	// counts as a base package.
	BaseThreshold int
	// CycleLimit caps cycle enumeration in reports.
	CycleLimit int
}

func (o Options) withDefaults() Options {
	if o.CoreThreshold <= 0 {
		o.CoreThreshold = DefaultCoreThreshold
	}
	if o.BaseThreshold <= 0 {
		o.BaseThreshold = DefaultBaseThreshold
	}
	if o.CycleLimit <= 0 {
		o.CycleLimit = DefaultCycleLimit
	}
	return o
}

// Analyzer answers analysis queries over one graph.
type Analyzer struct {
	g    *depgraph.Graph
	opts Options
}

// New returns an analyzer for g.
func New(g *depgraph.Graph, opts Options) *Analyzer {
	return &Analyzer{g: g, opts: opts.withDefaults()}
}

// PackageAnalysis summarises one package's position in the graph.
type PackageAnalysis struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Repo    string `json:"repo"`

	DirectDeps  int `json:"direct_deps_count"`
	TotalDeps   int `json:"total_deps_count"`
	BuildDeps   int `json:"build_deps_count"`
	RuntimeDeps int `json:"runtime_deps_count"`
	CheckDeps   int `json:"check_deps_count"`

	DirectRdeps int `json:"direct_rdeps_count"`
	TotalRdeps  int `json:"total_rdeps_count"`

	Depth int `json:"dependency_depth"`

	IsLeaf bool `json:"is_leaf"`
	IsRoot bool `json:"is_root"`
	IsCore bool `json:"is_core"`
}

// AnalyzePackage analyses name. ok is false for unknown packages.
func (a *Analyzer) AnalyzePackage(name string) (PackageAnalysis, bool) {
	rec, ok := a.g.Package(name)
	if !ok {
		return PackageAnalysis{}, false
	}
	deps := func(k depgraph.Kind, recursive bool) int {
		return len(a.g.Dependencies(name, k, recursive, depgraph.Unlimited))
	}
	direct := deps(depgraph.All, false)
	rdeps := len(a.g.ReverseDependencies(name, depgraph.All, false, depgraph.Unlimited))

	return PackageAnalysis{
		Name:        name,
		Version:     rec.FullVersion(),
		Repo:        rec.Repo,
		DirectDeps:  direct,
		TotalDeps:   deps(depgraph.All, true),
		BuildDeps:   deps(depgraph.Build, false),
		RuntimeDeps: deps(depgraph.Runtime, false),
		CheckDeps:   deps(depgraph.Check, false),
		DirectRdeps: rdeps,
		TotalRdeps:  len(a.g.ReverseDependencies(name, depgraph.All, true, depgraph.Unlimited)),
		Depth:       a.g.Depth(name),
		IsLeaf:      rdeps == 0,
		IsRoot:      direct == 0,
		IsCore:      rdeps > a.opts.CoreThreshold,
	}, true
}

// RepoAnalysis summarises the packages of one repository.
type RepoAnalysis struct {
	Name             string            `json:"name"`
	Packages         int               `json:"package_count"`
	TotalDeps        int               `json:"total_deps"`
	AvgDeps          float64           `json:"avg_deps"`
	MostDepended     []depgraph.Ranked `json:"most_depended"`
	MostDependencies []depgraph.Ranked `json:"most_dependencies"`
	CrossRepoDeps    map[string]int    `json:"cross_repo_deps"`
}

// AnalyzeRepo analyses the packages whose repo is repo. Rankings list at
// most ten entries: most depended by direct dependents, most dependencies
// by recursive count. Cross-repository counts are direct edges into
// packages of other repositories.
func (a *Analyzer) AnalyzeRepo(repo string) RepoAnalysis {
	ra := RepoAnalysis{
		Name:             repo,
		MostDepended:     []depgraph.Ranked{},
		MostDependencies: []depgraph.Ranked{},
		CrossRepoDeps:    map[string]int{},
	}
	var members []string
	for _, name := range a.g.Packages() {
		if rec, _ := a.g.Package(name); rec.Repo == repo {
			members = append(members, name)
		}
	}
	if len(members) == 0 {
		return ra
	}

	recursive := a.g.RecursiveCounts(false)
	var depended, dependencies []depgraph.Ranked
	for _, name := range members {
		deps := a.g.Dependencies(name, depgraph.All, false, depgraph.Unlimited)
		ra.TotalDeps += len(deps)
		for _, d := range deps {
			if rec, ok := a.g.Package(d); ok && rec.Repo != repo {
				ra.CrossRepoDeps[rec.Repo]++
			}
		}
		depended = append(depended, depgraph.Ranked{
			Name:  name,
			Count: len(a.g.ReverseDependencies(name, depgraph.All, false, depgraph.Unlimited)),
		})
		dependencies = append(dependencies, depgraph.Ranked{Name: name, Count: recursive[name]})
	}
	ra.Packages = len(members)
	ra.AvgDeps = float64(ra.TotalDeps) / float64(len(members))
	ra.MostDepended = topRanked(depended, 10)
	ra.MostDependencies = topRanked(dependencies, 10)
	return ra
}

// topRanked sorts by count descending, then name, and keeps n entries.
func topRanked(rs []depgraph.Ranked, n int) []depgraph.Ranked {
	slices.SortFunc(rs, func(x, y depgraph.Ranked) int {
		if c := cmp.Compare(y.Count, x.Count); c != 0 {
			return c
		}
		return cmp.Compare(x.Name, y.Name)
	})
	if len(rs) > n {
		rs = rs[:n]
	}
	return rs
}

// CommonDependencies returns the recursive dependencies shared by every
// package in names, sorted.
func (a *Analyzer) CommonDependencies(names []string) []string {
	if len(names) == 0 {
		return []string{}
	}
	common := a.depSet(names[0])
	for _, name := range names[1:] {
		other := a.depSet(name)
		for d := range common {
			if _, ok := other[d]; !ok {
				delete(common, d)
			}
		}
	}
	return sortedKeys(common)
}

// UniqueDependencies returns name's recursive dependencies that none of
// others depend on, sorted.
func (a *Analyzer) UniqueDependencies(name string, others []string) []string {
	unique := a.depSet(name)
	for _, o := range others {
		for _, d := range a.g.Dependencies(o, depgraph.All, true, depgraph.Unlimited) {
			delete(unique, d)
		}
	}
	return sortedKeys(unique)
}

// InstallEstimate counts the packages installing name would pull in.
type InstallEstimate struct {
	Packages int            `json:"package_count"`
	ByRepo   map[string]int `json:"by_repo"`
}

// InstallEstimate counts name itself plus its recursive dependencies, the
// dependencies grouped by repository.
func (a *Analyzer) InstallEstimate(name string) InstallEstimate {
	deps := a.g.Dependencies(name, depgraph.All, true, depgraph.Unlimited)
	est := InstallEstimate{Packages: len(deps) + 1, ByRepo: map[string]int{}}
	for _, d := range deps {
		if rec, ok := a.g.Package(d); ok {
			est.ByRepo[rec.Repo]++
		}
	}
	return est
}

// BasePackages returns, among the hundred most depended packages, those
// with more recursive dependents than the base threshold, most depended
// first.
func (a *Analyzer) BasePackages() []string {
	out := []string{}
	for _, r := range a.g.MostDepended(100) {
		if r.Count > a.opts.BaseThreshold {
			out = append(out, r.Name)
		}
	}
	return out
}

func (a *Analyzer) depSet(name string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, d := range a.g.Dependencies(name, depgraph.All, true, depgraph.Unlimited) {
		set[d] = struct{}{}
	}
	return set
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
