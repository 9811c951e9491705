package analyzer

import (
	"math"
	"sort"

	"github.com/matzehuels/depmap/pkg/depgraph"
)

// Summary is the headline section of a [Report].
type Summary struct {
	Packages   int     `json:"total_packages"`
	Edges      int     `json:"total_edges"`
	Density    float64 `json:"density"`
	IsAcyclic  bool    `json:"is_dag"`
	Components int     `json:"components"`
}

// RepoSummary is the per-repository section of a [Report].
type RepoSummary struct {
	Packages      int            `json:"package_count"`
	AvgDeps       float64        `json:"avg_deps"`
	CrossRepoDeps map[string]int `json:"cross_repo_deps"`
}

// Report is the full analysis of a graph.
type Report struct {
	Summary          Summary                `json:"summary"`
	Repos            map[string]RepoSummary `json:"repos"`
	BasePackages     []string               `json:"core_packages"`
	MostDepended     []depgraph.Ranked      `json:"most_depended"`
	MostDependencies []depgraph.Ranked      `json:"most_dependencies"`
	CycleCount       int                    `json:"circular_dependencies_count"`
	Cycles           [][]string             `json:"circular_dependencies"`
	// CyclesTruncated is set when enumeration stopped at the cycle limit,
	// making CycleCount a lower bound.
	CyclesTruncated bool `json:"circular_dependencies_truncated,omitempty"`
}

// Report builds the full analysis. Packages without a repository are left
// out of the per-repository section.
func (a *Analyzer) Report() Report {
	st := a.g.Statistics()
	r := Report{
		Summary: Summary{
			Packages:   st.Nodes,
			Edges:      st.Edges,
			Density:    st.Density,
			IsAcyclic:  st.IsAcyclic,
			Components: st.Components,
		},
		Repos:            map[string]RepoSummary{},
		MostDepended:     a.g.MostDepended(20),
		MostDependencies: a.g.MostDependencies(20),
		Cycles:           [][]string{},
	}

	for _, repo := range a.Repos() {
		ra := a.AnalyzeRepo(repo)
		r.Repos[repo] = RepoSummary{
			Packages:      ra.Packages,
			AvgDeps:       math.Round(ra.AvgDeps*100) / 100,
			CrossRepoDeps: ra.CrossRepoDeps,
		}
	}

	base := a.BasePackages()
	if len(base) > 20 {
		base = base[:20]
	}
	r.BasePackages = base

	if !st.IsAcyclic {
		cycles := a.g.FindCyclesLimit(a.opts.CycleLimit)
		r.CycleCount = len(cycles)
		r.CyclesTruncated = len(cycles) >= a.opts.CycleLimit
		if len(cycles) > 10 {
			cycles = cycles[:10]
		}
		r.Cycles = cycles
	}
	return r
}

// Repos returns the distinct non-empty repositories of the graph's
// packages, sorted.
func (a *Analyzer) Repos() []string {
	seen := make(map[string]struct{})
	for _, name := range a.g.Packages() {
		if rec, _ := a.g.Package(name); rec.Repo != "" {
			seen[rec.Repo] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for r := range seen {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}
