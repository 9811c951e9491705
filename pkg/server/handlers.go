package server

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/depmap/pkg/depgraph"
	"github.com/matzehuels/depmap/pkg/errors"
	"github.com/matzehuels/depmap/pkg/observability"
)

const (
	searchLimit   = 20
	minQueryLen   = 2
	defaultDepth  = 2
	treeDepth     = 3
	defaultTopN   = 20
	defaultCycles = 100
)

type searchHit struct {
	Name string `json:"name"`
	Repo string `json:"repo"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	hits := []searchHit{}
	if len(q) >= minQueryLen {
		for _, name := range s.graph.Packages() {
			if !strings.Contains(strings.ToLower(name), q) {
				continue
			}
			rec, _ := s.graph.Package(name)
			hits = append(hits, searchHit{Name: name, Repo: rec.Repo})
			if len(hits) == searchLimit {
				break
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": hits})
}

type packageDetail struct {
	Name         string      `json:"name"`
	Version      string      `json:"version"`
	Description  string      `json:"description"`
	URL          string      `json:"url"`
	License      string      `json:"license"`
	Repo         string      `json:"repo"`
	Maintainer   string      `json:"maintainer"`
	Provides     []string    `json:"provides"`
	Subpackages  []string    `json:"subpackages"`
	Depends      []searchHit `json:"depends"`
	MakeDepends  []searchHit `json:"makedepends"`
	CheckDepends []searchHit `json:"checkdepends"`
	Rdeps        []searchHit `json:"rdeps"`
	DepsCount    int         `json:"deps_count"`
	RdepsCount   int         `json:"rdeps_count"`
}

func (s *Server) handlePackage(w http.ResponseWriter, r *http.Request) {
	name, err := s.lookup(r, "name")
	if err != nil {
		writeError(w, err)
		return
	}
	done := observability.Query().OnQueryStart(r.Context(), "package", name)
	defer done(nil)

	rec, _ := s.graph.Package(name)
	deps := func(k depgraph.Kind) []searchHit {
		return s.withRepos(s.graph.Dependencies(name, k, false, depgraph.Unlimited))
	}
	rdeps := s.graph.ReverseDependencies(name, depgraph.All, false, depgraph.Unlimited)
	writeJSON(w, http.StatusOK, packageDetail{
		Name:         name,
		Version:      rec.FullVersion(),
		Description:  rec.Description,
		URL:          rec.URL,
		License:      rec.License,
		Repo:         rec.Repo,
		Maintainer:   rec.Maintainer,
		Provides:     rec.Provides,
		Subpackages:  rec.Subpackages,
		Depends:      deps(depgraph.Runtime),
		MakeDepends:  deps(depgraph.Build),
		CheckDepends: deps(depgraph.Check),
		Rdeps:        s.withRepos(rdeps),
		DepsCount:    len(s.graph.Dependencies(name, depgraph.All, false, depgraph.Unlimited)),
		RdepsCount:   len(rdeps),
	})
}

type graphNode struct {
	ID   string `json:"id"`
	Repo string `json:"repo"`
	Root bool   `json:"root,omitempty"`
}

type graphView struct {
	Nodes []graphNode     `json:"nodes"`
	Edges []depgraph.Edge `json:"edges"`
}

func (s *Server) handleGraph(reverse bool) http.HandlerFunc {
	query := "graph"
	if reverse {
		query = "rdeps-graph"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		name, err := s.lookup(r, "name")
		if err != nil {
			writeError(w, err)
			return
		}
		kind, depth, err := kindAndDepth(r, defaultDepth)
		if err != nil {
			writeError(w, err)
			return
		}
		done := observability.Query().OnQueryStart(r.Context(), query, name)
		defer done(nil)

		var sub *depgraph.Graph
		if reverse {
			sub = s.graph.ReverseSubgraph(name, kind, depth)
		} else {
			sub = s.graph.Subgraph([]string{name}, kind, depth)
		}
		writeJSON(w, http.StatusOK, view(sub, name))
	}
}

func view(g *depgraph.Graph, root string) graphView {
	v := graphView{Nodes: []graphNode{}, Edges: g.Edges()}
	for _, n := range g.Packages() {
		rec, _ := g.Package(n)
		v.Nodes = append(v.Nodes, graphNode{ID: n, Repo: rec.Repo, Root: n == root})
	}
	sort.Slice(v.Edges, func(i, j int) bool {
		a, b := v.Edges[i], v.Edges[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.To != b.To {
			return a.To < b.To
		}
		return a.Kind < b.Kind
	})
	return v
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	name, err := s.lookup(r, "name")
	if err != nil {
		writeError(w, err)
		return
	}
	kind, depth, err := kindAndDepth(r, treeDepth)
	if err != nil {
		writeError(w, err)
		return
	}
	done := observability.Query().OnQueryStart(r.Context(), "tree", name)
	defer done(nil)

	writeJSON(w, http.StatusOK, s.graph.Tree(name, kind, depth))
}

func (s *Server) handlePath(w http.ResponseWriter, r *http.Request) {
	from, err := s.lookup(r, "from")
	if err != nil {
		writeError(w, err)
		return
	}
	to, err := s.lookup(r, "to")
	if err != nil {
		writeError(w, err)
		return
	}
	done := observability.Query().OnQueryStart(r.Context(), "path", from)

	path, ok := s.graph.Path(from, to)
	if !ok {
		err := errors.New(errors.ErrCodeNotFound, "no dependency path from %s to %s", from, to)
		done(err)
		writeError(w, err)
		return
	}
	done(nil)
	writeJSON(w, http.StatusOK, map[string]any{"path": path})
}

func (s *Server) handleCycles(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", defaultCycles)
	if err != nil {
		writeError(w, err)
		return
	}
	done := observability.Query().OnQueryStart(r.Context(), "cycles", "")
	defer done(nil)

	cycles := s.graph.FindCyclesLimit(limit)
	if cycles == nil {
		cycles = [][]string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(cycles), "cycles": cycles})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	done := observability.Query().OnQueryStart(r.Context(), "stats", "")
	defer done(nil)

	byRepo := make(map[string]int)
	for _, n := range s.graph.Packages() {
		rec, _ := s.graph.Package(n)
		byRepo[rec.Repo]++
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"stats": s.graph.Statistics(),
		"repos": byRepo,
	})
}

func (s *Server) handleMostDepended(w http.ResponseWriter, r *http.Request) {
	n, err := intParam(r, "n", defaultTopN)
	if err != nil {
		writeError(w, err)
		return
	}
	done := observability.Query().OnQueryStart(r.Context(), "most-depended", "")
	defer done(nil)

	ranked := s.graph.MostDepended(n)
	if ranked == nil {
		ranked = []depgraph.Ranked{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"packages": ranked})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	name, err := s.lookup(r, "name")
	if err != nil {
		writeError(w, err)
		return
	}
	done := observability.Query().OnQueryStart(r.Context(), "analyze", name)
	defer done(nil)

	pa, _ := s.analyzer.AnalyzePackage(name)
	writeJSON(w, http.StatusOK, pa)
}

// lookup reads the URL parameter key as a package name and checks that
// the graph knows it.
func (s *Server) lookup(r *http.Request, key string) (string, error) {
	name := chi.URLParam(r, key)
	if err := errors.ValidatePackageName(name); err != nil {
		return "", err
	}
	if !s.graph.Has(name) {
		return "", errors.New(errors.ErrCodePackageNotFound, "package %q not found", name)
	}
	return name, nil
}

func (s *Server) withRepos(names []string) []searchHit {
	out := make([]searchHit, 0, len(names))
	for _, n := range names {
		hit := searchHit{Name: n}
		if rec, ok := s.graph.Package(n); ok {
			hit.Repo = rec.Repo
		}
		out = append(out, hit)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func kindAndDepth(r *http.Request, depthDefault int) (depgraph.Kind, int, error) {
	kind := depgraph.All
	if t := r.URL.Query().Get("type"); t != "" {
		k, err := depgraph.ParseKind(t)
		if err != nil {
			return 0, 0, err
		}
		kind = k
	}
	depth, err := intParam(r, "depth", depthDefault)
	if err != nil {
		return 0, 0, err
	}
	return kind, depth, nil
}

// intParam parses a non-negative integer query parameter.
func intParam(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "%s must be a non-negative integer, got %q", key, raw)
	}
	return n, nil
}

func errNotFound(path string) error {
	return errors.New(errors.ErrCodeNotFound, "no route for %s", path)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, errors.HTTPStatus(code), map[string]string{
		"error": errors.UserMessage(err),
		"code":  string(code),
	})
}
