package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/depmap/pkg/analyzer"
	"github.com/matzehuels/depmap/pkg/depgraph"
	"github.com/matzehuels/depmap/pkg/errors"
)

var fixtureRecipes = map[string]string{
	"main/musl": `pkgname=musl
pkgver=1.2.5
pkgrel=2
pkgdesc="the musl c library"
subpackages="$pkgname-dev musl-utils"
`,
	"main/zlib": `pkgname=zlib
pkgver=1.3.1
pkgrel=0
depends="musl"
makedepends="musl-dev"
subpackages="$pkgname-dev"
`,
	"main/curl": `pkgname=curl
pkgver=8.9.1
pkgrel=0
depends="libcurl musl"
makedepends="zlib-dev"
subpackages="$pkgname-dev libcurl"
`,
	"community/git": `pkgname=git
pkgver=2.46.0
pkgrel=1
depends="curl zlib"
checkdepends="python3"
`,
	"community/py3-foo": `pkgname=py3-foo
pkgver=1.0
pkgrel=0
depends="py3-bar"
`,
	"community/py3-bar": `pkgname=py3-bar
pkgver=1.0
pkgrel=0
depends="py3-foo"
`,
}

// setupAports writes the fixture tree and points the cache and config
// directories at fresh temporary ones.
func setupAports(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	root := t.TempDir()
	for dir, body := range fixtureRecipes {
		path := filepath.Join(root, dir, "APKBUILD")
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

// run executes the CLI and returns what it printed.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	prev := stdout
	stdout = &out
	defer func() { stdout = prev }()

	root := New(io.Discard, LogInfo).RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func runJSON(t *testing.T, v any, args ...string) {
	t.Helper()
	out, err := run(t, args...)
	if err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	if err := json.Unmarshal([]byte(out), v); err != nil {
		t.Fatalf("%v: decode %q: %v", args, out, err)
	}
}

func scanFixture(t *testing.T) string {
	t.Helper()
	root := setupAports(t)
	out, err := run(t, "scan", "--aports", root)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !strings.Contains(out, "Scanned 6 recipes") {
		t.Errorf("scan output = %q", out)
	}
	return root
}

func TestCommandsWithoutSnapshot(t *testing.T) {
	setupAports(t)
	for _, args := range [][]string{{"stats"}, {"deps", "curl"}, {"report"}} {
		_, err := run(t, args...)
		if !errors.Is(err, errors.ErrCodeNotFound) || !strings.Contains(err.Error(), "depmap scan") {
			t.Errorf("%v error = %v, want hint to scan", args, err)
		}
	}
}

func TestScanRequiresAports(t *testing.T) {
	setupAports(t)
	if _, err := run(t, "scan"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("scan without aports error = %v, want INVALID_INPUT", err)
	}
}

func TestScanJSONSummary(t *testing.T) {
	root := setupAports(t)
	var sum struct {
		Packages int            `json:"packages"`
		ByRepo   map[string]int `json:"by_repo"`
	}
	runJSON(t, &sum, "scan", "--aports", root, "--json", "--workers", "2")
	if sum.Packages != 6 {
		t.Errorf("packages = %d, want 6", sum.Packages)
	}
	if diff := cmp.Diff(map[string]int{"main": 3, "community": 3}, sum.ByRepo); diff != "" {
		t.Errorf("by_repo mismatch (-want +got):\n%s", diff)
	}
}

func TestScanPackage(t *testing.T) {
	root := setupAports(t)
	var rec struct {
		Name        string   `json:"name"`
		Repo        string   `json:"repo"`
		Subpackages []string `json:"subpackages"`
	}
	runJSON(t, &rec, "scan", "--aports", root, "--package", "curl", "--json")
	if rec.Name != "curl" || rec.Repo != "main" {
		t.Errorf("record = %+v", rec)
	}
	if diff := cmp.Diff([]string{"curl-dev", "libcurl"}, rec.Subpackages); diff != "" {
		t.Errorf("subpackages mismatch (-want +got):\n%s", diff)
	}

	if _, err := run(t, "scan", "--aports", root, "--package", "nope"); !errors.Is(err, errors.ErrCodePackageNotFound) {
		t.Errorf("scan --package nope error = %v", err)
	}
}

func TestDepsCommands(t *testing.T) {
	scanFixture(t)

	tests := []struct {
		args []string
		want []string
	}{
		{[]string{"deps", "git", "--json"}, []string{"curl", "zlib"}},
		{[]string{"deps", "git", "-r", "--json"}, []string{"curl", "musl", "zlib"}},
		{[]string{"deps", "curl", "--type", "build", "--json"}, []string{"zlib"}},
		{[]string{"rdeps", "musl", "--json"}, []string{"curl", "zlib"}},
		{[]string{"rdeps", "musl", "-r", "--json"}, []string{"curl", "git", "zlib"}},
		{[]string{"rdeps", "git", "--json"}, []string{}},
	}
	for _, tt := range tests {
		var got []string
		runJSON(t, &got, tt.args...)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("%v mismatch (-want +got):\n%s", tt.args, diff)
		}
	}
}

func TestDepsErrors(t *testing.T) {
	scanFixture(t)

	if _, err := run(t, "deps", "nope"); !errors.Is(err, errors.ErrCodePackageNotFound) {
		t.Errorf("deps nope error = %v", err)
	}
	if _, err := run(t, "deps", "git", "--type", "optional"); !errors.Is(err, errors.ErrCodeInvalidKind) {
		t.Errorf("deps --type optional error = %v", err)
	}
	if _, err := run(t, "path", "musl", "git"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("path musl git error = %v", err)
	}
}

func TestDepsTree(t *testing.T) {
	scanFixture(t)

	var tree depgraph.TreeNode
	runJSON(t, &tree, "deps", "git", "--tree", "--type", "runtime", "--json")
	if tree.Name != "git" || len(tree.Children) != 2 || tree.Size() != 5 {
		t.Errorf("tree = %+v (size %d)", tree, tree.Size())
	}

	out, err := run(t, "deps", "git", "--tree", "--type", "runtime")
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"git", "curl", "zlib", "musl", "5 nodes"} {
		if !strings.Contains(out, name) {
			t.Errorf("tree output missing %q:\n%s", name, out)
		}
	}
}

func TestPathAndCycles(t *testing.T) {
	scanFixture(t)

	var path []string
	runJSON(t, &path, "path", "git", "musl", "--json")
	if len(path) != 3 || path[0] != "git" || path[2] != "musl" {
		t.Errorf("path = %v", path)
	}

	var cycles [][]string
	runJSON(t, &cycles, "cycles", "--json")
	if len(cycles) != 1 || len(cycles[0]) != 2 {
		t.Errorf("cycles = %v, want the py3-foo/py3-bar loop", cycles)
	}
}

func TestStatsAndAnalyze(t *testing.T) {
	scanFixture(t)

	var st depgraph.Stats
	runJSON(t, &st, "stats", "--json")
	if st.Nodes != 6 || st.IsAcyclic || st.Unresolved != 1 {
		t.Errorf("stats = %+v", st)
	}

	var pa struct {
		analyzer.PackageAnalysis
		Install analyzer.InstallEstimate `json:"install"`
		Unique  []string                 `json:"unique_deps"`
	}
	runJSON(t, &pa, "analyze", "git", "--compare", "zlib", "--json")
	if pa.Version != "2.46.0-r1" || pa.DirectDeps != 2 || pa.TotalDeps != 3 || pa.Depth != 2 {
		t.Errorf("analysis = %+v", pa.PackageAnalysis)
	}
	if pa.Install.Packages != 4 {
		t.Errorf("install estimate = %+v, want 4 packages", pa.Install)
	}
	if diff := cmp.Diff([]string{"curl", "zlib"}, pa.Unique); diff != "" {
		t.Errorf("unique deps mismatch (-want +got):\n%s", diff)
	}

	var ra analyzer.RepoAnalysis
	runJSON(t, &ra, "analyze", "--repo", "main", "--json")
	if ra.Packages != 3 {
		t.Errorf("repo analysis = %+v", ra)
	}

	if _, err := run(t, "analyze"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("analyze without args error = %v", err)
	}
}

func TestReportToFile(t *testing.T) {
	scanFixture(t)
	path := filepath.Join(t.TempDir(), "report.json")

	if _, err := run(t, "report", "-o", path); err != nil {
		t.Fatalf("report: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var rep analyzer.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if rep.Summary.Packages != 6 || rep.CycleCount != 1 || len(rep.Repos) != 2 {
		t.Errorf("report = %+v", rep.Summary)
	}
}

func TestVisualizeDOT(t *testing.T) {
	scanFixture(t)

	out, err := run(t, "visualize", "git", "--format", "dot", "--depth", "1")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"digraph", `"git" -> "curl"`, `"git" -> "zlib"`} {
		if !strings.Contains(out, want) {
			t.Errorf("DOT output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, `"musl"`) {
		t.Errorf("depth 1 DOT includes musl:\n%s", out)
	}

	if _, err := run(t, "visualize", "git", "--format", "gif"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("visualize --format gif error = %v", err)
	}
}

func TestFormatFromOutput(t *testing.T) {
	tests := map[string]string{
		"":          formatSVG,
		"graph.dot": formatDOT,
		"graph.PDF": formatPDF,
		"a/b.png":   formatPNG,
		"graph.txt": formatSVG,
	}
	for in, want := range tests {
		if got := formatFromOutput(in); got != want {
			t.Errorf("formatFromOutput(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCacheCommands(t *testing.T) {
	scanFixture(t)

	out, err := run(t, "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	dir := strings.TrimSpace(out)
	if filepath.Base(dir) != appName {
		t.Errorf("cache path = %q", dir)
	}

	out, err = run(t, "cache", "clear")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Cleared 6 cached entries") {
		t.Errorf("cache clear output = %q", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "snapshot.json")); err != nil {
		t.Errorf("snapshot removed by cache clear: %v", err)
	}
}

func TestCompletion(t *testing.T) {
	out, err := run(t, "completion", "bash")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "depmap") {
		t.Error("bash completion does not mention depmap")
	}
}

func TestBrowseModel(t *testing.T) {
	scanFixture(t)
	c := New(io.Discard, LogInfo)
	g, err := c.loadGraph(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	m := NewBrowseModel(g, analyzer.New(g, analyzer.Options{}), 3)
	if len(m.Rows) != 3 || m.Rows[0].Name != "musl" || m.Rows[0].Rdeps != 3 {
		t.Fatalf("rows = %+v", m.Rows)
	}

	key := func(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }
	next, _ := m.Update(key("j"))
	m = next.(BrowseModel)
	if m.Cursor != 1 {
		t.Errorf("Cursor = %d after j, want 1", m.Cursor)
	}
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(BrowseModel)
	if m.Detail == nil || m.Detail.Name != m.Rows[1].Name {
		t.Fatalf("Detail = %+v, want %s", m.Detail, m.Rows[1].Name)
	}
	if !strings.Contains(m.View(), m.Rows[1].Name) {
		t.Error("detail view does not show the package")
	}
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if next.(BrowseModel).Detail != nil {
		t.Error("esc did not close the detail view")
	}
	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Error("q did not quit")
	}
}
