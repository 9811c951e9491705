package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/depmap/pkg/apkbuild"
	"github.com/matzehuels/depmap/pkg/cache"
	depmaperrors "github.com/matzehuels/depmap/pkg/errors"
	"github.com/matzehuels/depmap/pkg/observability"
)

// writeTree creates an aports layout from "repo/pkg" -> recipe content.
func writeTree(t *testing.T, recipes map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range recipes {
		dir := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, RecipeFile), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func fixture(t *testing.T) string {
	return writeTree(t, map[string]string{
		"main/musl": `pkgname=musl
pkgver=1.2.5
pkgrel=2
subpackages="$pkgname-dev musl-utils"
`,
		"main/zlib": `pkgname=zlib
pkgver=1.3.1
pkgrel=0
depends="musl"
`,
		"community/curl": `pkgname=curl
pkgver=8.9.0
pkgrel=1
depends="musl zlib"
makedepends="zlib-dev openssl-dev"
checkdepends="python3"
`,
		// shadowed by main/zlib
		"community/zlib": `pkgname=zlib
pkgver=9.9
`,
		"testing/notes": "# just a comment\n",
	})
}

func TestScan(t *testing.T) {
	root := fixture(t)
	res, err := New(nil, nil, nil).Scan(context.Background(), root, Options{Workers: 2})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	names := make([]string, 0, len(res.Packages))
	for n := range res.Packages {
		names = append(names, n)
	}
	sort.Strings(names)
	if diff := cmp.Diff([]string{"curl", "musl", "zlib"}, names); diff != "" {
		t.Errorf("packages mismatch (-want +got):\n%s", diff)
	}

	if got := res.Packages["zlib"].Version; got != "1.3.1" {
		t.Errorf("zlib version = %q, want main's 1.3.1", got)
	}
	if got := res.Packages["curl"].Repo; got != "community" {
		t.Errorf("curl repo = %q, want community", got)
	}
	if res.TotalFiles != 5 || res.Successful != 3 || res.Failed != 2 {
		t.Errorf("counts = %d/%d/%d, want 5/3/2", res.TotalFiles, res.Successful, res.Failed)
	}

	var dup, skipped int
	for _, fe := range res.Errors {
		switch {
		case errors.Is(fe, ErrDuplicate):
			dup++
			if filepath.Base(filepath.Dir(filepath.Dir(fe.Path))) != "community" {
				t.Errorf("duplicate reported for %s, want the community copy", fe.Path)
			}
		case fe.NotAPackage():
			skipped++
		}
	}
	if dup != 1 || skipped != 1 {
		t.Errorf("errors = %+v, want one duplicate and one non-package", res.Errors)
	}
	if diff := cmp.Diff([]string{"main", "community", "testing"}, res.Repos); diff != "" {
		t.Errorf("repos mismatch (-want +got):\n%s", diff)
	}
}

func TestScanRepoOrderDecidesDuplicates(t *testing.T) {
	root := fixture(t)
	res, err := New(nil, nil, nil).Scan(context.Background(), root, Options{Repos: []string{"community", "main"}})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if got := res.Packages["zlib"].Version; got != "9.9" {
		t.Errorf("zlib version = %q, want community's 9.9", got)
	}
}

func TestScanMissingRepoSkipped(t *testing.T) {
	root := fixture(t)
	res, err := New(nil, nil, nil).Scan(context.Background(), root, Options{Repos: []string{"main", "edge-extras"}})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if res.Successful != 2 {
		t.Errorf("Successful = %d, want 2", res.Successful)
	}
}

func TestScanMissingRoot(t *testing.T) {
	_, err := New(nil, nil, nil).Scan(context.Background(), filepath.Join(t.TempDir(), "nope"), Options{})
	if !depmaperrors.Is(err, depmaperrors.ErrCodeFileNotFound) {
		t.Errorf("err = %v, want FILE_NOT_FOUND", err)
	}
}

func TestScanInvalidRepo(t *testing.T) {
	_, err := New(nil, nil, nil).Scan(context.Background(), t.TempDir(), Options{Repos: []string{"../etc"}})
	if err == nil {
		t.Error("Scan with traversal repo succeeded")
	}
}

func TestScanCancelled(t *testing.T) {
	root := fixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(nil, nil, nil).Scan(ctx, root, Options{}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestScanProgress(t *testing.T) {
	root := fixture(t)
	var calls []int
	_, err := New(nil, nil, nil).Scan(context.Background(), root, Options{
		Workers:  3,
		Progress: func(done, total int, _ string) { calls = append(calls, done*10+total) },
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if diff := cmp.Diff([]int{15, 25, 35, 45, 55}, calls); diff != "" {
		t.Errorf("progress mismatch (-want +got):\n%s", diff)
	}
}

type countingHooks struct {
	observability.NoopCacheHooks
	mu           sync.Mutex
	hits, misses int
}

func (h *countingHooks) OnCacheHit(context.Context, string) {
	h.mu.Lock()
	h.hits++
	h.mu.Unlock()
}

func (h *countingHooks) OnCacheMiss(context.Context, string) {
	h.mu.Lock()
	h.misses++
	h.mu.Unlock()
}

func TestScanUsesCache(t *testing.T) {
	hooks := &countingHooks{}
	observability.SetCacheHooks(hooks)
	t.Cleanup(observability.Reset)

	root := fixture(t)
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s := New(c, nil, nil)

	first, err := s.Scan(context.Background(), root, Options{CacheTTL: time.Hour})
	if err != nil {
		t.Fatalf("first Scan: %v", err)
	}
	second, err := s.Scan(context.Background(), root, Options{CacheTTL: time.Hour})
	if err != nil {
		t.Fatalf("second Scan: %v", err)
	}

	if diff := cmp.Diff(first.Packages, second.Packages); diff != "" {
		t.Errorf("cached scan differs (-first +second):\n%s", diff)
	}
	// Four recipes parse successfully (the shadowed zlib included); the
	// comment-only file is never cached and misses both times.
	if hooks.hits != 4 || hooks.misses != 6 {
		t.Errorf("hits=%d misses=%d, want 4 6", hooks.hits, hooks.misses)
	}
}

func TestScanCacheInvalidatedByContent(t *testing.T) {
	root := writeTree(t, map[string]string{"main/zlib": "pkgname=zlib\npkgver=1\n"})
	c, _ := cache.NewFileCache(t.TempDir())
	s := New(c, nil, nil)

	if _, err := s.Scan(context.Background(), root, Options{}); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(filepath.Join(root, "main", "zlib", RecipeFile), []byte("pkgname=zlib\npkgver=2\n"), 0o644)
	res, err := s.Scan(context.Background(), root, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Packages["zlib"].Version; got != "2" {
		t.Errorf("version = %q, want 2 after edit", got)
	}
}

func TestScanPackage(t *testing.T) {
	root := fixture(t)
	s := New(nil, nil, nil)

	rec, err := s.ScanPackage(context.Background(), root, "curl", Options{})
	if err != nil {
		t.Fatalf("ScanPackage: %v", err)
	}
	want := []string{"zlib-dev", "openssl-dev"}
	if diff := cmp.Diff(want, rec.MakeDepends); diff != "" {
		t.Errorf("makedepends mismatch (-want +got):\n%s", diff)
	}

	if _, err := s.ScanPackage(context.Background(), root, "gcc", Options{}); !depmaperrors.Is(err, depmaperrors.ErrCodePackageNotFound) {
		t.Errorf("ScanPackage(gcc) err = %v, want PACKAGE_NOT_FOUND", err)
	}
	if _, err := s.ScanPackage(context.Background(), root, "../main", Options{}); !depmaperrors.Is(err, depmaperrors.ErrCodeInvalidPackage) {
		t.Errorf("ScanPackage(../main) err = %v, want INVALID_PACKAGE", err)
	}
}

func TestSummary(t *testing.T) {
	mk := func(name, repo string, deps ...string) *apkbuild.Package {
		p := &apkbuild.Package{Name: name, Repo: repo, Depends: deps}
		p.Normalize()
		return p
	}
	res := &Result{Packages: map[string]*apkbuild.Package{
		"a": mk("a", "main", "x", "y"),
		"b": mk("b", "main", "x", "z"),
		"c": mk("c", "community"),
	}}
	res.Packages["a"].Provides = []string{"cmd:a"}
	res.Packages["c"].Subpackages = []string{"c-doc", "c-dev"}

	want := Summary{
		Packages:       3,
		ByRepo:         map[string]int{"main": 2, "community": 1},
		TotalDeps:      4,
		AvgDeps:        4.0 / 3.0,
		MaxDeps:        2,
		MaxDepsPackage: "a",
		Provides:       1,
		Subpackages:    2,
	}
	if diff := cmp.Diff(want, res.Summary()); diff != "" {
		t.Errorf("Summary() mismatch (-want +got):\n%s", diff)
	}
}
