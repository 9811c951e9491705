package scanner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/depmap/pkg/apkbuild"
	"github.com/matzehuels/depmap/pkg/cache"
	depmaperrors "github.com/matzehuels/depmap/pkg/errors"
	"github.com/matzehuels/depmap/pkg/observability"
)

// RecipeFile is the file name of a package recipe.
const RecipeFile = "APKBUILD"

// DefaultRepos are scanned when Options.Repos is empty.
var DefaultRepos = []string{"main", "community", "testing"}

// ErrDuplicate marks a recipe whose canonical name is already taken by a
// recipe with higher precedence.
var ErrDuplicate = errors.New("duplicate package name")

// Options configures a scan.
type Options struct {
	Repos    []string      // repositories in precedence order
	Workers  int           // parse concurrency, default GOMAXPROCS
	CacheTTL time.Duration // lifetime of cached records, 0 for none

	// Progress is called after each file with the number of files done.
	// Calls are serialised.
	Progress func(done, total int, path string)
}

func (o Options) withDefaults() Options {
	if len(o.Repos) == 0 {
		o.Repos = DefaultRepos
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	return o
}

// Scanner parses recipes with caching. It holds no per-scan state and may
// be shared.
type Scanner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// New creates a scanner. A nil cache disables caching, a nil keyer means
// the default one and a nil logger discards output.
func New(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Scanner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Scanner{Cache: c, Keyer: keyer, Logger: logger}
}

// RecipeRef locates one recipe.
type RecipeRef struct {
	Repo string
	Path string
}

// Discover lists the recipes below root in precedence order. Missing
// repository directories are skipped with a warning; a missing root is an
// error.
func (s *Scanner) Discover(root string, repos []string) ([]RecipeRef, error) {
	if fi, err := os.Stat(root); err != nil {
		return nil, depmaperrors.Wrap(depmaperrors.ErrCodeFileNotFound, err, "aports root %s", root)
	} else if !fi.IsDir() {
		return nil, depmaperrors.New(depmaperrors.ErrCodeInvalidPath, "aports root %s is not a directory", root)
	}

	var refs []RecipeRef
	for _, repo := range repos {
		if err := depmaperrors.ValidateRepoName(repo); err != nil {
			return nil, err
		}
		entries, err := os.ReadDir(filepath.Join(root, repo))
		if errors.Is(err, fs.ErrNotExist) {
			s.Logger.Warn("repository not found, skipping", "repo", repo)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read repository %s: %w", repo, err)
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			path := filepath.Join(root, repo, e.Name(), RecipeFile)
			if fi, err := os.Stat(path); err == nil && fi.Mode().IsRegular() {
				refs = append(refs, RecipeRef{Repo: repo, Path: path})
			}
		}
	}
	return refs, nil
}

type outcome struct {
	rec *apkbuild.Package
	err error
}

// Scan discovers and parses every recipe below root. Parse failures are
// collected in the result; only discovery errors and context cancellation
// fail the scan.
func (s *Scanner) Scan(ctx context.Context, root string, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	start := time.Now()

	refs, err := s.Discover(root, opts.Repos)
	if err != nil {
		return nil, err
	}
	s.Logger.Debug("discovered recipes", "root", root, "files", len(refs))
	observability.Scan().OnScanStart(ctx, root, len(refs))

	outcomes := make([]outcome, len(refs))
	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, ref := range refs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t := time.Now()
			rec, err := s.parse(gctx, ref, opts.CacheTTL)
			observability.Scan().OnFileParsed(gctx, ref.Path, time.Since(t), err)
			outcomes[i] = outcome{rec: rec, err: err}

			if opts.Progress != nil {
				mu.Lock()
				done++
				opts.Progress(done, len(refs), ref.Path)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := s.merge(refs, outcomes)
	res.Root = root
	res.Repos = append([]string(nil), opts.Repos...)
	res.ScanTime = time.Since(start)

	observability.Scan().OnScanComplete(ctx, res.Successful, res.Failed, res.ScanTime)
	s.Logger.Info("scan complete",
		"packages", res.Successful,
		"failed", res.Failed,
		"duration", res.ScanTime.Round(time.Millisecond))
	return res, nil
}

// merge folds outcomes into a Result. refs are in precedence order, so the
// first record to claim a name keeps it.
func (s *Scanner) merge(refs []RecipeRef, outcomes []outcome) *Result {
	res := &Result{
		Packages:   make(map[string]*apkbuild.Package),
		Errors:     []FileError{},
		TotalFiles: len(refs),
	}
	for i, o := range outcomes {
		path := refs[i].Path
		if o.err != nil {
			if errors.Is(o.err, apkbuild.ErrNotAPackage) {
				s.Logger.Debug("skipping non-package", "path", path)
			} else {
				s.Logger.Debug("parse failed", "path", path, "err", o.err)
			}
			res.Errors = append(res.Errors, newFileError(path, o.err))
			continue
		}
		if kept, dup := res.Packages[o.rec.Name]; dup {
			err := fmt.Errorf("%w: %s already defined by %s", ErrDuplicate, o.rec.Name, kept.FilePath)
			s.Logger.Warn("duplicate package", "name", o.rec.Name, "kept", kept.FilePath, "dropped", path)
			res.Errors = append(res.Errors, newFileError(path, err))
			continue
		}
		res.Packages[o.rec.Name] = o.rec
	}
	res.Successful = len(res.Packages)
	res.Failed = len(res.Errors)
	sort.Slice(res.Errors, func(i, j int) bool { return res.Errors[i].Path < res.Errors[j].Path })
	return res
}

// parse reads one recipe, consulting the cache first.
func (s *Scanner) parse(ctx context.Context, ref RecipeRef, ttl time.Duration) (*apkbuild.Package, error) {
	data, err := os.ReadFile(ref.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ref.Path, err)
	}
	key := s.Keyer.RecordKey(ref.Path, cache.Hash(data))

	var rec apkbuild.Package
	if err := cache.GetJSON(ctx, s.Cache, key, &rec); err == nil {
		observability.Cache().OnCacheHit(ctx, "apkbuild")
		return &rec, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.Logger.Debug("cache read failed", "path", ref.Path, "err", err)
	}
	observability.Cache().OnCacheMiss(ctx, "apkbuild")

	parsed, err := apkbuild.Parse(string(data), ref.Path)
	if err != nil {
		return nil, err
	}
	if parsed.Repo == "" {
		parsed.Repo = ref.Repo
	}
	if err := cache.SetJSON(ctx, s.Cache, key, parsed, ttl); err != nil {
		s.Logger.Debug("cache write failed", "path", ref.Path, "err", err)
	}
	return parsed, nil
}

// ScanPackage parses the recipe of a single package, looking in each
// repository in order. name is the recipe directory name.
func (s *Scanner) ScanPackage(ctx context.Context, root, name string, opts Options) (*apkbuild.Package, error) {
	if err := depmaperrors.ValidatePackageName(name); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	for _, repo := range opts.Repos {
		path := filepath.Join(root, repo, name, RecipeFile)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		return s.parse(ctx, RecipeRef{Repo: repo, Path: path}, opts.CacheTTL)
	}
	return nil, depmaperrors.New(depmaperrors.ErrCodePackageNotFound, "no recipe for %q in %v", name, opts.Repos)
}
