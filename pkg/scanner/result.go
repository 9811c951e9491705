package scanner

import (
	"errors"
	"time"

	"github.com/matzehuels/depmap/pkg/apkbuild"
)

// Result is the outcome of a scan.
type Result struct {
	Root     string
	Repos    []string
	Packages map[string]*apkbuild.Package // keyed by canonical name
	Errors   []FileError                  // sorted by path
	ScanTime time.Duration

	TotalFiles int
	Successful int
	Failed     int
}

// FileError records a recipe that did not produce a package.
type FileError struct {
	Path    string `json:"path"`
	Message string `json:"error"`
	Err     error  `json:"-"`
}

func newFileError(path string, err error) FileError {
	return FileError{Path: path, Message: err.Error(), Err: err}
}

func (e FileError) Error() string { return e.Path + ": " + e.Message }

// Unwrap returns the underlying error. It is nil for errors decoded from
// a snapshot.
func (e FileError) Unwrap() error { return e.Err }

// NotAPackage reports whether the file was skipped for lacking a name.
func (e FileError) NotAPackage() bool { return errors.Is(e.Err, apkbuild.ErrNotAPackage) }

// Summary describes the packages of a scan.
type Summary struct {
	Packages       int            `json:"packages"`
	ByRepo         map[string]int `json:"by_repo"`
	TotalDeps      int            `json:"total_dependencies"`
	AvgDeps        float64        `json:"avg_dependencies"`
	MaxDeps        int            `json:"max_dependencies"`
	MaxDepsPackage string         `json:"max_dependencies_package"`
	Provides       int            `json:"provides"`
	Subpackages    int            `json:"subpackages"`
}

// Summary counts packages per repository and declared dependencies. The
// dependency count of a package is the size of its deduplicated runtime,
// build and check union; ties for the maximum go to the smaller name.
func (r *Result) Summary() Summary {
	s := Summary{Packages: len(r.Packages), ByRepo: make(map[string]int)}
	for name, p := range r.Packages {
		s.ByRepo[p.Repo]++
		s.Provides += len(p.Provides)
		s.Subpackages += len(p.Subpackages)

		n := len(p.AllDeps())
		s.TotalDeps += n
		if n > s.MaxDeps || (n == s.MaxDeps && n > 0 && name < s.MaxDepsPackage) {
			s.MaxDeps, s.MaxDepsPackage = n, name
		}
	}
	if s.Packages > 0 {
		s.AvgDeps = float64(s.TotalDeps) / float64(s.Packages)
	}
	return s
}
