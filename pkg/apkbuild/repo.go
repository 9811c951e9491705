package apkbuild

import (
	"path/filepath"
	"slices"
	"strings"
)

// Repos are the aports collections recognised in recipe paths, in their
// conventional precedence order.
var Repos = []string{"main", "community", "testing", "unmaintained"}

// DetectRepo returns the repository a recipe path belongs to: the nearest
// ancestor directory named after one of [Repos]. It returns "" if there
// is none.
func DetectRepo(path string) string {
	if path == "" {
		return ""
	}
	parts := strings.Split(filepath.ToSlash(filepath.Clean(path)), "/")
	for i := len(parts) - 2; i >= 0; i-- {
		if slices.Contains(Repos, parts[i]) {
			return parts[i]
		}
	}
	return ""
}
