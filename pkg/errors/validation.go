package errors

import (
	"strings"
	"unicode"
)

// ValidatePackageName validates a user-supplied package name before it is
// used as a lookup key, a file name, or a cache key.
//
// The rules are conservative:
//   - No empty names
//   - No control characters or null bytes
//   - No path separators or traversal sequences
//   - Maximum length of 256 characters
//
// A name that passes may still be unknown to the graph.
func ValidatePackageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPackage, "package name cannot be empty")
	}
	if len(name) > 256 {
		return New(ErrCodeInvalidPackage, "package name too long (max 256 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPackage, "package name contains invalid control characters")
		}
	}
	for _, pattern := range []string{"..", "/", "\\"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidPackage, "package name contains invalid characters: %q", pattern)
		}
	}
	return nil
}

// ValidateRepoName validates a repository directory name such as "main"
// or "community". It must be a single path component.
func ValidateRepoName(repo string) error {
	if repo == "" {
		return New(ErrCodeInvalidInput, "repository name cannot be empty")
	}
	if repo == "." || strings.ContainsAny(repo, "/\\") || strings.Contains(repo, "..") {
		return New(ErrCodeInvalidPath, "repository name must be a single directory name: %q", repo)
	}
	for _, r := range repo {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidPath, "repository name contains invalid characters: %q", repo)
		}
	}
	return nil
}
