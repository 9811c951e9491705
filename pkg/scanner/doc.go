// Package scanner walks an aports checkout and parses every recipe.
//
// The layout it expects is the one used by Alpine:
//
//	<root>/<repo>/<package>/APKBUILD
//
// Repositories are visited in the order given by [Options.Repos]. When two
// recipes declare the same canonical name, the one from the earlier
// repository is kept; within a repository the lexicographically smaller
// path wins. The other recipe is reported as a [FileError].
//
// Files are parsed by a bounded pool of goroutines. Parsed records are
// stored in a [cache.Cache] keyed by path and content hash, so an unchanged
// tree rescans without parsing. Failures are never cached.
//
//	s := scanner.New(cache, nil, logger)
//	res, err := s.Scan(ctx, "/src/aports", scanner.Options{Workers: 8})
//	g := depgraph.New(res.Packages)
package scanner
