// Package pkg holds the depmap libraries for mapping dependencies between
// Alpine Linux packages.
//
// # Overview
//
// depmap reads the APKBUILD recipes of an aports checkout and builds a
// directed graph between packages. The libraries are layered:
//
//  1. [shellvar] and [apkbuild] - recipe parsing without running a shell
//  2. [resolve] - mapping dependency tokens (provides, split packages) to
//     the packages that own them
//  3. [depgraph] - the typed graph and its queries
//  4. [analyzer] - per-package, per-repository and whole-graph reports
//
// and are supported by [scanner] (parallel repository walk), [cache]
// (parse cache), [store] (snapshots), [render/dot] (Graphviz output) and
// [server] (HTTP API).
//
// # Architecture
//
//	aports/<repo>/<pkg>/APKBUILD
//	         ↓
//	    [scanner] + [apkbuild]  (parse, cached by content)
//	         ↓
//	    [store]                 (snapshot)
//	         ↓
//	    [resolve] + [depgraph]  (graph)
//	         ↓
//	    [analyzer], [render/dot], [server]
//
// # Quick Start
//
//	sc := scanner.New(nil, nil, nil)
//	res, err := sc.Scan(ctx, "/src/aports", scanner.Options{})
//	if err != nil {
//	    return err
//	}
//	g := depgraph.New(res.Packages)
//	deps := g.Dependencies("curl", depgraph.Runtime, true, depgraph.Unlimited)
//
// [shellvar]: https://pkg.go.dev/github.com/matzehuels/depmap/pkg/shellvar
// [apkbuild]: https://pkg.go.dev/github.com/matzehuels/depmap/pkg/apkbuild
// [resolve]: https://pkg.go.dev/github.com/matzehuels/depmap/pkg/resolve
// [depgraph]: https://pkg.go.dev/github.com/matzehuels/depmap/pkg/depgraph
// [analyzer]: https://pkg.go.dev/github.com/matzehuels/depmap/pkg/analyzer
// [scanner]: https://pkg.go.dev/github.com/matzehuels/depmap/pkg/scanner
// [cache]: https://pkg.go.dev/github.com/matzehuels/depmap/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/depmap/pkg/store
// [render/dot]: https://pkg.go.dev/github.com/matzehuels/depmap/pkg/render/dot
// [server]: https://pkg.go.dev/github.com/matzehuels/depmap/pkg/server
package pkg
