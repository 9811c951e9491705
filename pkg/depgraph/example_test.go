package depgraph_test

import (
	"fmt"

	"github.com/matzehuels/depmap/pkg/apkbuild"
	"github.com/matzehuels/depmap/pkg/depgraph"
)

func records() map[string]*apkbuild.Package {
	mk := func(name string, deps ...string) *apkbuild.Package {
		p := &apkbuild.Package{Name: name, Depends: deps}
		p.Normalize()
		return p
	}
	musl := mk("musl")
	musl.Subpackages = []string{"musl-dev"}
	curl := mk("curl", "libcurl", "musl")
	curl.Subpackages = []string{"libcurl", "curl-dev"}
	curl.MakeDepends = []string{"musl-dev", "zlib-dev"}

	return map[string]*apkbuild.Package{
		"musl": musl,
		"curl": curl,
		"zlib": mk("zlib", "musl"),
		"git":  mk("git", "curl", "zlib"),
	}
}

func ExampleGraph_Dependencies() {
	g := depgraph.New(records())

	fmt.Println("direct:", g.Dependencies("git", depgraph.All, false, depgraph.Unlimited))
	fmt.Println("recursive:", g.Dependencies("git", depgraph.All, true, depgraph.Unlimited))
	fmt.Println("reverse:", g.ReverseDependencies("musl", depgraph.Runtime, false, depgraph.Unlimited))
	fmt.Println("unresolved:", len(g.Unresolved()))
	// Output:
	// direct: [curl zlib]
	// recursive: [curl musl zlib]
	// reverse: [curl zlib]
	// unresolved: 1
}

func ExampleGraph_Path() {
	g := depgraph.New(records())

	path, ok := g.Path("git", "musl")
	fmt.Println(path, ok)
	_, ok = g.Path("musl", "git")
	fmt.Println(ok)
	// Output:
	// [git curl musl] true
	// false
}

func ExampleGraph_Statistics() {
	s := depgraph.New(records()).Statistics()

	fmt.Println("nodes:", s.Nodes)
	fmt.Println("edges:", s.Edges)
	fmt.Println("acyclic:", s.IsAcyclic)
	// Output:
	// nodes: 4
	// edges: 5
	// acyclic: true
}
