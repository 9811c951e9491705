package depgraph

import (
	"math/bits"
	"sort"
)

// Ranked pairs a package with a count.
type Ranked struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// MostDepended ranks packages by the size of their recursive reverse
// dependency set, largest first, ties by name. topN <= 0 returns all.
func (g *Graph) MostDepended(topN int) []Ranked {
	return top(g.nodes, g.closureSizes(true), topN)
}

// MostDependencies ranks packages by the size of their recursive
// dependency set, largest first, ties by name. topN <= 0 returns all.
func (g *Graph) MostDependencies(topN int) []Ranked {
	return top(g.nodes, g.closureSizes(false), topN)
}

// RecursiveCounts returns, for every package, the size of its recursive
// dependency set (or reverse dependency set when reverse is set) over all
// edge kinds.
func (g *Graph) RecursiveCounts(reverse bool) map[string]int {
	sizes := g.closureSizes(reverse)
	out := make(map[string]int, len(sizes))
	for i, n := range g.nodes {
		out[n] = sizes[i]
	}
	return out
}

func top(names []string, sizes []int, n int) []Ranked {
	out := make([]Ranked, len(names))
	for i, name := range names {
		out[i] = Ranked{Name: name, Count: sizes[i]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// closureSizes computes every node's transitive closure size in one pass
// over the component DAG instead of one traversal per node.
func (g *Graph) closureSizes(reverse bool) []int {
	n := len(g.nodes)
	sizes := make([]int, n)
	if n == 0 {
		return sizes
	}
	adj := g.adjacency(reverse)
	id, members := components(adj)

	// Tarjan numbers components so that successors come first.
	reach := make([]bitset, len(members))
	for c, comp := range members {
		r := newBitset(n)
		for _, v := range comp {
			for _, w := range adj[v] {
				d := id[w]
				if d == c {
					continue
				}
				r.or(reach[d])
				for _, m := range members[d] {
					r.set(m)
				}
			}
		}
		reach[c] = r
		size := r.count() + len(comp) - 1
		for _, v := range comp {
			sizes[v] = size
		}
	}
	return sizes
}

type bitset []uint64

func newBitset(n int) bitset { return make(bitset, (n+63)/64) }

func (b bitset) set(i int) { b[i/64] |= 1 << (uint(i) % 64) }

func (b bitset) or(o bitset) {
	for i := range o {
		b[i] |= o[i]
	}
}

func (b bitset) count() int {
	c := 0
	for _, w := range b {
		c += bits.OnesCount64(w)
	}
	return c
}
