package depgraph

// IsAcyclic reports whether the graph, ignoring edge kinds, has no cycle.
func (g *Graph) IsAcyclic() bool {
	return len(g.backEdges()) == 0
}

// backEdges returns the DFS back edges of the graph, visiting nodes in
// name order.
func (g *Graph) backEdges() [][2]string {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(g.nodes))
	var back [][2]string

	var dfs func(node string)
	dfs = func(node string) {
		color[node] = gray
		for _, child := range g.successors(node, All) {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				back = append(back, [2]string{node, child})
			}
		}
		color[node] = black
	}

	for _, n := range g.nodes {
		if color[n] == white {
			dfs(n)
		}
	}
	return back
}

// FindCycles returns every elementary cycle, ignoring edge kinds. Each
// cycle starts at its smallest node name and lists nodes in edge order;
// the closing edge back to the first node is implied. Cycles are ordered
// by their first node, then discovery order.
func (g *Graph) FindCycles() [][]string {
	return g.FindCyclesLimit(0)
}

// FindCyclesLimit is [Graph.FindCycles] stopping after limit cycles.
// limit <= 0 means no limit.
func (g *Graph) FindCyclesLimit(limit int) [][]string {
	n := len(g.nodes)
	if n == 0 || g.IsAcyclic() {
		return [][]string{}
	}

	adj := g.adjacency(false)
	radj := g.adjacency(true)
	scc, members := components(adj)

	j := &johnson{
		names:   g.nodes,
		adj:     adj,
		blocked: make([]bool, n),
		blockBy: make([]map[int]struct{}, n),
		inComp:  make([]bool, n),
		limit:   limit,
	}
	for s := 0; s < n && !j.done(); s++ {
		if len(members[scc[s]]) < 2 {
			continue
		}
		comp := componentOf(s, adj, radj, scc)
		if len(comp) < 2 {
			continue
		}
		for _, v := range comp {
			j.inComp[v] = true
			j.blocked[v] = false
			j.blockBy[v] = nil
		}
		j.start = s
		j.circuit(s)
		for _, v := range comp {
			j.inComp[v] = false
		}
	}
	if j.cycles == nil {
		return [][]string{}
	}
	return j.cycles
}

// componentOf returns the strongly connected component of s within the
// subgraph induced by vertices >= s. The search never leaves the global
// component of s.
func componentOf(s int, adj, radj [][]int, scc []int) []int {
	reach := func(edges [][]int) map[int]struct{} {
		seen := map[int]struct{}{s: {}}
		stack := []int{s}
		for len(stack) > 0 {
			v := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, w := range edges[v] {
				if w < s || scc[w] != scc[s] {
					continue
				}
				if _, ok := seen[w]; ok {
					continue
				}
				seen[w] = struct{}{}
				stack = append(stack, w)
			}
		}
		return seen
	}
	fwd := reach(adj)
	bwd := reach(radj)

	var comp []int
	for v := range fwd {
		if _, ok := bwd[v]; ok {
			comp = append(comp, v)
		}
	}
	return comp
}

// johnson holds the state of Johnson's elementary circuit search.
type johnson struct {
	names   []string
	adj     [][]int
	blocked []bool
	blockBy []map[int]struct{}
	inComp  []bool
	stack   []int
	start   int
	limit   int
	cycles  [][]string
}

func (j *johnson) done() bool {
	return j.limit > 0 && len(j.cycles) >= j.limit
}

func (j *johnson) circuit(v int) bool {
	found := false
	j.stack = append(j.stack, v)
	j.blocked[v] = true

	for _, w := range j.adj[v] {
		if !j.inComp[w] || j.done() {
			continue
		}
		if w == j.start {
			cycle := make([]string, len(j.stack))
			for i, u := range j.stack {
				cycle[i] = j.names[u]
			}
			j.cycles = append(j.cycles, cycle)
			found = true
		} else if !j.blocked[w] && j.circuit(w) {
			found = true
		}
	}

	if found {
		j.unblock(v)
	} else {
		for _, w := range j.adj[v] {
			if !j.inComp[w] {
				continue
			}
			if j.blockBy[w] == nil {
				j.blockBy[w] = make(map[int]struct{})
			}
			j.blockBy[w][v] = struct{}{}
		}
	}
	j.stack = j.stack[:len(j.stack)-1]
	return found
}

func (j *johnson) unblock(u int) {
	j.blocked[u] = false
	for w := range j.blockBy[u] {
		delete(j.blockBy[u], w)
		if j.blocked[w] {
			j.unblock(w)
		}
	}
}
