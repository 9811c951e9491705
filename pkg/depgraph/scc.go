package depgraph

// components computes the strongly connected components of adj with
// Tarjan's algorithm. It returns the component id of every vertex and the
// members of each component. Components are numbered in reverse
// topological order: every edge leads to a component with an id no
// larger than its source's.
func components(adj [][]int) (id []int, members [][]int) {
	n := len(adj)
	id = make([]int, n)
	index := make([]int, n)
	low := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}

	var stack []int
	next := 0

	var strong func(v int)
	strong = func(v int) {
		index[v] = next
		low[v] = next
		next++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range adj[v] {
			if index[w] < 0 {
				strong(w)
				low[v] = min(low[v], low[w])
			} else if onStack[w] {
				low[v] = min(low[v], index[w])
			}
		}

		if low[v] == index[v] {
			c := len(members)
			var comp []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				id[w] = c
				comp = append(comp, w)
				if w == v {
					break
				}
			}
			members = append(members, comp)
		}
	}

	for v := 0; v < n; v++ {
		if index[v] < 0 {
			strong(v)
		}
	}
	return id, members
}

// adjacency returns the graph as index lists over g.nodes, ignoring kinds.
func (g *Graph) adjacency(reverse bool) [][]int {
	idx := make(map[string]int, len(g.nodes))
	for i, name := range g.nodes {
		idx[name] = i
	}
	adj := make([][]int, len(g.nodes))
	for i, name := range g.nodes {
		var ns []string
		if reverse {
			ns = g.predecessors(name, All)
		} else {
			ns = g.successors(name, All)
		}
		for _, m := range ns {
			adj[i] = append(adj[i], idx[m])
		}
	}
	return adj
}
