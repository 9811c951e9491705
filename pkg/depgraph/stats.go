package depgraph

// Stats summarises the graph structure.
type Stats struct {
	Nodes        int            `json:"nodes"`
	Edges        int            `json:"edges"`
	EdgesByKind  map[string]int `json:"edges_by_kind"`
	Density      float64        `json:"density"`
	IsAcyclic    bool           `json:"is_acyclic"`
	Components   int            `json:"weakly_connected_components"`
	AvgInDegree  float64        `json:"avg_in_degree"`
	AvgOutDegree float64        `json:"avg_out_degree"`
	Unresolved   int            `json:"unresolved"`
}

// Statistics computes [Stats]. Density is edges / (n·(n-1)) and is 0 for
// fewer than two nodes.
func (g *Graph) Statistics() Stats {
	n := len(g.nodes)
	e := len(g.edges)
	s := Stats{
		Nodes:       n,
		Edges:       e,
		EdgesByKind: make(map[string]int, len(Kinds)),
		IsAcyclic:   g.IsAcyclic(),
		Components:  g.weakComponents(),
		Unresolved:  len(g.missing),
	}
	for _, k := range Kinds {
		s.EdgesByKind[k.String()] = 0
	}
	for edge := range g.edges {
		s.EdgesByKind[edge.Kind.String()]++
	}
	if n > 1 {
		s.Density = float64(e) / float64(n*(n-1))
	}
	if n > 0 {
		s.AvgInDegree = float64(e) / float64(n)
		s.AvgOutDegree = s.AvgInDegree
	}
	return s
}

// weakComponents counts connected components with edge direction ignored.
func (g *Graph) weakComponents() int {
	parent := make(map[string]string, len(g.nodes))
	find := func(x string) string {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	for _, n := range g.nodes {
		parent[n] = n
	}
	count := len(g.nodes)
	for e := range g.edges {
		a, b := find(e.From), find(e.To)
		if a != b {
			parent[a] = b
			count--
		}
	}
	return count
}
