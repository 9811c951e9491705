package depgraph

// TreeNode is one node of a dependency tree view.
type TreeNode struct {
	Name     string      `json:"name"`
	Children []*TreeNode `json:"children"`
	// Truncated marks a node that was not expanded, either because it is
	// already on the path from the root or because the depth bound was hit.
	Truncated bool `json:"truncated,omitempty"`
}

// Tree expands name's dependencies of kind depth-first, children in name
// order. The same package may appear fully expanded under several
// parents; only a repeat on the current root path is cut. maxDepth < 0
// means unbounded. Unknown names yield nil.
func (g *Graph) Tree(name string, kind Kind, maxDepth int) *TreeNode {
	if !g.Has(name) {
		return nil
	}
	onPath := make(map[string]struct{})

	var build func(pkg string, depth int) *TreeNode
	build = func(pkg string, depth int) *TreeNode {
		if _, cyclic := onPath[pkg]; cyclic || (maxDepth >= 0 && depth > maxDepth) {
			return &TreeNode{Name: pkg, Children: []*TreeNode{}, Truncated: true}
		}
		onPath[pkg] = struct{}{}
		defer delete(onPath, pkg)

		node := &TreeNode{Name: pkg, Children: []*TreeNode{}}
		for _, dep := range g.Dependencies(pkg, kind, false, 0) {
			node.Children = append(node.Children, build(dep, depth+1))
		}
		return node
	}
	return build(name, 0)
}

// Walk calls fn for every node of t in depth-first order with its depth.
func (t *TreeNode) Walk(fn func(n *TreeNode, depth int)) {
	var walk func(n *TreeNode, depth int)
	walk = func(n *TreeNode, depth int) {
		fn(n, depth)
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	if t != nil {
		walk(t, 0)
	}
}

// Size returns the number of nodes in t.
func (t *TreeNode) Size() int {
	n := 0
	t.Walk(func(*TreeNode, int) { n++ })
	return n
}
