package chunk

import "sort"

// symbolTreeNode is one node of the symbol containment tree: a node A is the
// parent of B iff A fully contains B's byte range and A is the smallest such
// container among the extracted symbols.
type symbolTreeNode struct {
	info     *symbolNodeInfo
	parent   *symbolTreeNode
	children []*symbolTreeNode
}

// scopePath returns the dotted containment path from the root down to (and
// including) this node, e.g. "Server.Handler.ServeHTTP".
func (n *symbolTreeNode) scopePath() []string {
	var path []string
	for cur := n; cur != nil; cur = cur.parent {
		path = append([]string{cur.info.symbol.Name}, path...)
	}
	return path
}

// buildContainmentTree groups a flat list of symbol nodes (as produced by
// findSymbolNodes, in source order) into containment trees using their byte
// ranges. It returns the roots in source order.
//
// Containment is purely interval-based: node A contains node B when
// A.StartByte <= B.StartByte and B.EndByte <= A.EndByte. Using intervals
// rather than requiring real AST parent pointers lets any symbol extractor
// (tree-sitter based or otherwise) feed the same tree builder.
func buildContainmentTree(nodes []*symbolNodeInfo) []*symbolTreeNode {
	sorted := make([]*symbolNodeInfo, len(nodes))
	copy(sorted, nodes)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].node.StartByte != sorted[j].node.StartByte {
			return sorted[i].node.StartByte < sorted[j].node.StartByte
		}
		// Larger range first so containers precede their contents.
		return sorted[i].node.EndByte > sorted[j].node.EndByte
	})

	var roots []*symbolTreeNode
	var stack []*symbolTreeNode

	for _, info := range sorted {
		n := &symbolTreeNode{info: info}

		for len(stack) > 0 {
			top := stack[len(stack)-1]
			if top.info.node.EndByte >= n.info.node.EndByte && top.info.node.StartByte <= n.info.node.StartByte {
				break
			}
			stack = stack[:len(stack)-1]
		}

		if len(stack) == 0 {
			roots = append(roots, n)
		} else {
			parent := stack[len(stack)-1]
			n.parent = parent
			parent.children = append(parent.children, n)
		}
		stack = append(stack, n)
	}

	return roots
}
