package flowgraph

import (
	"errors"
	"sort"

	"privaflow/pkg/resolve"
)

// ErrNoSpanningRoot is returned when the graph has no node to root a
// spanning tree at.
var ErrNoSpanningRoot = errors.New("flowgraph: no root candidate for spanning tree")

// TreeEdge is one parent-child edge of a spanning tree.
type TreeEdge struct {
	From *resolve.Entity `json:"from"`
	To   *resolve.Entity `json:"to"`
}

// SpanningTree is a breadth-first tree over outgoing edges. Nodes the root
// cannot reach are listed under Disconnected rather than silently dropped.
type SpanningTree struct {
	Root         *resolve.Entity   `json:"root"`
	Edges        []TreeEdge        `json:"edges"`
	Disconnected []*resolve.Entity `json:"disconnected"`
}

// BuildSpanningTree builds a breadth-first spanning tree rooted at root. A
// nil root, or a root not present in the graph, falls back to the node with
// the highest out-degree (ties broken by canonical name). Successors are
// visited in canonical-name order so the tree is deterministic.
func BuildSpanningTree(g *Graph, root *resolve.Entity) (*SpanningTree, error) {
	if g.Empty() {
		return nil, ErrNoSpanningRoot
	}

	ri, ok := g.index[root]
	if root == nil || !ok {
		ri = fallbackRoot(g)
	}

	tree := &SpanningTree{Root: g.nodes[ri]}
	visited := make([]bool, g.Order())
	visited[ri] = true

	queue := []int{ri}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]

		succ := g.successors(v)
		sort.Slice(succ, func(a, b int) bool {
			return g.nodes[succ[a]].CanonicalName < g.nodes[succ[b]].CanonicalName
		})
		for _, w := range succ {
			if visited[w] {
				continue
			}
			visited[w] = true
			tree.Edges = append(tree.Edges, TreeEdge{From: g.nodes[v], To: g.nodes[w]})
			queue = append(queue, w)
		}
	}

	for i, seen := range visited {
		if !seen {
			tree.Disconnected = append(tree.Disconnected, g.nodes[i])
		}
	}
	return tree, nil
}

func fallbackRoot(g *Graph) int {
	best := 0
	for i := 1; i < g.Order(); i++ {
		switch {
		case len(g.out[i]) > len(g.out[best]):
			best = i
		case len(g.out[i]) == len(g.out[best]) &&
			g.nodes[i].CanonicalName < g.nodes[best].CanonicalName:
			best = i
		}
	}
	return best
}
