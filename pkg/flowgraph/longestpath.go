package flowgraph

import (
	"sort"

	"privaflow/pkg/resolve"
)

// PathSegment is one step of a longest-path result. A collapsed segment
// stands for a whole strongly connected component; its members are listed
// alphabetically and its internal edge count contributes to the path length
// as a fixed offset.
type PathSegment struct {
	Entities      []*resolve.Entity `json:"entities"`
	Collapsed     bool              `json:"collapsed"`
	InternalEdges int               `json:"internal_edges"`
}

// PathResult is the longest-path analysis output. Collapsed is set whenever
// any segment stands for a collapsed component, making the cycle-handling
// policy explicit in the result instead of silently approximating.
type PathResult struct {
	Segments  []PathSegment `json:"segments"`
	Length    int           `json:"length"`
	Collapsed bool          `json:"collapsed"`
}

// LongestPath finds the longest simple path through the graph's condensation.
// Cycles make longest-path search intractable in general, so strongly
// connected components are collapsed first (Tarjan), and the longest path is
// computed on the resulting DAG by dynamic programming over a topological
// order. A collapsed component contributes its internal edge count.
func LongestPath(g *Graph) PathResult {
	n := g.Order()
	if n == 0 {
		return PathResult{}
	}

	comp, count := tarjanSCC(g)

	members := make([][]int, count)
	internal := make([]int, count)
	for i := 0; i < n; i++ {
		members[comp[i]] = append(members[comp[i]], i)
	}

	crossSeen := make(map[[2]int]struct{})
	adj := make([][]int, count)
	indeg := make([]int, count)
	for _, e := range g.edges {
		cf := comp[g.index[e.From]]
		ct := comp[g.index[e.To]]
		if cf == ct {
			internal[cf]++
			continue
		}
		key := [2]int{cf, ct}
		if _, ok := crossSeen[key]; ok {
			continue
		}
		crossSeen[key] = struct{}{}
		adj[cf] = append(adj[cf], ct)
		indeg[ct]++
	}

	// Kahn topological order over the condensation.
	order := make([]int, 0, count)
	queue := make([]int, 0, count)
	for c := 0; c < count; c++ {
		if indeg[c] == 0 {
			queue = append(queue, c)
		}
	}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		order = append(order, c)
		for _, d := range adj[c] {
			indeg[d]--
			if indeg[d] == 0 {
				queue = append(queue, d)
			}
		}
	}

	dp := make([]int, count)
	pred := make([]int, count)
	for c := range dp {
		dp[c] = internal[c]
		pred[c] = -1
	}
	for _, c := range order {
		for _, d := range adj[c] {
			if cand := dp[c] + 1 + internal[d]; cand > dp[d] {
				dp[d] = cand
				pred[d] = c
			}
		}
	}

	best := 0
	for c := 1; c < count; c++ {
		if dp[c] > dp[best] {
			best = c
		}
	}

	var chain []int
	for c := best; c >= 0; c = pred[c] {
		chain = append(chain, c)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}

	result := PathResult{Length: dp[best]}
	for _, c := range chain {
		seg := PathSegment{
			Collapsed:     len(members[c]) > 1,
			InternalEdges: internal[c],
		}
		for _, i := range members[c] {
			seg.Entities = append(seg.Entities, g.nodes[i])
		}
		if seg.Collapsed {
			sort.Slice(seg.Entities, func(a, b int) bool {
				return seg.Entities[a].CanonicalName < seg.Entities[b].CanonicalName
			})
			result.Collapsed = true
		}
		result.Segments = append(result.Segments, seg)
	}

	return result
}

// tarjanSCC assigns a strongly-connected-component id to every node and
// returns the component count. Component ids are in reverse topological
// order of the condensation, which callers must not rely on; LongestPath
// re-sorts topologically itself.
func tarjanSCC(g *Graph) ([]int, int) {
	n := g.Order()
	comp := make([]int, n)
	index := make([]int, n)
	lowlink := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
		comp[i] = -1
	}

	var stack []int
	next := 0
	count := 0

	var strongconnect func(v int)
	strongconnect = func(v int) {
		index[v] = next
		lowlink[v] = next
		next++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.successors(v) {
			if index[w] < 0 {
				strongconnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] && index[w] < lowlink[v] {
				lowlink[v] = index[w]
			}
		}

		if lowlink[v] == index[v] {
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				comp[w] = count
				if w == v {
					break
				}
			}
			count++
		}
	}

	for v := 0; v < n; v++ {
		if index[v] < 0 {
			strongconnect(v)
		}
	}

	return comp, count
}
