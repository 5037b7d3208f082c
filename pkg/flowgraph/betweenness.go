package flowgraph

// BetweennessCentrality computes shortest-path betweenness on the directed
// graph with unit edge weights, using Brandes' accumulation. Unreachable
// pairs contribute nothing. Scores are normalized by (n-1)(n-2), the number
// of ordered pairs excluding the node itself; for n < 3 the raw score is
// returned since no normalization is defined.
func BetweennessCentrality(g *Graph) MetricResult {
	n := g.Order()
	raw := make([]float64, n)

	// Brandes: one BFS per source, then dependency accumulation in
	// reverse order of discovery.
	for s := 0; s < n; s++ {
		stack := make([]int, 0, n)
		preds := make([][]int, n)
		sigma := make([]float64, n)
		dist := make([]int, n)
		for i := range dist {
			dist[i] = -1
		}
		sigma[s] = 1
		dist[s] = 0

		queue := []int{s}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			stack = append(stack, v)
			for _, w := range g.successors(v) {
				if dist[w] < 0 {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[v]+1 {
					sigma[w] += sigma[v]
					preds[w] = append(preds[w], v)
				}
			}
		}

		delta := make([]float64, n)
		for i := len(stack) - 1; i >= 0; i-- {
			w := stack[i]
			for _, v := range preds[w] {
				delta[v] += sigma[v] / sigma[w] * (1 + delta[w])
			}
			if w != s {
				raw[w] += delta[w]
			}
		}
	}

	norm := 1.0
	if n >= 3 {
		norm = 1.0 / float64((n-1)*(n-2))
	}

	scores := make([]Score, 0, n)
	for i, node := range g.nodes {
		scores = append(scores, Score{Entity: node, Value: raw[i] * norm})
	}
	sortScores(scores)
	return MetricResult{Name: "betweenness", Scores: scores}
}
