package flowgraph

// ClosenessCentrality computes outgoing closeness: the reciprocal of the sum
// of shortest-path distances from a node to every node it can reach, scaled
// by the fraction of the graph that is reachable (the Wasserman-Faust
// variant), which keeps scores comparable on disconnected graphs.
func ClosenessCentrality(g *Graph) MetricResult {
	n := g.Order()
	scores := make([]Score, 0, n)

	dist := make([]int, n)
	for i, node := range g.nodes {
		for k := range dist {
			dist[k] = -1
		}
		dist[i] = 0
		reached := 0
		sum := 0

		queue := []int{i}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			for _, w := range g.successors(v) {
				if dist[w] >= 0 {
					continue
				}
				dist[w] = dist[v] + 1
				reached++
				sum += dist[w]
				queue = append(queue, w)
			}
		}

		value := 0.0
		if sum > 0 && n > 1 {
			// reached counts nodes other than i itself
			value = (float64(reached) / float64(n-1)) * (float64(reached) / float64(sum))
		}
		scores = append(scores, Score{Entity: node, Value: value})
	}

	sortScores(scores)
	return MetricResult{Name: "closeness", Scores: scores}
}
