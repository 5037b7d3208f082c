package flowgraph

import (
	"sort"

	"privaflow/pkg/resolve"
)

// Score is one entity's value under a metric. The directional split is
// populated by degree tables only.
type Score struct {
	Entity *resolve.Entity `json:"entity"`
	Value  float64         `json:"value"`

	InDegree  int `json:"in_degree,omitempty"`
	OutDegree int `json:"out_degree,omitempty"`
}

// MetricResult is an ordered metric table: scores descending, ties broken
// by canonical name so results are reproducible across runs.
type MetricResult struct {
	Name   string  `json:"name"`
	Scores []Score `json:"scores"`
}

func sortScores(scores []Score) {
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Value != scores[j].Value {
			return scores[i].Value > scores[j].Value
		}
		return scores[i].Entity.CanonicalName < scores[j].Entity.CanonicalName
	})
}

// DegreeCentrality ranks entities by total degree: the count of distinct
// incoming plus outgoing edges, not weight-summed. Each score carries the
// in/out split alongside the total.
func DegreeCentrality(g *Graph) MetricResult {
	scores := make([]Score, 0, g.Order())
	for i, n := range g.nodes {
		scores = append(scores, Score{
			Entity:    n,
			Value:     float64(len(g.in[i]) + len(g.out[i])),
			InDegree:  len(g.in[i]),
			OutDegree: len(g.out[i]),
		})
	}
	sortScores(scores)
	return MetricResult{Name: "degree", Scores: scores}
}

// RankBy selects the ranking dimension for top-N queries.
type RankBy string

const (
	RankByDegree RankBy = "degree"
	RankByWeight RankBy = "weight"
)

// TopInward returns the top n entities by in-degree (or summed incoming
// weight). n larger than the node count returns all nodes.
func TopInward(g *Graph, n int, by RankBy) MetricResult {
	scores := make([]Score, 0, g.Order())
	for i, node := range g.nodes {
		v := float64(len(g.in[i]))
		if by == RankByWeight {
			v = 0
			for _, ei := range g.in[i] {
				v += float64(g.edges[ei].Weight)
			}
		}
		scores = append(scores, Score{Entity: node, Value: v})
	}
	sortScores(scores)
	return MetricResult{Name: "most_inward", Scores: capScores(scores, n)}
}

// TopOutward returns the top n entities by out-degree (or summed outgoing
// weight). n larger than the node count returns all nodes.
func TopOutward(g *Graph, n int, by RankBy) MetricResult {
	scores := make([]Score, 0, g.Order())
	for i, node := range g.nodes {
		v := float64(len(g.out[i]))
		if by == RankByWeight {
			v = 0
			for _, ei := range g.out[i] {
				v += float64(g.edges[ei].Weight)
			}
		}
		scores = append(scores, Score{Entity: node, Value: v})
	}
	sortScores(scores)
	return MetricResult{Name: "most_outward", Scores: capScores(scores, n)}
}

func capScores(scores []Score, n int) []Score {
	if n <= 0 || n >= len(scores) {
		return scores
	}
	return scores[:n]
}
