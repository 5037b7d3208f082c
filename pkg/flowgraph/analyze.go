package flowgraph

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"privaflow/pkg/logger"
	"privaflow/pkg/resolve"
)

// AnalyzeConfig tunes the full analysis run.
type AnalyzeConfig struct {
	// TopN caps the most-inward and most-outward tables. Zero means all.
	TopN int
	// RankBy selects degree or weight ranking for the top tables.
	RankBy RankBy
	// Root is the preferred spanning-tree root, usually the main party.
	// A root missing from the graph falls back to the highest out-degree.
	Root *resolve.Entity
}

// ClassFlow aggregates edges between two party classes.
type ClassFlow struct {
	FromClass resolve.PartyClass `json:"from_class"`
	ToClass   resolve.PartyClass `json:"to_class"`
	Edges     int                `json:"edges"`
	Weight    int                `json:"weight"`
}

// BidirectionalPair is an entity pair with flows in both directions.
type BidirectionalPair struct {
	A *resolve.Entity `json:"a"`
	B *resolve.Entity `json:"b"`
}

// Transparency relates flows with both parties stated to flows with at least
// one side unresolved. Higher scores mean more of the policy's flows leave
// the reader guessing who sends or receives the data.
type Transparency struct {
	CompleteFlows   int     `json:"complete_flows"`
	IncompleteFlows int     `json:"incomplete_flows"`
	Score           float64 `json:"score"`
}

// Result is the full analysis output for one graph.
type Result struct {
	EmptyGraph bool `json:"empty_graph"`

	Degree      MetricResult `json:"degree"`
	Betweenness MetricResult `json:"betweenness"`
	Closeness   MetricResult `json:"closeness"`
	TopInward   MetricResult `json:"top_inward"`
	TopOutward  MetricResult `json:"top_outward"`

	LongestPath PathResult    `json:"longest_path"`
	Tree        *SpanningTree `json:"tree,omitempty"`

	ClassFlows    []ClassFlow         `json:"class_flows"`
	Bidirectional []BidirectionalPair `json:"bidirectional"`
	Components    int                 `json:"components"`
	Transparency  Transparency        `json:"transparency"`
}

// Analyze runs every metric over the finalized graph. Metrics are pure reads
// of the graph, so they run in parallel; the first error (only context
// cancellation can produce one) aborts the rest.
func Analyze(ctx context.Context, g *Graph, cfg AnalyzeConfig) (*Result, error) {
	res := &Result{Transparency: transparency(g.Diagnostics())}
	if g.Empty() {
		logger.Warn("[Analyze] Graph is empty, skipping metrics")
		res.EmptyGraph = true
		return res, nil
	}

	grp, ctx := errgroup.WithContext(ctx)

	run := func(f func()) {
		grp.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f()
			return nil
		})
	}

	run(func() { res.Degree = DegreeCentrality(g) })
	run(func() { res.Betweenness = BetweennessCentrality(g) })
	run(func() { res.Closeness = ClosenessCentrality(g) })
	run(func() { res.TopInward = TopInward(g, cfg.TopN, cfg.RankBy) })
	run(func() { res.TopOutward = TopOutward(g, cfg.TopN, cfg.RankBy) })
	run(func() { res.LongestPath = LongestPath(g) })
	run(func() { res.ClassFlows = classFlows(g) })
	run(func() { res.Bidirectional = bidirectionalPairs(g) })
	run(func() { res.Components = weakComponents(g) })
	run(func() {
		tree, err := BuildSpanningTree(g, cfg.Root)
		if err == nil {
			res.Tree = tree
		}
	})

	if err := grp.Wait(); err != nil {
		return nil, err
	}

	logger.Info("[Analyze] Metrics computed",
		"nodes", g.Order(),
		"edges", g.Size(),
		"components", res.Components,
		"longest_path", res.LongestPath.Length,
	)
	return res, nil
}

func transparency(d BuildDiagnostics) Transparency {
	t := Transparency{
		CompleteFlows:   d.CompleteFlows,
		IncompleteFlows: d.MissingSource + d.MissingTarget,
	}
	if t.CompleteFlows > 0 {
		t.Score = float64(t.IncompleteFlows) / float64(t.CompleteFlows)
	}
	return t
}

func classFlows(g *Graph) []ClassFlow {
	type classPair struct {
		from, to resolve.PartyClass
	}
	agg := make(map[classPair]*ClassFlow)
	order := make([]classPair, 0)

	for _, e := range g.edges {
		key := classPair{from: e.From.Class, to: e.To.Class}
		cf, ok := agg[key]
		if !ok {
			cf = &ClassFlow{FromClass: key.from, ToClass: key.to}
			agg[key] = cf
			order = append(order, key)
		}
		cf.Edges++
		cf.Weight += e.Weight
	}

	flows := make([]ClassFlow, 0, len(order))
	for _, key := range order {
		flows = append(flows, *agg[key])
	}
	sort.Slice(flows, func(i, j int) bool {
		if flows[i].FromClass != flows[j].FromClass {
			return flows[i].FromClass < flows[j].FromClass
		}
		return flows[i].ToClass < flows[j].ToClass
	})
	return flows
}

func bidirectionalPairs(g *Graph) []BidirectionalPair {
	var pairs []BidirectionalPair
	for _, e := range g.edges {
		// report each pair once, from the lexically smaller side
		if e.From.CanonicalName < e.To.CanonicalName && g.HasEdge(e.To, e.From) {
			pairs = append(pairs, BidirectionalPair{A: e.From, B: e.To})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].A.CanonicalName != pairs[j].A.CanonicalName {
			return pairs[i].A.CanonicalName < pairs[j].A.CanonicalName
		}
		return pairs[i].B.CanonicalName < pairs[j].B.CanonicalName
	})
	return pairs
}

// weakComponents counts connected components ignoring edge direction.
func weakComponents(g *Graph) int {
	n := g.Order()
	visited := make([]bool, n)
	count := 0
	for s := 0; s < n; s++ {
		if visited[s] {
			continue
		}
		count++
		queue := []int{s}
		visited[s] = true
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			for _, w := range g.successors(v) {
				if !visited[w] {
					visited[w] = true
					queue = append(queue, w)
				}
			}
			for _, w := range g.predecessors(v) {
				if !visited[w] {
					visited[w] = true
					queue = append(queue, w)
				}
			}
		}
	}
	return count
}
