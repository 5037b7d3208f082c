package flowgraph

import (
	"privaflow/pkg/logger"
	"privaflow/pkg/record"
	"privaflow/pkg/resolve"
)

// Attribute is one observed (category, purpose, method) triple on an edge.
type Attribute struct {
	Category string `json:"category"`
	Purpose  string `json:"purpose"`
	Method   string `json:"method"`
}

// Edge is a directed data flow between two entities. Duplicate flows between
// the same pair collapse onto one edge: attributes accumulate as a set in
// first-seen order and the weight counts every contributing record.
type Edge struct {
	From       *resolve.Entity `json:"from"`
	To         *resolve.Entity `json:"to"`
	Attributes []Attribute     `json:"attributes"`
	Weight     int             `json:"weight"`

	attrSet map[Attribute]struct{}
}

func (e *Edge) addAttribute(a Attribute) {
	if _, ok := e.attrSet[a]; ok {
		return
	}
	e.attrSet[a] = struct{}{}
	e.Attributes = append(e.Attributes, a)
}

// BuildDiagnostics counts record-level outcomes of one graph build.
type BuildDiagnostics struct {
	Records       int
	SelfLoops     int
	CompleteFlows int
	MissingSource int
	MissingTarget int
}

type edgeKey struct {
	from, to string
}

// Builder aggregates resolved records into a directed graph. Records are
// consumed sequentially; the graph becomes visible only through Finalize,
// never mid-build.
type Builder struct {
	resolver *resolve.Resolver

	nodes   []*resolve.Entity
	nodeSet map[*resolve.Entity]struct{}
	edges   []*Edge
	byPair  map[edgeKey]*Edge

	diag BuildDiagnostics
}

func NewBuilder(r *resolve.Resolver) *Builder {
	return &Builder{
		resolver: r,
		nodeSet:  make(map[*resolve.Entity]struct{}),
		byPair:   make(map[edgeKey]*Edge),
	}
}

// AddRecord resolves both parties of one record and folds the flow into the
// graph. Self-loops after resolution are dropped and counted.
func (b *Builder) AddRecord(rec record.DataFlowRecord) {
	b.diag.Records++

	from := b.resolver.Resolve(rec.SourceParty)
	to := b.resolver.Resolve(rec.TargetParty)

	unknown := b.resolver.Unknown()
	switch {
	case from == unknown && to != unknown:
		b.diag.MissingSource++
	case to == unknown && from != unknown:
		b.diag.MissingTarget++
	case from != unknown && to != unknown:
		b.diag.CompleteFlows++
	}

	if from == to {
		b.diag.SelfLoops++
		logger.Debug("[Graph] Dropping self-loop", "party", from.CanonicalName, "segment", rec.SegmentIndex)
		return
	}

	b.addNode(from)
	b.addNode(to)

	key := edgeKey{from: from.Key, to: to.Key}
	edge, ok := b.byPair[key]
	if !ok {
		edge = &Edge{
			From:    from,
			To:      to,
			attrSet: make(map[Attribute]struct{}),
		}
		b.byPair[key] = edge
		b.edges = append(b.edges, edge)
	}

	edge.addAttribute(Attribute{
		Category: rec.DataCategory,
		Purpose:  rec.Purpose,
		Method:   rec.Method,
	})
	edge.Weight++
}

func (b *Builder) addNode(e *resolve.Entity) {
	if _, ok := b.nodeSet[e]; ok {
		return
	}
	b.nodeSet[e] = struct{}{}
	b.nodes = append(b.nodes, e)
}

// Finalize produces the immutable graph snapshot. The builder must not be
// used afterwards. Data-protection roles are inferred here from the final
// structure: entities that send data act as controllers, entities that only
// receive act as processors.
func (b *Builder) Finalize() *Graph {
	g := &Graph{
		nodes: b.nodes,
		edges: b.edges,
		index: make(map[*resolve.Entity]int, len(b.nodes)),
		diag:  b.diag,
	}
	for i, n := range b.nodes {
		g.index[n] = i
	}

	g.out = make([][]int, len(b.nodes))
	g.in = make([][]int, len(b.nodes))
	for ei, e := range b.edges {
		fi := g.index[e.From]
		ti := g.index[e.To]
		g.out[fi] = append(g.out[fi], ei)
		g.in[ti] = append(g.in[ti], ei)
	}

	for i, n := range g.nodes {
		switch {
		case len(g.out[i]) > 0:
			n.Role = resolve.RoleController
		case len(g.in[i]) > 0:
			n.Role = resolve.RoleProcessor
		default:
			n.Role = resolve.RoleUnknown
		}
	}

	logger.Info("[Graph] Build finalized",
		"nodes", len(g.nodes),
		"edges", len(g.edges),
		"records", b.diag.Records,
		"self_loops", b.diag.SelfLoops,
	)
	return g
}

// Graph is the finalized directed data-flow graph. It is read-only: every
// metric is a pure function of it and analyses may read it concurrently.
type Graph struct {
	nodes []*resolve.Entity
	edges []*Edge
	index map[*resolve.Entity]int

	// adjacency by node index, values are edge indices
	out [][]int
	in  [][]int

	diag BuildDiagnostics
}

func (g *Graph) Nodes() []*resolve.Entity { return g.nodes }

func (g *Graph) Edges() []*Edge { return g.edges }

// Order is the node count, Size the edge count.
func (g *Graph) Order() int { return len(g.nodes) }

func (g *Graph) Size() int { return len(g.edges) }

func (g *Graph) Empty() bool { return len(g.nodes) == 0 }

func (g *Graph) Diagnostics() BuildDiagnostics { return g.diag }

// OutEdges returns the outgoing edges of a node.
func (g *Graph) OutEdges(e *resolve.Entity) []*Edge {
	i, ok := g.index[e]
	if !ok {
		return nil
	}
	edges := make([]*Edge, len(g.out[i]))
	for k, ei := range g.out[i] {
		edges[k] = g.edges[ei]
	}
	return edges
}

// InEdges returns the incoming edges of a node.
func (g *Graph) InEdges(e *resolve.Entity) []*Edge {
	i, ok := g.index[e]
	if !ok {
		return nil
	}
	edges := make([]*Edge, len(g.in[i]))
	for k, ei := range g.in[i] {
		edges[k] = g.edges[ei]
	}
	return edges
}

// HasEdge reports whether a directed edge exists between the two nodes.
func (g *Graph) HasEdge(from, to *resolve.Entity) bool {
	fi, ok := g.index[from]
	if !ok {
		return false
	}
	for _, ei := range g.out[fi] {
		if g.edges[ei].To == to {
			return true
		}
	}
	return false
}

// successors returns the distinct successor node indices of node i.
func (g *Graph) successors(i int) []int {
	succ := make([]int, 0, len(g.out[i]))
	for _, ei := range g.out[i] {
		succ = append(succ, g.index[g.edges[ei].To])
	}
	return succ
}

// predecessors returns the distinct predecessor node indices of node i.
func (g *Graph) predecessors(i int) []int {
	pred := make([]int, 0, len(g.in[i]))
	for _, ei := range g.in[i] {
		pred = append(pred, g.index[g.edges[ei].From])
	}
	return pred
}
