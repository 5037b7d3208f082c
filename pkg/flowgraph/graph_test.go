package flowgraph

import (
	"testing"

	"privaflow/pkg/record"
	"privaflow/pkg/resolve"
)

func newTestResolver() *resolve.Resolver {
	return resolve.New(resolve.Config{})
}

func testRecord(from, to string) record.DataFlowRecord {
	return record.DataFlowRecord{
		DataType:    "email address",
		SourceParty: from,
		TargetParty: to,
	}
}

func buildGraph(t *testing.T, mainParty string, flows [][2]string) *Graph {
	t.Helper()
	r := resolve.New(resolve.Config{MainParty: mainParty})
	b := NewBuilder(r)
	for _, f := range flows {
		b.AddRecord(testRecord(f[0], f[1]))
	}
	return b.Finalize()
}

func findNode(t *testing.T, g *Graph, name string) *resolve.Entity {
	t.Helper()
	for _, n := range g.Nodes() {
		if n.CanonicalName == name {
			return n
		}
	}
	t.Fatalf("node %q not found", name)
	return nil
}

func TestBuilder_ChainGraph(t *testing.T) {
	g := buildGraph(t, "", [][2]string{
		{"Alpha", "Beta"},
		{"Beta", "Gamma"},
	})

	if g.Order() != 3 || g.Size() != 2 {
		t.Fatalf("expected 3 nodes and 2 edges, got %d and %d", g.Order(), g.Size())
	}

	alpha := findNode(t, g, "Alpha")
	beta := findNode(t, g, "Beta")
	gamma := findNode(t, g, "Gamma")
	if !g.HasEdge(alpha, beta) || !g.HasEdge(beta, gamma) {
		t.Fatal("expected edges Alpha->Beta and Beta->Gamma")
	}
	if g.HasEdge(beta, alpha) {
		t.Fatal("unexpected reverse edge")
	}

	// degree sum must be twice the edge count
	total := 0
	for _, n := range g.Nodes() {
		total += len(g.InEdges(n)) + len(g.OutEdges(n))
	}
	if total != 2*g.Size() {
		t.Fatalf("degree sum %d, expected %d", total, 2*g.Size())
	}
}

func TestBuilder_SelfLoopDropped(t *testing.T) {
	g := buildGraph(t, "", [][2]string{
		{"Acme", "Acme"},
	})

	if !g.Empty() {
		t.Fatalf("expected empty graph, got %d nodes", g.Order())
	}
	if g.Diagnostics().SelfLoops != 1 {
		t.Fatalf("expected 1 self-loop counted, got %d", g.Diagnostics().SelfLoops)
	}
}

func TestBuilder_AliasMergedSelfLoop(t *testing.T) {
	// both mentions resolve to one entity, so the flow is a self-loop
	g := buildGraph(t, "", [][2]string{
		{"Acme", "Acme Inc."},
	})

	if !g.Empty() {
		t.Fatalf("expected empty graph after alias merge, got %d nodes", g.Order())
	}
	if g.Diagnostics().SelfLoops != 1 {
		t.Fatalf("expected 1 self-loop counted, got %d", g.Diagnostics().SelfLoops)
	}
}

func TestBuilder_DuplicateFlowsCollapse(t *testing.T) {
	r := resolve.New(resolve.Config{})
	b := NewBuilder(r)
	b.AddRecord(record.DataFlowRecord{
		DataType: "email address", SourceParty: "Acme", TargetParty: "Google",
		DataCategory: "Contact Data", Purpose: "marketing",
	})
	b.AddRecord(record.DataFlowRecord{
		DataType: "email address", SourceParty: "Acme Inc.", TargetParty: "Google",
		DataCategory: "Contact Data", Purpose: "marketing",
	})
	b.AddRecord(record.DataFlowRecord{
		DataType: "location", SourceParty: "Acme", TargetParty: "Google",
		DataCategory: "Location Data", Purpose: "analytics",
	})
	g := b.Finalize()

	if g.Size() != 1 {
		t.Fatalf("expected 1 aggregated edge, got %d", g.Size())
	}
	edge := g.Edges()[0]
	if edge.Weight != 3 {
		t.Fatalf("expected weight 3, got %d", edge.Weight)
	}
	// identical attribute triples collapse, distinct ones accumulate
	if len(edge.Attributes) != 2 {
		t.Fatalf("expected 2 distinct attributes, got %d", len(edge.Attributes))
	}
	if edge.Attributes[0].Category != "Contact Data" || edge.Attributes[1].Category != "Location Data" {
		t.Fatalf("unexpected attribute order: %+v", edge.Attributes)
	}
}

func TestFinalize_RoleInference(t *testing.T) {
	g := buildGraph(t, "", [][2]string{
		{"Alpha", "Beta"},
		{"Beta", "Gamma"},
	})

	if role := findNode(t, g, "Alpha").Role; role != resolve.RoleController {
		t.Fatalf("expected Alpha to be controller, got %q", role)
	}
	if role := findNode(t, g, "Beta").Role; role != resolve.RoleController {
		t.Fatalf("expected Beta to be controller, got %q", role)
	}
	if role := findNode(t, g, "Gamma").Role; role != resolve.RoleProcessor {
		t.Fatalf("expected Gamma to be processor, got %q", role)
	}
}

func TestBuilder_FlowCompletenessDiagnostics(t *testing.T) {
	g := buildGraph(t, "", [][2]string{
		{"Alpha", "Beta"},
		{"Alpha", ""},
		{"", "Beta"},
	})

	diag := g.Diagnostics()
	if diag.Records != 3 {
		t.Fatalf("expected 3 records, got %d", diag.Records)
	}
	if diag.CompleteFlows != 1 {
		t.Fatalf("expected 1 complete flow, got %d", diag.CompleteFlows)
	}
	if diag.MissingTarget != 1 || diag.MissingSource != 1 {
		t.Fatalf("unexpected missing counts: %+v", diag)
	}

	// incomplete flows keep the unspecified party as an explicit node
	findNode(t, g, "unspecified party")
}
