package flowgraph

import (
	"context"
	"testing"

	"privaflow/pkg/resolve"
)

func TestAnalyze_ChainGraph(t *testing.T) {
	r := resolve.New(resolve.Config{MainParty: "Alpha"})
	b := NewBuilder(r)
	b.AddRecord(testRecord("Alpha", "Beta"))
	b.AddRecord(testRecord("Beta", "Gamma"))
	g := b.Finalize()

	res, err := Analyze(context.Background(), g, AnalyzeConfig{TopN: 10, Root: r.MainParty()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.EmptyGraph {
		t.Fatal("expected non-empty graph")
	}
	if res.LongestPath.Length != 2 {
		t.Fatalf("expected longest path 2, got %d", res.LongestPath.Length)
	}
	if res.Tree == nil || res.Tree.Root.CanonicalName != "Alpha" {
		t.Fatalf("expected tree rooted at Alpha, got %+v", res.Tree)
	}
	if res.Components != 1 {
		t.Fatalf("expected 1 component, got %d", res.Components)
	}
	if res.Transparency.CompleteFlows != 2 || res.Transparency.Score != 0 {
		t.Fatalf("unexpected transparency: %+v", res.Transparency)
	}
}

func TestAnalyze_EmptyGraph(t *testing.T) {
	g := buildGraph(t, "", nil)

	res, err := Analyze(context.Background(), g, AnalyzeConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.EmptyGraph {
		t.Fatal("expected EmptyGraph flag")
	}
	if res.Tree != nil {
		t.Fatal("expected no spanning tree on empty graph")
	}
}

func TestAnalyze_CancelledContext(t *testing.T) {
	g := buildGraph(t, "", [][2]string{{"Alpha", "Beta"}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Analyze(ctx, g, AnalyzeConfig{}); err == nil {
		t.Fatal("expected context error, got nil")
	}
}

func TestTransparency_Score(t *testing.T) {
	tests := []struct {
		name  string
		diag  BuildDiagnostics
		score float64
	}{
		{"all complete", BuildDiagnostics{CompleteFlows: 4}, 0},
		{"half incomplete", BuildDiagnostics{CompleteFlows: 4, MissingSource: 1, MissingTarget: 1}, 0.5},
		{"no complete flows", BuildDiagnostics{MissingSource: 3}, 0},
	}
	for _, tt := range tests {
		got := transparency(tt.diag)
		if got.Score != tt.score {
			t.Fatalf("%s: expected score %v, got %v", tt.name, tt.score, got.Score)
		}
	}
}

func TestClassFlows_Aggregation(t *testing.T) {
	r := resolve.New(resolve.Config{MainParty: "Acme"})
	b := NewBuilder(r)
	b.AddRecord(testRecord("we", "Google"))
	b.AddRecord(testRecord("we", "Google"))
	b.AddRecord(testRecord("we", "Facebook"))
	b.AddRecord(testRecord("users", "Acme"))
	g := b.Finalize()

	flows := classFlows(g)
	if len(flows) != 2 {
		t.Fatalf("expected 2 class pairs, got %d", len(flows))
	}
	// sorted by class pair: first_party->third_party before user->first_party
	first := flows[0]
	if first.FromClass != resolve.PartyFirst || first.ToClass != resolve.PartyThird {
		t.Fatalf("unexpected first pair: %+v", first)
	}
	if first.Edges != 2 || first.Weight != 3 {
		t.Fatalf("expected 2 edges weight 3, got %+v", first)
	}
	second := flows[1]
	if second.FromClass != resolve.PartyUser || second.ToClass != resolve.PartyFirst {
		t.Fatalf("unexpected second pair: %+v", second)
	}
}

func TestBidirectionalPairs(t *testing.T) {
	g := buildGraph(t, "", [][2]string{
		{"Alpha", "Beta"},
		{"Beta", "Alpha"},
		{"Beta", "Gamma"},
	})

	pairs := bidirectionalPairs(g)
	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(pairs))
	}
	if pairs[0].A.CanonicalName != "Alpha" || pairs[0].B.CanonicalName != "Beta" {
		t.Fatalf("unexpected pair: %q / %q", pairs[0].A.CanonicalName, pairs[0].B.CanonicalName)
	}
}

func TestWeakComponents(t *testing.T) {
	g := buildGraph(t, "", [][2]string{
		{"Alpha", "Beta"},
		{"Gamma", "Delta"},
	})
	if got := weakComponents(g); got != 2 {
		t.Fatalf("expected 2 components, got %d", got)
	}

	// direction must not matter
	joined := buildGraph(t, "", [][2]string{
		{"Alpha", "Beta"},
		{"Gamma", "Beta"},
	})
	if got := weakComponents(joined); got != 1 {
		t.Fatalf("expected 1 component, got %d", got)
	}
}
