package flowgraph

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func scoreOf(t *testing.T, m MetricResult, name string) float64 {
	t.Helper()
	for _, s := range m.Scores {
		if s.Entity.CanonicalName == name {
			return s.Value
		}
	}
	t.Fatalf("metric %s: no score for %q", m.Name, name)
	return 0
}

func TestDegreeCentrality_Chain(t *testing.T) {
	g := buildGraph(t, "", [][2]string{
		{"Alpha", "Beta"},
		{"Beta", "Gamma"},
	})

	m := DegreeCentrality(g)
	if m.Scores[0].Entity.CanonicalName != "Beta" || m.Scores[0].Value != 2 {
		t.Fatalf("expected Beta with degree 2 first, got %q (%v)",
			m.Scores[0].Entity.CanonicalName, m.Scores[0].Value)
	}
	// degree ties break by canonical name
	if m.Scores[1].Entity.CanonicalName != "Alpha" || m.Scores[2].Entity.CanonicalName != "Gamma" {
		t.Fatalf("unexpected tie order: %q, %q",
			m.Scores[1].Entity.CanonicalName, m.Scores[2].Entity.CanonicalName)
	}

	// each score carries the directional split
	if m.Scores[0].InDegree != 1 || m.Scores[0].OutDegree != 1 {
		t.Fatalf("expected Beta split 1/1, got %d/%d", m.Scores[0].InDegree, m.Scores[0].OutDegree)
	}
	if m.Scores[1].InDegree != 0 || m.Scores[1].OutDegree != 1 {
		t.Fatalf("expected Alpha split 0/1, got %d/%d", m.Scores[1].InDegree, m.Scores[1].OutDegree)
	}
	if m.Scores[2].InDegree != 1 || m.Scores[2].OutDegree != 0 {
		t.Fatalf("expected Gamma split 1/0, got %d/%d", m.Scores[2].InDegree, m.Scores[2].OutDegree)
	}
}

func TestBetweennessCentrality_Chain(t *testing.T) {
	g := buildGraph(t, "", [][2]string{
		{"Alpha", "Beta"},
		{"Beta", "Gamma"},
	})

	m := BetweennessCentrality(g)
	// Beta sits on the single Alpha->Gamma shortest path; with n=3 the
	// normalization is 1/((n-1)(n-2)) = 1/2.
	if v := scoreOf(t, m, "Beta"); !almostEqual(v, 0.5) {
		t.Fatalf("expected betweenness 0.5 for Beta, got %v", v)
	}
	if v := scoreOf(t, m, "Alpha"); v != 0 {
		t.Fatalf("expected betweenness 0 for Alpha, got %v", v)
	}
	if v := scoreOf(t, m, "Gamma"); v != 0 {
		t.Fatalf("expected betweenness 0 for Gamma, got %v", v)
	}
	for _, s := range m.Scores {
		if s.Value < 0 || s.Value > 1 {
			t.Fatalf("betweenness out of [0,1]: %q = %v", s.Entity.CanonicalName, s.Value)
		}
	}
}

func TestClosenessCentrality_Chain(t *testing.T) {
	g := buildGraph(t, "", [][2]string{
		{"Alpha", "Beta"},
		{"Beta", "Gamma"},
	})

	m := ClosenessCentrality(g)
	// Alpha reaches both others (distances 1 and 2): (2/2)*(2/3)
	if v := scoreOf(t, m, "Alpha"); !almostEqual(v, 2.0/3.0) {
		t.Fatalf("expected closeness 2/3 for Alpha, got %v", v)
	}
	if v := scoreOf(t, m, "Beta"); !almostEqual(v, 0.5) {
		t.Fatalf("expected closeness 0.5 for Beta, got %v", v)
	}
	// outgoing closeness: a sink reaches nothing
	if v := scoreOf(t, m, "Gamma"); v != 0 {
		t.Fatalf("expected closeness 0 for Gamma, got %v", v)
	}
	if m.Scores[0].Entity.CanonicalName != "Alpha" {
		t.Fatalf("expected Alpha ranked first, got %q", m.Scores[0].Entity.CanonicalName)
	}
}

func TestTopInward_DegreeAndWeight(t *testing.T) {
	r := newTestResolver()
	b := NewBuilder(r)
	for _, f := range [][2]string{
		{"Alpha", "Gamma"},
		{"Beta", "Gamma"},
		{"Alpha", "Beta"},
		{"Alpha", "Beta"},
		{"Alpha", "Beta"},
	} {
		b.AddRecord(testRecord(f[0], f[1]))
	}
	g := b.Finalize()

	byDegree := TopInward(g, 1, RankByDegree)
	if len(byDegree.Scores) != 1 || byDegree.Scores[0].Entity.CanonicalName != "Gamma" {
		t.Fatalf("expected Gamma as top in-degree, got %+v", byDegree.Scores)
	}

	byWeight := TopInward(g, 1, RankByWeight)
	if byWeight.Scores[0].Entity.CanonicalName != "Beta" || byWeight.Scores[0].Value != 3 {
		t.Fatalf("expected Beta with inbound weight 3, got %q (%v)",
			byWeight.Scores[0].Entity.CanonicalName, byWeight.Scores[0].Value)
	}
}

func TestTopOutward_CapLargerThanGraph(t *testing.T) {
	g := buildGraph(t, "", [][2]string{
		{"Alpha", "Beta"},
	})

	m := TopOutward(g, 50, RankByDegree)
	if len(m.Scores) != 2 {
		t.Fatalf("expected all 2 nodes when n exceeds the graph, got %d", len(m.Scores))
	}
	if m.Scores[0].Entity.CanonicalName != "Alpha" {
		t.Fatalf("expected Alpha ranked first, got %q", m.Scores[0].Entity.CanonicalName)
	}
}

func TestMetrics_EmptyGraph(t *testing.T) {
	g := buildGraph(t, "", nil)

	for _, m := range []MetricResult{
		DegreeCentrality(g),
		BetweennessCentrality(g),
		ClosenessCentrality(g),
		TopInward(g, 10, RankByDegree),
		TopOutward(g, 10, RankByDegree),
	} {
		if len(m.Scores) != 0 {
			t.Fatalf("metric %s: expected no scores on empty graph, got %d", m.Name, len(m.Scores))
		}
	}
}
