package flowgraph

import (
	"errors"
	"testing"
)

func TestBuildSpanningTree_RootedChain(t *testing.T) {
	g := buildGraph(t, "", [][2]string{
		{"Alpha", "Beta"},
		{"Beta", "Gamma"},
	})

	tree, err := BuildSpanningTree(g, findNode(t, g, "Alpha"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Root.CanonicalName != "Alpha" {
		t.Fatalf("expected root Alpha, got %q", tree.Root.CanonicalName)
	}
	if len(tree.Edges) != 2 {
		t.Fatalf("expected 2 tree edges, got %d", len(tree.Edges))
	}
	if len(tree.Disconnected) != 0 {
		t.Fatalf("expected no disconnected nodes, got %d", len(tree.Disconnected))
	}
}

func TestBuildSpanningTree_FallbackRoot(t *testing.T) {
	// Beta has the highest out-degree
	g := buildGraph(t, "", [][2]string{
		{"Beta", "Alpha"},
		{"Beta", "Gamma"},
		{"Alpha", "Gamma"},
	})

	tree, err := BuildSpanningTree(g, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Root.CanonicalName != "Beta" {
		t.Fatalf("expected fallback root Beta, got %q", tree.Root.CanonicalName)
	}
}

func TestBuildSpanningTree_FallbackRootTieBreak(t *testing.T) {
	// equal out-degrees, lexically smallest name wins
	g := buildGraph(t, "", [][2]string{
		{"Gamma", "Delta"},
		{"Alpha", "Beta"},
	})

	tree, err := BuildSpanningTree(g, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Root.CanonicalName != "Alpha" {
		t.Fatalf("expected root Alpha on tie, got %q", tree.Root.CanonicalName)
	}
}

func TestBuildSpanningTree_DisconnectedNodesListed(t *testing.T) {
	g := buildGraph(t, "", [][2]string{
		{"Alpha", "Beta"},
		{"Gamma", "Delta"},
	})

	tree, err := BuildSpanningTree(g, findNode(t, g, "Alpha"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Edges) != 1 {
		t.Fatalf("expected 1 tree edge, got %d", len(tree.Edges))
	}
	if len(tree.Disconnected) != 2 {
		t.Fatalf("expected 2 disconnected nodes, got %d", len(tree.Disconnected))
	}
}

func TestBuildSpanningTree_DeterministicChildOrder(t *testing.T) {
	g := buildGraph(t, "", [][2]string{
		{"Alpha", "Gamma"},
		{"Alpha", "Beta"},
	})

	tree, err := BuildSpanningTree(g, findNode(t, g, "Alpha"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Edges[0].To.CanonicalName != "Beta" || tree.Edges[1].To.CanonicalName != "Gamma" {
		t.Fatalf("expected children in name order, got %q then %q",
			tree.Edges[0].To.CanonicalName, tree.Edges[1].To.CanonicalName)
	}
}

func TestBuildSpanningTree_EmptyGraph(t *testing.T) {
	_, err := BuildSpanningTree(buildGraph(t, "", nil), nil)
	if !errors.Is(err, ErrNoSpanningRoot) {
		t.Fatalf("expected ErrNoSpanningRoot, got %v", err)
	}
}
