package steps

import (
	"math"
	"reflect"
	"testing"

	"github.com/fundlens/fundlens-backend/internal/config"
)

// pathGraph is F1 - F2 - F3: all shortest paths between the endpoints
// run through the middle node.
func pathGraph() *weightedGraph {
	g := newWeightedGraph([]string{"F1", "F2", "F3"})
	g.addEdge("F1", "F2", 1.0)
	g.addEdge("F2", "F3", 1.0)
	return g
}

func TestComputeCentralityPathGraph(t *testing.T) {
	out := computeCentrality(pathGraph())
	if len(out) != 3 {
		t.Fatalf("centrality entries = %d, want 3", len(out))
	}

	mid := out["F2"]
	end := out["F1"]
	if mid.Betweenness != 1.0 {
		// One of one endpoint pair routes through F2; normalized over
		// (n-1)(n-2)/2 = 1 pair.
		t.Fatalf("middle betweenness = %v, want 1.0", mid.Betweenness)
	}
	if end.Betweenness != 0 {
		t.Fatalf("endpoint betweenness = %v, want 0", end.Betweenness)
	}
	if mid.Degree != 1.0 {
		t.Fatalf("middle degree = %v, want 1.0 (max-normalized)", mid.Degree)
	}
	if end.Degree != 0.5 {
		t.Fatalf("endpoint degree = %v, want 0.5", end.Degree)
	}
	if mid.Closeness <= end.Closeness {
		t.Fatalf("middle closeness %v not above endpoint %v", mid.Closeness, end.Closeness)
	}
	if mid.PageRank <= end.PageRank {
		t.Fatalf("middle pagerank %v not above endpoint %v", mid.PageRank, end.PageRank)
	}
	for id, c := range out {
		for name, v := range map[string]float64{
			"degree": c.Degree, "betweenness": c.Betweenness,
			"closeness": c.Closeness, "influence": c.Influence,
		} {
			if v < 0 || v > 1 || math.IsNaN(v) {
				t.Fatalf("%s %s = %v out of [0, 1]", id, name, v)
			}
		}
	}
}

func TestComputeCentralityDisconnected(t *testing.T) {
	g := newWeightedGraph([]string{"F1", "F2", "F3", "F4"})
	g.addEdge("F1", "F2", 1.0)
	// F3 and F4 are isolated.
	out := computeCentrality(g)
	for _, id := range []string{"F3", "F4"} {
		c := out[id]
		if c.Betweenness != 0 || c.Closeness != 0 || c.Degree != 0 {
			t.Fatalf("isolated node %s has nonzero centrality: %+v", id, c)
		}
	}
}

func TestComputeCentralityDeterministic(t *testing.T) {
	first := computeCentrality(twoTrianglesWithBridge())
	for i := 0; i < 5; i++ {
		if again := computeCentrality(twoTrianglesWithBridge()); !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d centrality differs from first run", i)
		}
	}
}

func TestFindBridgesBetweenTriangles(t *testing.T) {
	g := twoTrianglesWithBridge()
	louvain := runLouvain(g, 20)
	centrality := computeCentrality(g)

	// Widen the decile so both bridge endpoints fall inside it on a
	// 6-node graph.
	tuning := config.Defaults()
	tuning.BridgeTopDecile = 0.34

	bridges := findBridges(g, louvain, centrality, tuning)
	if !reflect.DeepEqual(bridges, []string{"F3", "F4"}) {
		t.Fatalf("bridges = %v, want [F3 F4]", bridges)
	}
}

func TestFindBridgesNoneInSingleClique(t *testing.T) {
	g := newWeightedGraph([]string{"F1", "F2", "F3"})
	g.addEdge("F1", "F2", 1.0)
	g.addEdge("F2", "F3", 1.0)
	g.addEdge("F1", "F3", 1.0)
	louvain := runLouvain(g, 20)
	centrality := computeCentrality(g)

	if bridges := findBridges(g, louvain, centrality, config.Defaults()); len(bridges) != 0 {
		t.Fatalf("bridges in a clique = %v, want none", bridges)
	}
}
