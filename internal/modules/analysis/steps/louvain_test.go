package steps

import (
	"reflect"
	"testing"
)

// twoTrianglesWithBridge is F1-F2-F3 and F4-F5-F6 fully connected, with
// a single weak edge F3-F4 joining the halves.
func twoTrianglesWithBridge() *weightedGraph {
	g := newWeightedGraph([]string{"F1", "F2", "F3", "F4", "F5", "F6"})
	g.addEdge("F1", "F2", 1.0)
	g.addEdge("F2", "F3", 1.0)
	g.addEdge("F1", "F3", 1.0)
	g.addEdge("F4", "F5", 1.0)
	g.addEdge("F5", "F6", 1.0)
	g.addEdge("F4", "F6", 1.0)
	g.addEdge("F3", "F4", 0.2)
	return g
}

func TestRunLouvainTwoCommunities(t *testing.T) {
	res := runLouvain(twoTrianglesWithBridge(), 20)
	if !res.converged {
		t.Fatalf("louvain did not converge on a 6-node graph")
	}
	if len(res.groups) != 2 {
		t.Fatalf("groups = %v, want 2 communities", res.groups)
	}
	if !reflect.DeepEqual(res.groups[0], []string{"F1", "F2", "F3"}) {
		t.Fatalf("group 0 = %v, want [F1 F2 F3]", res.groups[0])
	}
	if !reflect.DeepEqual(res.groups[1], []string{"F4", "F5", "F6"}) {
		t.Fatalf("group 1 = %v, want [F4 F5 F6]", res.groups[1])
	}
	if res.community["F1"] == res.community["F4"] {
		t.Fatalf("bridge endpoints merged into one community")
	}
	if res.modularity <= 0 {
		t.Fatalf("modularity = %v, want > 0 for a clustered graph", res.modularity)
	}
}

func TestRunLouvainDeterministic(t *testing.T) {
	first := runLouvain(twoTrianglesWithBridge(), 20)
	for i := 0; i < 10; i++ {
		again := runLouvain(twoTrianglesWithBridge(), 20)
		if !reflect.DeepEqual(first.groups, again.groups) {
			t.Fatalf("run %d produced %v, first run produced %v", i, again.groups, first.groups)
		}
		if first.modularity != again.modularity {
			t.Fatalf("run %d modularity %v != %v", i, again.modularity, first.modularity)
		}
	}
}

func TestRunLouvainEmptyAndSingleton(t *testing.T) {
	res := runLouvain(newWeightedGraph(nil), 20)
	if !res.converged || len(res.groups) != 0 {
		t.Fatalf("empty graph result = %+v", res)
	}

	res = runLouvain(newWeightedGraph([]string{"F1"}), 20)
	if !res.converged || len(res.groups) != 1 || res.groups[0][0] != "F1" {
		t.Fatalf("singleton result = %+v", res)
	}
}

func TestRunLouvainIterationCap(t *testing.T) {
	// A cap of zero iterations can never observe a stable pass.
	res := runLouvain(twoTrianglesWithBridge(), 0)
	if res.converged {
		t.Fatalf("zero-iteration run reported convergence")
	}
	if len(res.groups) == 0 {
		t.Fatalf("capped run returned no partition")
	}
}
