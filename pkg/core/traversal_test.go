package core

import (
	"reflect"
	"testing"
)

func kinds(refs []ResourceReference) []string {
	var out []string
	for _, r := range refs {
		out = append(out, r.Kind)
	}
	return out
}

func position(refs []ResourceReference, kind string) int {
	for i, r := range refs {
		if r.Kind == kind {
			return i
		}
	}
	return -1
}

func TestTopologicalOrderValidity(t *testing.T) {
	// Server requires ResourceGroup and Subnet; Subnet requires
	// VirtualNetwork; VirtualNetwork requires ResourceGroup.
	server := ref("Server")
	edges := []ResourceDependency{
		requiredEdge(server, ref("ResourceGroup")),
		requiredEdge(server, ref("Subnet")),
		requiredEdge(ref("Subnet"), ref("VirtualNetwork")),
		requiredEdge(ref("VirtualNetwork"), ref("ResourceGroup")),
	}

	order, cyclic := TopologicalOrder(server, edges)
	if cyclic {
		t.Fatal("acyclic input reported as cyclic")
	}
	if len(order) != 4 {
		t.Fatalf("expected 4 nodes in order, got %v", kinds(order))
	}

	for _, edge := range edges {
		dependent := position(order, edge.Dependent.Kind)
		dependency := position(order, edge.Dependency.Kind)
		if dependency == -1 || dependent == -1 {
			t.Fatalf("missing node in order %v", kinds(order))
		}
		if dependency > dependent {
			t.Errorf("%s must deploy before %s, got order %v",
				edge.Dependency.Kind, edge.Dependent.Kind, kinds(order))
		}
	}
}

func TestTopologicalOrderTieBreak(t *testing.T) {
	// Two independent ready nodes: ties resolve by edge insertion order,
	// so B (supplied first) deploys before C, reproducibly.
	a := ref("A")
	edges := []ResourceDependency{
		requiredEdge(a, ref("B")),
		requiredEdge(a, ref("C")),
	}

	want := []string{"B", "C", "A"}
	for i := 0; i < 10; i++ {
		order, cyclic := TopologicalOrder(a, edges)
		if cyclic {
			t.Fatal("acyclic input reported as cyclic")
		}
		if got := kinds(order); !reflect.DeepEqual(got, want) {
			t.Fatalf("expected deterministic order %v, got %v", want, got)
		}
	}
}

func TestTopologicalOrderCycleFallback(t *testing.T) {
	a := ref("A")
	edges := []ResourceDependency{
		requiredEdge(a, ref("B")),
		requiredEdge(ref("B"), a),
	}

	order, cyclic := TopologicalOrder(a, edges)
	if !cyclic {
		t.Error("expected cycle to be reported")
	}
	if got := kinds(order); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("expected deterministic fallback [A B], got %v", got)
	}
}

func TestTopologicalOrderPartialCycle(t *testing.T) {
	// D is an honest dependency; the B<->C cycle must not prevent D from
	// sorting first.
	a := ref("A")
	edges := []ResourceDependency{
		requiredEdge(a, ref("D")),
		requiredEdge(a, ref("B")),
		requiredEdge(ref("B"), ref("C")),
		requiredEdge(ref("C"), ref("B")),
	}

	order, cyclic := TopologicalOrder(a, edges)
	if !cyclic {
		t.Error("expected cycle to be reported")
	}
	if len(order) != 4 {
		t.Fatalf("every node must appear exactly once, got %v", kinds(order))
	}
	if position(order, "D") > position(order, "A") {
		t.Errorf("D must deploy before A, got %v", kinds(order))
	}
}

func TestTopologicalOrderIgnoresOptionalEdges(t *testing.T) {
	a := ref("A")
	optional := requiredEdge(a, ref("B"))
	optional.Type = DependencyOptional

	order, cyclic := TopologicalOrder(a, []ResourceDependency{optional})
	if cyclic {
		t.Fatal("optional edges must not create cycles")
	}
	// The optional target contributes no ordering constraint and is not
	// part of the required node set.
	if got := kinds(order); !reflect.DeepEqual(got, []string{"A"}) {
		t.Errorf("expected only the primary, got %v", got)
	}
}

func TestTopologicalOrderPrimaryOnly(t *testing.T) {
	order, cyclic := TopologicalOrder(ref("A"), nil)
	if cyclic {
		t.Fatal("empty edge set reported as cyclic")
	}
	if got := kinds(order); !reflect.DeepEqual(got, []string{"A"}) {
		t.Errorf("expected [A], got %v", got)
	}
}
