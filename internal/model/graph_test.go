package model

import "testing"

func jobs(names ...[2]string) []*Job {
	var out []*Job
	for _, n := range names {
		var deps []string
		if n[1] != "" {
			deps = []string{n[1]}
		}
		out = append(out, &Job{Name: n[0], DependsOn: deps})
	}
	return out
}

func TestBuildGraph_LinearOrder(t *testing.T) {
	js := jobs([2]string{"a", ""}, [2]string{"b", "a"}, [2]string{"c", "b"})
	g, err := BuildGraph(js)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	order, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"a", "b", "c"}
	for i, name := range want {
		if order[i] != name {
			t.Errorf("order[%d] = %q, want %q (full: %v)", i, order[i], name, order)
		}
	}
}

func TestBuildGraph_LexicographicTieBreak(t *testing.T) {
	// b, c, a all have no dependencies: topological order must be
	// alphabetical since Kahn's algorithm breaks ties lexicographically
	// (spec.md §4.1).
	js := []*Job{
		{Name: "b"},
		{Name: "c"},
		{Name: "a"},
	}
	g, err := BuildGraph(js)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	order, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"a", "b", "c"}
	for i, name := range want {
		if order[i] != name {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestBuildGraph_DuplicateName(t *testing.T) {
	js := []*Job{{Name: "a"}, {Name: "a"}}
	_, err := BuildGraph(js)
	var dupErr *DuplicateJobNameError
	if err == nil {
		t.Fatal("expected DuplicateJobNameError, got nil")
	}
	if _, ok := err.(*DuplicateJobNameError); !ok {
		t.Fatalf("expected *DuplicateJobNameError, got %T", err)
	}
	_ = dupErr
}

func TestBuildGraph_UnknownDependency(t *testing.T) {
	js := []*Job{{Name: "a", DependsOn: []string{"missing"}}}
	_, err := BuildGraph(js)
	if _, ok := err.(*UnknownDependencyError); !ok {
		t.Fatalf("expected *UnknownDependencyError, got %T (%v)", err, err)
	}
}

func TestBuildGraph_Cycle(t *testing.T) {
	js := []*Job{
		{Name: "a", DependsOn: []string{"c"}},
		{Name: "b", DependsOn: []string{"a"}},
		{Name: "c", DependsOn: []string{"b"}},
	}
	_, err := BuildGraph(js)
	cycleErr, ok := err.(*CycleError)
	if !ok {
		t.Fatalf("expected *CycleError, got %T (%v)", err, err)
	}
	if len(cycleErr.Cycle) == 0 {
		t.Error("expected a non-empty cycle path")
	}
}

func TestGraph_Eligible(t *testing.T) {
	js := jobs([2]string{"a", ""}, [2]string{"b", "a"}, [2]string{"c", "a"})
	g, err := BuildGraph(js)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	none := g.Eligible(map[string]bool{})
	if len(none) != 1 || none[0] != "a" {
		t.Fatalf("Eligible(none done) = %v, want [a]", none)
	}

	afterA := g.Eligible(map[string]bool{"a": true})
	want := []string{"b", "c"}
	if len(afterA) != 2 || afterA[0] != want[0] || afterA[1] != want[1] {
		t.Fatalf("Eligible(a done) = %v, want %v", afterA, want)
	}

	afterAll := g.Eligible(map[string]bool{"a": true, "b": true, "c": true})
	if len(afterAll) != 0 {
		t.Fatalf("Eligible(all done) = %v, want empty", afterAll)
	}
}

func TestGraph_MergeOrder(t *testing.T) {
	js := jobs([2]string{"a", ""}, [2]string{"b", "a"})
	g, err := BuildGraph(js)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	order, err := g.MergeOrder()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order["a"] >= order["b"] {
		t.Errorf("MergeOrder: a (%d) should sort before b (%d)", order["a"], order["b"])
	}
}
