package model

import (
	"fmt"
	"sort"
	"strings"
)

// Graph is the job dependency DAG for a single plan, built fresh from the
// persisted job slice on every reconciler pass (spec.md §9: "do not embed
// job pointers"). Grounded on the teacher pack's scheduler.Graph
// (choo/internal/scheduler/graph.go), retargeted from unit IDs to job names.
type Graph struct {
	nodes      map[string]bool
	edges      map[string][]string
	dependents map[string][]string
}

// CycleError indicates a circular dependency was detected among job names.
type CycleError struct {
	Cycle []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("circular job dependency: %s", strings.Join(e.Cycle, " -> "))
}

// UnknownDependencyError indicates dependsOn names a job absent from the plan.
type UnknownDependencyError struct {
	Job        string
	Dependency string
}

func (e *UnknownDependencyError) Error() string {
	return fmt.Sprintf("job %q depends on unknown job %q", e.Job, e.Dependency)
}

// DuplicateJobNameError indicates two jobs in the same plan share a name.
type DuplicateJobNameError struct {
	Name string
}

func (e *DuplicateJobNameError) Error() string {
	return fmt.Sprintf("duplicate job name %q in plan", e.Name)
}

// BuildGraph constructs the dependency graph for a job slice. It returns
// DuplicateJobNameError, UnknownDependencyError, or CycleError on the
// respective invariant violation (spec.md §3, §8).
func BuildGraph(jobs []*Job) (*Graph, error) {
	g := &Graph{
		nodes:      make(map[string]bool, len(jobs)),
		edges:      make(map[string][]string, len(jobs)),
		dependents: make(map[string][]string, len(jobs)),
	}

	for _, j := range jobs {
		if g.nodes[j.Name] {
			return nil, &DuplicateJobNameError{Name: j.Name}
		}
		g.nodes[j.Name] = true
	}

	for _, j := range jobs {
		g.edges[j.Name] = append([]string(nil), j.DependsOn...)
		for _, dep := range j.DependsOn {
			if !g.nodes[dep] {
				return nil, &UnknownDependencyError{Job: j.Name, Dependency: dep}
			}
			g.dependents[dep] = append(g.dependents[dep], j.Name)
		}
	}

	if _, err := g.TopologicalSort(); err != nil {
		return nil, err
	}
	return g, nil
}

// TopologicalSort returns job names in a valid execution order using Kahn's
// algorithm; ties are broken lexicographically for determinism.
func (g *Graph) TopologicalSort() ([]string, error) {
	inDegree := make(map[string]int, len(g.nodes))
	for n := range g.nodes {
		inDegree[n] = len(g.edges[n])
	}

	var queue []string
	for n := range g.nodes {
		if inDegree[n] == 0 {
			queue = append(queue, n)
		}
	}
	sort.Strings(queue)

	var result []string
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		result = append(result, cur)

		deps := append([]string(nil), g.dependents[cur]...)
		sort.Strings(deps)
		for _, d := range deps {
			inDegree[d]--
			if inDegree[d] == 0 {
				queue = append(queue, d)
			}
		}
		sort.Strings(queue)
	}

	if len(result) != len(g.nodes) {
		return nil, &CycleError{Cycle: g.findCycle()}
	}
	return result, nil
}

// MergeOrder assigns mergeOrder to each job from its topological rank, the
// persisted tie-break rule of spec.md §4.1.
func (g *Graph) MergeOrder() (map[string]int, error) {
	order, err := g.TopologicalSort()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(order))
	for i, name := range order {
		out[name] = i
	}
	return out, nil
}

// Eligible returns nodes whose dependencies are all present in done.
func (g *Graph) Eligible(done map[string]bool) []string {
	var out []string
	for n := range g.nodes {
		if done[n] {
			continue
		}
		ready := true
		for _, dep := range g.edges[n] {
			if !done[dep] {
				ready = false
				break
			}
		}
		if ready {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

func (g *Graph) findCycle() []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(g.nodes))
	parent := make(map[string]string, len(g.nodes))
	for n := range g.nodes {
		color[n] = white
	}

	var cycle []string
	var dfs func(string) bool
	dfs = func(node string) bool {
		color[node] = gray
		deps := append([]string(nil), g.dependents[node]...)
		sort.Strings(deps)
		for _, dep := range deps {
			if color[dep] == gray {
				cycle = []string{dep}
				cur := node
				for cur != dep {
					cycle = append([]string{cur}, cycle...)
					cur = parent[cur]
				}
				cycle = append(cycle, dep)
				return true
			}
			if color[dep] == white {
				parent[dep] = node
				if dfs(dep) {
					return true
				}
			}
		}
		color[node] = black
		return false
	}

	var nodes []string
	for n := range g.nodes {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)
	for _, n := range nodes {
		if color[n] == white {
			if dfs(n) {
				return cycle
			}
		}
	}
	return nil
}
