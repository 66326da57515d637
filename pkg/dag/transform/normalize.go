package transform

import "github.com/matzehuels/archflow/pkg/dag"

// Normalized reports what [Normalize] changed.
type Normalized struct {
	CycleResult
	// Chains maps each subdivided edge ID to its node path, as returned
	// by [Subdivide].
	Chains map[string][]string
}

// Normalize prepares a graph for layered layout: it breaks cycles, assigns
// ranks honoring minimum edge lengths and subdivides long edges. The graph
// is modified in place and satisfies [dag.DAG.Validate] afterwards.
func Normalize(g *dag.DAG, labels map[string]Extent) Normalized {
	res := BreakCycles(g)
	AssignLayers(g)
	return Normalized{CycleResult: res, Chains: Subdivide(g, labels)}
}
