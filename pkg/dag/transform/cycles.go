package transform

import "github.com/matzehuels/archflow/pkg/dag"

// CycleResult reports what [BreakCycles] changed.
type CycleResult struct {
	// Reversed holds the flipped edges as they now appear in the graph.
	Reversed []dag.Edge
	// SelfLoops holds the removed self-loops.
	SelfLoops []dag.Edge
}

// Changed returns the number of edges reversed or removed.
func (r CycleResult) Changed() int { return len(r.Reversed) + len(r.SelfLoops) }

// BreakCycles makes the graph acyclic by reversing DFS back edges.
//
// The search starts from sources in insertion order and then visits any
// node not yet reached, so the choice of back edges is deterministic.
// Reversed edges keep their ID and metadata and have Reversed toggled, so
// callers can restore the original direction when routing. Self-loops
// cannot be reversed and are removed instead.
func BreakCycles(g *dag.DAG) CycleResult {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, g.NodeCount())
	var back []dag.Edge
	var loops []dag.Edge

	var dfs func(node string)
	dfs = func(node string) {
		color[node] = gray
		for _, e := range g.OutEdges(node) {
			if e.To == node {
				loops = append(loops, e)
				continue
			}
			switch color[e.To] {
			case white:
				dfs(e.To)
			case gray:
				back = append(back, e)
			}
		}
		color[node] = black
	}

	for _, n := range g.Sources() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}
	for _, n := range g.Nodes() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}

	var res CycleResult
	for _, e := range loops {
		removeEdge(g, e)
		res.SelfLoops = append(res.SelfLoops, e)
	}
	for _, e := range back {
		removeEdge(g, e)
		flipped := e
		flipped.From, flipped.To = e.To, e.From
		flipped.Reversed = !e.Reversed
		if err := g.AddEdge(flipped); err != nil {
			panic(err)
		}
		res.Reversed = append(res.Reversed, flipped)
	}
	return res
}

func removeEdge(g *dag.DAG, e dag.Edge) {
	if e.ID != "" {
		g.RemoveEdgeByID(e.ID)
		return
	}
	g.RemoveEdge(e.From, e.To)
}
