package transform

import (
	"math"

	"github.com/matzehuels/archflow/pkg/dag"
)

// AssignLayers assigns every node a rank so that each edge u→v satisfies
// rank(v) - rank(u) >= minlen(u→v).
//
// Ranks come from a longest-path pass over a topological order (Kahn's
// algorithm): sources start at rank 0 and each node sits at the maximum of
// rank(parent)+minlen over its incoming edges. A tightening pass then moves
// every source down to just above its closest child, so sources feeding
// only deep nodes do not leave long edges behind. Finally ranks are shifted
// to start at 0.
//
// # Cycles
//
// AssignLayers assumes the graph is acyclic. Nodes on a cycle never reach
// in-degree zero and stay at rank 0. Run [BreakCycles] first.
//
// # Performance
//
// Time complexity is O(V + E).
func AssignLayers(g *dag.DAG) {
	nodes := g.Nodes()
	if len(nodes) == 0 {
		return
	}

	inDegree := make(map[string]int, len(nodes))
	ranks := make(map[string]int, len(nodes))
	queue := make([]string, 0, len(nodes))

	for _, n := range nodes {
		degree := g.InDegree(n.ID)
		inDegree[n.ID] = degree
		if degree == 0 {
			queue = append(queue, n.ID)
		}
	}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		for _, e := range g.OutEdges(curr) {
			if r := ranks[curr] + e.Span(); r > ranks[e.To] {
				ranks[e.To] = r
			}
			inDegree[e.To]--
			if inDegree[e.To] == 0 {
				queue = append(queue, e.To)
			}
		}
	}

	tightenSources(g, ranks)

	low := math.MaxInt
	for _, r := range ranks {
		low = min(low, r)
	}
	for _, n := range nodes {
		if _, ok := ranks[n.ID]; !ok {
			ranks[n.ID] = 0
			low = min(low, 0)
		}
	}
	if low != 0 {
		for id := range ranks {
			ranks[id] -= low
		}
	}

	g.SetRanks(ranks)
}

func tightenSources(g *dag.DAG, ranks map[string]int) {
	for _, n := range g.Sources() {
		out := g.OutEdges(n.ID)
		if len(out) == 0 {
			continue
		}
		best := math.MaxInt
		for _, e := range out {
			best = min(best, ranks[e.To]-e.Span())
		}
		if best > ranks[n.ID] {
			ranks[n.ID] = best
		}
	}
}
