package layout

import (
	"cmp"
	"slices"

	"github.com/matzehuels/archflow/pkg/dag"
	"github.com/matzehuels/archflow/pkg/dag/perm"
)

const (
	// DefaultPasses is the number of alternating median sweeps.
	DefaultPasses = 24

	maxTransposeRounds = 8
	maxPermutations    = 720
)

// orderRanks arranges the nodes within each rank to reduce crossings and
// returns the best ordering seen together with its crossing count.
//
// Starting from a depth-first order, it alternates downward and upward
// median sweeps, each followed by adjacent transposition, and keeps the
// ordering with the fewest crossings. Narrow ranks are then searched
// exhaustively with their neighbors held fixed.
func orderRanks(g *dag.DAG, passes int) (map[int][]string, int) {
	orders := initialOrder(g)
	best := cloneOrders(orders)
	bestCross := dag.CountCrossings(g, orders)
	maxRank := g.MaxRank()

	for i := 0; i < passes && bestCross > 0; i++ {
		if i%2 == 0 {
			for r := 1; r <= maxRank; r++ {
				orders[r] = medianSort(g, orders[r], orders[r-1], true)
			}
		} else {
			for r := maxRank - 1; r >= 0; r-- {
				orders[r] = medianSort(g, orders[r], orders[r+1], false)
			}
		}
		transpose(g, orders, maxRank)

		if c := dag.CountCrossings(g, orders); c < bestCross {
			best, bestCross = cloneOrders(orders), c
		}
	}

	if bestCross > 0 {
		refineNarrowRanks(g, best, maxRank)
		bestCross = dag.CountCrossings(g, best)
	}
	return best, bestCross
}

// initialOrder lists nodes per rank in depth-first discovery order, starting
// from sources in insertion order.
func initialOrder(g *dag.DAG) map[int][]string {
	orders := make(map[int][]string, g.RankCount())
	seen := make(map[string]bool, g.NodeCount())

	var visit func(id string)
	visit = func(id string) {
		if seen[id] {
			return
		}
		seen[id] = true
		n, _ := g.Node(id)
		orders[n.Rank] = append(orders[n.Rank], id)
		for _, child := range g.Children(id) {
			visit(child)
		}
	}

	for _, id := range dag.NodeIDs(g.Sources()) {
		visit(id)
	}
	for _, id := range dag.NodeIDs(g.Nodes()) {
		visit(id)
	}
	return orders
}

// medianSort reorders rank by the weighted median position of each node's
// neighbors in adj. Nodes without neighbors there keep their slot.
func medianSort(g *dag.DAG, rank, adj []string, useParents bool) []string {
	if len(rank) < 2 {
		return rank
	}
	pos := dag.PosMap(adj)

	type item struct {
		id     string
		median float64
		index  int
	}
	fixed := make([]bool, len(rank))
	var movable []item

	for i, id := range rank {
		nbrs := g.Children(id)
		if useParents {
			nbrs = g.Parents(id)
		}
		var ps []int
		for _, nb := range nbrs {
			if p, ok := pos[nb]; ok {
				ps = append(ps, p)
			}
		}
		if len(ps) == 0 {
			fixed[i] = true
			continue
		}
		movable = append(movable, item{id, weightedMedian(ps), i})
	}

	slices.SortStableFunc(movable, func(a, b item) int {
		if c := cmp.Compare(a.median, b.median); c != 0 {
			return c
		}
		return cmp.Compare(a.index, b.index)
	})

	out := make([]string, len(rank))
	j := 0
	for i, id := range rank {
		if fixed[i] {
			out[i] = id
			continue
		}
		out[i] = movable[j].id
		j++
	}
	return out
}

// weightedMedian returns the median of ps, interpolating for even counts
// toward the side whose positions are packed more tightly.
func weightedMedian(ps []int) float64 {
	slices.Sort(ps)
	n := len(ps)
	m := n / 2
	switch {
	case n%2 == 1:
		return float64(ps[m])
	case n == 2:
		return float64(ps[0]+ps[1]) / 2
	}
	left := float64(ps[m-1] - ps[0])
	right := float64(ps[n-1] - ps[m])
	if left+right == 0 {
		return float64(ps[m-1]+ps[m]) / 2
	}
	return (float64(ps[m-1])*right + float64(ps[m])*left) / (left + right)
}

// transpose swaps adjacent nodes while doing so reduces crossings with the
// neighboring ranks.
func transpose(g *dag.DAG, orders map[int][]string, maxRank int) {
	for round := 0; round < maxTransposeRounds; round++ {
		improved := false
		for r := 0; r <= maxRank; r++ {
			rank := orders[r]
			var above, below map[string]int
			if r > 0 {
				above = dag.PosMap(orders[r-1])
			}
			if r < maxRank {
				below = dag.PosMap(orders[r+1])
			}
			for i := 0; i+1 < len(rank); i++ {
				v, w := rank[i], rank[i+1]
				if pairCost(g, w, v, above, below) < pairCost(g, v, w, above, below) {
					rank[i], rank[i+1] = w, v
					improved = true
				}
			}
		}
		if !improved {
			return
		}
	}
}

func pairCost(g *dag.DAG, left, right string, above, below map[string]int) int {
	c := 0
	if above != nil {
		c += dag.CountPairCrossings(g, left, right, above, true)
	}
	if below != nil {
		c += dag.CountPairCrossings(g, left, right, below, false)
	}
	return c
}

// refineNarrowRanks tries every permutation of ranks with at most
// maxPermutations orderings and keeps any that lowers the local crossing count.
func refineNarrowRanks(g *dag.DAG, orders map[int][]string, maxRank int) {
	local := func(r int, rank []string) int {
		c := 0
		if r > 0 {
			c += dag.CountLayerCrossings(g, orders[r-1], rank)
		}
		if r < maxRank {
			c += dag.CountLayerCrossings(g, rank, orders[r+1])
		}
		return c
	}

	for r := 0; r <= maxRank; r++ {
		rank := orders[r]
		if len(rank) < 2 || perm.Factorial(len(rank)) > maxPermutations {
			continue
		}
		best, bestCost := rank, local(r, rank)
		for p := range perm.All(len(rank)) {
			if bestCost == 0 {
				break
			}
			cand := perm.Apply(rank, p)
			if c := local(r, cand); c < bestCost {
				best, bestCost = cand, c
			}
		}
		orders[r] = best
	}
}

func cloneOrders(orders map[int][]string) map[int][]string {
	out := make(map[int][]string, len(orders))
	for r, ids := range orders {
		out[r] = slices.Clone(ids)
	}
	return out
}
