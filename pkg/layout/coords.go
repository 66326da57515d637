package layout

import (
	"math"

	"github.com/matzehuels/archflow/pkg/dag"
)

const coordPasses = 8

// bands holds the primary-axis span of every rank.
type bands struct {
	start, extent []float64
}

func (b bands) end(r int) float64    { return b.start[r] + b.extent[r] }
func (b bands) center(r int) float64 { return b.start[r] + b.extent[r]/2 }

// rankBands stacks ranks along the primary axis. Each band is as deep as
// its deepest node; consecutive bands are ranksep apart, or half that when
// either band holds only dummies.
func rankBands(g *dag.DAG, maxRank int, ranksep float64) bands {
	b := bands{
		start:  make([]float64, maxRank+1),
		extent: make([]float64, maxRank+1),
	}
	dummyOnly := make([]bool, maxRank+1)
	for r := range dummyOnly {
		dummyOnly[r] = true
	}
	for _, r := range g.RankIDs() {
		if r < 0 || r > maxRank {
			continue
		}
		for _, n := range g.NodesInRank(r) {
			b.extent[r] = math.Max(b.extent[r], n.Height)
			if !n.IsDummy() {
				dummyOnly[r] = false
			}
		}
	}
	for r := 1; r <= maxRank; r++ {
		gap := ranksep
		if dummyOnly[r-1] || dummyOnly[r] {
			gap = ranksep / 2
		}
		b.start[r] = b.end(r-1) + gap
	}
	return b
}

// spacing holds the secondary-axis separation rules.
type spacing struct {
	nodesep, edgesep float64
	reserve          map[string]float64 // extra room on a node's + side
}

// gap returns the minimum center distance between adjacent nodes a and b
// (a before b).
func (sp spacing) gap(a, b *dag.Node) float64 {
	sep := sp.edgesep
	if !a.IsDummy() && !b.IsDummy() {
		sep = sp.nodesep
	}
	return (a.Width+b.Width)/2 + sep + sp.reserve[a.ID]
}

// assignSecondary places nodes along the secondary axis.
//
// Each rank starts packed and centered. Alternating sweeps then pull every
// node toward the mean position of its neighbors in the previous rank,
// solving each rank as a weighted isotonic regression so that the order and
// minimum separations are kept exactly.
func assignSecondary(g *dag.DAG, orders map[int][]string, maxRank int, sp spacing) map[string]float64 {
	x := make(map[string]float64, g.NodeCount())
	offsets := make(map[int][]float64, maxRank+1)

	for r := 0; r <= maxRank; r++ {
		ids := orders[r]
		off := make([]float64, len(ids))
		for i := 1; i < len(ids); i++ {
			a, _ := g.Node(ids[i-1])
			b, _ := g.Node(ids[i])
			off[i] = off[i-1] + sp.gap(a, b)
		}
		offsets[r] = off
		if len(ids) == 0 {
			continue
		}
		mid := off[len(off)-1] / 2
		for i, id := range ids {
			x[id] = off[i] - mid
		}
	}

	for pass := 0; pass < coordPasses; pass++ {
		if pass%2 == 0 {
			for r := 1; r <= maxRank; r++ {
				placeRank(g, orders[r], offsets[r], x, true)
			}
		} else {
			for r := maxRank - 1; r >= 0; r-- {
				placeRank(g, orders[r], offsets[r], x, false)
			}
		}
	}
	return x
}

func placeRank(g *dag.DAG, ids []string, off []float64, x map[string]float64, useParents bool) {
	if len(ids) == 0 {
		return
	}
	y := make([]float64, len(ids))
	w := make([]float64, len(ids))
	for i, id := range ids {
		nbrs := g.Children(id)
		if useParents {
			nbrs = g.Parents(id)
		}
		target, weight := x[id], 0.5
		if len(nbrs) > 0 {
			sum := 0.0
			for _, nb := range nbrs {
				sum += x[nb]
			}
			target = sum / float64(len(nbrs))
			weight = float64(len(nbrs))
			if n, _ := g.Node(id); n.IsDummy() {
				weight *= 2
			}
		}
		y[i] = target - off[i]
		w[i] = weight
	}
	fit := isotonic(y, w)
	for i, id := range ids {
		x[id] = fit[i] + off[i]
	}
}

// isotonic returns the weighted least-squares non-decreasing fit of y
// (pool adjacent violators). Weights must be positive.
func isotonic(y, w []float64) []float64 {
	type block struct {
		sum, weight float64
		n           int
	}
	mean := func(b block) float64 { return b.sum / b.weight }

	stack := make([]block, 0, len(y))
	for i := range y {
		b := block{y[i] * w[i], w[i], 1}
		for len(stack) > 0 && mean(stack[len(stack)-1]) > mean(b) {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			b = block{top.sum + b.sum, top.weight + b.weight, top.n + b.n}
		}
		stack = append(stack, b)
	}

	out := make([]float64, 0, len(y))
	for _, b := range stack {
		m := mean(b)
		for range b.n {
			out = append(out, m)
		}
	}
	return out
}
