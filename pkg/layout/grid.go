package layout

import (
	"math"

	"github.com/matzehuels/archflow/pkg/diagram"
)

// Grid places nodes row by row on a near-square grid with ceil(sqrt(n))
// columns. Columns are as wide as their widest node and rows as deep as
// their deepest node, separated by nodesep and ranksep. Edges are drawn as
// straight segments clipped to the node outlines.
//
// Grid is what [Layered] uses for graphs without edges.
type Grid struct{}

// Name implements [Strategy].
func (Grid) Name() string { return "grid" }

// Layout implements [Strategy].
func (Grid) Layout(g Graph, opts Options) Result {
	opts = opts.WithDefaults()
	ax := axesFor(opts.Rankdir)
	keys := edgeKeys(g.Edges)
	f := newFrame()

	n := len(g.Nodes)
	if n == 0 {
		return finish(g, keys, f, ax, opts)
	}

	loops := selfLoops(g)
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	rows := (n + cols - 1) / cols
	colW := make([]float64, cols)
	rowH := make([]float64, rows)
	sizes := make(map[string]vec, n)
	for i, nb := range g.Nodes {
		ws, wp := ax.extent(nb.Width, nb.Height)
		sizes[nb.ID] = vec{ws, wp}
		c, r := i%cols, i/cols
		colW[c] = math.Max(colW[c], ws+loopReserve(g, loops[nb.ID], ax, opts.Edgesep))
		rowH[r] = math.Max(rowH[r], wp)
	}

	colStart := make([]float64, cols)
	for c := 1; c < cols; c++ {
		colStart[c] = colStart[c-1] + colW[c-1] + opts.Nodesep
	}
	rowStart := make([]float64, rows)
	for r := 1; r < rows; r++ {
		rowStart[r] = rowStart[r-1] + rowH[r-1] + opts.Ranksep
	}

	for i, nb := range g.Nodes {
		c, r := i%cols, i/cols
		f.centers[nb.ID] = vec{colStart[c] + sizes[nb.ID].s/2, rowStart[r] + rowH[r]/2}
		f.ranks[nb.ID] = r
	}

	circles := make(map[string]bool, n)
	for _, nb := range g.Nodes {
		circles[nb.ID] = nb.Circle
	}
	for i, e := range g.Edges {
		if e.Source == e.Target {
			continue
		}
		sc, okS := f.centers[e.Source]
		tc, okT := f.centers[e.Target]
		if !okS || !okT {
			continue
		}
		from := clip(sc, sizes[e.Source], circles[e.Source], tc)
		to := clip(tc, sizes[e.Target], circles[e.Target], sc)
		pts := polyline([]vec{from, to})
		f.routes[keys[i]] = pts
		f.labels[keys[i]] = midpoint(pts)
	}
	routeLoops(f, g, keys, loops, sizes, circles, ax, opts.Edgesep)

	return finish(g, keys, f, ax, opts)
}

// clip returns where the ray from a node's center toward p leaves its
// outline.
func clip(c, size vec, circle bool, p vec) vec {
	var hit diagram.Point
	target := diagram.Point{X: p.s, Y: p.p}
	center := diagram.Point{X: c.s, Y: c.p}
	if circle {
		hit = diagram.CircleIntersection(target, center, math.Min(size.s, size.p)/2)
	} else {
		hit = diagram.RectIntersection(target, diagram.RectAround(center, diagram.Size{W: size.s, H: size.p}))
	}
	return vec{hit.X, hit.Y}
}
