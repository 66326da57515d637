package layout

import (
	"math"

	"github.com/matzehuels/archflow/pkg/diagram"
)

// vec is a point in layout space: s runs within a rank (secondary axis)
// and p runs across ranks (primary axis).
type vec struct{ s, p float64 }

// axes maps between layout space and diagram coordinates.
type axes struct{ lr bool }

func axesFor(dir diagram.Rankdir) axes { return axes{lr: dir == diagram.RankdirLR} }

// extent returns a width/height pair as (secondary, primary) extents.
func (a axes) extent(w, h float64) (sec, prim float64) {
	if a.lr {
		return h, w
	}
	return w, h
}

func (a axes) point(v vec) diagram.Point {
	if a.lr {
		return diagram.Point{X: v.p, Y: v.s}
	}
	return diagram.Point{X: v.s, Y: v.p}
}

// frame is a laid-out graph (or component) in layout space.
type frame struct {
	centers   map[string]vec
	routes    map[string][]vec
	labels    map[string]vec
	reversed  map[string]bool
	ranks     map[string]int
	crossings int
}

func newFrame() *frame {
	return &frame{
		centers:  make(map[string]vec),
		routes:   make(map[string][]vec),
		labels:   make(map[string]vec),
		reversed: make(map[string]bool),
		ranks:    make(map[string]int),
	}
}

// shift translates everything in the frame.
func (f *frame) shift(ds, dp float64) {
	for id, c := range f.centers {
		f.centers[id] = vec{c.s + ds, c.p + dp}
	}
	for k, pts := range f.routes {
		for i := range pts {
			pts[i].s += ds
			pts[i].p += dp
		}
		f.routes[k] = pts
	}
	for k, l := range f.labels {
		f.labels[k] = vec{l.s + ds, l.p + dp}
	}
}

// merge copies another frame's content into f.
func (f *frame) merge(o *frame) {
	for k, v := range o.centers {
		f.centers[k] = v
	}
	for k, v := range o.routes {
		f.routes[k] = v
	}
	for k, v := range o.labels {
		f.labels[k] = v
	}
	for k, v := range o.reversed {
		f.reversed[k] = v
	}
	for k, v := range o.ranks {
		f.ranks[k] = v
	}
	f.crossings += o.crossings
}

// bounds returns the layout-space bounding box of node boxes, route points
// and label chips.
func (f *frame) bounds(g Graph, ax axes, keys []string) (lo, hi vec) {
	lo = vec{math.Inf(1), math.Inf(1)}
	hi = vec{math.Inf(-1), math.Inf(-1)}
	grow := func(c vec, ws, wp float64) {
		lo.s = math.Min(lo.s, c.s-ws/2)
		lo.p = math.Min(lo.p, c.p-wp/2)
		hi.s = math.Max(hi.s, c.s+ws/2)
		hi.p = math.Max(hi.p, c.p+wp/2)
	}
	for _, n := range g.Nodes {
		if c, ok := f.centers[n.ID]; ok {
			ws, wp := ax.extent(n.Width, n.Height)
			grow(c, ws, wp)
		}
	}
	for i, e := range g.Edges {
		for _, pt := range f.routes[keys[i]] {
			grow(pt, 0, 0)
		}
		if l, ok := f.labels[keys[i]]; ok && e.HasLabel() {
			ws, wp := ax.extent(e.LabelWidth, e.LabelHeight)
			grow(l, ws, wp)
		}
	}
	if math.IsInf(lo.s, 1) {
		return vec{}, vec{}
	}
	return lo, hi
}

// finish converts a layout-space frame into a [Result], translating the
// content so its bounding box starts at the margins.
func finish(g Graph, keys []string, f *frame, ax axes, opts Options) Result {
	res := newResult(g)
	res.Crossings = f.crossings

	lo, hi := f.bounds(g, ax, keys)
	origin := ax.point(lo)
	far := ax.point(hi)
	dx, dy := opts.MarginX-origin.X, opts.MarginY-origin.Y

	res.Width = far.X - origin.X + 2*opts.MarginX
	res.Height = far.Y - origin.Y + 2*opts.MarginY

	for _, n := range g.Nodes {
		c := ax.point(f.centers[n.ID])
		res.Nodes[n.ID] = Placement{
			X:      c.X - n.Width/2 + dx,
			Y:      c.Y - n.Height/2 + dy,
			Width:  n.Width,
			Height: n.Height,
		}
		res.Ranks[n.ID] = f.ranks[n.ID]
	}

	for i := range g.Edges {
		k := keys[i]
		pts := f.routes[k]
		route := Route{
			Points:   make([]diagram.Point, len(pts)),
			Reversed: f.reversed[k],
		}
		for j, v := range pts {
			p := ax.point(v)
			route.Points[j] = diagram.Point{X: p.X + dx, Y: p.Y + dy}
		}
		if l, ok := f.labels[k]; ok {
			p := ax.point(l)
			route.LabelX, route.LabelY = p.X+dx, p.Y+dy
		}
		res.Edges[k] = route
	}
	return res
}

// midpoint returns the point halfway along a polyline by arc length.
func midpoint(pts []vec) vec {
	switch len(pts) {
	case 0:
		return vec{}
	case 1:
		return pts[0]
	}
	total := 0.0
	for i := 1; i < len(pts); i++ {
		total += math.Hypot(pts[i].s-pts[i-1].s, pts[i].p-pts[i-1].p)
	}
	half := total / 2
	for i := 1; i < len(pts); i++ {
		seg := math.Hypot(pts[i].s-pts[i-1].s, pts[i].p-pts[i-1].p)
		if seg > 0 && half <= seg {
			t := half / seg
			return vec{
				s: pts[i-1].s + t*(pts[i].s-pts[i-1].s),
				p: pts[i-1].p + t*(pts[i].p-pts[i-1].p),
			}
		}
		half -= seg
	}
	return pts[len(pts)-1]
}

// dedupe drops consecutive duplicate points.
func dedupe(pts []vec) []vec {
	out := pts[:0]
	for _, p := range pts {
		if n := len(out); n > 0 && math.Abs(out[n-1].s-p.s) < 1e-9 && math.Abs(out[n-1].p-p.p) < 1e-9 {
			continue
		}
		out = append(out, p)
	}
	return out
}
