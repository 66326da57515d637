// Package labels places edge-label chips so they do not collide with nodes
// or with each other.
//
// A [Placer] keeps an occupancy set. Node boxes are added with
// [Placer.Reserve]; each call to [Placer.Place] then tries a fixed sequence
// of candidate positions around the provisional anchor and commits the
// first free one, reserving it with padding so the next label keeps its
// distance:
//
//	p := labels.NewPlacer()
//	for _, n := range nodes {
//	    p.Reserve(n.Bounds())
//	}
//	for _, e := range edges {
//	    pl := p.Place(diagram.Point{X: e.LabelX, Y: e.LabelY}, chip(e.Label))
//	    e.LabelX, e.LabelY = pl.Center.X, pl.Center.Y
//	}
//
// Placement never fails. When every candidate collides, the label stays at
// its provisional anchor and [Placement.Collided] is set.
package labels

import "github.com/matzehuels/archflow/pkg/diagram"

const (
	// DefaultPadX and DefaultPadY are the per-side padding added to a
	// committed label before it joins the occupancy set.
	DefaultPadX = 6
	DefaultPadY = 4

	// DefaultRings is how many rings of candidates are tried around the
	// anchor.
	DefaultRings = 3
)

// Placer resolves label collisions against an occupancy set. The zero
// value is not usable; create one with [NewPlacer]. A Placer is not safe
// for concurrent use.
type Placer struct {
	PadX, PadY float64
	Rings      int

	occupied []diagram.Rect
}

// NewPlacer returns a Placer with the default padding and ring count.
func NewPlacer() *Placer {
	return &Placer{PadX: DefaultPadX, PadY: DefaultPadY, Rings: DefaultRings}
}

// Placement is the outcome of [Placer.Place]. Rect is the unpadded label
// box centered on Center.
type Placement struct {
	Rect     diagram.Rect
	Center   diagram.Point
	Moved    bool
	Collided bool
}

// Reserve adds a box to the occupancy set as is.
func (p *Placer) Reserve(r diagram.Rect) {
	p.occupied = append(p.occupied, r)
}

// Occupied returns the current occupancy set.
func (p *Placer) Occupied() []diagram.Rect { return p.occupied }

// Place finds a free spot for a label of the given size near anchor and
// reserves it.
//
// Candidates are tried in order: the anchor itself, then for each ring
// k = 1..Rings the positions above, below, left and right of the anchor at
// k steps. A step is the padded label extent plus one more padding, so
// neighboring candidates never touch. A candidate is free when its padded
// box overlaps no occupied box.
func (p *Placer) Place(anchor diagram.Point, size diagram.Size) Placement {
	stepX := size.W + 3*p.PadX
	stepY := size.H + 3*p.PadY

	for i, c := range p.candidates(anchor, stepX, stepY) {
		r := diagram.RectAround(c, size)
		if p.free(r.Pad(p.PadX, p.PadY)) {
			p.Reserve(r.Pad(p.PadX, p.PadY))
			return Placement{Rect: r, Center: c, Moved: i > 0}
		}
	}

	r := diagram.RectAround(anchor, size)
	p.Reserve(r.Pad(p.PadX, p.PadY))
	return Placement{Rect: r, Center: anchor, Collided: true}
}

func (p *Placer) candidates(anchor diagram.Point, stepX, stepY float64) []diagram.Point {
	out := make([]diagram.Point, 0, 1+4*p.Rings)
	out = append(out, anchor)
	for k := 1; k <= p.Rings; k++ {
		dx, dy := float64(k)*stepX, float64(k)*stepY
		out = append(out,
			diagram.Point{X: anchor.X, Y: anchor.Y - dy},
			diagram.Point{X: anchor.X, Y: anchor.Y + dy},
			diagram.Point{X: anchor.X - dx, Y: anchor.Y},
			diagram.Point{X: anchor.X + dx, Y: anchor.Y},
		)
	}
	return out
}

func (p *Placer) free(r diagram.Rect) bool {
	for _, o := range p.occupied {
		if Overlaps(r, o) {
			return false
		}
	}
	return true
}

// Overlaps reports whether a and b intersect, counting touching edges.
func Overlaps(a, b diagram.Rect) bool { return diagram.Overlaps(a, b) }
