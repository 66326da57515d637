package diagram

import "math"

// Segment is a straight edge between two boundary points.
type Segment struct {
	From Point `json:"from"`
	To   Point `json:"to"`
}

// RectIntersection returns where the ray from the rectangle's center toward
// p leaves the rectangle.
func RectIntersection(p Point, r Rect) Point {
	c := r.Center()
	dx, dy := p.X-c.X, p.Y-c.Y
	if dx == 0 && dy == 0 {
		return Point{X: c.X, Y: r.Bottom()}
	}

	if math.Abs(dx)*r.H <= math.Abs(dy)*r.W {
		sign := -1.0
		if dy > 0 {
			sign = 1
		}
		return Point{X: c.X + dx*r.H/(2*math.Abs(dy)), Y: c.Y + sign*r.H/2}
	}
	sign := -1.0
	if dx > 0 {
		sign = 1
	}
	return Point{X: c.X + sign*r.W/2, Y: c.Y + dy*r.W/(2*math.Abs(dx))}
}

// CircleIntersection returns where the ray from c toward p crosses the
// circle of radius r. A coincident p yields the rightmost point.
func CircleIntersection(p, c Point, r float64) Point {
	dx, dy := p.X-c.X, p.Y-c.Y
	d := math.Hypot(dx, dy)
	if d == 0 {
		return Point{X: c.X + r, Y: c.Y}
	}
	return Point{X: c.X + dx*r/d, Y: c.Y + dy*r/d}
}

// Intersection clips the center-to-center segment between two nodes to
// their outlines.
func Intersection(source, target Node) Segment {
	sc, tc := source.Center(), target.Center()
	return Segment{From: boundaryToward(source, tc), To: boundaryToward(target, sc)}
}

// BoundaryPoint returns where the ray from the node's center toward p
// crosses the node outline.
func BoundaryPoint(n Node, p Point) Point {
	return boundaryToward(n, p)
}

func boundaryToward(n Node, p Point) Point {
	if n.IsCircle() {
		return CircleIntersection(p, n.Center(), n.EffectiveRadius())
	}
	return RectIntersection(p, n.Bounds())
}
