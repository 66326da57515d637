package diagram

import (
	"math"
	"slices"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// NodeType classifies a node and selects its sizing rule.
type NodeType string

// Node types.
const (
	TypeComponent NodeType = "component"
	TypeExternal  NodeType = "external"
	TypeDatastore NodeType = "datastore"
	TypeCustom    NodeType = "custom"
)

// Shape is the outline drawn for a node.
type Shape string

// Shapes.
const (
	ShapeRectangle Shape = "rectangle"
	ShapeCircle    Shape = "circle"
	ShapeCylinder  Shape = "cylinder"
	ShapeHexagon   Shape = "hexagon"
	ShapeDiamond   Shape = "diamond"
	ShapeTriangle  Shape = "triangle"
)

// Rankdir selects the primary flow direction of a layered layout.
type Rankdir string

// Rank directions.
const (
	RankdirTB Rankdir = "TB"
	RankdirLR Rankdir = "LR"
)

// Default geometry used when a node carries no size yet.
const (
	DefaultRadius = 50.0
	DefaultWidth  = 150.0
	DefaultHeight = 80.0
)

// ValidNodeTypes is the set of supported node types.
var ValidNodeTypes = map[NodeType]bool{
	TypeComponent: true,
	TypeExternal:  true,
	TypeDatastore: true,
	TypeCustom:    true,
}

// ValidShapes is the set of supported shapes.
var ValidShapes = map[Shape]bool{
	ShapeRectangle: true,
	ShapeCircle:    true,
	ShapeCylinder:  true,
	ShapeHexagon:   true,
	ShapeDiamond:   true,
	ShapeTriangle:  true,
}

// DefaultShape returns the outline a node type is drawn with when the node
// does not name one.
func DefaultShape(t NodeType) Shape {
	switch t {
	case TypeExternal:
		return ShapeCircle
	case TypeDatastore:
		return ShapeCylinder
	default:
		return ShapeRectangle
	}
}

// =============================================================================
// Data - Diagram Document
// =============================================================================

// Data is a complete diagram document. Rankdir and the spacing fields are
// optional overrides for the layout engine; zero means "use the default".
type Data struct {
	Nodes   []Node  `json:"nodes" yaml:"nodes"`
	Edges   []Edge  `json:"edges" yaml:"edges"`
	Rankdir Rankdir `json:"rankdir,omitempty" yaml:"rankdir,omitempty"`
	Nodesep float64 `json:"nodesep,omitempty" yaml:"nodesep,omitempty"`
	Ranksep float64 `json:"ranksep,omitempty" yaml:"ranksep,omitempty"`
	Edgesep float64 `json:"edgesep,omitempty" yaml:"edgesep,omitempty"`
}

// Clone returns a deep copy of the document so callers can mutate geometry
// without touching the input.
func (d Data) Clone() Data {
	out := d
	out.Nodes = make([]Node, len(d.Nodes))
	for i, n := range d.Nodes {
		n.LabelLines = slices.Clone(n.LabelLines)
		out.Nodes[i] = n
	}
	out.Edges = make([]Edge, len(d.Edges))
	for i, e := range d.Edges {
		e.Points = slices.Clone(e.Points)
		out.Edges[i] = e
	}
	return out
}

// NodeByID returns the node with the given id, if present.
func (d Data) NodeByID(id string) (Node, bool) {
	for _, n := range d.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// =============================================================================
// Node
// =============================================================================

// Node is a typed, labeled box or circle. X, Y, Width, Height and Radius are
// written by the layout engine; incoming values are placeholders.
type Node struct {
	ID         string   `json:"id" yaml:"id"`
	Type       NodeType `json:"type" yaml:"type"`
	Label      string   `json:"label" yaml:"label"`
	X          float64  `json:"x" yaml:"x"`
	Y          float64  `json:"y" yaml:"y"`
	Width      float64  `json:"width,omitempty" yaml:"width,omitempty"`
	Height     float64  `json:"height,omitempty" yaml:"height,omitempty"`
	Radius     float64  `json:"radius,omitempty" yaml:"radius,omitempty"`
	Shape      Shape    `json:"shape,omitempty" yaml:"shape,omitempty"`
	LabelLines []string `json:"labelLines,omitempty" yaml:"labelLines,omitempty"`
	LineHeight float64  `json:"lineHeight,omitempty" yaml:"lineHeight,omitempty"`
}

// IsCircle reports whether the node is drawn as a circle.
func (n Node) IsCircle() bool { return n.Type == TypeExternal }

// EffectiveRadius returns the radius, falling back to [DefaultRadius].
func (n Node) EffectiveRadius() float64 {
	if n.Radius > 0 {
		return n.Radius
	}
	return DefaultRadius
}

// Bounds returns the node's axis-aligned bounding box. External nodes span
// 2r in both directions; others default to 150x80 until sized.
func (n Node) Bounds() Rect {
	if n.IsCircle() {
		d := 2 * n.EffectiveRadius()
		return Rect{X: n.X, Y: n.Y, W: d, H: d}
	}
	w, h := n.Width, n.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	return Rect{X: n.X, Y: n.Y, W: w, H: h}
}

// Center returns the node's center point.
func (n Node) Center() Point {
	if n.IsCircle() {
		r := n.EffectiveRadius()
		return Point{X: n.X + r, Y: n.Y + r}
	}
	return n.Bounds().Center()
}

// ShapeOrDefault returns the explicit shape or the type's default.
func (n Node) ShapeOrDefault() Shape {
	if n.Shape != "" {
		return n.Shape
	}
	return DefaultShape(n.Type)
}

// =============================================================================
// Edge
// =============================================================================

// Edge is a labeled connection between two nodes. Points and the label
// anchor are written by the layout engine.
type Edge struct {
	ID       string  `json:"id" yaml:"id"`
	Source   string  `json:"source" yaml:"source"`
	Target   string  `json:"target" yaml:"target"`
	Label    string  `json:"label" yaml:"label"`
	Directed bool    `json:"directed,omitempty" yaml:"directed,omitempty"`
	Points   []Point `json:"points,omitempty" yaml:"points,omitempty"`
	LabelX   float64 `json:"labelX,omitempty" yaml:"labelX,omitempty"`
	LabelY   float64 `json:"labelY,omitempty" yaml:"labelY,omitempty"`
}

// IsSelfLoop reports whether the edge starts and ends on the same node.
func (e Edge) IsSelfLoop() bool { return e.Source == e.Target }

// =============================================================================
// Geometry
// =============================================================================

// Point is a 2-D coordinate.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Size is a width/height pair.
type Size struct {
	W float64 `json:"width" yaml:"width"`
	H float64 `json:"height" yaml:"height"`
}

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	W float64 `json:"width" yaml:"width"`
	H float64 `json:"height" yaml:"height"`
}

// RectAround returns the rectangle of the given size centered on c.
func RectAround(c Point, s Size) Rect {
	return Rect{X: c.X - s.W/2, Y: c.Y - s.H/2, W: s.W, H: s.H}
}

// Center returns the rectangle's center point.
func (r Rect) Center() Point { return Point{X: r.X + r.W/2, Y: r.Y + r.H/2} }

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.W }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Pad grows the rectangle by px horizontally and py vertically on each side.
func (r Rect) Pad(px, py float64) Rect {
	return Rect{X: r.X - px, Y: r.Y - py, W: r.W + 2*px, H: r.H + 2*py}
}

// Union returns the smallest rectangle containing both r and o.
func (r Rect) Union(o Rect) Rect {
	minX, minY := math.Min(r.X, o.X), math.Min(r.Y, o.Y)
	maxX, maxY := math.Max(r.Right(), o.Right()), math.Max(r.Bottom(), o.Bottom())
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Overlaps reports whether two rectangles intersect. Touching edges count
// as overlap.
func Overlaps(a, b Rect) bool {
	return !(a.X+a.W < b.X || a.X > b.X+b.W || a.Y+a.H < b.Y || a.Y > b.Y+b.H)
}

// StrictlyOverlaps reports whether two rectangles share interior area.
func StrictlyOverlaps(a, b Rect) bool {
	return a.X < b.Right() && b.X < a.Right() && a.Y < b.Bottom() && b.Y < a.Bottom()
}
