package viewport

import (
	"math"

	"github.com/matzehuels/archflow/pkg/diagram"
)

// Fit defaults.
const (
	DefaultPadding     = 24
	DefaultFitMinScale = 0.05
	DefaultFitMaxScale = 1
)

// ChipFunc returns the label chip size for an edge label.
type ChipFunc func(label string) diagram.Size

// FitOptions tunes [Fit]. Chip, when set, is used to grow the content
// bounds so label chips near the border are not clipped.
type FitOptions struct {
	Padding  float64
	MinScale float64
	MaxScale float64
	Chip     ChipFunc
}

// DefaultFitOptions returns padding 24 and scale range [0.05, 1].
func DefaultFitOptions() FitOptions {
	return FitOptions{
		Padding:  DefaultPadding,
		MinScale: DefaultFitMinScale,
		MaxScale: DefaultFitMaxScale,
	}
}

// withDefaults fills unset scale bounds. Padding 0 is kept as given.
func (o FitOptions) withDefaults() FitOptions {
	if o.MinScale <= 0 {
		o.MinScale = DefaultFitMinScale
	}
	if o.MaxScale <= 0 {
		o.MaxScale = DefaultFitMaxScale
	}
	return o
}

// Bounds is an axis-aligned content box given by its extremes.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// Width returns MaxX - MinX.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height returns MaxY - MinY.
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// ContentBounds returns the box around all node bounds, or the zero box
// when there are no nodes.
func ContentBounds(nodes []diagram.Node) Bounds {
	if len(nodes) == 0 {
		return Bounds{}
	}
	b := Bounds{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
	for _, n := range nodes {
		r := n.Bounds()
		b.MinX = math.Min(b.MinX, r.X)
		b.MinY = math.Min(b.MinY, r.Y)
		b.MaxX = math.Max(b.MaxX, r.Right())
		b.MaxY = math.Max(b.MaxY, r.Bottom())
	}
	return b
}

// maxChip returns the largest chip width and height over labeled edges.
func maxChip(edges []diagram.Edge, chip ChipFunc) diagram.Size {
	var out diagram.Size
	if chip == nil {
		return out
	}
	for _, e := range edges {
		if e.Label == "" {
			continue
		}
		s := chip(e.Label)
		out.W = math.Max(out.W, s.W)
		out.H = math.Max(out.H, s.H)
	}
	return out
}

// Fit returns the transform that centers the diagram inside the container
// minus insets and padding, as large as the scale range allows.
//
// Content bounds come from the node bounds, grown on each side by half the
// largest label chip. Content and available extents are floored at 1, so
// an empty or degenerate diagram resolves to MaxScale. A non-positive
// MinScale or MaxScale falls back to its default.
func Fit(nodes []diagram.Node, edges []diagram.Edge, containerW, containerH float64, insets Insets, opts FitOptions) Transform {
	opts = opts.withDefaults()
	b := ContentBounds(nodes)
	if len(nodes) > 0 {
		c := maxChip(edges, opts.Chip)
		b.MinX -= c.W / 2
		b.MaxX += c.W / 2
		b.MinY -= c.H / 2
		b.MaxY += c.H / 2
	}

	contentW := math.Max(1, b.Width())
	contentH := math.Max(1, b.Height())
	availW := math.Max(1, containerW-insets.Left-insets.Right-2*opts.Padding)
	availH := math.Max(1, containerH-insets.Top-insets.Bottom-2*opts.Padding)

	scale := Clamp(math.Min(availW/contentW, availH/contentH), opts.MinScale, opts.MaxScale)

	left := (availW - contentW*scale) / 2
	top := (availH - contentH*scale) / 2
	return Transform{
		X:     insets.Left + opts.Padding + left - b.MinX*scale,
		Y:     insets.Top + opts.Padding + top - b.MinY*scale,
		Scale: scale,
	}
}
