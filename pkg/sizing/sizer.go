// Package sizing computes node and edge-label dimensions from their text.
//
// Sizing is two-phase: [Sizer.Measure] is a pure function from a node to a
// [Result], and [Sizer.Apply] writes a result onto a copy of the node. The
// layout engine measures every node before placing any of them.
package sizing

import (
	"math"

	"github.com/matzehuels/archflow/pkg/diagram"
	"github.com/matzehuels/archflow/pkg/text"
)

// Result is the measured size of one node.
type Result struct {
	Width      float64  `json:"width"`
	Height     float64  `json:"height"`
	Radius     float64  `json:"radius,omitempty"`
	Lines      []string `json:"lines"`
	LineHeight float64  `json:"lineHeight"`
}

// Sizer sizes nodes against a measurement context.
type Sizer struct {
	ctx  *text.Context
	opts Options
	chip ChipOptions
}

// New creates a Sizer. A nil context selects [text.Default]. The UI scale in
// opts is applied to both node and chip metrics.
func New(ctx *text.Context, opts Options) *Sizer {
	if ctx == nil {
		ctx = text.Default()
	}
	scale := opts.Scale
	return &Sizer{
		ctx:  ctx,
		opts: opts.Scaled(),
		chip: DefaultChipOptions().Scaled(scale),
	}
}

// Options returns the effective, already scaled, options.
func (s *Sizer) Options() Options { return s.opts }

// Measure computes the size a node needs for its label. It does not modify
// the node.
func (s *Sizer) Measure(n diagram.Node) Result {
	o := s.opts
	switch n.Type {
	case diagram.TypeExternal:
		return s.measureCircle(n)
	case diagram.TypeDatastore:
		r := s.measureBox(n)
		r.Height += o.CapAllowance
		return r
	default:
		return s.measureBox(n)
	}
}

func (s *Sizer) measureBox(n diagram.Node) Result {
	o := s.opts
	w := s.ctx.Wrap(n.Label, o.MaxWidth-o.PadX, o.Font, o.LineHeight)
	return Result{
		Width:      clamp(w.Width+o.PadX, o.MinWidth, o.MaxWidth),
		Height:     math.Max(o.MinHeight, w.Height+o.PadY),
		Lines:      w.Lines,
		LineHeight: o.LineHeight,
	}
}

// measureCircle wraps the label inside the inscribed box of the current
// radius and grows the radius until the padded text box fits in the circle.
// The radius never shrinks below the node's own value or the minimum.
func (s *Sizer) measureCircle(n diagram.Node) Result {
	o := s.opts
	r := math.Max(n.Radius, o.MinRadius)
	w := s.ctx.Wrap(n.Label, 2*r-o.PadX, o.Font, o.LineHeight)

	diag := math.Hypot(w.Width+o.PadX, w.Height+o.PadY)
	r = math.Max(r, math.Ceil(diag/2))

	return Result{
		Width:      2 * r,
		Height:     2 * r,
		Radius:     r,
		Lines:      w.Lines,
		LineHeight: o.LineHeight,
	}
}

// Apply returns a copy of n carrying the measured size.
func (s *Sizer) Apply(n diagram.Node, r Result) diagram.Node {
	n.Width = r.Width
	n.Height = r.Height
	if n.Type == diagram.TypeExternal {
		n.Radius = r.Radius
	} else {
		n.Radius = 0
	}
	n.LabelLines = append([]string(nil), r.Lines...)
	n.LineHeight = r.LineHeight
	return n
}

// Size is Measure followed by Apply.
func (s *Sizer) Size(n diagram.Node) diagram.Node {
	return s.Apply(n, s.Measure(n))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
