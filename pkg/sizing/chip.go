package sizing

import (
	"math"

	"github.com/matzehuels/archflow/pkg/diagram"
	"github.com/matzehuels/archflow/pkg/text"
)

// ChipOptions describes the pill drawn behind an edge label.
type ChipOptions struct {
	MaxWidth  float64
	Font      text.Font
	LineRatio float64 // line height as a multiple of font size
	PadX      float64 // per side
	PadY      float64 // per side
}

// DefaultChipOptions returns the 12px pill wrapped at 220px.
func DefaultChipOptions() ChipOptions {
	return ChipOptions{
		MaxWidth:  220,
		Font:      text.Font{Size: 12},
		LineRatio: 1.3,
		PadX:      10,
		PadY:      4,
	}
}

// Scaled multiplies every length and the font size by s.
func (c ChipOptions) Scaled(s float64) ChipOptions {
	if s <= 0 || s == 1 {
		return c
	}
	c.MaxWidth *= s
	c.Font = c.Font.Scaled(s)
	c.PadX *= s
	c.PadY *= s
	return c
}

// Chip returns the pill size for an edge label. Unlabeled edges have no
// chip.
func (s *Sizer) Chip(label string) diagram.Size {
	if label == "" {
		return diagram.Size{}
	}
	c := s.chip
	lh := c.Font.Size * c.LineRatio
	w := s.ctx.Wrap(label, c.MaxWidth, c.Font, lh)
	return diagram.Size{
		W: math.Ceil(w.Width) + 2*c.PadX,
		H: math.Ceil(w.Height) + 2*c.PadY,
	}
}

// MinLen returns how many ranks an edge with the given chip should span so
// the chip has room between its endpoints.
func MinLen(chip diagram.Size) int {
	if chip.W <= 0 {
		return 1
	}
	return max(1, int(math.Ceil(chip.W/60)))
}
