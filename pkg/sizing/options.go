package sizing

import (
	"fmt"

	"github.com/matzehuels/archflow/pkg/errors"
	"github.com/matzehuels/archflow/pkg/text"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	DefaultMinWidth     = 120.0
	DefaultMaxWidth     = 320.0
	DefaultMinHeight    = 40.0
	DefaultPadX         = 24.0
	DefaultPadY         = 16.0
	DefaultLineHeight   = 20.0
	DefaultCapAllowance = 30.0
	DefaultMinRadius    = 50.0
)

// Density selects how wide nodes may grow before their labels wrap.
type Density string

// Density presets.
const (
	DensityCompact     Density = "compact"
	DensityComfortable Density = "comfortable"
	DensitySpacious    Density = "spacious"
)

// ValidDensities maps each preset to its maximum node width.
var ValidDensities = map[Density]float64{
	DensityCompact:     240,
	DensityComfortable: 320,
	DensitySpacious:    400,
}

// ParseDensity validates a density name. Empty selects comfortable.
func ParseDensity(s string) (Density, error) {
	if s == "" {
		return DensityComfortable, nil
	}
	d := Density(s)
	if _, ok := ValidDensities[d]; !ok {
		return "", errors.New(errors.ErrCodeInvalidOption,
			"invalid density %q (valid: compact, comfortable, spacious)", s)
	}
	return d, nil
}

// Options holds the node sizing parameters. All lengths are in pixels at
// UI scale 1.
type Options struct {
	MinWidth     float64
	MaxWidth     float64
	MinHeight    float64
	PadX         float64 // total horizontal padding
	PadY         float64 // total vertical padding
	LineHeight   float64
	CapAllowance float64 // extra height for datastore caps
	MinRadius    float64 // external nodes
	Scale        float64 // UI scale multiplier
	Font         text.Font
}

// DefaultOptions returns the comfortable-density defaults.
func DefaultOptions() Options {
	return Options{
		MinWidth:     DefaultMinWidth,
		MaxWidth:     DefaultMaxWidth,
		MinHeight:    DefaultMinHeight,
		PadX:         DefaultPadX,
		PadY:         DefaultPadY,
		LineHeight:   DefaultLineHeight,
		CapAllowance: DefaultCapAllowance,
		MinRadius:    DefaultMinRadius,
		Scale:        1,
		Font:         text.DefaultFont,
	}
}

// WithDensity returns a copy whose MaxWidth follows the preset.
func (o Options) WithDensity(d Density) Options {
	if w, ok := ValidDensities[d]; ok {
		o.MaxWidth = w
	}
	return o
}

// Validate checks that the options describe a usable sizing rule.
func (o Options) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"min width", o.MinWidth}, {"max width", o.MaxWidth}, {"min height", o.MinHeight},
		{"padding x", o.PadX}, {"padding y", o.PadY}, {"line height", o.LineHeight},
		{"cap allowance", o.CapAllowance}, {"min radius", o.MinRadius}, {"ui scale", o.Scale},
	}
	for _, f := range fields {
		if err := errors.ValidateNonNegative(f.name, f.v); err != nil {
			return err
		}
	}
	if o.MaxWidth < o.MinWidth {
		return errors.New(errors.ErrCodeInvalidOption, "max width %g is below min width %g", o.MaxWidth, o.MinWidth)
	}
	if o.Scale == 0 {
		return errors.New(errors.ErrCodeInvalidOption, "ui scale must be positive")
	}
	return nil
}

// Scaled applies the UI scale to every length and to the font size and
// returns options with Scale reset to 1.
func (o Options) Scaled() Options {
	s := o.Scale
	if s <= 0 || s == 1 {
		o.Scale = 1
		return o
	}
	return Options{
		MinWidth:     o.MinWidth * s,
		MaxWidth:     o.MaxWidth * s,
		MinHeight:    o.MinHeight * s,
		PadX:         o.PadX * s,
		PadY:         o.PadY * s,
		LineHeight:   o.LineHeight * s,
		CapAllowance: o.CapAllowance * s,
		MinRadius:    o.MinRadius * s,
		Scale:        1,
		Font:         o.Font.Scaled(s),
	}
}

func (o Options) String() string {
	return fmt.Sprintf("min=%gx%g max=%g pad=%g,%g lh=%g scale=%g",
		o.MinWidth, o.MinHeight, o.MaxWidth, o.PadX, o.PadY, o.LineHeight, o.Scale)
}
