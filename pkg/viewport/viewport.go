// Package viewport computes pan and zoom transforms for a laid-out diagram.
//
// A [Transform] maps content coordinates to screen coordinates:
//
//	screen = content·Scale + (X, Y)
//
// [Fit] centers the whole diagram in a container minus UI insets and
// padding. [Zoom] scales around a focal screen point so the content under
// that point stays put. Both are pure functions.
package viewport

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/archflow/pkg/diagram"
	"github.com/matzehuels/archflow/pkg/errors"
)

// Transform is a pan offset in screen units plus a uniform scale.
type Transform struct {
	X     float64 `json:"x" yaml:"x"`
	Y     float64 `json:"y" yaml:"y"`
	Scale float64 `json:"scale" yaml:"scale"`
}

// Identity is the transform that leaves content unchanged.
var Identity = Transform{Scale: 1}

// ToScreen maps a content point to screen coordinates.
func (t Transform) ToScreen(p diagram.Point) diagram.Point {
	return diagram.Point{X: p.X*t.Scale + t.X, Y: p.Y*t.Scale + t.Y}
}

// ToContent maps a screen point back to content coordinates. The scale
// must be positive.
func (t Transform) ToContent(p diagram.Point) diagram.Point {
	return diagram.Point{X: (p.X - t.X) / t.Scale, Y: (p.Y - t.Y) / t.Scale}
}

// Pan returns the transform moved by (dx, dy) screen units.
func (t Transform) Pan(dx, dy float64) Transform {
	return Transform{X: t.X + dx, Y: t.Y + dy, Scale: t.Scale}
}

func (t Transform) String() string {
	return fmt.Sprintf("translate(%g, %g) scale(%g)", t.X, t.Y, t.Scale)
}

// Insets are the parts of the container covered by UI chrome.
type Insets struct {
	Top    float64 `json:"top" yaml:"top"`
	Right  float64 `json:"right" yaml:"right"`
	Bottom float64 `json:"bottom" yaml:"bottom"`
	Left   float64 `json:"left" yaml:"left"`
}

// ParseInsets parses "t,r,b,l", a single value for all sides, or an empty
// string for no insets.
func ParseInsets(s string) (Insets, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Insets{}, nil
	}
	parts := strings.Split(s, ",")
	vals := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Insets{}, errors.Wrap(errors.ErrCodeInvalidOption, err, "invalid insets %q", s)
		}
		if err := errors.ValidateNonNegative("inset", v); err != nil {
			return Insets{}, err
		}
		vals[i] = v
	}
	switch len(vals) {
	case 1:
		return Insets{vals[0], vals[0], vals[0], vals[0]}, nil
	case 4:
		return Insets{vals[0], vals[1], vals[2], vals[3]}, nil
	}
	return Insets{}, errors.New(errors.ErrCodeInvalidOption, "insets need 1 or 4 values, got %d", len(vals))
}

// ParsePoint parses "x,y".
func ParsePoint(s string) (diagram.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return diagram.Point{}, errors.New(errors.ErrCodeInvalidOption, "invalid point %q: want x,y", s)
	}
	x, errX := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errX != nil || errY != nil {
		return diagram.Point{}, errors.New(errors.ErrCodeInvalidOption, "invalid point %q: want x,y", s)
	}
	return diagram.Point{X: x, Y: y}, nil
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return min(hi, max(lo, v))
}
