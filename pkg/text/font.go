package text

import (
	"strconv"
	"strings"
)

// DefaultFontSize is the reference size, in pixels, for node labels.
const DefaultFontSize = 14.0

// Font selects the face used for measurement.
type Font struct {
	Size float64 // pixel size
	Bold bool
}

// DefaultFont is the node label font: 14px semibold.
var DefaultFont = Font{Size: DefaultFontSize, Bold: true}

// Scaled returns the font with its size multiplied by s.
func (f Font) Scaled(s float64) Font {
	if s <= 0 {
		return f
	}
	f.Size *= s
	return f
}

func (f Font) size() float64 {
	if f.Size <= 0 {
		return DefaultFontSize
	}
	return f.Size
}

// ParseFont parses a CSS-like font shorthand such as "600 14px Inter".
// Weights of 600 and above (or the keyword "bold") select the bold face.
// Family names are ignored. Missing parts fall back to 14px regular.
func ParseFont(spec string) Font {
	f := Font{Size: DefaultFontSize}
	for _, tok := range strings.Fields(strings.ReplaceAll(spec, ",", " ")) {
		lower := strings.ToLower(tok)
		switch {
		case lower == "bold" || lower == "bolder":
			f.Bold = true
		case strings.HasSuffix(lower, "px"):
			if v, err := strconv.ParseFloat(strings.TrimSuffix(lower, "px"), 64); err == nil && v > 0 {
				f.Size = v
			}
		default:
			if w, err := strconv.Atoi(lower); err == nil && w >= 100 && w <= 1000 {
				f.Bold = w >= 600
			}
		}
	}
	return f
}
