package viewport

import "github.com/matzehuels/archflow/pkg/diagram"

// Zoom defaults, independent of the fit scale range.
const (
	DefaultZoomMinScale = 0.5
	DefaultZoomMaxScale = 3
)

// ZoomOptions bounds the scale [Zoom] may produce.
type ZoomOptions struct {
	MinScale float64
	MaxScale float64
}

// DefaultZoomOptions returns the scale range [0.5, 3].
func DefaultZoomOptions() ZoomOptions {
	return ZoomOptions{MinScale: DefaultZoomMinScale, MaxScale: DefaultZoomMaxScale}
}

func (o ZoomOptions) withDefaults() ZoomOptions {
	if o.MinScale <= 0 {
		o.MinScale = DefaultZoomMinScale
	}
	if o.MaxScale <= 0 {
		o.MaxScale = DefaultZoomMaxScale
	}
	return o
}

// Zoom scales cur by factor around a focal screen point, keeping the
// content point under it fixed. A nil focal zooms around the center of a
// viewport of the given size. A non-positive current scale is treated as
// MinScale. Unset scale bounds take the zoom defaults.
func Zoom(viewport diagram.Size, cur Transform, factor float64, focal *diagram.Point, opts ZoomOptions) Transform {
	opts = opts.withDefaults()
	f := diagram.Point{X: viewport.W / 2, Y: viewport.H / 2}
	if focal != nil {
		f = *focal
	}
	if cur.Scale <= 0 {
		cur.Scale = opts.MinScale
	}

	world := cur.ToContent(f)
	next := Clamp(cur.Scale*factor, opts.MinScale, opts.MaxScale)
	return Transform{
		X:     f.X - world.X*next,
		Y:     f.Y - world.Y*next,
		Scale: next,
	}
}
