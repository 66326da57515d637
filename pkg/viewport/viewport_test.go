package viewport

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/archflow/pkg/diagram"
	"github.com/matzehuels/archflow/pkg/errors"
)

func TestFitEmpty(t *testing.T) {
	tr := Fit(nil, nil, 1000, 800, Insets{}, DefaultFitOptions())

	assert.Equal(t, 1.0, tr.Scale)
	assert.InDelta(t, 24+(952-1)/2.0, tr.X, 1e-9)
	assert.InDelta(t, 24+(752-1)/2.0, tr.Y, 1e-9)
}

func TestFitSingleNodeCentered(t *testing.T) {
	nodes := []diagram.Node{{ID: "a", Type: diagram.TypeComponent, X: 0, Y: 0, Width: 150, Height: 80}}
	tr := Fit(nodes, nil, 1000, 800, Insets{}, DefaultFitOptions())

	require.Equal(t, 1.0, tr.Scale)
	center := tr.ToScreen(diagram.Point{X: 75, Y: 40})
	assert.InDelta(t, 500, center.X, 1e-9)
	assert.InDelta(t, 400, center.Y, 1e-9)
}

func TestFitScalesDownAndClamps(t *testing.T) {
	nodes := []diagram.Node{
		{ID: "a", X: 0, Y: 0, Width: 150, Height: 80},
		{ID: "b", X: 1850, Y: 920, Width: 150, Height: 80},
	}
	tr := Fit(nodes, nil, 1048, 548, Insets{}, DefaultFitOptions())
	assert.InDelta(t, 0.5, tr.Scale, 1e-9)

	opts := DefaultFitOptions()
	opts.MinScale = 0.8
	tr = Fit(nodes, nil, 1048, 548, Insets{}, opts)
	assert.Equal(t, 0.8, tr.Scale)
}

func TestFitInsetsShiftCenter(t *testing.T) {
	nodes := []diagram.Node{{ID: "a", X: 10, Y: 20, Width: 100, Height: 100}}
	insets := Insets{Top: 100, Left: 200}
	tr := Fit(nodes, nil, 1200, 900, insets, DefaultFitOptions())

	c := tr.ToScreen(diagram.Point{X: 60, Y: 70})
	assert.InDelta(t, 200+(1200-200)/2.0, c.X, 1e-9)
	assert.InDelta(t, 100+(900-100)/2.0, c.Y, 1e-9)
}

func TestFitChipMargin(t *testing.T) {
	nodes := []diagram.Node{
		{ID: "a", X: 0, Y: 0, Width: 100, Height: 100},
		{ID: "b", X: 900, Y: 0, Width: 100, Height: 100},
	}
	edges := []diagram.Edge{{ID: "e", Source: "a", Target: "b", Label: "calls"}}
	opts := DefaultFitOptions()
	opts.Padding = 0
	opts.Chip = func(string) diagram.Size { return diagram.Size{W: 200, H: 40} }

	tr := Fit(nodes, edges, 600, 1000, Insets{}, opts)
	assert.InDelta(t, 0.5, tr.Scale, 1e-9, "content is 1000 + 200 chip wide")

	opts.Chip = nil
	tr = Fit(nodes, edges, 600, 1000, Insets{}, opts)
	assert.InDelta(t, 0.6, tr.Scale, 1e-9)
}

func TestFitExternalBounds(t *testing.T) {
	nodes := []diagram.Node{{ID: "user", Type: diagram.TypeExternal, X: 0, Y: 0}}
	b := ContentBounds(nodes)
	assert.Equal(t, Bounds{MaxX: 100, MaxY: 100}, b)
}

func TestFitIdempotent(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for range 50 {
		var nodes []diagram.Node
		for i := range 1 + rng.IntN(10) {
			nodes = append(nodes, diagram.Node{
				ID:     string(rune('a' + i)),
				X:      rng.Float64() * 2000,
				Y:      rng.Float64() * 2000,
				Width:  50 + rng.Float64()*200,
				Height: 40 + rng.Float64()*100,
			})
		}
		insets := Insets{Top: rng.Float64() * 100, Left: rng.Float64() * 100}
		a := Fit(nodes, nil, 1280, 720, insets, DefaultFitOptions())
		b := Fit(nodes, nil, 1280, 720, insets, DefaultFitOptions())
		require.Equal(t, a, b)
		assert.GreaterOrEqual(t, a.Scale, DefaultFitMinScale)
		assert.LessOrEqual(t, a.Scale, float64(DefaultFitMaxScale))
	}
}

func TestZoomFixedPoint(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 8))
	rect := diagram.Size{W: 1200, H: 800}
	for range 200 {
		cur := Transform{X: rng.Float64()*400 - 200, Y: rng.Float64()*400 - 200, Scale: 0.5 + rng.Float64()*2.5}
		focal := diagram.Point{X: rng.Float64() * rect.W, Y: rng.Float64() * rect.H}
		factor := 0.25 + rng.Float64()*4

		next := Zoom(rect, cur, factor, &focal, DefaultZoomOptions())

		before := cur.ToContent(focal)
		after := next.ToContent(focal)
		tol := 1e-6 * math.Max(1, math.Max(math.Abs(before.X), math.Abs(before.Y)))
		assert.InDelta(t, before.X, after.X, tol)
		assert.InDelta(t, before.Y, after.Y, tol)
	}
}

func TestZoomDefaultFocalIsCenter(t *testing.T) {
	rect := diagram.Size{W: 800, H: 600}
	cur := Transform{X: 10, Y: 20, Scale: 1}

	next := Zoom(rect, cur, 2, nil, DefaultZoomOptions())

	center := diagram.Point{X: 400, Y: 300}
	assert.Equal(t, 2.0, next.Scale)
	assert.InDelta(t, cur.ToContent(center).X, next.ToContent(center).X, 1e-9)
	assert.InDelta(t, cur.ToContent(center).Y, next.ToContent(center).Y, 1e-9)
}

func TestZoomClamping(t *testing.T) {
	rect := diagram.Size{W: 800, H: 600}
	tr := Transform{Scale: 1}
	for range 10 {
		tr = Zoom(rect, tr, 2, nil, DefaultZoomOptions())
		require.LessOrEqual(t, tr.Scale, 3.0)
	}
	assert.Equal(t, 3.0, tr.Scale)

	for range 10 {
		tr = Zoom(rect, tr, 0.5, nil, DefaultZoomOptions())
		require.GreaterOrEqual(t, tr.Scale, 0.5)
	}
	assert.Equal(t, 0.5, tr.Scale)
}

func TestZoomNonPositiveScale(t *testing.T) {
	next := Zoom(diagram.Size{W: 100, H: 100}, Transform{Scale: 0}, 2, nil, DefaultZoomOptions())
	assert.Equal(t, 1.0, next.Scale)
	assert.False(t, math.IsNaN(next.X))
}

func TestZeroValueOptionsUseDefaultScales(t *testing.T) {
	nodes := []diagram.Node{{ID: "a", X: 0, Y: 0, Width: 150, Height: 80}}
	tr := Fit(nodes, nil, 1000, 800, Insets{}, FitOptions{})
	assert.Equal(t, 1.0, tr.Scale)
	center := tr.ToScreen(diagram.Point{X: 75, Y: 40})
	assert.InDelta(t, 500, center.X, 1e-9)
	assert.InDelta(t, 400, center.Y, 1e-9)

	wide := []diagram.Node{{ID: "a", X: 0, Y: 0, Width: 4000, Height: 80}}
	assert.InDelta(t, 0.25, Fit(wide, nil, 1000, 800, Insets{}, FitOptions{}).Scale, 1e-9)

	rect := diagram.Size{W: 100, H: 100}
	assert.Equal(t, 1.0, Zoom(rect, Transform{}, 2, nil, ZoomOptions{}).Scale)
	assert.Equal(t, 3.0, Zoom(rect, Transform{Scale: 1}, 10, nil, ZoomOptions{}).Scale)
	assert.Equal(t, 0.5, Zoom(rect, Transform{Scale: 1}, 0.1, nil, ZoomOptions{MaxScale: 2}).Scale)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.5, Clamp(0.1, 0.5, 3))
	assert.Equal(t, 3.0, Clamp(7, 0.5, 3))
	assert.Equal(t, 1.5, Clamp(1.5, 0.5, 3))
}

func TestParseInsets(t *testing.T) {
	tests := []struct {
		in      string
		want    Insets
		wantErr bool
	}{
		{"", Insets{}, false},
		{"10", Insets{10, 10, 10, 10}, false},
		{"64, 0, 0, 280", Insets{Top: 64, Left: 280}, false},
		{"1,2", Insets{}, true},
		{"a,b,c,d", Insets{}, true},
		{"-1", Insets{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseInsets(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsInvalid(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePoint(t *testing.T) {
	p, err := ParsePoint("12.5, 40")
	require.NoError(t, err)
	assert.Equal(t, diagram.Point{X: 12.5, Y: 40}, p)

	_, err = ParsePoint("12")
	assert.Error(t, err)
}
