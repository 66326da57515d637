package pipeline

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/archflow/pkg/cache"
	"github.com/matzehuels/archflow/pkg/diagram"
	"github.com/matzehuels/archflow/pkg/errors"
	"github.com/matzehuels/archflow/pkg/text"
	"github.com/matzehuels/archflow/pkg/viewport"
)

func newTestRunner(c cache.Cache) *Runner {
	r := NewRunner(c, nil, log.NewWithOptions(io.Discard, log.Options{}))
	r.Text = text.NewContext(text.WithoutSurface())
	return r
}

func chain() diagram.Data {
	return diagram.Data{
		Nodes: []diagram.Node{
			{ID: "a", Type: diagram.TypeComponent, Label: "A"},
			{ID: "b", Type: diagram.TypeComponent, Label: "B"},
			{ID: "c", Type: diagram.TypeComponent, Label: "C"},
		},
		Edges: []diagram.Edge{
			{ID: "ab", Source: "a", Target: "b", Directed: true},
			{ID: "bc", Source: "b", Target: "c", Directed: true},
		},
	}
}

func centers(d diagram.Data) map[string]diagram.Point {
	out := make(map[string]diagram.Point, len(d.Nodes))
	for _, n := range d.Nodes {
		out[n.ID] = n.Center()
	}
	return out
}

func TestLayoutChainDirections(t *testing.T) {
	r := newTestRunner(nil)
	ctx := context.Background()

	lr, err := r.Layout(ctx, chain(), Options{Rankdir: "LR"})
	require.NoError(t, err)
	c := centers(lr.Data)
	assert.Less(t, c["a"].X, c["b"].X)
	assert.Less(t, c["b"].X, c["c"].X)

	tb, err := r.Layout(ctx, chain(), Options{Rankdir: "TB"})
	require.NoError(t, err)
	c = centers(tb.Data)
	assert.Less(t, c["a"].Y, c["b"].Y)
	assert.Less(t, c["b"].Y, c["c"].Y)

	assert.Equal(t, 3, tb.Stats.Ranks)
	assert.Zero(t, tb.Stats.Crossings)
	for _, e := range tb.Data.Edges {
		assert.GreaterOrEqual(t, len(e.Points), 2, "edge %s", e.ID)
	}
}

func TestLayoutRankdirFromDocument(t *testing.T) {
	d := chain()
	d.Rankdir = diagram.RankdirLR
	res, err := newTestRunner(nil).Layout(context.Background(), d, Options{})
	require.NoError(t, err)
	assert.Equal(t, diagram.RankdirLR, res.Spacing.Rankdir)
	c := centers(res.Data)
	assert.Less(t, c["a"].X, c["c"].X)
}

func TestLayoutLongLabelWraps(t *testing.T) {
	d := diagram.Data{Nodes: []diagram.Node{
		{ID: "short", Type: diagram.TypeComponent, Label: "API"},
		{ID: "long", Type: diagram.TypeComponent,
			Label: "Payment reconciliation and settlement service for merchant accounts across all regions"},
	}}
	res, err := newTestRunner(nil).Layout(context.Background(), d, Options{})
	require.NoError(t, err)

	short, _ := res.Data.NodeByID("short")
	long, _ := res.Data.NodeByID("long")
	assert.Len(t, short.LabelLines, 1)
	assert.GreaterOrEqual(t, len(long.LabelLines), 2)
	assert.Greater(t, long.Height, short.Height)
	assert.LessOrEqual(t, long.Width, 320.0)
}

func TestLayoutNoOverlap(t *testing.T) {
	d := diagram.Data{}
	types := []diagram.NodeType{diagram.TypeComponent, diagram.TypeExternal, diagram.TypeDatastore}
	for i := range 12 {
		d.Nodes = append(d.Nodes, diagram.Node{
			ID:    fmt.Sprintf("n%d", i),
			Type:  types[i%len(types)],
			Label: strings.Repeat("svc ", 1+i%4),
		})
	}
	for i := range 11 {
		d.Edges = append(d.Edges, diagram.Edge{
			Source: fmt.Sprintf("n%d", i/2),
			Target: fmt.Sprintf("n%d", i+1),
			Label:  "calls",
		})
	}

	for _, rd := range []string{"TB", "LR"} {
		res, err := newTestRunner(nil).Layout(context.Background(), d, Options{Rankdir: rd})
		require.NoError(t, err)
		nodes := res.Data.Nodes
		for i := range nodes {
			for j := i + 1; j < len(nodes); j++ {
				assert.False(t, diagram.StrictlyOverlaps(nodes[i].Bounds(), nodes[j].Bounds()),
					"%s: %s overlaps %s", rd, nodes[i].ID, nodes[j].ID)
			}
		}
		for _, e := range res.Data.Edges {
			assert.NotEmpty(t, e.ID)
			assert.False(t, math.IsNaN(e.LabelX) || math.IsNaN(e.LabelY))
		}
	}
}

func TestLayoutEdgeIDLikeSegment(t *testing.T) {
	d := diagram.Data{
		Nodes: []diagram.Node{
			{ID: "x", Type: diagram.TypeComponent},
			{ID: "y", Type: diagram.TypeComponent},
			{ID: "z", Type: diagram.TypeComponent},
		},
		Edges: []diagram.Edge{
			{ID: "a/0", Source: "x", Target: "y"},
			{ID: "b", Source: "y", Target: "z"},
			{ID: "a", Source: "x", Target: "z", Label: "bypass"},
		},
	}
	var (
		res *Result
		err error
	)
	require.NotPanics(t, func() { res, err = newTestRunner(nil).Layout(context.Background(), d, Options{}) })
	require.NoError(t, err)

	y, _ := res.Data.NodeByID("y")
	z, _ := res.Data.NodeByID("z")
	for _, e := range res.Data.Edges {
		require.GreaterOrEqual(t, len(e.Points), 2, "edge %s", e.ID)
		last := e.Points[len(e.Points)-1]
		switch e.ID {
		case "a/0":
			assert.InDelta(t, y.Y, last.Y, 1e-9)
		case "a":
			assert.InDelta(t, z.Y, last.Y, 1e-9)
		}
	}
}

func TestLayoutAwkwardIDsRandomized(t *testing.T) {
	nodeIDs := []string{"a", "a/0", "a/1", "#0", "a_dummy_1", "a-b", "a-b_dummy_1", "e/0", "x~1", "#0~1"}
	edgeIDs := []string{"a", "a/0", "a/1", "a/0~1", "#0", "#1", "e", "e/0", "a_dummy_1", "a/0/0"}
	types := []diagram.NodeType{diagram.TypeComponent, diagram.TypeExternal, diagram.TypeDatastore}
	rng := rand.New(rand.NewPCG(5, 8))
	r := newTestRunner(nil)

	for trial := range 25 {
		var d diagram.Data
		n := 2 + rng.IntN(len(nodeIDs)-1)
		for _, i := range rng.Perm(len(nodeIDs))[:n] {
			d.Nodes = append(d.Nodes, diagram.Node{ID: nodeIDs[i], Type: types[rng.IntN(len(types))], Label: nodeIDs[i]})
		}
		for _, i := range rng.Perm(len(edgeIDs))[:rng.IntN(len(edgeIDs))] {
			e := diagram.Edge{ID: edgeIDs[i], Source: d.Nodes[rng.IntN(n)].ID, Target: d.Nodes[rng.IntN(n)].ID}
			if rng.IntN(2) == 0 {
				e.Label = "sync"
			}
			d.Edges = append(d.Edges, e)
		}

		var (
			res *Result
			err error
		)
		require.NotPanics(t, func() { res, err = r.Layout(context.Background(), d, Options{}) }, "trial %d", trial)
		require.NoError(t, err, "trial %d", trial)
		nodes := res.Data.Nodes
		for i := range nodes {
			for j := i + 1; j < len(nodes); j++ {
				assert.False(t, diagram.StrictlyOverlaps(nodes[i].Bounds(), nodes[j].Bounds()),
					"trial %d: %s overlaps %s", trial, nodes[i].ID, nodes[j].ID)
			}
		}
		for _, e := range res.Data.Edges {
			assert.GreaterOrEqual(t, len(e.Points), 2, "trial %d edge %s", trial, e.ID)
		}
	}
}

func TestLayoutExternalNodes(t *testing.T) {
	d := diagram.Data{Nodes: []diagram.Node{
		{ID: "user", Type: diagram.TypeExternal, Label: "Customer", Radius: 10},
		{ID: "web", Type: diagram.TypeComponent, Label: "Web"},
	}, Edges: []diagram.Edge{{Source: "user", Target: "web"}}}

	res, err := newTestRunner(nil).Layout(context.Background(), d, Options{})
	require.NoError(t, err)
	user, _ := res.Data.NodeByID("user")
	assert.GreaterOrEqual(t, user.Radius, 50.0)
	assert.Equal(t, 2*user.Radius, user.Width)
	assert.Equal(t, user.Width, user.Height)
}

func TestLayoutDanglingEdges(t *testing.T) {
	d := chain()
	d.Edges = append(d.Edges, diagram.Edge{ID: "ghost", Source: "a", Target: "missing"})

	res, err := newTestRunner(nil).Layout(context.Background(), d, Options{})
	require.NoError(t, err)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, errors.ErrCodeInvalidReference, res.Issues[0].Code)
	assert.Equal(t, "ghost", res.Issues[0].EdgeID)
	assert.Equal(t, "missing", res.Issues[0].NodeID)
	assert.Len(t, res.Data.Edges, 2)

	_, err = newTestRunner(nil).Layout(context.Background(), d, Options{Strict: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidReference))
	assert.Contains(t, err.Error(), "ghost")
}

func TestLayoutEmpty(t *testing.T) {
	res, err := newTestRunner(nil).Layout(context.Background(), diagram.Data{}, Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Data.Nodes)
	assert.Zero(t, res.Stats.Ranks)
	assert.False(t, math.IsNaN(res.Width))
}

func TestLayoutCache(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	r := newTestRunner(fc)
	ctx := context.Background()

	first, err := r.Layout(ctx, chain(), Options{})
	require.NoError(t, err)
	assert.False(t, first.CacheHit)

	// Placeholder geometry does not change the key.
	moved := chain()
	moved.Nodes[0].X, moved.Nodes[0].Y = 999, 999
	second, err := r.Layout(ctx, moved, Options{})
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Hash, second.Hash)
	assert.Equal(t, first.Data.Nodes, second.Data.Nodes)

	other, err := r.Layout(ctx, chain(), Options{Rankdir: "LR"})
	require.NoError(t, err)
	assert.False(t, other.CacheHit)

	refreshed, err := r.Layout(ctx, chain(), Options{Refresh: true})
	require.NoError(t, err)
	assert.False(t, refreshed.CacheHit)
}

func TestLayoutCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestRunner(nil).Layout(ctx, chain(), Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"defaults", Options{}, ""},
		{"grid", Options{Strategy: "GRID"}, ""},
		{"unknown strategy", Options{Strategy: "force"}, errors.ErrCodeInvalidOption},
		{"bad rankdir", Options{Rankdir: "BT"}, errors.ErrCodeInvalidRankdir},
		{"bad density", Options{Density: "tiny"}, errors.ErrCodeInvalidOption},
		{"negative nodesep", Options{Nodesep: -1}, errors.ErrCodeInvalidOption},
		{"nan scale", Options{UIScale: math.NaN()}, errors.ErrCodeInvalidOption},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if tt.code == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err))
		})
	}
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{Rankdir: "lr"}
	require.NoError(t, o.ValidateAndSetDefaults())
	assert.Equal(t, "layered", o.Strategy)
	assert.Equal(t, "LR", o.Rankdir)
	assert.Equal(t, "comfortable", o.Density)
	assert.Equal(t, 1.0, o.UIScale)
	assert.Equal(t, 320.0, o.SizingOptions().MaxWidth)
}

func TestSpacing(t *testing.T) {
	o := Options{}
	s := o.Spacing(diagram.Data{}, 400, 0)
	assert.Equal(t, diagram.RankdirTB, s.Rankdir)
	assert.Equal(t, 100.0, s.Nodesep)
	assert.Equal(t, 140.0, s.Ranksep)
	assert.Equal(t, 20.0, s.Edgesep)
	assert.Equal(t, 80.0, s.MarginX)
	assert.Equal(t, 72.0, s.MarginY)

	small := o.Spacing(diagram.Data{}, 120, 200)
	assert.Equal(t, 80.0, small.Nodesep)
	assert.Equal(t, 100.0, small.Ranksep)
	assert.Equal(t, 148.0, small.MarginX)

	o = Options{Nodesep: 30, Rankdir: "LR"}
	s = o.Spacing(diagram.Data{Nodesep: 50, Ranksep: 55, Rankdir: diagram.RankdirTB}, 400, 0)
	assert.Equal(t, 30.0, s.Nodesep)
	assert.Equal(t, 55.0, s.Ranksep)
	assert.Equal(t, diagram.RankdirLR, s.Rankdir)
}

func TestRenderFormats(t *testing.T) {
	r := newTestRunner(nil)
	ctx := context.Background()
	res, err := r.Layout(ctx, chain(), Options{})
	require.NoError(t, err)

	out, _, err := r.Render(ctx, res, FormatJSON)
	require.NoError(t, err)
	back, err := diagram.Unmarshal(out)
	require.NoError(t, err)
	assert.Equal(t, res.Data.Nodes, back.Nodes)

	out, _, err = r.Render(ctx, res, FormatYAML)
	require.NoError(t, err)
	assert.Contains(t, string(out), "nodes:")

	out, _, err = r.Render(ctx, res, FormatDOT)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"a" -> "b"`)

	_, _, err = r.Render(ctx, res, "png")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidOption))
}

func TestRunnerFit(t *testing.T) {
	r := newTestRunner(nil)
	res, err := r.Layout(context.Background(), chain(), Options{})
	require.NoError(t, err)

	tr, err := r.Fit(res.Data, 1200, 900, viewport.Insets{}, viewport.DefaultFitOptions(), Options{})
	require.NoError(t, err)
	assert.Greater(t, tr.Scale, 0.0)
	assert.LessOrEqual(t, tr.Scale, 1.0)

	again := viewport.Fit(res.Data.Nodes, res.Data.Edges, 1200, 900, viewport.Insets{}, viewport.FitOptions{
		Padding: 24, MinScale: 0.05, MaxScale: 1, Chip: r.ChipFunc(Options{}),
	})
	assert.Equal(t, tr, again)
}

func ExampleRunner_Layout() {
	r := NewRunner(nil, nil, log.NewWithOptions(io.Discard, log.Options{}))
	r.Text = text.NewContext(text.WithoutSurface())

	res, err := r.Layout(context.Background(), chain(), Options{Rankdir: "LR"})
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("nodes=%d edges=%d ranks=%d crossings=%d\n",
		res.Stats.NodeCount, res.Stats.EdgeCount, res.Stats.Ranks, res.Stats.Crossings)
	// Output: nodes=3 edges=2 ranks=3 crossings=0
}
