package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/archflow/pkg/cache"
	"github.com/matzehuels/archflow/pkg/diagram"
	"github.com/matzehuels/archflow/pkg/labels"
	"github.com/matzehuels/archflow/pkg/layout"
	"github.com/matzehuels/archflow/pkg/observability"
	"github.com/matzehuels/archflow/pkg/sizing"
	"github.com/matzehuels/archflow/pkg/text"
	"github.com/matzehuels/archflow/pkg/viewport"
)

// Runner executes the pipeline with caching.
//
// The Runner keeps no per-run state: its cache is safe for concurrent use
// and its measurement context guards its font faces, so several goroutines
// may share one Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	Text   *text.Context
}

// NewRunner creates a runner. A nil keyer selects the default keyer, a nil
// cache disables caching and a nil logger selects the default logger.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		Text:   text.NewContext(text.WithLogger(logger)),
	}
}

// Layout normalizes, sizes, lays out and labels a document. Results are
// cached by the normalized input and every option that affects geometry.
func (r *Runner) Layout(ctx context.Context, d diagram.Data, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	norm, issues, err := diagram.Normalize(d, opts.Strict)
	if err != nil {
		return nil, err
	}
	for _, is := range issues {
		r.Logger.Warn("dropped edge", "edge", is.EdgeID, "node", is.NodeID, "code", is.Code)
	}

	input, err := diagram.Marshal(stripGeometry(norm))
	if err != nil {
		return nil, fmt.Errorf("hash input: %w", err)
	}
	hash := cache.Hash(input)
	key := r.Keyer.LayoutKey(hash, opts.LayoutKeyOpts(r.Text.HasSurface()))

	if !opts.Refresh {
		if res, ok := r.cached(ctx, key); ok {
			r.Logger.Debug("layout cache hit", "hash", hash[:12])
			return res, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, "layout")

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, err := r.compute(ctx, norm, opts)
	if err != nil {
		return nil, err
	}
	res.Hash = hash
	res.Issues = issues

	if data, err := json.Marshal(res); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TTLLayout); err != nil {
			r.Logger.Warn("cache write failed", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}

	r.Logger.Info("computed layout",
		"nodes", res.Stats.NodeCount,
		"edges", res.Stats.EdgeCount,
		"crossings", res.Stats.Crossings,
		"duration", res.Stats.SizeTime+res.Stats.LayoutTime+res.Stats.LabelTime)
	return res, nil
}

func (r *Runner) cached(ctx context.Context, key string) (*Result, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "err", err)
		return nil, false
	}
	if !hit {
		return nil, false
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, false
	}
	res.CacheHit = true
	observability.Cache().OnCacheHit(ctx, "layout")
	return &res, true
}

// compute runs sizing, layout and label placement on a normalized document.
func (r *Runner) compute(ctx context.Context, d diagram.Data, opts Options) (*Result, error) {
	hooks := observability.Pipeline()
	res := &Result{Data: d}
	res.Stats.NodeCount = len(d.Nodes)
	res.Stats.EdgeCount = len(d.Edges)

	// Stage 1: size
	start := time.Now()
	sizer := r.Sizer(opts)
	maxNodeW := 0.0
	for i, n := range d.Nodes {
		d.Nodes[i] = sizer.Apply(n, sizer.Measure(n))
		maxNodeW = math.Max(maxNodeW, d.Nodes[i].Width)
	}
	chips := make([]diagram.Size, len(d.Edges))
	maxChipW := 0.0
	for i, e := range d.Edges {
		chips[i] = sizer.Chip(e.Label)
		maxChipW = math.Max(maxChipW, chips[i].W)
	}
	res.Stats.SizeTime = time.Since(start)
	hooks.OnSizeComplete(ctx, len(d.Nodes), res.Stats.SizeTime)

	// Stage 2: layout
	strategy, err := layout.Lookup(opts.Strategy)
	if err != nil {
		return nil, err
	}
	lopts := opts.Spacing(d, maxNodeW, maxChipW)
	res.Spacing = lopts

	g := layout.Graph{
		Nodes: make([]layout.NodeBox, len(d.Nodes)),
		Edges: make([]layout.EdgeSpec, len(d.Edges)),
	}
	for i, n := range d.Nodes {
		g.Nodes[i] = layout.NodeBox{ID: n.ID, Width: n.Width, Height: n.Height, Circle: n.IsCircle()}
	}
	for i, e := range d.Edges {
		g.Edges[i] = layout.EdgeSpec{
			ID:          e.ID,
			Source:      e.Source,
			Target:      e.Target,
			LabelWidth:  chips[i].W,
			LabelHeight: chips[i].H,
			MinLen:      sizing.MinLen(chips[i]),
		}
	}

	start = time.Now()
	hooks.OnLayoutStart(ctx, strategy.Name(), len(g.Nodes))
	lr := strategy.Layout(g, lopts)
	res.Stats.LayoutTime = time.Since(start)
	hooks.OnLayoutComplete(ctx, strategy.Name(), res.Stats.LayoutTime, nil)

	for i, n := range d.Nodes {
		p := lr.Nodes[n.ID]
		d.Nodes[i].X, d.Nodes[i].Y = p.X, p.Y
	}
	res.Width, res.Height = lr.Width, lr.Height
	res.Stats.Crossings = lr.Crossings
	res.Stats.Ranks = countRanks(lr.Ranks)

	// Stage 3: labels
	start = time.Now()
	placer := labels.NewPlacer()
	for _, n := range d.Nodes {
		placer.Reserve(n.Bounds())
	}
	placed := 0
	for i, e := range d.Edges {
		route := lr.Edges[e.ID]
		d.Edges[i].Points = route.Points
		if e.Label == "" {
			continue
		}
		p := placer.Place(diagram.Point{X: route.LabelX, Y: route.LabelY}, chips[i])
		d.Edges[i].LabelX, d.Edges[i].LabelY = p.Center.X, p.Center.Y
		placed++
		if p.Moved {
			res.Stats.LabelsMoved++
		}
		if p.Collided {
			res.Stats.LabelCollision++
			r.Logger.Debug("label collides", "edge", e.ID)
		}
	}
	res.Stats.LabelTime = time.Since(start)
	hooks.OnLabelsPlaced(ctx, placed, res.Stats.LabelCollision)

	res.Data = d
	return res, nil
}

// Sizer returns the node sizer for opts, bound to the runner's measurement
// context.
func (r *Runner) Sizer(opts Options) *sizing.Sizer {
	return sizing.New(r.Text, opts.SizingOptions())
}

// ChipFunc returns the edge chip measurement used by [viewport.Fit].
func (r *Runner) ChipFunc(opts Options) viewport.ChipFunc {
	return r.Sizer(opts).Chip
}

// Fit computes the transform that fits a laid-out document into a
// container, reserving room for the largest edge chip.
func (r *Runner) Fit(d diagram.Data, containerW, containerH float64, insets viewport.Insets, fo viewport.FitOptions, opts Options) (viewport.Transform, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return viewport.Transform{}, err
	}
	if fo.Chip == nil {
		fo.Chip = r.ChipFunc(opts)
	}
	return viewport.Fit(d.Nodes, d.Edges, containerW, containerH, insets, fo), nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// stripGeometry clears placeholder geometry so it does not affect the cache
// key. An external node's radius is kept because sizing starts from it.
func stripGeometry(d diagram.Data) diagram.Data {
	out := d.Clone()
	for i := range out.Nodes {
		n := &out.Nodes[i]
		n.X, n.Y, n.Width, n.Height = 0, 0, 0, 0
		n.LabelLines, n.LineHeight = nil, 0
	}
	for i := range out.Edges {
		e := &out.Edges[i]
		e.Points, e.LabelX, e.LabelY = nil, 0, 0
	}
	return out
}

func countRanks(ranks map[string]int) int {
	if len(ranks) == 0 {
		return 0
	}
	top := 0
	for _, r := range ranks {
		top = max(top, r)
	}
	return top + 1
}
