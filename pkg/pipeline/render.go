package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/matzehuels/archflow/pkg/cache"
	"github.com/matzehuels/archflow/pkg/diagram"
	"github.com/matzehuels/archflow/pkg/observability"
	"github.com/matzehuels/archflow/pkg/render/dot"
)

// Render encodes a layout result in the given format. SVG output is cached
// by the hash of the laid-out document.
func (r *Runner) Render(ctx context.Context, res *Result, format string) ([]byte, bool, error) {
	if err := ValidateFormat(format); err != nil {
		return nil, false, err
	}

	switch format {
	case FormatJSON, FormatYAML:
		var buf bytes.Buffer
		if err := diagram.Encode(&buf, res.Data, diagram.Format(format)); err != nil {
			return nil, false, err
		}
		return buf.Bytes(), false, nil
	case FormatDOT:
		return []byte(ToDOT(res)), false, nil
	}

	layoutData, err := json.Marshal(res.Data)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	key := r.Keyer.RenderKey(cache.Hash(layoutData), cache.RenderKeyOpts{Format: format})
	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, "render")
		return data, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, "render")

	hooks := observability.Pipeline()
	start := time.Now()
	hooks.OnRenderStart(ctx, format)
	svg, err := dot.RenderSVG(ctx, ToDOT(res))
	hooks.OnRenderComplete(ctx, format, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	if err := r.Cache.Set(ctx, key, svg, cache.TTLRender); err != nil {
		r.Logger.Warn("cache write failed", "err", err)
	}
	r.Logger.Info("rendered output", "format", format, "bytes", len(svg), "duration", time.Since(start))
	return svg, false, nil
}

// ToDOT returns the Graphviz source for a layout result.
func ToDOT(res *Result) string {
	return dot.ToDOT(res.Data, dot.Options{Width: res.Width, Height: res.Height})
}
