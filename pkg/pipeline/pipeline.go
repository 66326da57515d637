// Package pipeline runs the archflow layout pipeline.
//
// The pipeline turns a [diagram.Data] document into a positioned diagram in
// four stages:
//
//  1. Normalize: validate ids, types and references at the boundary
//  2. Size: measure every node label and edge chip
//  3. Layout: place nodes and route edges with a [layout.Strategy]
//  4. Labels: move edge labels off nodes and off each other
//
// The CLI, the HTTP server and the terminal viewer all go through a
// [Runner], which adds caching, logging and observability hooks:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	res, err := runner.Layout(ctx, data, pipeline.Options{Rankdir: "LR"})
//	if err != nil {
//	    return err
//	}
//	diagram.WriteFile("out.json", res.Data)
package pipeline

import (
	"fmt"
	"math"
	"time"

	"github.com/matzehuels/archflow/pkg/cache"
	"github.com/matzehuels/archflow/pkg/diagram"
	"github.com/matzehuels/archflow/pkg/errors"
	"github.com/matzehuels/archflow/pkg/layout"
	"github.com/matzehuels/archflow/pkg/sizing"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API, and Viewer
// =============================================================================

const (
	// DefaultStrategy is the layout strategy used when none is named.
	DefaultStrategy = "layered"

	// DefaultUIScale leaves node metrics unscaled.
	DefaultUIScale = 1.0

	// MinAdaptiveNodeWidth is the floor for the widest node when deriving
	// spacing.
	MinAdaptiveNodeWidth = 80.0

	// MinAdaptiveChipWidth is the floor for the widest chip when deriving
	// the horizontal margin.
	MinAdaptiveChipWidth = 64.0

	// AdaptiveMarginY is the vertical margin used when none is given.
	AdaptiveMarginY = layout.DefaultMarginX + 24
)

// Format constants for rendered outputs.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatYAML: true,
	FormatDOT:  true,
	FormatSVG:  true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures one layout run. Zero-valued spacing fields are taken
// from the document, then derived from the measured node sizes.
// The struct supports JSON for API requests.
type Options struct {
	Strategy string  `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	Rankdir  string  `json:"rankdir,omitempty" yaml:"rankdir,omitempty"`
	Nodesep  float64 `json:"nodesep,omitempty" yaml:"nodesep,omitempty"`
	Ranksep  float64 `json:"ranksep,omitempty" yaml:"ranksep,omitempty"`
	Edgesep  float64 `json:"edgesep,omitempty" yaml:"edgesep,omitempty"`
	Density  string  `json:"density,omitempty" yaml:"density,omitempty"`
	UIScale  float64 `json:"uiScale,omitempty" yaml:"uiScale,omitempty"`

	// Strict turns dangling edge references into errors.
	Strict bool `json:"strict,omitempty" yaml:"strict,omitempty"`

	// Refresh skips the cache lookup but still stores the result.
	Refresh bool `json:"refresh,omitempty" yaml:"refresh,omitempty"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result is the outcome of one layout run.
type Result struct {
	// Data is the input document with geometry filled in.
	Data diagram.Data `json:"data"`

	// Width and Height are the canvas extent including margins.
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	// Hash identifies the normalized input document.
	Hash string `json:"hash"`

	// Issues lists edges dropped during normalization.
	Issues []diagram.Issue `json:"issues,omitempty"`

	// Spacing is the effective layout spacing after adaptive defaults.
	Spacing layout.Options `json:"spacing"`

	Stats    Stats `json:"stats"`
	CacheHit bool  `json:"cacheHit"`
}

// Stats contains run statistics.
type Stats struct {
	NodeCount      int           `json:"nodes"`
	EdgeCount      int           `json:"edges"`
	Ranks          int           `json:"ranks"`
	Crossings      int           `json:"crossings"`
	LabelsMoved    int           `json:"labelsMoved"`
	LabelCollision int           `json:"labelCollisions"`
	SizeTime       time.Duration `json:"sizeTime"`
	LayoutTime     time.Duration `json:"layoutTime"`
	LabelTime      time.Duration `json:"labelTime"`
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidOption,
			"invalid format %q (must be one of: json, yaml, dot, svg)", format)
	}
	return nil
}

// ValidateAndSetDefaults checks every option and fills in defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Strategy == "" {
		o.Strategy = DefaultStrategy
	}
	s, err := layout.Lookup(o.Strategy)
	if err != nil {
		return err
	}
	o.Strategy = s.Name()

	if o.Rankdir != "" {
		rd, err := diagram.ParseRankdir(o.Rankdir)
		if err != nil {
			return err
		}
		o.Rankdir = string(rd)
	}

	d, err := sizing.ParseDensity(o.Density)
	if err != nil {
		return err
	}
	o.Density = string(d)

	for _, f := range []struct {
		name string
		v    float64
	}{{"nodesep", o.Nodesep}, {"ranksep", o.Ranksep}, {"edgesep", o.Edgesep}, {"ui scale", o.UIScale}} {
		if err := errors.ValidateNonNegative(f.name, f.v); err != nil {
			return err
		}
	}
	if o.UIScale == 0 {
		o.UIScale = DefaultUIScale
	}
	o.validated = true
	return nil
}

// SizingOptions returns the node sizing rule for these options.
func (o *Options) SizingOptions() sizing.Options {
	so := sizing.DefaultOptions().WithDensity(sizing.Density(o.Density))
	if o.UIScale > 0 {
		so.Scale = o.UIScale
	}
	return so
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts(measured bool) cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Strategy: o.Strategy,
		Rankdir:  o.Rankdir,
		Nodesep:  o.Nodesep,
		Ranksep:  o.Ranksep,
		Edgesep:  o.Edgesep,
		Density:  o.Density,
		UIScale:  o.UIScale,
		Strict:   o.Strict,
		Measured: measured,
	}
}

// Spacing resolves layout spacing. Explicit options win over document
// overrides, which win over values derived from the widest node and chip:
//
//	nodesep = max(80, round(0.25 * maxNodeWidth))
//	ranksep = max(100, round(0.35 * maxNodeWidth))
//	marginX = 48 + round(0.5 * max(64, maxChipWidth))
//	marginY = 72
func (o *Options) Spacing(d diagram.Data, maxNodeW, maxChipW float64) layout.Options {
	nodeW := math.Max(MinAdaptiveNodeWidth, maxNodeW)
	chipW := math.Max(MinAdaptiveChipWidth, maxChipW)

	rankdir := diagram.Rankdir(o.Rankdir)
	if rankdir == "" {
		rankdir = d.Rankdir
	}
	return layout.Options{
		Rankdir: rankdir,
		Nodesep: first(o.Nodesep, d.Nodesep, math.Round(math.Max(layout.DefaultNodesep, 0.25*nodeW))),
		Ranksep: first(o.Ranksep, d.Ranksep, math.Round(math.Max(layout.DefaultRanksep, 0.35*nodeW))),
		Edgesep: first(o.Edgesep, d.Edgesep, layout.DefaultEdgesep),
		MarginX: layout.DefaultMarginX + math.Round(0.5*chipW),
		MarginY: AdaptiveMarginY,
	}.WithDefaults()
}

func first(vs ...float64) float64 {
	for _, v := range vs {
		if v > 0 {
			return v
		}
	}
	return 0
}

func (o *Options) String() string {
	return fmt.Sprintf("strategy=%s rankdir=%s density=%s scale=%g", o.Strategy, o.Rankdir, o.Density, o.UIScale)
}
