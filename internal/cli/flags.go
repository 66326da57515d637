package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/archflow/pkg/layout"
	"github.com/matzehuels/archflow/pkg/pipeline"
	"github.com/matzehuels/archflow/pkg/viewport"
)

// layoutFlags are the pipeline options shared by layout, render, watch and
// view. Only flags the user set override the resolved configuration.
type layoutFlags struct {
	opts    pipeline.Options
	noCache bool
	refresh bool
}

func (f *layoutFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.opts.Strategy, "strategy", pipeline.DefaultStrategy,
		"layout strategy: "+strings.Join(layout.Names(), ", "))
	fs.StringVar(&f.opts.Rankdir, "rankdir", "", "rank direction: TB (default), LR")
	fs.Float64Var(&f.opts.Nodesep, "nodesep", 0, "gap between nodes in a rank (default: adaptive)")
	fs.Float64Var(&f.opts.Ranksep, "ranksep", 0, "gap between ranks (default: adaptive)")
	fs.Float64Var(&f.opts.Edgesep, "edgesep", 0, "gap next to edge bends (default: adaptive)")
	fs.StringVar(&f.opts.Density, "density", "", "node width preset: compact, comfortable, spacious")
	fs.Float64Var(&f.opts.UIScale, "ui-scale", pipeline.DefaultUIScale, "scale node metrics and fonts")
	fs.BoolVar(&f.opts.Strict, "strict", false, "fail on edges that reference unknown nodes")
	fs.BoolVar(&f.noCache, "no-cache", false, "disable caching")
	fs.BoolVar(&f.refresh, "refresh", false, "recompute even when a cached layout exists")
}

// options layers the changed flags over base.
func (f *layoutFlags) options(cmd *cobra.Command, base pipeline.Options) pipeline.Options {
	fs := cmd.Flags()
	o := base
	if fs.Changed("strategy") {
		o.Strategy = f.opts.Strategy
	}
	if fs.Changed("rankdir") {
		o.Rankdir = f.opts.Rankdir
	}
	if fs.Changed("nodesep") {
		o.Nodesep = f.opts.Nodesep
	}
	if fs.Changed("ranksep") {
		o.Ranksep = f.opts.Ranksep
	}
	if fs.Changed("edgesep") {
		o.Edgesep = f.opts.Edgesep
	}
	if fs.Changed("density") {
		o.Density = f.opts.Density
	}
	if fs.Changed("ui-scale") {
		o.UIScale = f.opts.UIScale
	}
	if fs.Changed("strict") {
		o.Strict = f.opts.Strict
	}
	o.Refresh = f.refresh
	return o
}

// scaleFlags are the min/max scale limits of fit and zoom.
type scaleFlags struct {
	min, max float64
}

func (f *scaleFlags) register(fs *pflag.FlagSet, min, max float64) {
	fs.Float64Var(&f.min, "min-scale", min, "smallest allowed scale")
	fs.Float64Var(&f.max, "max-scale", max, "largest allowed scale")
}

func (f *scaleFlags) fit(cmd *cobra.Command, base viewport.FitOptions) viewport.FitOptions {
	if cmd.Flags().Changed("min-scale") {
		base.MinScale = f.min
	}
	if cmd.Flags().Changed("max-scale") {
		base.MaxScale = f.max
	}
	return base
}

func (f *scaleFlags) zoom(cmd *cobra.Command, base viewport.ZoomOptions) viewport.ZoomOptions {
	if cmd.Flags().Changed("min-scale") {
		base.MinScale = f.min
	}
	if cmd.Flags().Changed("max-scale") {
		base.MaxScale = f.max
	}
	return base
}
