// Package dot exports laid-out diagrams as Graphviz DOT and renders SVG
// previews with go-graphviz.
//
// Node positions are pinned, so Graphviz does not move anything; it only
// draws the shapes and routes edge splines between the fixed nodes:
//
//	src := dot.ToDOT(res.Data, dot.Options{Width: res.Width, Height: res.Height})
//	svg, err := dot.RenderSVG(ctx, src)
//
// Coordinates are converted from the top-left, y-down diagram space to the
// bottom-left, y-up space Graphviz uses, with one pixel mapped to one point.
//
// This package uses [github.com/goccy/go-graphviz], which embeds Graphviz
// as WebAssembly, so no system installation is required.
package dot
