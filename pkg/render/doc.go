// Package render holds output renderers for laid-out diagrams.
//
// Rendering is not part of the layout engine: every renderer consumes the
// positioned [diagram.Data] produced by the pipeline and never changes it.
//
// The [dot] subpackage writes Graphviz DOT with pinned node positions and
// renders it to SVG in process.
package render
