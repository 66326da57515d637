package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/archflow/pkg/diagram"
)

// pointsPerInch converts diagram pixels to the inches Graphviz sizes nodes
// in.
const pointsPerInch = 72.0

// Options configures DOT generation.
type Options struct {
	// Width and Height are the canvas extent. Height is needed to flip the
	// y axis; when zero it is derived from the node bounds.
	Width, Height float64

	// Splines selects the Graphviz edge routing ("polyline" by default).
	Splines string
}

var shapes = map[diagram.Shape]string{
	diagram.ShapeRectangle: "box",
	diagram.ShapeCircle:    "circle",
	diagram.ShapeCylinder:  "cylinder",
	diagram.ShapeHexagon:   "hexagon",
	diagram.ShapeDiamond:   "diamond",
	diagram.ShapeTriangle:  "triangle",
}

// ToDOT converts a laid-out document to DOT. Each node is pinned at its
// center and drawn with its measured size.
func ToDOT(d diagram.Data, opts Options) string {
	height := opts.Height
	if height <= 0 {
		for _, n := range d.Nodes {
			height = max(height, n.Bounds().Bottom())
		}
	}
	splines := opts.Splines
	if splines == "" {
		splines = "polyline"
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	fmt.Fprintf(&buf, "  splines=%s;\n", splines)
	fmt.Fprintf(&buf, "  inputscale=%g;\n", pointsPerInch)
	buf.WriteString("  node [style=\"rounded,filled\", fillcolor=white, fontsize=14, fixedsize=true];\n")
	buf.WriteString("  edge [fontsize=12];\n")
	buf.WriteString("\n")

	for _, n := range d.Nodes {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(nodeAttrs(n, height), ", "))
	}

	buf.WriteString("\n")
	for _, e := range d.Edges {
		attrs := edgeAttrs(e, height)
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.Source, e.Target)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.Source, e.Target, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n diagram.Node, height float64) []string {
	b := n.Bounds()
	c := b.Center()
	label := n.Label
	if len(n.LabelLines) > 0 {
		label = strings.Join(n.LabelLines, "\n")
	}
	return []string{
		fmt.Sprintf("label=%q", label),
		fmt.Sprintf("shape=%s", shapes[n.ShapeOrDefault()]),
		fmt.Sprintf("width=%s", inches(b.W)),
		fmt.Sprintf("height=%s", inches(b.H)),
		fmt.Sprintf("pos=\"%s,%s!\"", num(c.X), num(height-c.Y)),
	}
}

func edgeAttrs(e diagram.Edge, height float64) []string {
	var attrs []string
	if e.Label != "" {
		attrs = append(attrs, fmt.Sprintf("label=%q", e.Label))
		if e.LabelX != 0 || e.LabelY != 0 {
			attrs = append(attrs, fmt.Sprintf("lp=\"%s,%s\"", num(e.LabelX), num(height-e.LabelY)))
		}
	}
	if !e.Directed {
		attrs = append(attrs, "arrowhead=none")
	}
	return attrs
}

func inches(px float64) string { return num(px / pointsPerInch) }

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// RenderSVG lays out DOT source with the neato engine, which honors pinned
// positions, and returns the SVG.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized svg tag with a pixel-sized
// one spanning the same viewBox.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
