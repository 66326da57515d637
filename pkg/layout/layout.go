package layout

import (
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/archflow/pkg/diagram"
	"github.com/matzehuels/archflow/pkg/errors"
)

// Default spacing, in pixels.
const (
	DefaultNodesep = 80
	DefaultRanksep = 100
	DefaultEdgesep = 20
	DefaultMarginX = 48
	DefaultMarginY = 48
)

// Strategy positions the nodes of a graph and routes its edges.
type Strategy interface {
	Name() string
	Layout(g Graph, opts Options) Result
}

// Graph is the layout input: sized node boxes and edges between them.
type Graph struct {
	Nodes []NodeBox
	Edges []EdgeSpec
}

// NodeBox is a node's footprint. Circle nodes route edges to their outline
// rather than to the box sides.
type NodeBox struct {
	ID     string
	Width  float64
	Height float64
	Circle bool
}

// EdgeSpec is a directed edge. A non-zero label size reserves room for the
// label chip along the edge. MinLen is the minimum number of ranks the edge
// spans (values below 1 mean 1).
type EdgeSpec struct {
	ID          string
	Source      string
	Target      string
	LabelWidth  float64
	LabelHeight float64
	MinLen      int
}

// HasLabel reports whether the edge carries a label chip.
func (e EdgeSpec) HasLabel() bool { return e.LabelWidth > 0 && e.LabelHeight > 0 }

// Options controls direction and spacing. Zero values fall back to the
// package defaults.
type Options struct {
	Rankdir diagram.Rankdir `json:"rankdir"`
	Nodesep float64         `json:"nodesep"`
	Ranksep float64         `json:"ranksep"`
	Edgesep float64         `json:"edgesep"`
	MarginX float64         `json:"marginx"`
	MarginY float64         `json:"marginy"`
}

// DefaultOptions returns top-to-bottom options with the default spacing.
func DefaultOptions() Options {
	return Options{
		Rankdir: diagram.RankdirTB,
		Nodesep: DefaultNodesep,
		Ranksep: DefaultRanksep,
		Edgesep: DefaultEdgesep,
		MarginX: DefaultMarginX,
		MarginY: DefaultMarginY,
	}
}

// WithDefaults fills unset fields from [DefaultOptions].
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.Rankdir == "" {
		o.Rankdir = d.Rankdir
	}
	if o.Nodesep <= 0 {
		o.Nodesep = d.Nodesep
	}
	if o.Ranksep <= 0 {
		o.Ranksep = d.Ranksep
	}
	if o.Edgesep <= 0 {
		o.Edgesep = d.Edgesep
	}
	if o.MarginX <= 0 {
		o.MarginX = d.MarginX
	}
	if o.MarginY <= 0 {
		o.MarginY = d.MarginY
	}
	return o
}

// Result holds positions for every input node and a route for every input
// edge. Edges are keyed by ID, or by "#index" for edges without a unique ID.
type Result struct {
	Nodes     map[string]Placement
	Edges     map[string]Route
	Ranks     map[string]int
	Crossings int
	Width     float64
	Height    float64
}

// Placement is a node's top-left position and size.
type Placement struct {
	X, Y          float64
	Width, Height float64
}

// Rect returns the placed node box.
func (p Placement) Rect() diagram.Rect {
	return diagram.Rect{X: p.X, Y: p.Y, W: p.Width, H: p.Height}
}

// Center returns the center of the placed node box.
func (p Placement) Center() diagram.Point { return p.Rect().Center() }

// Route is an edge polyline from source to target plus the provisional
// label anchor. Reversed marks edges that were flipped to break a cycle;
// their points still run from source to target.
type Route struct {
	Points   []diagram.Point
	LabelX   float64
	LabelY   float64
	Reversed bool
}

var strategies = map[string]Strategy{
	"layered": Layered{},
	"grid":    Grid{},
}

// Lookup returns the strategy registered under name. An empty name selects
// the layered strategy.
func Lookup(name string) (Strategy, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = "layered"
	}
	s, ok := strategies[key]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidOption,
			"unknown layout strategy %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return s, nil
}

// Names returns the registered strategy names in sorted order.
func Names() []string {
	names := make([]string, 0, len(strategies))
	for n := range strategies {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

func newResult(g Graph) Result {
	return Result{
		Nodes: make(map[string]Placement, len(g.Nodes)),
		Edges: make(map[string]Route, len(g.Edges)),
		Ranks: make(map[string]int, len(g.Nodes)),
	}
}

// edgeKeys returns a unique key per edge. Edges with an empty or repeated
// ID are keyed "#index", with a "~n" suffix if another edge already uses
// that ID.
func edgeKeys(edges []EdgeSpec) []string {
	keys := make([]string, len(edges))
	seen := make(map[string]bool, len(edges))
	for _, e := range edges {
		if e.ID != "" {
			seen[e.ID] = false
		}
	}
	for i, e := range edges {
		k := e.ID
		if k == "" || seen[k] {
			base := fmt.Sprintf("#%d", i)
			k = base
			for n := 1; ; n++ {
				if _, taken := seen[k]; !taken {
					break
				}
				k = fmt.Sprintf("%s~%d", base, n)
			}
		}
		seen[k] = true
		keys[i] = k
	}
	return keys
}
