package layout

import (
	"cmp"
	"slices"

	"github.com/matzehuels/archflow/pkg/dag"
	"github.com/matzehuels/archflow/pkg/dag/transform"
)

// Layered is a Sugiyama-style layered layout.
//
// Each connected component is processed independently:
//
//  1. Back edges are reversed to make the graph acyclic; self-loops are set
//     aside and drawn on the node's side.
//  2. Nodes get ranks by longest path, honoring each edge's MinLen.
//  3. Edges spanning several ranks are split into dummy chains. The middle
//     dummy of a labeled edge reserves room for its label chip.
//  4. Ranks are ordered by median sweeps with transposition.
//  5. Ranks are stacked along the primary axis and nodes are placed along
//     the secondary axis by isotonic regression.
//  6. Edges are routed through their dummy slots.
//
// Components are then packed side by side along the secondary axis. Graphs
// without edges fall back to [Grid]. Nodes with an empty or repeated ID are
// ignored; the first node with a given ID wins.
type Layered struct {
	// Passes is the number of median sweeps; zero means DefaultPasses.
	Passes int
}

// Name implements [Strategy].
func (Layered) Name() string { return "layered" }

// Layout implements [Strategy].
func (l Layered) Layout(g Graph, opts Options) Result {
	opts = opts.WithDefaults()
	if len(g.Edges) == 0 {
		return Grid{}.Layout(g, opts)
	}
	g = uniqueNodes(g)

	passes := l.Passes
	if passes <= 0 {
		passes = DefaultPasses
	}
	ax := axesFor(opts.Rankdir)
	keys := edgeKeys(g.Edges)

	out := newFrame()
	cursor := 0.0
	for _, c := range components(g) {
		f := layoutComponent(c, keys, ax, opts, passes)
		lo, hi := f.bounds(c.Graph, ax, c.keys(keys))
		f.shift(cursor-lo.s, -lo.p)
		cursor += hi.s - lo.s + opts.Nodesep
		out.merge(f)
	}
	return finish(g, keys, out, ax, opts)
}

// uniqueNodes drops nodes whose ID is empty or already taken.
func uniqueNodes(g Graph) Graph {
	seen := make(map[string]bool, len(g.Nodes))
	nodes := make([]NodeBox, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID == "" || seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		nodes = append(nodes, n)
	}
	return Graph{Nodes: nodes, Edges: g.Edges}
}

// component is a connected subgraph. Edge indices refer to the full graph.
type component struct {
	Graph
	index []int
}

// keys returns the component's edge keys, aligned with its Edges.
func (c component) keys(all []string) []string {
	out := make([]string, len(c.index))
	for i, idx := range c.index {
		out[i] = all[idx]
	}
	return out
}

// components splits g into connected components, ordered by their first
// node in input order. Edges with unknown endpoints are ignored.
func components(g Graph) []component {
	pos := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		pos[n.ID] = i
	}
	parent := make([]int, len(g.Nodes))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	for _, e := range g.Edges {
		a, okA := pos[e.Source]
		b, okB := pos[e.Target]
		if !okA || !okB {
			continue
		}
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[max(ra, rb)] = min(ra, rb)
		}
	}

	byRoot := make(map[int]*component)
	var roots []int
	for i, n := range g.Nodes {
		r := find(i)
		c, ok := byRoot[r]
		if !ok {
			c = &component{}
			byRoot[r] = c
			roots = append(roots, r)
		}
		c.Nodes = append(c.Nodes, n)
	}
	for i, e := range g.Edges {
		a, okA := pos[e.Source]
		_, okB := pos[e.Target]
		if !okA || !okB {
			continue
		}
		c := byRoot[find(a)]
		c.Edges = append(c.Edges, e)
		c.index = append(c.index, i)
	}

	slices.Sort(roots)
	out := make([]component, len(roots))
	for i, r := range roots {
		out[i] = *byRoot[r]
	}
	return out
}

// layoutComponent lays out one connected component in layout space.
func layoutComponent(c component, allKeys []string, ax axes, opts Options, passes int) *frame {
	keys := c.keys(allKeys)
	f := newFrame()

	sizes := make(map[string]vec, len(c.Nodes))
	circles := make(map[string]bool, len(c.Nodes))
	g := dag.New()
	for _, n := range c.Nodes {
		ws, wp := ax.extent(n.Width, n.Height)
		sizes[n.ID] = vec{ws, wp}
		circles[n.ID] = n.Circle
		// IDs are unique and non-empty after uniqueNodes.
		_ = g.AddNode(dag.Node{ID: n.ID, Width: ws, Height: wp})
	}

	labels := make(map[string]transform.Extent)
	for i, e := range c.Edges {
		// Keys are unique and both endpoints are in the component.
		_ = g.AddEdge(dag.Edge{ID: keys[i], From: e.Source, To: e.Target, MinLen: e.MinLen})
		if e.HasLabel() && e.Source != e.Target {
			ws, wp := ax.extent(e.LabelWidth, e.LabelHeight)
			labels[keys[i]] = transform.Extent{W: ws, H: wp}
		}
	}

	norm := transform.Normalize(g, labels)
	for _, e := range norm.Reversed {
		f.reversed[e.ID] = true
	}

	orders, crossings := orderRanks(g, passes)
	f.crossings = crossings
	maxRank := g.MaxRank()

	loops := selfLoops(c.Graph)
	sp := spacing{
		nodesep: opts.Nodesep,
		edgesep: opts.Edgesep,
		reserve: make(map[string]float64, len(loops)),
	}
	for id, idx := range loops {
		sp.reserve[id] = loopReserve(c.Graph, idx, ax, opts.Edgesep)
	}

	b := rankBands(g, maxRank, opts.Ranksep)
	x := assignSecondary(g, orders, maxRank, sp)

	for _, n := range g.Nodes() {
		f.centers[n.ID] = vec{x[n.ID], b.center(n.Rank)}
		if !n.IsDummy() {
			f.ranks[n.ID] = n.Rank
		}
	}

	r := router{g: g, f: f, chains: norm.Chains, bands: b, x: x, sizes: sizes, circles: circles, edgesep: opts.Edgesep}
	r.route(c.Graph, keys)
	routeLoops(f, c.Graph, keys, loops, sizes, circles, ax, opts.Edgesep)

	for id := range f.centers {
		if n, _ := g.Node(id); n.IsDummy() {
			delete(f.centers, id)
		}
	}
	return f
}

// router draws edges through their dummy chains.
type router struct {
	g       *dag.DAG
	f       *frame
	chains  map[string][]string
	bands   bands
	x       map[string]float64
	sizes   map[string]vec
	circles map[string]bool
	edgesep float64
}

// chain returns the node path of an edge in graph direction.
func (r router) chain(key string) []string {
	if path, ok := r.chains[key]; ok {
		return path
	}
	if e, ok := r.g.Edge(key); ok {
		return []string{e.From, e.To}
	}
	return nil
}

func (r router) route(g Graph, keys []string) {
	chains := make(map[string][]string, len(keys))
	for i, e := range g.Edges {
		if e.Source == e.Target {
			continue
		}
		if path := r.chain(keys[i]); len(path) >= 2 {
			chains[keys[i]] = path
		}
	}
	outPort, inPort := r.ports(chains)

	for i := range g.Edges {
		k := keys[i]
		path, ok := chains[k]
		if !ok {
			continue
		}
		src, dst := path[0], path[len(path)-1]
		srcRank, dstRank := r.rank(src), r.rank(dst)

		pts := []vec{
			{r.x[src] + outPort[k], r.f.centers[src].p + r.sizes[src].p/2},
			{r.x[src] + outPort[k], r.bands.end(srcRank)},
		}
		var label *vec
		for _, id := range path[1 : len(path)-1] {
			rk := r.rank(id)
			pts = append(pts,
				vec{r.x[id], r.bands.start[rk]},
				vec{r.x[id], r.bands.end(rk)},
			)
			if n, _ := r.g.Node(id); n.Kind == dag.NodeKindLabel {
				label = &vec{r.x[id], r.bands.center(rk)}
			}
		}
		pts = append(pts,
			vec{r.x[dst] + inPort[k], r.bands.start[dstRank]},
			vec{r.x[dst] + inPort[k], r.f.centers[dst].p - r.sizes[dst].p/2},
		)
		pts = polyline(pts)

		if r.f.reversed[k] {
			slices.Reverse(pts)
		}
		r.f.routes[k] = pts
		if label != nil {
			r.f.labels[k] = *label
		} else {
			r.f.labels[k] = midpoint(pts)
		}
	}
}

func (r router) rank(id string) int {
	n, _ := r.g.Node(id)
	return n.Rank
}

// ports spreads the edges leaving or entering a rectangular node across
// the middle of its band-facing side, ordered by the position of the node
// at the other end. Circles keep a single port at their pole.
func (r router) ports(chains map[string][]string) (out, in map[string]float64) {
	type end struct {
		key   string
		other float64
	}
	leaving := make(map[string][]end)
	entering := make(map[string][]end)
	for k, path := range chains {
		src, dst := path[0], path[len(path)-1]
		leaving[src] = append(leaving[src], end{k, r.x[path[1]]})
		entering[dst] = append(entering[dst], end{k, r.x[path[len(path)-2]]})
	}

	spread := func(node string, ends []end, into map[string]float64) {
		if len(ends) < 2 || r.circles[node] {
			return
		}
		slices.SortFunc(ends, func(a, b end) int {
			if c := cmp.Compare(a.other, b.other); c != 0 {
				return c
			}
			return cmp.Compare(a.key, b.key)
		})
		step := min(r.edgesep, r.sizes[node].s/2/float64(len(ends)-1))
		mid := float64(len(ends)-1) / 2
		for i, e := range ends {
			into[e.key] = (float64(i) - mid) * step
		}
	}

	out = make(map[string]float64)
	in = make(map[string]float64)
	for node, ends := range leaving {
		spread(node, ends, out)
	}
	for node, ends := range entering {
		spread(node, ends, in)
	}
	return out, in
}

// polyline drops repeated points and keeps at least two.
func polyline(pts []vec) []vec {
	first := pts[0]
	pts = dedupe(pts)
	if len(pts) < 2 {
		pts = []vec{first, first}
	}
	return pts
}
