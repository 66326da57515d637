package dag

import (
	"errors"
	"maps"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [DAG.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [DAG.AddNode] when a node with the
	// same ID already exists in the graph.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrDuplicateEdgeID is returned by [DAG.AddEdge] when an edge with the
	// same non-empty ID already exists.
	ErrDuplicateEdgeID = errors.New("duplicate edge ID")

	// ErrUnknownSourceNode is returned by [DAG.AddEdge] when the From node
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [DAG.AddEdge] when the To node
	// does not exist in the graph.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrInvalidEdgeEndpoint is returned by [DAG.Validate] when an edge
	// references a node that doesn't exist.
	ErrInvalidEdgeEndpoint = errors.New("invalid edge endpoint")

	// ErrNonConsecutiveRanks is returned by [DAG.Validate] when an edge
	// connects nodes that are not in adjacent ranks (From.Rank+1 != To.Rank).
	ErrNonConsecutiveRanks = errors.New("edges must connect consecutive ranks")

	// ErrGraphHasCycle is returned by [DAG.Validate] when a cycle is detected.
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// Metadata stores arbitrary key-value pairs attached to nodes and edges.
// Metadata maps are never nil after insertion.
type Metadata map[string]any

// NodeKind distinguishes diagram nodes from synthetic nodes created while
// normalizing long edges.
type NodeKind int

const (
	// NodeKindRegular is a node from the diagram.
	NodeKindRegular NodeKind = iota
	// NodeKindDummy is a bend point inserted on an edge spanning several ranks.
	NodeKindDummy
	// NodeKindLabel is the dummy that reserves room for an edge label chip.
	NodeKindLabel
)

// Node is a vertex with an assigned rank.
//
// Width and Height are layout-space extents: Width runs along the
// within-rank (secondary) axis and Height along the rank (primary) axis.
type Node struct {
	ID     string
	Rank   int
	Kind   NodeKind
	Width  float64
	Height float64
	EdgeID string // owning edge, for dummies
	Meta   Metadata
}

// IsDummy reports whether the node was synthesized for a long edge.
func (n Node) IsDummy() bool { return n.Kind != NodeKindRegular }

// Edge is a directed connection. MinLen is the minimum rank distance the
// ranking step must keep between From and To (treated as 1 when < 1).
// Reversed marks edges flipped to break cycles.
type Edge struct {
	ID       string
	From     string
	To       string
	MinLen   int
	Reversed bool
	Meta     Metadata
}

// Span returns the edge's effective minimum length.
func (e Edge) Span() int {
	if e.MinLen < 1 {
		return 1
	}
	return e.MinLen
}

// DAG is a directed graph organized in ranks for layered layout.
//
// Nodes and edges are kept in insertion order so every traversal, and
// therefore every layout, is deterministic.
//
// The zero value is not usable - use New to create a valid DAG instance.
// DAG is not safe for concurrent use without external synchronization.
type DAG struct {
	nodes    map[string]*Node
	order    []string
	edges    []*Edge
	outgoing map[string][]*Edge
	incoming map[string][]*Edge
	ranks    map[int][]*Node
}

// New creates an empty DAG.
func New() *DAG {
	return &DAG{
		nodes:    make(map[string]*Node),
		outgoing: make(map[string][]*Edge),
		incoming: make(map[string][]*Edge),
		ranks:    make(map[int][]*Node),
	}
}

// AddNode adds a node and indexes it by rank.
func (d *DAG) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := d.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	if n.Meta == nil {
		n.Meta = Metadata{}
	}
	node := &n
	d.nodes[node.ID] = node
	d.order = append(d.order, node.ID)
	d.ranks[node.Rank] = append(d.ranks[node.Rank], node)
	return nil
}

// SetRanks updates rank assignments and rebuilds the rank index. Nodes not
// present in the map keep their rank.
func (d *DAG) SetRanks(ranks map[string]int) {
	d.ranks = make(map[int][]*Node)
	for _, id := range d.order {
		n := d.nodes[id]
		if r, ok := ranks[n.ID]; ok {
			n.Rank = r
		}
		d.ranks[n.Rank] = append(d.ranks[n.Rank], n)
	}
}

// AddEdge adds a directed edge between two existing nodes. Parallel edges
// and self-loops are allowed; non-empty edge IDs must be unique.
func (d *DAG) AddEdge(e Edge) error {
	if _, ok := d.nodes[e.From]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := d.nodes[e.To]; !ok {
		return ErrUnknownTargetNode
	}
	if e.ID != "" {
		if _, exists := d.Edge(e.ID); exists {
			return ErrDuplicateEdgeID
		}
	}
	if e.Meta == nil {
		e.Meta = Metadata{}
	}
	edge := &e
	d.edges = append(d.edges, edge)
	d.outgoing[e.From] = append(d.outgoing[e.From], edge)
	d.incoming[e.To] = append(d.incoming[e.To], edge)
	return nil
}

// RemoveEdge removes every edge from→to.
func (d *DAG) RemoveEdge(from, to string) {
	match := func(e *Edge) bool { return e.From == from && e.To == to }
	d.edges = slices.DeleteFunc(d.edges, match)
	d.outgoing[from] = slices.DeleteFunc(d.outgoing[from], match)
	d.incoming[to] = slices.DeleteFunc(d.incoming[to], match)
}

// RemoveEdgeByID removes the edge with the given ID, if present.
func (d *DAG) RemoveEdgeByID(id string) {
	e, ok := d.Edge(id)
	if !ok {
		return
	}
	match := func(x *Edge) bool { return x.ID == id }
	d.edges = slices.DeleteFunc(d.edges, match)
	d.outgoing[e.From] = slices.DeleteFunc(d.outgoing[e.From], match)
	d.incoming[e.To] = slices.DeleteFunc(d.incoming[e.To], match)
}

// Edge returns a copy of the edge with the given ID.
func (d *DAG) Edge(id string) (Edge, bool) {
	for _, e := range d.edges {
		if e.ID == id {
			return *e, true
		}
	}
	return Edge{}, false
}

// Nodes returns all nodes in insertion order. The pointers refer to the
// graph's nodes, so modifications affect the graph.
func (d *DAG) Nodes() []*Node {
	nodes := make([]*Node, len(d.order))
	for i, id := range d.order {
		nodes[i] = d.nodes[id]
	}
	return nodes
}

// Edges returns a copy of all edges in insertion order.
func (d *DAG) Edges() []Edge {
	out := make([]Edge, len(d.edges))
	for i, e := range d.edges {
		out[i] = *e
	}
	return out
}

// NodeCount returns the number of nodes in the graph.
func (d *DAG) NodeCount() int { return len(d.nodes) }

// EdgeCount returns the number of edges in the graph.
func (d *DAG) EdgeCount() int { return len(d.edges) }

// OutEdges returns copies of the edges leaving id.
func (d *DAG) OutEdges(id string) []Edge { return derefEdges(d.outgoing[id]) }

// Children returns the targets of edges leaving id, one entry per edge.
func (d *DAG) Children(id string) []string {
	out := make([]string, 0, len(d.outgoing[id]))
	for _, e := range d.outgoing[id] {
		out = append(out, e.To)
	}
	return out
}

// Parents returns the sources of edges entering id, one entry per edge.
func (d *DAG) Parents(id string) []string {
	out := make([]string, 0, len(d.incoming[id]))
	for _, e := range d.incoming[id] {
		out = append(out, e.From)
	}
	return out
}

// InDegree returns the number of incoming edges to the node.
func (d *DAG) InDegree(id string) int { return len(d.incoming[id]) }

// Node returns the node with the given ID.
func (d *DAG) Node(id string) (*Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// NodesInRank returns the nodes assigned to the given rank in index order.
func (d *DAG) NodesInRank(rank int) []*Node { return d.ranks[rank] }

// RankCount returns the number of distinct ranks.
func (d *DAG) RankCount() int { return len(d.ranks) }

// RankIDs returns all rank indices in ascending order.
func (d *DAG) RankIDs() []int {
	return slices.Sorted(maps.Keys(d.ranks))
}

// MaxRank returns the highest rank index, or 0 if the graph is empty.
func (d *DAG) MaxRank() int {
	if len(d.ranks) == 0 {
		return 0
	}
	ids := d.RankIDs()
	return ids[len(ids)-1]
}

// Sources returns nodes with no incoming edges, in insertion order.
func (d *DAG) Sources() []*Node {
	var sources []*Node
	for _, id := range d.order {
		if len(d.incoming[id]) == 0 {
			sources = append(sources, d.nodes[id])
		}
	}
	return sources
}

// Validate checks that every edge joins existing nodes in consecutive ranks
// and that the graph is acyclic.
func (d *DAG) Validate() error {
	if err := d.validateEdgeConsistency(); err != nil {
		return err
	}
	return d.detectCycles()
}

func (d *DAG) validateEdgeConsistency() error {
	for _, e := range d.edges {
		src, okS := d.nodes[e.From]
		dst, okD := d.nodes[e.To]
		if !okS || !okD {
			return ErrInvalidEdgeEndpoint
		}
		if dst.Rank != src.Rank+1 {
			return ErrNonConsecutiveRanks
		}
	}
	return nil
}

func (d *DAG) detectCycles() error {
	if HasCycle(d) {
		return ErrGraphHasCycle
	}
	return nil
}

// HasCycle reports whether the graph contains a directed cycle, self-loops
// included.
func HasCycle(d *DAG) bool {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(d.nodes))
	var hasCycle bool

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, e := range d.outgoing[id] {
			switch color[e.To] {
			case white:
				dfs(e.To)
			case gray:
				hasCycle = true
			}
			if hasCycle {
				return
			}
		}
		color[id] = black
	}

	for _, id := range d.order {
		if color[id] == white {
			dfs(id)
			if hasCycle {
				return true
			}
		}
	}
	return false
}

// PosMap creates a position lookup map from a slice of node IDs.
func PosMap(ids []string) map[string]int {
	m := make(map[string]int, len(ids))
	for i, id := range ids {
		m[id] = i
	}
	return m
}

// NodeIDs extracts the ID from each node in a slice.
func NodeIDs(nodes []*Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}

func derefEdges(es []*Edge) []Edge {
	out := make([]Edge, len(es))
	for i, e := range es {
		out[i] = *e
	}
	return out
}
