package transform

import (
	"fmt"

	"github.com/matzehuels/archflow/pkg/dag"
)

// Extent is a layout-space size: W along the within-rank axis, H along the
// rank axis.
type Extent struct {
	W, H float64
}

// Subdivide breaks edges that span several ranks into chains of
// single-rank edges joined by dummy nodes.
//
//	Before: web (rank 0) → db (rank 3)
//	After:  web → e1_dummy_1 → e1_dummy_2 → db
//
// Each dummy records the owning edge in [dag.Node.EdgeID]. When labels
// holds an extent for the edge, the dummy on the middle rank of the chain
// becomes a [dag.NodeKindLabel] node with that extent, reserving room for
// the label chip. Segment edges keep the original edge's Reversed flag
// and metadata. They are named "edge/segment" unless that ID is already
// taken, in which case a "~n" suffix is added.
//
// The returned map holds the node path of every subdivided edge with a
// non-empty ID, from its source to its target. Callers should use it
// rather than derive segment IDs.
//
// # Performance
//
// Time complexity is O(V + E·S) where S is the longest span.
func Subdivide(g *dag.DAG, labels map[string]Extent) map[string][]string {
	gen := newIDGen(g.Nodes())
	edgeIDs := make(map[string]struct{}, g.EdgeCount())
	for _, e := range g.Edges() {
		if e.ID != "" {
			edgeIDs[e.ID] = struct{}{}
		}
	}
	chains := make(map[string][]string)

	for _, e := range g.Edges() {
		src, srcOK := g.Node(e.From)
		dst, dstOK := g.Node(e.To)
		if !srcOK || !dstOK || dst.Rank <= src.Rank+1 {
			continue
		}

		removeEdge(g, e)

		base := e.ID
		if base == "" {
			base = src.ID + "-" + dst.ID
		}
		labelRank := src.Rank + (dst.Rank-src.Rank)/2
		chip, hasChip := labels[e.ID]

		path := []string{src.ID}
		seg := 0
		for rank := src.Rank + 1; rank < dst.Rank; rank++ {
			n := dag.Node{
				ID:     gen.next(base, rank),
				Rank:   rank,
				Kind:   dag.NodeKindDummy,
				EdgeID: e.ID,
			}
			if hasChip && rank == labelRank {
				n.Kind = dag.NodeKindLabel
				n.Width, n.Height = chip.W, chip.H
			}
			if err := g.AddNode(n); err != nil {
				panic(err)
			}
			addSegment(g, e, path[len(path)-1], n.ID, segmentID(edgeIDs, e.ID, seg))
			path = append(path, n.ID)
			seg++
		}
		addSegment(g, e, path[len(path)-1], dst.ID, segmentID(edgeIDs, e.ID, seg))
		path = append(path, dst.ID)

		if e.ID != "" {
			chains[e.ID] = path
		}
	}
	return chains
}

func addSegment(g *dag.DAG, orig dag.Edge, from, to, id string) {
	if err := g.AddEdge(dag.Edge{
		ID:       id,
		From:     from,
		To:       to,
		MinLen:   1,
		Reversed: orig.Reversed,
		Meta:     orig.Meta,
	}); err != nil {
		panic(err)
	}
}

// segmentID returns an edge ID for segment seg of edge, unique among used,
// and records it. Segments of anonymous edges stay anonymous.
func segmentID(used map[string]struct{}, edge string, seg int) string {
	if edge == "" {
		return ""
	}
	prefix := fmt.Sprintf("%s/%d", edge, seg)
	id := prefix
	for i := 1; ; i++ {
		if _, exists := used[id]; !exists {
			used[id] = struct{}{}
			return id
		}
		id = fmt.Sprintf("%s~%d", prefix, i)
	}
}

type idGen struct {
	used map[string]struct{}
}

func newIDGen(nodes []*dag.Node) *idGen {
	m := make(map[string]struct{}, len(nodes)*2)
	for _, n := range nodes {
		m[n.ID] = struct{}{}
	}
	return &idGen{used: m}
}

func (gen *idGen) next(base string, rank int) string {
	prefix := fmt.Sprintf("%s_dummy_%d", base, rank)
	id := prefix
	for i := 1; ; i++ {
		if _, exists := gen.used[id]; !exists {
			gen.used[id] = struct{}{}
			return id
		}
		id = fmt.Sprintf("%s__%d", prefix, i)
	}
}
