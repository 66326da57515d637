package layout

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/archflow/pkg/dag"
	"github.com/matzehuels/archflow/pkg/diagram"
	"github.com/matzehuels/archflow/pkg/errors"
)

func box(id string, w, h float64) NodeBox { return NodeBox{ID: id, Width: w, Height: h} }

func chain(ids ...string) Graph {
	var g Graph
	for _, id := range ids {
		g.Nodes = append(g.Nodes, box(id, 150, 80))
	}
	for i := 1; i < len(ids); i++ {
		g.Edges = append(g.Edges, EdgeSpec{ID: fmt.Sprintf("e%d", i), Source: ids[i-1], Target: ids[i]})
	}
	return g
}

func assertNoOverlap(t *testing.T, g Graph, res Result) {
	t.Helper()
	for i := 0; i < len(g.Nodes); i++ {
		a := res.Nodes[g.Nodes[i].ID].Rect()
		for j := i + 1; j < len(g.Nodes); j++ {
			b := res.Nodes[g.Nodes[j].ID].Rect()
			if diagram.Overlaps(a, b) {
				t.Fatalf("nodes %s %+v and %s %+v overlap", g.Nodes[i].ID, a, g.Nodes[j].ID, b)
			}
		}
	}
}

func randomGraph(rng *rand.Rand) Graph {
	var g Graph
	n := 2 + rng.IntN(24)
	for i := range n {
		nb := box(fmt.Sprintf("n%d", i), 40+rng.Float64()*200, 30+rng.Float64()*120)
		if rng.IntN(5) == 0 {
			nb.Width = nb.Height
			nb.Circle = true
		}
		g.Nodes = append(g.Nodes, nb)
	}
	m := rng.IntN(2 * n)
	for i := range m {
		e := EdgeSpec{
			ID:     fmt.Sprintf("e%d", i),
			Source: g.Nodes[rng.IntN(n)].ID,
			Target: g.Nodes[rng.IntN(n)].ID,
		}
		if rng.IntN(3) == 0 {
			e.LabelWidth, e.LabelHeight = 30+rng.Float64()*150, 24
			e.MinLen = 1 + rng.IntN(3)
		}
		g.Edges = append(g.Edges, e)
	}
	return g
}

func TestLayeredNoOverlapRandomized(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 42))
	for trial := range 60 {
		g := randomGraph(rng)
		for _, dir := range []diagram.Rankdir{diagram.RankdirTB, diagram.RankdirLR} {
			t.Run(fmt.Sprintf("trial%d/%s", trial, dir), func(t *testing.T) {
				res := Layered{}.Layout(g, Options{Rankdir: dir})
				require.Len(t, res.Nodes, len(g.Nodes))
				require.Len(t, res.Edges, len(g.Edges))
				assertNoOverlap(t, g, res)

				for id, r := range res.Edges {
					assert.GreaterOrEqual(t, len(r.Points), 2, "edge %s", id)
				}
				for id, p := range res.Nodes {
					assert.GreaterOrEqual(t, p.X, 0.0, "node %s", id)
					assert.GreaterOrEqual(t, p.Y, 0.0, "node %s", id)
					assert.LessOrEqual(t, p.X+p.Width, res.Width, "node %s", id)
					assert.LessOrEqual(t, p.Y+p.Height, res.Height, "node %s", id)
				}
			})
		}
	}
}

func TestLayeredRankMonotonicity(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 9))
	for trial := range 40 {
		g := randomGraph(rng)
		res := Layered{}.Layout(g, Options{})
		for _, e := range g.Edges {
			if e.Source == e.Target || res.Edges[e.ID].Reversed {
				continue
			}
			span := max(1, e.MinLen)
			assert.GreaterOrEqual(t, res.Ranks[e.Target]-res.Ranks[e.Source], span,
				"trial %d edge %s %s→%s", trial, e.ID, e.Source, e.Target)
			assert.Less(t, res.Nodes[e.Source].Center().Y, res.Nodes[e.Target].Center().Y,
				"trial %d edge %s", trial, e.ID)
		}
	}
}

func TestLayeredChainDirections(t *testing.T) {
	g := chain("A", "B", "C")

	tb := Layered{}.Layout(g, Options{Rankdir: diagram.RankdirTB})
	assert.Less(t, tb.Nodes["A"].Y, tb.Nodes["B"].Y)
	assert.Less(t, tb.Nodes["B"].Y, tb.Nodes["C"].Y)
	assert.InDelta(t, tb.Nodes["A"].Center().X, tb.Nodes["C"].Center().X, 1e-6)

	lr := Layered{}.Layout(g, Options{Rankdir: diagram.RankdirLR})
	assert.Less(t, lr.Nodes["A"].X, lr.Nodes["B"].X)
	assert.Less(t, lr.Nodes["B"].X, lr.Nodes["C"].X)
	assert.InDelta(t, lr.Nodes["A"].Center().Y, lr.Nodes["C"].Center().Y, 1e-6)

	assert.Equal(t, map[string]int{"A": 0, "B": 1, "C": 2}, tb.Ranks)
	assert.Equal(t, 0, tb.Crossings)
}

func TestLayeredSpacingAndMargins(t *testing.T) {
	g := chain("A", "B")
	res := Layered{}.Layout(g, Options{Ranksep: 100, MarginX: 48, MarginY: 72})

	a, b := res.Nodes["A"], res.Nodes["B"]
	assert.InDelta(t, 100, b.Y-(a.Y+a.Height), 1e-9)
	assert.InDelta(t, 48, a.X, 1e-9)
	assert.InDelta(t, 72, a.Y, 1e-9)
	assert.InDelta(t, 150+2*48, res.Width, 1e-9)
	assert.InDelta(t, 80+100+80+2*72, res.Height, 1e-9)
}

func TestLayeredRouteEndpoints(t *testing.T) {
	g := chain("A", "B")
	res := Layered{}.Layout(g, Options{})

	r := res.Edges["e1"]
	require.GreaterOrEqual(t, len(r.Points), 2)
	a, b := res.Nodes["A"], res.Nodes["B"]
	first, last := r.Points[0], r.Points[len(r.Points)-1]
	assert.InDelta(t, a.Y+a.Height, first.Y, 1e-9)
	assert.InDelta(t, b.Y, last.Y, 1e-9)
	assert.False(t, r.Reversed)
}

func TestLayeredReversedEdge(t *testing.T) {
	g := Graph{
		Nodes: []NodeBox{box("client", 150, 80), box("server", 150, 80)},
		Edges: []EdgeSpec{
			{ID: "req", Source: "client", Target: "server"},
			{ID: "resp", Source: "server", Target: "client"},
		},
	}
	res := Layered{}.Layout(g, Options{})

	assert.False(t, res.Edges["req"].Reversed)
	resp := res.Edges["resp"]
	require.True(t, resp.Reversed)

	server, client := res.Nodes["server"], res.Nodes["client"]
	assert.InDelta(t, server.Y, resp.Points[0].Y, 1e-9, "reversed edge starts at its source")
	assert.InDelta(t, client.Y+client.Height, resp.Points[len(resp.Points)-1].Y, 1e-9)
	assertNoOverlap(t, g, res)
}

func TestLayeredSelfLoop(t *testing.T) {
	g := Graph{
		Nodes: []NodeBox{box("worker", 150, 80), box("queue", 150, 80)},
		Edges: []EdgeSpec{
			{ID: "poll", Source: "queue", Target: "worker"},
			{ID: "retry", Source: "worker", Target: "worker", LabelWidth: 50, LabelHeight: 24},
		},
	}
	for _, dir := range []diagram.Rankdir{diagram.RankdirTB, diagram.RankdirLR} {
		t.Run(string(dir), func(t *testing.T) {
			res := Layered{}.Layout(g, Options{Rankdir: dir})
			worker := res.Nodes["worker"].Rect()
			loop := res.Edges["retry"]

			require.GreaterOrEqual(t, len(loop.Points), 2)
			inner := worker.Pad(-0.5, -0.5)
			for _, p := range loop.Points {
				inside := p.X > inner.X && p.X < inner.Right() && p.Y > inner.Y && p.Y < inner.Bottom()
				assert.False(t, inside, "loop point %+v inside node %+v", p, worker)
			}

			chip := diagram.RectAround(diagram.Point{X: loop.LabelX, Y: loop.LabelY}, diagram.Size{W: 50, H: 24})
			assert.False(t, diagram.StrictlyOverlaps(chip, worker), "loop label over node")
			assert.Equal(t, res.Ranks["queue"]+1, res.Ranks["worker"])
		})
	}
}

func TestLayeredLabelDummy(t *testing.T) {
	g := chain("api", "db")
	g.Edges[0].LabelWidth, g.Edges[0].LabelHeight, g.Edges[0].MinLen = 100, 24, 2

	res := Layered{}.Layout(g, Options{})
	assert.Equal(t, 2, res.Ranks["db"]-res.Ranks["api"])

	r := res.Edges["e1"]
	api, db := res.Nodes["api"], res.Nodes["db"]
	assert.Greater(t, r.LabelY-12, api.Y+api.Height, "label chip below source")
	assert.Less(t, r.LabelY+12, db.Y, "label chip above target")
}

func TestLayeredUnavoidableCrossing(t *testing.T) {
	g := Graph{
		Nodes: []NodeBox{box("a", 100, 40), box("b", 100, 40), box("c", 100, 40), box("d", 100, 40)},
		Edges: []EdgeSpec{
			{ID: "ac", Source: "a", Target: "c"},
			{ID: "ad", Source: "a", Target: "d"},
			{ID: "bc", Source: "b", Target: "c"},
			{ID: "bd", Source: "b", Target: "d"},
		},
	}
	res := Layered{}.Layout(g, Options{})
	assert.Equal(t, 1, res.Crossings)
}

func TestLayeredComponentsPacked(t *testing.T) {
	g := Graph{
		Nodes: []NodeBox{box("a", 150, 80), box("b", 150, 80), box("x", 150, 80), box("y", 150, 80)},
		Edges: []EdgeSpec{
			{ID: "ab", Source: "a", Target: "b"},
			{ID: "xy", Source: "x", Target: "y"},
		},
	}
	res := Layered{}.Layout(g, Options{Nodesep: 80})

	assert.InDelta(t, res.Nodes["a"].Y, res.Nodes["x"].Y, 1e-9)
	assert.InDelta(t, 80, res.Nodes["x"].X-(res.Nodes["a"].X+150), 1e-9)
	assertNoOverlap(t, g, res)
}

func TestGridZeroEdges(t *testing.T) {
	g := Graph{Nodes: []NodeBox{box("a", 100, 50), box("b", 120, 60), box("c", 100, 50), box("d", 80, 40), box("e", 90, 40)}}

	res := Layered{}.Layout(g, Options{Nodesep: 80, Ranksep: 100})

	assert.Equal(t, map[string]int{"a": 0, "b": 0, "c": 0, "d": 1, "e": 1}, res.Ranks)
	assert.InDelta(t, res.Nodes["a"].Center().Y, res.Nodes["b"].Center().Y, 1e-9)
	assert.Less(t, res.Nodes["a"].X, res.Nodes["b"].X)
	assert.Less(t, res.Nodes["b"].X, res.Nodes["c"].X)
	assert.Greater(t, res.Nodes["d"].Y, res.Nodes["a"].Y+res.Nodes["a"].Height)
	assertNoOverlap(t, g, res)
}

func TestGridEmpty(t *testing.T) {
	res := Grid{}.Layout(Graph{}, Options{MarginX: 10, MarginY: 20})
	assert.Empty(t, res.Nodes)
	assert.Equal(t, 20.0, res.Width)
	assert.Equal(t, 40.0, res.Height)
}

func TestGridRoutesEdges(t *testing.T) {
	g := Graph{
		Nodes: []NodeBox{box("a", 100, 50), {ID: "b", Width: 60, Height: 60, Circle: true}},
		Edges: []EdgeSpec{{ID: "ab", Source: "a", Target: "b"}},
	}
	res := Grid{}.Layout(g, Options{})

	r := res.Edges["ab"]
	require.Len(t, r.Points, 2)
	a := res.Nodes["a"].Rect()
	assert.InDelta(t, a.Right(), r.Points[0].X, 1e-9)
	assert.InDelta(t, res.Nodes["b"].X, r.Points[1].X, 1e-9)
}

func TestLookup(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"", "layered"},
		{"layered", "layered"},
		{"GRID", "grid"},
		{" grid ", "grid"},
	}
	for _, tt := range tests {
		s, err := Lookup(tt.name)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, s.Name())
	}

	_, err := Lookup("force")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidOption))
	assert.Equal(t, []string{"grid", "layered"}, Names())
}

func TestIsotonic(t *testing.T) {
	got := isotonic([]float64{1, 3, 2, 4}, []float64{1, 1, 1, 1})
	assert.InDeltaSlice(t, []float64{1, 2.5, 2.5, 4}, got, 1e-9)

	got = isotonic([]float64{5, 1}, []float64{3, 1})
	assert.InDeltaSlice(t, []float64{4, 4}, got, 1e-9)
}

func TestMidpoint(t *testing.T) {
	m := midpoint([]vec{{0, 0}, {0, 10}, {10, 10}})
	assert.InDelta(t, 0, m.s, 1e-9)
	assert.InDelta(t, 10, m.p, 1e-9)
}

func TestLayeredEdgeIDLikeSegment(t *testing.T) {
	g := Graph{
		Nodes: []NodeBox{box("x", 150, 80), box("y", 150, 80), box("z", 150, 80)},
		Edges: []EdgeSpec{
			{ID: "a/0", Source: "x", Target: "y"},
			{ID: "b", Source: "y", Target: "z"},
			{ID: "a", Source: "x", Target: "z"},
		},
	}
	var res Result
	require.NotPanics(t, func() { res = Layered{}.Layout(g, Options{}) })
	require.Len(t, res.Edges, 3)
	assertNoOverlap(t, g, res)

	x, y, z := res.Nodes["x"], res.Nodes["y"], res.Nodes["z"]
	short := res.Edges["a/0"].Points
	require.GreaterOrEqual(t, len(short), 2)
	assert.InDelta(t, x.Y+x.Height, short[0].Y, 1e-9)
	assert.InDelta(t, y.Y, short[len(short)-1].Y, 1e-9, "a/0 ends at y")

	long := res.Edges["a"].Points
	require.GreaterOrEqual(t, len(long), 2)
	assert.InDelta(t, x.Y+x.Height, long[0].Y, 1e-9)
	assert.InDelta(t, z.Y, long[len(long)-1].Y, 1e-9, "a ends at z")
}

func TestLayeredRepeatedNodeIDs(t *testing.T) {
	g := Graph{
		Nodes: []NodeBox{box("a", 150, 80), box("a", 90, 40), box("", 60, 60), box("b", 150, 80)},
		Edges: []EdgeSpec{{ID: "ab", Source: "a", Target: "b"}, {ID: "dangling", Source: "", Target: "b"}},
	}
	var res Result
	require.NotPanics(t, func() { res = Layered{}.Layout(g, Options{}) })

	a, b := res.Nodes["a"], res.Nodes["b"]
	assert.Equal(t, 150.0, a.Width, "first node with an ID wins")
	assert.False(t, diagram.Overlaps(a.Rect(), b.Rect()))
	assert.Less(t, a.Y, b.Y)
}

func TestEdgeKeysUnique(t *testing.T) {
	keys := edgeKeys([]EdgeSpec{{ID: ""}, {ID: "#0"}, {ID: "x"}, {ID: "x"}, {ID: "#3"}})
	assert.Equal(t, []string{"#0~1", "#0", "x", "#3~1", "#3"}, keys)
}

func TestSelfLoopOnCircleTouchesOutline(t *testing.T) {
	g := Graph{
		Nodes: []NodeBox{{ID: "bus", Width: 100, Height: 100, Circle: true}, box("svc", 150, 80)},
		Edges: []EdgeSpec{
			{ID: "publish", Source: "svc", Target: "bus"},
			{ID: "replay", Source: "bus", Target: "bus"},
		},
	}
	for _, s := range []Strategy{Layered{}, Grid{}} {
		t.Run(s.Name(), func(t *testing.T) {
			res := s.Layout(g, Options{})
			c := res.Nodes["bus"].Center()
			pts := res.Edges["replay"].Points
			require.Len(t, pts, 4)
			for _, p := range []diagram.Point{pts[0], pts[3]} {
				assert.InDelta(t, 50, math.Hypot(p.X-c.X, p.Y-c.Y), 1e-9, "end %+v", p)
			}
			assert.Greater(t, pts[1].X, c.X+50, "loop leaves the circle")
		})
	}
}

// awkwardIDs look like the names the layout gives its own dummies and
// segments.
var (
	awkwardNodeIDs = []string{
		"a", "b", "a/0", "a/1", "#0", "#1", "a_dummy_1", "a_dummy_1__1",
		"a-b", "a-b_dummy_1", "e0", "e0/0", "x~1", "#0~1", "b/0_dummy_1", "n",
	}
	awkwardEdgeIDs = []string{
		"", "a", "a/0", "a/1", "a/0~1", "#0", "#1", "#2~1", "e0", "e0/0",
		"b", "a_dummy_1", "a/0/0",
	}
)

func awkwardGraph(rng *rand.Rand) Graph {
	var g Graph
	n := 2 + rng.IntN(len(awkwardNodeIDs)-1)
	for _, i := range rng.Perm(len(awkwardNodeIDs))[:n] {
		nb := box(awkwardNodeIDs[i], 40+rng.Float64()*160, 30+rng.Float64()*90)
		if rng.IntN(5) == 0 {
			nb.Width = nb.Height
			nb.Circle = true
		}
		g.Nodes = append(g.Nodes, nb)
	}
	for range rng.IntN(3 * n) {
		e := EdgeSpec{
			ID:     awkwardEdgeIDs[rng.IntN(len(awkwardEdgeIDs))],
			Source: g.Nodes[rng.IntN(n)].ID,
			Target: g.Nodes[rng.IntN(n)].ID,
		}
		if rng.IntN(3) == 0 {
			e.LabelWidth, e.LabelHeight = 30+rng.Float64()*120, 24
			e.MinLen = 1 + rng.IntN(3)
		}
		g.Edges = append(g.Edges, e)
	}
	return g
}

func TestLayeredAwkwardIDsRandomized(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 5))
	for trial := range 80 {
		g := awkwardGraph(rng)
		for _, dir := range []diagram.Rankdir{diagram.RankdirTB, diagram.RankdirLR} {
			t.Run(fmt.Sprintf("trial%d/%s", trial, dir), func(t *testing.T) {
				var res Result
				require.NotPanics(t, func() { res = Layered{}.Layout(g, Options{Rankdir: dir}) })
				require.Len(t, res.Nodes, len(g.Nodes))
				require.Len(t, res.Edges, len(g.Edges), "one route per edge")
				assertNoOverlap(t, g, res)
				for k, r := range res.Edges {
					assert.GreaterOrEqual(t, len(r.Points), 2, "edge %s", k)
				}
			})
		}
	}
}

func TestRankBandsHalvesGapAroundDummyRanks(t *testing.T) {
	g := dag.New()
	require.NoError(t, g.AddNode(dag.Node{ID: "a", Rank: 0, Height: 80}))
	require.NoError(t, g.AddNode(dag.Node{ID: "d", Rank: 1, Kind: dag.NodeKindDummy}))
	require.NoError(t, g.AddNode(dag.Node{ID: "b", Rank: 2, Height: 40}))

	b := rankBands(g, 2, 100)
	assert.Equal(t, []float64{80, 0, 40}, b.extent)
	assert.Equal(t, []float64{0, 130, 180}, b.start)
}

func TestRefineNarrowRanks(t *testing.T) {
	g := dag.New()
	for _, n := range []dag.Node{{ID: "a"}, {ID: "b"}, {ID: "x", Rank: 1}, {ID: "y", Rank: 1}} {
		require.NoError(t, g.AddNode(n))
	}
	require.NoError(t, g.AddEdge(dag.Edge{From: "a", To: "x"}))
	require.NoError(t, g.AddEdge(dag.Edge{From: "b", To: "y"}))

	orders := map[int][]string{0: {"a", "b"}, 1: {"y", "x"}}
	refineNarrowRanks(g, orders, 1)
	assert.Zero(t, dag.CountLayerCrossings(g, orders[0], orders[1]))
}

func TestRefineNarrowRanksSkipsWideRanks(t *testing.T) {
	g := dag.New()
	var upper, lower []string
	for i := range 7 {
		u, l := fmt.Sprintf("u%d", i), fmt.Sprintf("l%d", i)
		require.NoError(t, g.AddNode(dag.Node{ID: u}))
		require.NoError(t, g.AddNode(dag.Node{ID: l, Rank: 1}))
		upper = append(upper, u)
		lower = append([]string{l}, lower...)
	}
	for i := range 7 {
		require.NoError(t, g.AddEdge(dag.Edge{From: upper[i], To: fmt.Sprintf("l%d", i)}))
	}

	orders := map[int][]string{0: slices.Clone(upper), 1: slices.Clone(lower)}
	refineNarrowRanks(g, orders, 1)
	assert.Equal(t, upper, orders[0])
	assert.Equal(t, lower, orders[1])
}
