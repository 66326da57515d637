// Package layout positions diagram nodes and routes the edges between them.
//
// # Strategies
//
// A [Strategy] turns a [Graph] of sized node boxes into a [Result] with a
// top-left [Placement] per node and a [Route] per edge. Two strategies are
// registered and can be selected by name with [Lookup]:
//
//   - "layered" ([Layered], the default): a Sugiyama-style layered layout
//     for directed graphs, built on [github.com/matzehuels/archflow/pkg/dag]
//     and its transform package.
//   - "grid" ([Grid]): a near-square grid, used for graphs without edges.
//
// # Directions
//
// [Options.Rankdir] selects the flow direction. Internally every strategy
// works in layout space, where the primary axis runs across ranks and the
// secondary axis within a rank. TB maps the primary axis to y and LR maps it
// to x, so the same code produces both orientations.
//
// # Guarantees
//
// Node boxes never overlap, even when touching edges are counted as overlap.
// Every routed edge has at least two points and runs from its source to its
// target, including edges that were reversed to break cycles. Self-loops
// leave and re-enter the node on its + secondary side.
//
// # Usage
//
//	strategy, err := layout.Lookup("layered")
//	if err != nil {
//	    return err
//	}
//	res := strategy.Layout(layout.Graph{Nodes: boxes, Edges: edges}, layout.Options{
//	    Rankdir: diagram.RankdirLR,
//	})
//	for id, p := range res.Nodes {
//	    fmt.Println(id, p.X, p.Y)
//	}
package layout
