// Package transform provides graph transformations that prepare a diagram
// graph for layered layout.
//
// # Overview
//
// Architecture diagrams arrive as arbitrary directed multigraphs: they have
// cycles (request/response pairs), self-loops (retries) and edges whose
// labels need room between their endpoints. This package turns such a graph
// into the canonical layered form where:
//
//   - The graph is acyclic (back edges reversed, self-loops set aside)
//   - Every node has a rank and every edge respects its minimum length
//   - Edges connect only consecutive ranks (long edges become dummy chains)
//
// [Normalize] applies the steps in order.
//
// # Cycle Breaking
//
// [BreakCycles] reverses DFS back edges rather than deleting them, so the
// layout still draws them. The returned [CycleResult] lists reversed edges
// and removed self-loops.
//
// # Rank Assignment
//
// [AssignLayers] runs a longest-path pass honoring [dag.Edge.MinLen] and then
// tightens sources toward their children.
//
// # Edge Subdivision
//
// [Subdivide] inserts dummy nodes on long edges. One dummy per labeled edge
// becomes a label node sized to the label chip:
//
//	Before: web (rank 0) → db (rank 2)
//	After:  web → e1_dummy_1 → db
//
// # Usage
//
//	res := transform.Normalize(g, chips)
//	if err := g.Validate(); err != nil {
//	    // unreachable for graphs built by the layout engine
//	}
package transform
