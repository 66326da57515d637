// Package dag provides a ranked directed graph for layered diagram layout.
//
// # Overview
//
// The layered layout engine turns a diagram into a graph whose nodes are
// assigned integer ranks (layers). After normalization every edge connects
// consecutive ranks, which makes crossing counting and ordering heuristics
// local to a pair of ranks.
//
// # Basic Usage
//
// Create a new graph with [New], add nodes with [DAG.AddNode], and edges with
// [DAG.AddEdge]:
//
//	g := dag.New()
//	g.AddNode(dag.Node{ID: "web", Rank: 0})
//	g.AddNode(dag.Node{ID: "api", Rank: 1})
//	g.AddEdge(dag.Edge{ID: "e1", From: "web", To: "api"})
//
// Unlike a strict DAG the container accepts cycles and self-loops, since
// diagrams contain them; [DAG.Validate] checks the layered invariants once
// cycles have been broken and long edges subdivided.
//
// # Node Kinds
//
//   - [NodeKindRegular]: nodes from the diagram
//   - [NodeKindDummy]: bend points inserted on edges spanning several ranks
//   - [NodeKindLabel]: the dummy reserving room for an edge label chip
//
// Dummies carry the ID of the edge they belong to in [Node.EdgeID].
//
// # Edge Crossings
//
// [CountCrossings] and [CountLayerCrossings] use a Fenwick tree to count
// inversions in O(E log V), so ordering sweeps can compare candidate
// orderings cheaply.
//
// # Concurrency
//
// DAG instances are not safe for concurrent use.
//
// The [transform] subpackage provides cycle breaking, rank assignment and
// long-edge subdivision.
//
// [transform]: github.com/matzehuels/archflow/pkg/dag/transform
package dag
