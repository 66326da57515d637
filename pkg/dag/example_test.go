package dag_test

import (
	"fmt"

	"github.com/matzehuels/archflow/pkg/dag"
)

func ExampleDAG_basic() {
	// A simple request path: web → api → db
	g := dag.New()
	_ = g.AddNode(dag.Node{ID: "web", Rank: 0})
	_ = g.AddNode(dag.Node{ID: "api", Rank: 1})
	_ = g.AddNode(dag.Node{ID: "db", Rank: 2})
	_ = g.AddEdge(dag.Edge{ID: "e1", From: "web", To: "api"})
	_ = g.AddEdge(dag.Edge{ID: "e2", From: "api", To: "db"})

	fmt.Println("Nodes:", g.NodeCount())
	fmt.Println("Edges:", g.EdgeCount())
	fmt.Println("Ranks:", g.RankCount())
	// Output:
	// Nodes: 3
	// Edges: 2
	// Ranks: 3
}

func ExampleDAG_traversal() {
	// Fan-out: the gateway talks to auth and cache
	g := dag.New()
	_ = g.AddNode(dag.Node{ID: "gateway", Rank: 0})
	_ = g.AddNode(dag.Node{ID: "auth", Rank: 1})
	_ = g.AddNode(dag.Node{ID: "cache", Rank: 1})
	_ = g.AddEdge(dag.Edge{From: "gateway", To: "auth"})
	_ = g.AddEdge(dag.Edge{From: "gateway", To: "cache"})

	fmt.Println("Children of gateway:", g.Children("gateway"))
	fmt.Println("Parents of auth:", g.Parents("auth"))
	fmt.Println("In-degree of cache:", g.InDegree("cache"))
	// Output:
	// Children of gateway: [auth cache]
	// Parents of auth: [gateway]
	// In-degree of cache: 1
}

func ExampleDAG_Sources() {
	g := dag.New()
	_ = g.AddNode(dag.Node{ID: "web", Rank: 0})
	_ = g.AddNode(dag.Node{ID: "mobile", Rank: 0})
	_ = g.AddNode(dag.Node{ID: "api", Rank: 1})
	_ = g.AddEdge(dag.Edge{From: "web", To: "api"})
	_ = g.AddEdge(dag.Edge{From: "mobile", To: "api"})

	fmt.Println("Sources:", dag.NodeIDs(g.Sources()))
	// Output:
	// Sources: [web mobile]
}

func ExampleNode_dummy() {
	regular := dag.Node{ID: "api", Kind: dag.NodeKindRegular}
	bend := dag.Node{ID: "e1_d1", Kind: dag.NodeKindDummy, EdgeID: "e1"}
	chip := dag.Node{ID: "e1_d2", Kind: dag.NodeKindLabel, EdgeID: "e1"}

	fmt.Println("Regular is dummy:", regular.IsDummy())
	fmt.Println("Bend is dummy:", bend.IsDummy())
	fmt.Println("Chip belongs to:", chip.EdgeID)
	// Output:
	// Regular is dummy: false
	// Bend is dummy: true
	// Chip belongs to: e1
}

func ExampleCountLayerCrossings() {
	g := dag.New()
	_ = g.AddNode(dag.Node{ID: "a", Rank: 0})
	_ = g.AddNode(dag.Node{ID: "b", Rank: 0})
	_ = g.AddNode(dag.Node{ID: "x", Rank: 1})
	_ = g.AddNode(dag.Node{ID: "y", Rank: 1})

	// a→y and b→x cross when a is left of b
	_ = g.AddEdge(dag.Edge{From: "a", To: "y"})
	_ = g.AddEdge(dag.Edge{From: "b", To: "x"})

	lower := []string{"x", "y"}
	fmt.Println("Crossings:", dag.CountLayerCrossings(g, []string{"a", "b"}, lower))
	fmt.Println("After reorder:", dag.CountLayerCrossings(g, []string{"b", "a"}, lower))
	// Output:
	// Crossings: 1
	// After reorder: 0
}
