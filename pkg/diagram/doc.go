// Package diagram defines the document model for architecture diagrams.
//
// A [Data] document holds typed [Node] values and labeled [Edge] values. The
// same document travels through the whole pipeline: callers submit it with
// placeholder geometry, and the layout engine returns it with every node
// positioned and sized and every edge routed.
//
// # Geometry conventions
//
// Rectangular nodes (component, datastore, custom) are anchored at their
// top-left corner. External nodes are circles whose bounding box starts at
// (X, Y), so their center is (X+Radius, Y+Radius).
//
//	n := diagram.Node{ID: "db", Type: diagram.TypeDatastore, X: 10, Y: 20, Width: 120, Height: 70}
//	c := n.Center() // (70, 55)
//
// # Serialization
//
// Documents are read and written as JSON or YAML:
//
//	{
//	  "nodes": [{"id": "api", "type": "component", "label": "API Gateway"}],
//	  "edges": [{"id": "e1", "source": "api", "target": "db", "label": "SQL"}]
//	}
//
// Use [ReadFile] and [WriteFile] for files (the format follows the
// extension), or [Decode] and [Encode] with an explicit [Format].
//
// # Validation
//
// [Normalize] is the boundary check. Schema violations such as duplicate
// node ids are returned as errors. Edges referencing unknown nodes are
// dropped and reported as [Issue] values, or rejected in strict mode.
package diagram
