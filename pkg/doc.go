// Package pkg holds the archflow libraries.
//
// archflow turns an architecture graph (typed nodes and labeled edges) into
// a positioned diagram and computes the pan/zoom transforms a viewer needs
// to show it.
//
// Packages, from the leaves up:
//
//   - [errors]: coded errors shared by every layer
//   - [diagram]: the document model, geometry helpers, validation and codecs
//   - [text]: font-backed text measurement with a deterministic fallback
//   - [sizing]: node and edge-chip sizing from label text
//   - [dag], [dag/transform], [dag/perm]: ranked graphs, cycle breaking,
//     ranking, subdivision and ordering helpers
//   - [layout]: layered and grid layout strategies
//   - [labels]: edge label collision avoidance
//   - [viewport]: fit-to-container and focal zoom transforms
//   - [pipeline]: normalize, size, lay out and label, with caching
//   - [cache], [config], [observability], [render/dot], [buildinfo]:
//     supporting infrastructure
//
// The data flow is:
//
//	diagram.Data
//	     ↓
//	diagram.Normalize → sizing.Sizer → layout.Strategy → labels.Placer
//	     ↓
//	positioned diagram.Data → viewport.Fit / viewport.Zoom
package pkg
