package cache

import "fmt"

// Keyer builds cache keys.
type Keyer interface {
	// LayoutKey identifies a layout of the diagram with the given hash.
	LayoutKey(diagramHash string, opts LayoutKeyOpts) string
	// RenderKey identifies a rendered artifact of a laid-out diagram.
	RenderKey(layoutHash string, opts RenderKeyOpts) string
}

// LayoutKeyOpts lists every option that changes a layout.
type LayoutKeyOpts struct {
	Strategy string  `json:"strategy"`
	Rankdir  string  `json:"rankdir"`
	Nodesep  float64 `json:"nodesep"`
	Ranksep  float64 `json:"ranksep"`
	Edgesep  float64 `json:"edgesep"`
	Density  string  `json:"density"`
	UIScale  float64 `json:"ui_scale"`
	Strict   bool    `json:"strict"`
	Measured bool    `json:"measured"`
}

// RenderKeyOpts lists every option that changes a rendered artifact.
type RenderKeyOpts struct {
	Format string `json:"format"`
}

// DefaultKeyer produces keys of the form "kind:sha256".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey implements [Keyer].
func (DefaultKeyer) LayoutKey(diagramHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", diagramHash, opts)
}

// RenderKey implements [Keyer].
func (DefaultKeyer) RenderKey(layoutHash string, opts RenderKeyOpts) string {
	return hashKey(fmt.Sprintf("render:%s", opts.Format), layoutHash, opts)
}
