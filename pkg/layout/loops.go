package layout

// loopLabelGap separates a self-loop's label chip from the loop's outer leg.
const loopLabelGap = 4

// selfLoops groups self-loop edge indices by node ID.
func selfLoops(g Graph) map[string][]int {
	loops := make(map[string][]int)
	for i, e := range g.Edges {
		if e.Source == e.Target {
			loops[e.Source] = append(loops[e.Source], i)
		}
	}
	return loops
}

// loopReserve returns the room a node's self-loops need on its + secondary
// side: one edgesep step per loop plus the widest label chip.
func loopReserve(g Graph, idx []int, ax axes, edgesep float64) float64 {
	if len(idx) == 0 {
		return 0
	}
	chip := 0.0
	for _, i := range idx {
		if e := g.Edges[i]; e.HasLabel() {
			ws, _ := ax.extent(e.LabelWidth, e.LabelHeight)
			chip = max(chip, ws)
		}
	}
	reserve := edgesep * float64(len(idx))
	if chip > 0 {
		reserve += loopLabelGap + chip
	}
	return reserve
}

// routeLoops draws each self-loop as a bracket leaving and re-entering the
// node's + secondary side. Successive loops on the same node nest outward.
// On circles the bracket ends are moved onto the outline.
func routeLoops(f *frame, g Graph, keys []string, loops map[string][]int, sizes map[string]vec, circles map[string]bool, ax axes, edgesep float64) {
	for id, idx := range loops {
		c := f.centers[id]
		half := vec{sizes[id].s / 2, sizes[id].p / 2}
		side := c.s + half.s
		top, bottom := vec{side, c.p - half.p/2}, vec{side, c.p + half.p/2}
		if circles[id] {
			top = clip(c, sizes[id], true, top)
			bottom = clip(c, sizes[id], true, bottom)
		}
		outer := side + edgesep*float64(len(idx))

		for n, i := range idx {
			out := side + edgesep*float64(n+1)
			k := keys[i]
			f.routes[k] = []vec{top, {out, top.p}, {out, bottom.p}, bottom}

			e := g.Edges[i]
			ws, _ := ax.extent(e.LabelWidth, e.LabelHeight)
			f.labels[k] = vec{outer + loopLabelGap + ws/2, c.p}
		}
	}
}
