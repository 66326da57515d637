package cli

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/archflow/pkg/diagram"
	"github.com/matzehuels/archflow/pkg/viewport"
)

// A terminal cell stands for this many diagram pixels at scale 1.
const (
	cellW = 8.0
	cellH = 16.0
)

const (
	panStep    = 4 // cells per arrow key
	zoomFactor = 1.25
	chromeRows = 2 // header and footer
)

var (
	viewHeaderStyle = StyleTitle
	viewNodeStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	viewEdgeStyle   = lipgloss.NewStyle().Foreground(colorDim)
	viewLabelStyle  = lipgloss.NewStyle().Foreground(colorYellow)
)

// viewCommand creates the view command.
func (c *CLI) viewCommand() *cobra.Command {
	var flags layoutFlags

	cmd := &cobra.Command{
		Use:   "view [diagram.json|diagram.yaml]",
		Short: "Browse a laid-out diagram in the terminal",
		Long: `Lay out a diagram and browse it in the terminal.

Keys:
  arrows / hjkl   pan
  + / -           zoom around the center
  f               fit the whole diagram
  q               quit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, flags.noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			opts := flags.options(cmd, c.Config.PipelineOptions())
			res, err := layoutFile(ctx, runner, args[0], opts)
			if err != nil {
				return err
			}

			fo := c.Config.FitOptions()
			fo.Chip = runner.ChipFunc(opts)
			m := newViewModel(filepath.Base(args[0]), res.Data, fo, c.Config.ZoomOptions())
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			return err
		},
	}

	flags.register(cmd.Flags())
	return cmd
}

// =============================================================================
// viewModel - Interactive diagram viewer
// =============================================================================

// viewModel renders a diagram onto a character grid. Screen coordinates
// are in diagram pixels; each cell covers cellW x cellH of them.
type viewModel struct {
	title string
	data  diagram.Data
	fit   viewport.FitOptions
	zoom  viewport.ZoomOptions

	cols, rows int
	t          viewport.Transform
}

func newViewModel(title string, d diagram.Data, fo viewport.FitOptions, zo viewport.ZoomOptions) viewModel {
	m := viewModel{title: title, data: d, fit: fo, zoom: zo, cols: 80, rows: 24}
	m.t = m.fitted()
	return m
}

// screen is the drawable area in diagram pixels.
func (m viewModel) screen() diagram.Size {
	return diagram.Size{W: float64(m.cols) * cellW, H: float64(max(1, m.rows-chromeRows)) * cellH}
}

func (m viewModel) fitted() viewport.Transform {
	s := m.screen()
	return viewport.Fit(m.data.Nodes, m.data.Edges, s.W, s.H, viewport.Insets{}, m.fit)
}

// zoomBy zooms around the screen center. The lower limit never exceeds
// the fitted scale, so zooming out from a fitted overview stays put.
func (m viewModel) zoomBy(factor float64) viewport.Transform {
	zo := m.zoom
	zo.MinScale = min(zo.MinScale, m.fitted().Scale)
	return viewport.Zoom(m.screen(), m.t, factor, nil, zo)
}

func (m viewModel) Init() tea.Cmd {
	return nil
}

func (m viewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "left", "h":
			m.t = m.t.Pan(panStep*cellW, 0)
		case "right", "l":
			m.t = m.t.Pan(-panStep*cellW, 0)
		case "up", "k":
			m.t = m.t.Pan(0, panStep*cellH)
		case "down", "j":
			m.t = m.t.Pan(0, -panStep*cellH)
		case "+", "=":
			m.t = m.zoomBy(zoomFactor)
		case "-", "_":
			m.t = m.zoomBy(1 / zoomFactor)
		case "f", "0":
			m.t = m.fitted()
		}
	case tea.WindowSizeMsg:
		m.cols, m.rows = max(1, msg.Width), max(chromeRows+1, msg.Height)
		m.t = m.fitted()
	}
	return m, nil
}

func (m viewModel) View() string {
	var b strings.Builder
	b.WriteString(viewHeaderStyle.Render(m.title))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %d nodes  %d edges  %.0f%%",
		len(m.data.Nodes), len(m.data.Edges), m.t.Scale*100)))
	b.WriteString("\n")
	b.WriteString(m.canvas().String())
	b.WriteString(StyleDim.Render("arrows pan  +/- zoom  f fit  q quit"))
	return b.String()
}

// canvas draws edges first so node boxes cover their ends.
func (m viewModel) canvas() *grid {
	g := newGrid(m.cols, max(1, m.rows-chromeRows))
	for _, e := range m.data.Edges {
		m.drawEdge(g, e)
	}
	for _, n := range m.data.Nodes {
		m.drawNode(g, n)
	}
	return g
}

func (m viewModel) cell(p diagram.Point) (int, int) {
	s := m.t.ToScreen(p)
	return int(math.Floor(s.X / cellW)), int(math.Floor(s.Y / cellH))
}

func (m viewModel) drawEdge(g *grid, e diagram.Edge) {
	for i := 1; i < len(e.Points); i++ {
		x0, y0 := m.cell(e.Points[i-1])
		x1, y1 := m.cell(e.Points[i])
		steps := max(abs(x1-x0), abs(y1-y0))
		for s := 0; s <= steps; s++ {
			t := 0.0
			if steps > 0 {
				t = float64(s) / float64(steps)
			}
			x := x0 + int(math.Round(t*float64(x1-x0)))
			y := y0 + int(math.Round(t*float64(y1-y0)))
			g.set(x, y, '·', cellEdge)
		}
	}
	if e.Label != "" && (e.LabelX != 0 || e.LabelY != 0) {
		x, y := m.cell(diagram.Point{X: e.LabelX, Y: e.LabelY})
		g.text(x-len([]rune(e.Label))/2, y, e.Label, cellLabel)
	}
}

func (m viewModel) drawNode(g *grid, n diagram.Node) {
	r := n.Bounds()
	x0, y0 := m.cell(diagram.Point{X: r.X, Y: r.Y})
	x1, y1 := m.cell(diagram.Point{X: r.Right(), Y: r.Bottom()})
	x1, y1 = max(x1, x0+1), max(y1, y0+1)

	tl, tr, bl, br := '┌', '┐', '└', '┘'
	if n.IsCircle() {
		tl, tr, bl, br = '╭', '╮', '╰', '╯'
	}
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			ch := ' '
			switch {
			case y == y0 && x == x0:
				ch = tl
			case y == y0 && x == x1:
				ch = tr
			case y == y1 && x == x0:
				ch = bl
			case y == y1 && x == x1:
				ch = br
			case y == y0 || y == y1:
				ch = '─'
			case x == x0 || x == x1:
				ch = '│'
			}
			g.set(x, y, ch, cellNode)
		}
	}

	label := n.Label
	if label == "" {
		label = n.ID
	}
	inner := x1 - x0 - 1
	if inner <= 0 {
		return
	}
	if rl := []rune(label); len(rl) > inner {
		label = string(rl[:inner])
	}
	y := (y0 + y1) / 2
	x := x0 + 1 + (inner-len([]rune(label)))/2
	g.text(x, y, label, cellNode)
}

// =============================================================================
// grid - Character canvas
// =============================================================================

type cellKind uint8

const (
	cellEmpty cellKind = iota
	cellEdge
	cellNode
	cellLabel
)

type grid struct {
	w, h  int
	runes [][]rune
	kinds [][]cellKind
}

func newGrid(w, h int) *grid {
	g := &grid{w: w, h: h, runes: make([][]rune, h), kinds: make([][]cellKind, h)}
	for y := range g.runes {
		g.runes[y] = []rune(strings.Repeat(" ", w))
		g.kinds[y] = make([]cellKind, w)
	}
	return g
}

// set writes one cell, ignoring positions outside the grid.
func (g *grid) set(x, y int, r rune, k cellKind) {
	if x < 0 || y < 0 || x >= g.w || y >= g.h {
		return
	}
	g.runes[y][x] = r
	g.kinds[y][x] = k
}

func (g *grid) text(x, y int, s string, k cellKind) {
	for i, r := range []rune(s) {
		g.set(x+i, y, r, k)
	}
}

// String renders each row as runs of equally styled cells.
func (g *grid) String() string {
	var b strings.Builder
	for y := 0; y < g.h; y++ {
		start := 0
		for x := 1; x <= g.w; x++ {
			if x < g.w && g.kinds[y][x] == g.kinds[y][start] {
				continue
			}
			b.WriteString(styleFor(g.kinds[y][start]).Render(string(g.runes[y][start:x])))
			start = x
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Plain returns the grid without styling.
func (g *grid) Plain() string {
	var b strings.Builder
	for _, row := range g.runes {
		b.WriteString(string(row))
		b.WriteString("\n")
	}
	return b.String()
}

func styleFor(k cellKind) lipgloss.Style {
	switch k {
	case cellEdge:
		return viewEdgeStyle
	case cellNode:
		return viewNodeStyle
	case cellLabel:
		return viewLabelStyle
	}
	return lipgloss.NewStyle()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
