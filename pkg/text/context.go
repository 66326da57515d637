package text

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Context measures text. The font surface is created lazily, at most once.
type Context struct {
	logger     *log.Logger
	useSurface bool

	once    sync.Once
	regular *opentype.Font
	bold    *opentype.Font
	ready   bool

	mu    sync.Mutex
	faces map[Font]font.Face
}

// Option configures a Context.
type Option func(*Context)

// WithoutSurface forces the deterministic estimator.
func WithoutSurface() Option {
	return func(c *Context) { c.useSurface = false }
}

// WithLogger sets the logger used to report surface failures.
func WithLogger(l *log.Logger) Option {
	return func(c *Context) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewContext creates a measurement context backed by the Go fonts.
func NewContext(opts ...Option) *Context {
	c := &Context{
		logger:     log.Default(),
		useSurface: true,
		faces:      make(map[Font]font.Face),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var (
	defaultOnce sync.Once
	defaultCtx  *Context
)

// Default returns the process-wide measurement context.
func Default() *Context {
	defaultOnce.Do(func() { defaultCtx = NewContext() })
	return defaultCtx
}

// HasSurface reports whether font-backed measurement is available.
// The first call triggers font parsing.
func (c *Context) HasSurface() bool {
	c.init()
	return c.ready
}

func (c *Context) init() {
	c.once.Do(func() {
		if !c.useSurface {
			return
		}
		regular, err := opentype.Parse(goregular.TTF)
		if err != nil {
			c.logger.Debug("text surface unavailable, using estimator", "error", err)
			return
		}
		bold, err := opentype.Parse(gobold.TTF)
		if err != nil {
			c.logger.Debug("text surface unavailable, using estimator", "error", err)
			return
		}
		c.regular, c.bold, c.ready = regular, bold, true
	})
}

// face returns the cached face for f. Callers must hold c.mu.
func (c *Context) face(f Font) (font.Face, error) {
	key := Font{Size: f.size(), Bold: f.Bold}
	if fc, ok := c.faces[key]; ok {
		return fc, nil
	}
	src := c.regular
	if key.Bold {
		src = c.bold
	}
	fc, err := opentype.NewFace(src, &opentype.FaceOptions{
		Size:    key.Size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("new face %gpx: %w", key.Size, err)
	}
	c.faces[key] = fc
	return fc, nil
}

// MeasureWidth returns the advance width of s in pixels.
func (c *Context) MeasureWidth(s string, f Font) float64 {
	if s == "" {
		return 0
	}
	c.init()
	if !c.ready {
		return EstimateWidth(s, f.size())
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	fc, err := c.face(f)
	if err != nil {
		c.logger.Debug("measure fallback", "error", err)
		return EstimateWidth(s, f.size())
	}
	adv := font.MeasureString(fc, s)
	return float64(adv) / 64
}

// Wrapped is the result of wrapping a label.
type Wrapped struct {
	Lines      []string `json:"lines"`
	Width      float64  `json:"width"`
	Height     float64  `json:"height"`
	LineHeight float64  `json:"lineHeight"`
}

// Wrap greedily breaks label into lines no wider than maxWidth.
//
// Words are separated by whitespace. A word that does not fit on its own is
// split between runes; a single rune wider than maxWidth stays on its own
// line. An empty label yields one empty line. A non-positive maxWidth
// disables wrapping.
func (c *Context) Wrap(label string, maxWidth float64, f Font, lineHeight float64) Wrapped {
	if maxWidth <= 0 {
		maxWidth = math.Inf(1)
	}

	words := strings.Fields(label)
	if len(words) == 0 {
		return Wrapped{Lines: []string{""}, Height: lineHeight, LineHeight: lineHeight}
	}

	fits := func(s string) bool { return c.MeasureWidth(s, f) <= maxWidth }

	var lines []string
	cur := ""
	for _, w := range words {
		next := w
		if cur != "" {
			next = cur + " " + w
		}
		if fits(next) {
			cur = next
			continue
		}
		if cur != "" {
			lines = append(lines, cur)
			cur = ""
		}
		if fits(w) {
			cur = w
			continue
		}

		var chunk strings.Builder
		for _, r := range w {
			test := chunk.String() + string(r)
			if chunk.Len() == 0 || fits(test) {
				chunk.WriteRune(r)
				continue
			}
			lines = append(lines, chunk.String())
			chunk.Reset()
			chunk.WriteRune(r)
		}
		cur = chunk.String()
	}
	if cur != "" {
		lines = append(lines, cur)
	}

	widest := 0.0
	for _, ln := range lines {
		widest = math.Max(widest, c.MeasureWidth(ln, f))
	}

	return Wrapped{
		Lines:      lines,
		Width:      math.Min(maxWidth, widest),
		Height:     float64(len(lines)) * lineHeight,
		LineHeight: lineHeight,
	}
}
