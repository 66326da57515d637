package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks writes every event to a logger at debug level, and failures at
// warn level. It implements all three hook interfaces.
type LogHooks struct {
	Logger *log.Logger
}

// NewLogHooks returns hooks that log to l, or to the default logger.
func NewLogHooks(l *log.Logger) *LogHooks {
	if l == nil {
		l = log.Default()
	}
	return &LogHooks{Logger: l.WithPrefix("hooks")}
}

func (h *LogHooks) OnSizeComplete(_ context.Context, nodeCount int, d time.Duration) {
	h.Logger.Debug("sized nodes", "nodes", nodeCount, "duration", d)
}

func (h *LogHooks) OnLayoutStart(_ context.Context, strategy string, nodeCount int) {
	h.Logger.Debug("layout start", "strategy", strategy, "nodes", nodeCount)
}

func (h *LogHooks) OnLayoutComplete(_ context.Context, strategy string, d time.Duration, err error) {
	if err != nil {
		h.Logger.Warn("layout failed", "strategy", strategy, "duration", d, "err", err)
		return
	}
	h.Logger.Debug("layout done", "strategy", strategy, "duration", d)
}

func (h *LogHooks) OnLabelsPlaced(_ context.Context, placed, collided int) {
	if collided > 0 {
		h.Logger.Warn("labels collide", "placed", placed, "collided", collided)
		return
	}
	h.Logger.Debug("labels placed", "placed", placed)
}

func (h *LogHooks) OnRenderStart(_ context.Context, format string) {
	h.Logger.Debug("render start", "format", format)
}

func (h *LogHooks) OnRenderComplete(_ context.Context, format string, d time.Duration, err error) {
	if err != nil {
		h.Logger.Warn("render failed", "format", format, "err", err)
		return
	}
	h.Logger.Debug("render done", "format", format, "duration", d)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.Logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.Logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.Logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, route string) {
	h.Logger.Debug("request", "method", method, "route", route)
}

func (h *LogHooks) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	h.Logger.Info("response", "method", method, "route", route, "status", status, "duration", d)
}

var (
	_ PipelineHooks = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
	_ HTTPHooks     = (*LogHooks)(nil)
)
