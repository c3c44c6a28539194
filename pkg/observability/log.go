package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks writes every event to a logger at debug level. Failures are
// logged at warn level.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks that log to logger.
func NewLogHooks(logger *log.Logger) *LogHooks {
	return &LogHooks{logger: logger}
}

func (h *LogHooks) OnOperationStart(_ context.Context, op string) {
	h.logger.Debug("operation started", "op", op)
}

func (h *LogHooks) OnOperationComplete(_ context.Context, op string, d time.Duration, err error) {
	if err != nil {
		h.logger.Warn("operation failed", "op", op, "duration", d, "err", err)
		return
	}
	h.logger.Debug("operation done", "op", op, "duration", d)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnToolStart(_ context.Context, tool string, args []string) {
	h.logger.Debug("exec", "tool", tool, "args", args)
}

func (h *LogHooks) OnToolComplete(_ context.Context, tool string, d time.Duration, err error) {
	if err != nil {
		h.logger.Warn("tool failed", "tool", tool, "duration", d, "err", err)
		return
	}
	h.logger.Debug("tool done", "tool", tool, "duration", d)
}

var (
	_ OperationHooks = (*LogHooks)(nil)
	_ CacheHooks     = (*LogHooks)(nil)
	_ ToolHooks      = (*LogHooks)(nil)
)
