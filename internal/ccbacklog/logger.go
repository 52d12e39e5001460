// Package ccbacklog wraps log/slog the way rcornwell-S370's util/logger
// wraps it: a small slog.Handler that timestamps and flattens attributes
// into one line, used only by cmd/ccback's setup code (flag parsing,
// archreg lookup, file I/O) and never from inside the pass pipeline
// itself, which stays a plain value-in value-out transformation with no
// logging side effects.
package ccbacklog

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// handler is a minimal single-line slog.Handler: timestamp, level,
// message, then any attributes rendered as "key=value".
type handler struct {
	out io.Writer
	mu  *sync.Mutex
	lvl slog.Leveler
}

func (h *handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.lvl.Level()
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler { return h }
func (h *handler) WithGroup(name string) slog.Handler       { return h }

func (h *handler) Handle(_ context.Context, r slog.Record) error {
	parts := []string{r.Time.Format("15:04:05"), r.Level.String() + ":", r.Message}
	r.Attrs(func(a slog.Attr) bool {
		parts = append(parts, a.Key+"="+a.Value.String())
		return true
	})
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, strings.Join(parts, " ")+"\n")
	return err
}

// New builds a slog.Logger at the given level, writing to out. Level
// comes from internal/ccbackcfg's --log-level flag.
func New(out io.Writer, level slog.Level) *slog.Logger {
	return slog.New(&handler{out: out, mu: &sync.Mutex{}, lvl: level})
}
