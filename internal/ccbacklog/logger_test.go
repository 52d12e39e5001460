package ccbacklog

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLoggerWritesOneLinePerRecord(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelInfo)

	logger.Info("compiling", "arch", "riscv32", "funcs", 3)

	out := buf.String()
	require.Equal(t, 1, strings.Count(out, "\n"))
	require.Contains(t, out, "INFO:")
	require.Contains(t, out, "compiling")
	require.Contains(t, out, "arch=riscv32")
	require.Contains(t, out, "funcs=3")
}

func TestNewLoggerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelWarn)

	logger.Info("should not appear")
	logger.Warn("should appear")

	out := buf.String()
	require.NotContains(t, out, "should not appear")
	require.Contains(t, out, "should appear")
}
