package ccbackcfg

import (
	"log/slog"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestRegisterFlagsDefaults(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg := RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--arch", "riscv32"}))
	require.NoError(t, cfg.Resolve())

	require.Equal(t, "riscv32", cfg.Arch)
	require.Equal(t, 0, cfg.OptLevel)
	require.Equal(t, "", cfg.Output)
	require.True(t, cfg.AssemblyOnly)
	require.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestResolveRequiresArch(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg := RegisterFlags(fs)
	require.NoError(t, fs.Parse(nil))
	require.Error(t, cfg.Resolve())
}

func TestResolveRejectsBadOptLevel(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg := RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--arch", "arm32", "--opt-level", "9"}))
	require.Error(t, cfg.Resolve())
}

func TestResolveRejectsBadLogLevel(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg := RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--arch", "arm32", "--log-level", "loud"}))
	require.Error(t, cfg.Resolve())
}

func TestResolveParsesEachLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug, "info": slog.LevelInfo,
		"warn": slog.LevelWarn, "error": slog.LevelError,
	}
	for name, want := range cases {
		fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
		cfg := RegisterFlags(fs)
		require.NoError(t, fs.Parse([]string{"--arch", "arm32", "--log-level", name}))
		require.NoError(t, cfg.Resolve())
		require.Equal(t, want, cfg.LogLevel)
	}
}
