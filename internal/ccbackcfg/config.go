// Package ccbackcfg holds cmd/ccback's resolved command-line configuration:
// target architecture, optimization level, output path, and log level. It
// is deliberately flag-shaped rather than file-shaped: there is no config
// file format — whatever cmd/ccback needs to resolve before calling
// backend.Compile lives here as a flat struct populated directly from
// pflag.FlagSet values.
package ccbackcfg

import (
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"
)

// Config is the parsed form of cmd/ccback's "compile" subcommand flags.
type Config struct {
	// Arch is the target architecture name, looked up in archreg by the
	// caller (e.g. "arm32", "riscv32").
	Arch string

	// OptLevel is accepted for command-line compatibility with the
	// -O0/-O1/-O2 convention this backend's original toolchain used; each
	// architecture's pass pipeline is fixed (backend.Machine.Pipeline
	// returns the same passes regardless), so this value is validated but
	// does not currently select between alternate pipelines.
	OptLevel int

	// Output is the destination file path for emitted assembly, or "" for
	// stdout.
	Output string

	// AssemblyOnly mirrors the familiar "-S" compiler flag. This backend
	// only ever emits textual assembly — there is no assembler/linker
	// stage — so the flag is accepted for the calling convention's sake
	// and has no effect; Resolve does not inspect it.
	AssemblyOnly bool

	// LogLevel controls internal/ccbacklog's verbosity.
	LogLevel slog.Level

	// logLevelStr holds the raw --log-level flag until Resolve parses it;
	// pflag needs a *string destination at flag-registration time, before
	// argv has actually been parsed.
	logLevelStr *string
}

// RegisterFlags binds fs's flags into a Config, applying the same
// defaults cmd/ccback's "compile" subcommand advertises in its help text.
func RegisterFlags(fs *pflag.FlagSet) *Config {
	cfg := &Config{}
	var logLevelStr string

	fs.StringVar(&cfg.Arch, "arch", "", "target architecture (arm32, riscv32)")
	fs.IntVarP(&cfg.OptLevel, "opt-level", "O", 0, "optimization level (0-2)")
	fs.StringVarP(&cfg.Output, "output", "o", "", "output file path (default: stdout)")
	fs.BoolVarP(&cfg.AssemblyOnly, "assembly", "S", true, "emit textual assembly (always true; accepted for CLI compatibility)")
	fs.StringVar(&logLevelStr, "log-level", "info", "log verbosity: debug, info, warn, error")

	cfg.logLevelStr = &logLevelStr
	return cfg
}

// Resolve validates the flag values bound by RegisterFlags after argv has
// been parsed, and fills in LogLevel from its string form. It is the one
// place cmd/ccback needs to check for a malformed flag before dispatching
// to archreg.Lookup and backend.Compile.
func (c *Config) Resolve() error {
	if c.Arch == "" {
		return fmt.Errorf("--arch is required")
	}
	if c.OptLevel < 0 || c.OptLevel > 2 {
		return fmt.Errorf("--opt-level must be 0, 1, or 2, got %d", c.OptLevel)
	}
	if c.logLevelStr == nil {
		return nil
	}
	lvl, err := parseLogLevel(*c.logLevelStr)
	if err != nil {
		return err
	}
	c.LogLevel = lvl
	return nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown --log-level %q (want debug, info, warn, error)", s)
	}
}
