// Command ccback is the compiler backend's CLI driver: it reads an
// ssatext-encoded SSA module, lowers it through one architecture's
// instruction selector and pass pipeline, and writes the resulting
// assembly text. Grounded on oisee-z80-optimizer's cmd/z80opt/main.go
// root-command-plus-subcommands shape, simplified to this backend's
// single "compile" subcommand.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccforge/backend/archreg"
	"github.com/ccforge/backend/backend"
	_ "github.com/ccforge/backend/backend/isa/arm32"
	_ "github.com/ccforge/backend/backend/isa/riscv32"
	"github.com/ccforge/backend/ccbackpanic"
	"github.com/ccforge/backend/internal/ccbackcfg"
	"github.com/ccforge/backend/internal/ccbacklog"
	"github.com/ccforge/backend/ssa/ssatext"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ccback:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ccback",
		Short: "SSA-to-assembly compiler backend",
	}
	root.AddCommand(newCompileCmd())
	return root
}

func newCompileCmd() *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "compile [flags] <input.ssa>",
		Short: "Compile an ssatext SSA module to target assembly",
		Args:  cobra.ExactArgs(1),
	}
	cfg := ccbackcfg.RegisterFlags(cmd.Flags())
	cmd.RunE = func(cmd *cobra.Command, args []string) (err error) {
		defer ccbackpanic.Recover(&err)
		input = args[0]
		return runCompile(input, cfg)
	}
	return cmd
}

func runCompile(input string, cfg *ccbackcfg.Config) error {
	if err := cfg.Resolve(); err != nil {
		return err
	}
	logger := ccbacklog.New(os.Stderr, cfg.LogLevel)

	factory, err := archreg.Lookup(cfg.Arch)
	if err != nil {
		return err
	}

	src, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("reading %s: %w", input, err)
	}
	logger.Info("parsing input", "path", input, "bytes", len(src))

	mod, err := ssatext.Decode(string(src))
	if err != nil {
		return fmt.Errorf("parsing %s: %w", input, err)
	}
	logger.Info("parsed module", "funcs", len(mod.Funcs), "globals", len(mod.Globals))

	m := factory()
	logger.Info("compiling", "arch", cfg.Arch, "opt-level", cfg.OptLevel)
	asm, err := backend.Compile(mod, m)
	if err != nil {
		return fmt.Errorf("compiling %s: %w", input, err)
	}

	if cfg.Output == "" {
		fmt.Print(asm)
		return nil
	}
	if err := os.WriteFile(cfg.Output, []byte(asm), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", cfg.Output, err)
	}
	logger.Info("wrote assembly", "path", cfg.Output, "bytes", len(asm))
	return nil
}
