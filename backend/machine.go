package backend

import (
	"fmt"

	"github.com/ccforge/backend/backend/pipeline"
	"github.com/ccforge/backend/mir"
	"github.com/ccforge/backend/ssa"
)

// Machine is the contract each supported ISA (backend/isa/arm32,
// backend/isa/riscv32) implements. Instead of emitting relocatable
// binary and trampolines for a JIT host, Select lowers straight to a
// mir.Function and Pipeline supplies the fixed sequence of passes
// (register allocation, spill insertion, prologue/epilogue synthesis,
// peepholes) that function must run before the emitter can print it.
type Machine interface {
	// Name is the architecture name used by the archreg registry and
	// accepted on the CLI, e.g. "arm32" or "riscv32".
	Name() string

	// PointerSize is the width in bytes of a pointer on this target.
	PointerSize() int64

	// ABI builds a fresh FunctionABI for sig using this target's calling
	// convention registers.
	ABI(sig ssa.Signature) *FunctionABI

	// Select lowers one ssa.Function to an unallocated mir.Function
	// (virtual registers only, no frame layout yet).
	Select(fn *ssa.Function, abi *FunctionABI) (*mir.Function, error)

	// Pipeline returns this target's ordered MIR pass list: liveness,
	// register allocation, spill insertion, prologue/epilogue synthesis,
	// and peephole/legalization passes, in the order they must run.
	Pipeline() *pipeline.Pipeline

	// Emitter returns the textual-assembly formatter for this target.
	Emitter() Emitter
}

// Emitter renders a fully-allocated, legalized mir.Module as assembly
// text. One Emitter per ISA; see package asmfmt.
type Emitter interface {
	EmitModule(mod *mir.Module) (string, error)
}

// Compile lowers every function and global in mod through m's selector
// and pass pipeline, then renders the result with m's emitter. This is
// the single entry point the CLI and every end-to-end test call. An
// unknown target architecture is ruled out before Compile, by the caller
// resolving m via archreg.Lookup; Compile itself returns an error when
// selection meets an SSA opcode the target does not lower or when the
// emitter fails.
func Compile(mod *ssa.Module, m Machine) (string, error) {
	mmod := &mir.Module{}

	for _, g := range mod.Globals {
		mmod.Data = append(mmod.Data, &mir.DataEntry{
			Label:   mir.NewLabel(g.Name),
			Size:    g.Size, Align: g.Align, Init: g.Init,
			Kind:    mir.DataKind(g.Kind),
			Linkage: mir.Linkage(g.Linkage),
		})
	}

	pipe := m.Pipeline()
	for _, fn := range mod.Funcs {
		abi := m.ABI(fn.Sig)
		mfn, err := m.Select(fn, abi)
		if err != nil {
			return "", fmt.Errorf("lowering %s: %w", fn.Name, err)
		}
		pipe.Run(mfn)
		mmod.Funcs = append(mmod.Funcs, mfn)
	}

	return m.Emitter().EmitModule(mmod)
}
