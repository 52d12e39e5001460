// Package backend ties the per-ISA instruction selectors together into
// one Compile entry point: lower an ssa.Function to mir, run the target's
// declared pass pipeline, and hand the result to the emitter. The
// Machine/FunctionABI split follows a generic-ABI-resolution shape,
// adapted from binary encoding to textual-assembly emission.
package backend

import (
	"github.com/ccforge/backend/mir"
	"github.com/ccforge/backend/ssa"
)

// ABIArgKind says whether an argument/return was assigned a register or a
// stack slot.
type ABIArgKind byte

const (
	ABIArgKindReg ABIArgKind = iota
	ABIArgKindStack
)

func (k ABIArgKind) String() string {
	switch k {
	case ABIArgKindReg:
		return "reg"
	case ABIArgKindStack:
		return "stack"
	default:
		panic("BUG: unknown ABIArgKind")
	}
}

// ABIArg is one resolved argument or return-value location.
type ABIArg struct {
	Index  int
	Kind   ABIArgKind
	Reg    mir.RegID
	Offset int64
	Type   ssa.Type
}

// FunctionABI resolves a ssa.Signature into concrete argument/return
// locations for one ISA's calling convention. ArgRegs/RetRegs are the
// physical registers, in priority order, the target's convention assigns
// arguments/returns to before falling back to the stack; specialized to
// a single integer/pointer register class since this backend's SSA
// dialect has no floating point.
type FunctionABI struct {
	ArgRegs, RetRegs []mir.RegID

	Args, Rets       []ABIArg
	ArgStackSize     int64
	RetStackSize     int64
}

// Init resolves sig against the register pools: registers first, in
// order, then 4-byte-aligned stack slots for the overflow.
func (a *FunctionABI) Init(sig ssa.Signature) {
	a.Args = a.Args[:0]
	a.ArgStackSize = 0
	nextReg := 0
	var stackOff int64
	for i, t := range sig.Params {
		if nextReg < len(a.ArgRegs) {
			a.Args = append(a.Args, ABIArg{Index: i, Kind: ABIArgKindReg, Reg: a.ArgRegs[nextReg], Type: t})
			nextReg++
			continue
		}
		a.Args = append(a.Args, ABIArg{Index: i, Kind: ABIArgKindStack, Offset: stackOff, Type: t})
		stackOff += (t.Size() + 3) &^ 3
	}
	a.ArgStackSize = stackOff

	a.Rets = a.Rets[:0]
	a.RetStackSize = 0
	if sig.Result != ssa.TypeInvalid {
		if len(a.RetRegs) > 0 {
			a.Rets = append(a.Rets, ABIArg{Index: 0, Kind: ABIArgKindReg, Reg: a.RetRegs[0], Type: sig.Result})
		} else {
			a.Rets = append(a.Rets, ABIArg{Index: 0, Kind: ABIArgKindStack, Offset: 0, Type: sig.Result})
			a.RetStackSize = sig.Result.Size()
		}
	}
}
