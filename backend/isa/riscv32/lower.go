// Package riscv32 implements the RV32I backend target: SSA lowering, the
// liveness/regalloc/spill/prologue pass pipeline, and a GNU-as text
// emitter, built on top of the peephole/legalization passes in
// backend/isa/riscv32/passes. Grounded throughout on
// original_source/src/back/asm/arch/riscv32.
package riscv32

import (
	"fmt"

	"github.com/ccforge/backend/asmfmt"
	"github.com/ccforge/backend/backend"
	"github.com/ccforge/backend/backend/isa/riscv32/passes"
	"github.com/ccforge/backend/backend/isa/riscv32/riscv32isa"
	"github.com/ccforge/backend/backend/pipeline"
	"github.com/ccforge/backend/mir"
	"github.com/ccforge/backend/ssa"
)

// Machine implements backend.Machine for RV32I.
type Machine struct{}

func (Machine) Name() string       { return "riscv32" }
func (Machine) PointerSize() int64 { return 4 }

func (Machine) ABI(sig ssa.Signature) *backend.FunctionABI {
	abi := &backend.FunctionABI{ArgRegs: riscv32isa.ArgRegs, RetRegs: riscv32isa.RetRegs}
	abi.Init(sig)
	return abi
}

func (Machine) Pipeline() *pipeline.Pipeline {
	return &pipeline.Pipeline{Passes: []pipeline.Pass{
		passes.MoveElimination{},
		passes.MovePropagation{},
		passes.BranchCombining{},
		passes.SetCondElimination{},
		passes.BranchElimination{},
		passes.LEACombining{},
		passes.LEAElimination{},
		passes.ImmediateNormalization{},
		passes.LoadStorePropagation{},
		allocatorPass{},
		passes.MoveOverriding{},
		spillPass{},
		prologueEpiloguePass{},
	}}
}

func (Machine) Emitter() backend.Emitter { return asmfmt.RISCV32{} }

func blockLabelName(fnName string, id ssa.BlockID) string {
	return fmt.Sprintf("%s_L%d", fnName, id)
}

type selector struct {
	fn   *mir.Function
	abi  *backend.FunctionABI
	vals map[ssa.Value]mir.Operand
}

// Select lowers fn into an unallocated mir.Function, one selector method
// per ssa.Opcode, with an operand cache on ssa.Value (s.vals) so a value
// referenced by multiple later instructions is lowered exactly once.
func (Machine) Select(fn *ssa.Function, abi *backend.FunctionABI) (*mir.Function, error) {
	mfn := &mir.Function{}
	mfn.Linkage = mir.Linkage(fn.Linkage)
	mfn.Label = mfn.Labels.Named(fn.Name)

	s := &selector{fn: mfn, abi: abi, vals: map[ssa.Value]mir.Operand{}}

	blockParams := map[ssa.BlockID][]mir.Operand{}
	for _, b := range fn.Blocks {
		var vregs []mir.Operand
		for i, t := range b.Params() {
			v := mfn.VRegs.NewVReg(int8(t.Size()))
			vregs = append(vregs, v)
			s.vals[b.ParamValue(i)] = v
		}
		blockParams[b.ID()] = vregs
	}

	for bi, b := range fn.Blocks {
		label := mfn.Label.Label()
		if bi != 0 {
			label = blockLabelName(fn.Name, b.ID())
		}
		mfn.Append(&mir.Instr{Op: riscv32isa.OpLabel, Label: label})
		if bi == 0 {
			// The first block's parameters are the function's arguments:
			// copy each in from where the ABI passes it, as OpArgRef does.
			for i, v := range blockParams[b.ID()] {
				a := abi.Args[i]
				if a.Kind == backend.ABIArgKindReg {
					mfn.Append(&mir.Instr{Op: riscv32isa.OpMv, Dest: v, HasDest: true, Uses: []mir.Operand{mir.NewReg(a.Reg)}})
				} else {
					slot := mir.NewSlot(riscv32isa.FP, int32(a.Offset))
					mfn.Append(&mir.Instr{Op: riscv32isa.OpLw, Dest: v, HasDest: true, Uses: []mir.Operand{slot}})
				}
			}
		}

		for _, instr := range b.Instrs() {
			if err := s.lowerInstr(instr, fn, blockParams); err != nil {
				return nil, err
			}
		}
	}
	return mfn, nil
}

func (s *selector) operand(v ssa.Value) mir.Operand {
	if o, ok := s.vals[v]; ok {
		return o
	}
	panic(fmt.Sprintf("BUG: ssa value %d used before its defining instruction was lowered", v))
}

func (s *selector) def(v ssa.Value, typ ssa.Type) mir.Operand {
	o := s.fn.VRegs.NewVReg(int8(typ.Size()))
	if v.Valid() {
		s.vals[v] = o
	}
	return o
}

func (s *selector) lowerInstr(instr *ssa.Instruction, fn *ssa.Function, blockParams map[ssa.BlockID][]mir.Operand) error {
	switch instr.Opcode() {
	case ssa.OpConstI32:
		dst := s.def(instr.Return(), instr.Type())
		s.fn.Append(&mir.Instr{Op: riscv32isa.OpLi, Dest: dst, HasDest: true, Uses: []mir.Operand{mir.NewImm(instr.ConstI32())}})

	case ssa.OpConstBool:
		dst := s.def(instr.Return(), instr.Type())
		c := int32(0)
		if instr.ConstBool() {
			c = 1
		}
		s.fn.Append(&mir.Instr{Op: riscv32isa.OpLi, Dest: dst, HasDest: true, Uses: []mir.Operand{mir.NewImm(c)}})

	case ssa.OpUndef:
		s.def(instr.Return(), instr.Type())

	case ssa.OpArgRef:
		dst := s.def(instr.Return(), instr.Type())
		i := int(instr.ConstI32())
		a := s.abi.Args[i]
		if a.Kind == backend.ABIArgKindReg {
			s.fn.Append(&mir.Instr{Op: riscv32isa.OpMv, Dest: dst, HasDest: true, Uses: []mir.Operand{mir.NewReg(a.Reg)}})
		} else {
			// fp is pinned to the entry-time sp by prologueEpiloguePass, so
			// a stack-passed argument's offset needs no +N rebase the way
			// AArch32's does: nothing but the caller's own frame sits above fp.
			slot := mir.NewSlot(riscv32isa.FP, int32(a.Offset))
			s.fn.Append(&mir.Instr{Op: riscv32isa.OpLw, Dest: dst, HasDest: true, Uses: []mir.Operand{slot}})
		}

	case ssa.OpGlobalVar:
		dst := s.def(instr.Return(), instr.Type())
		s.fn.Append(&mir.Instr{Op: riscv32isa.OpLEA, Dest: dst, HasDest: true, Uses: []mir.Operand{s.fn.Labels.Named(instr.Symbol())}})

	case ssa.OpAlloca:
		dst := s.def(instr.Return(), instr.Type())
		if s.fn.Frame == nil {
			s.fn.Frame = &mir.FrameSlots{}
		}
		s.fn.Frame.LocalSize += instr.ConstI32()
		slot := mir.NewSlot(riscv32isa.FP, -s.fn.Frame.LocalSize)
		s.fn.Append(&mir.Instr{Op: riscv32isa.OpLEA, Dest: dst, HasDest: true, Uses: []mir.Operand{slot}})

	case ssa.OpAccess:
		base := s.operand(instr.Arg())
		dst := s.def(instr.Return(), instr.Type())
		s.fn.Append(&mir.Instr{Op: riscv32isa.OpLEA, Dest: dst, HasDest: true, Uses: []mir.Operand{base, mir.NewImm(instr.ConstI32())}})

	case ssa.OpLoad:
		addr := s.operand(instr.Arg())
		dst := s.def(instr.Return(), instr.Type())
		op := riscv32isa.OpLw
		if instr.Type().Size() == 1 {
			op = riscv32isa.OpLbu
		}
		s.fn.Append(&mir.Instr{Op: op, Dest: dst, HasDest: true, Uses: []mir.Operand{addr}})

	case ssa.OpStore:
		addr := s.operand(instr.Arg())
		val := s.operand(instr.Arg2())
		op := riscv32isa.OpSw
		if val.Size() == 1 {
			op = riscv32isa.OpSb
		}
		s.fn.Append(&mir.Instr{Op: op, Uses: []mir.Operand{val, addr}})

	case ssa.OpCast:
		src := s.operand(instr.Arg())
		dst := s.def(instr.Return(), instr.Type())
		s.fn.Append(&mir.Instr{Op: riscv32isa.OpMv, Dest: dst, HasDest: true, Uses: []mir.Operand{src}})

	case ssa.OpUnary:
		src := s.operand(instr.Arg())
		dst := s.def(instr.Return(), instr.Type())
		switch instr.UnaryOp() {
		case ssa.UnaryNeg:
			s.fn.Append(&mir.Instr{Op: riscv32isa.OpSub, Dest: dst, HasDest: true, Uses: []mir.Operand{mir.NewReg(riscv32isa.Zero), src}})
		case ssa.UnaryNot:
			s.fn.Append(&mir.Instr{Op: riscv32isa.OpXor, Dest: dst, HasDest: true, Uses: []mir.Operand{src, mir.NewImm(-1)}})
		}

	case ssa.OpBinary:
		s.lowerBinary(instr)

	case ssa.OpSelect:
		s.lowerSelect(instr)

	case ssa.OpCall:
		s.lowerCall(instr)

	case ssa.OpJump:
		s.lowerBlockArgs(instr.JumpTarget(), instr.BlockArgsTrue(), blockParams)
		target := blockLabelName(fn.Name, instr.JumpTarget())
		if instr.JumpTarget() == fn.EntryBlock().ID() {
			target = s.fn.Label.Label()
		}
		s.fn.Append(&mir.Instr{Op: riscv32isa.OpBrPseudo, Label: target})

	case ssa.OpBranch:
		t, f := instr.BranchTargets()
		s.lowerBranch(instr, fn, t, f, blockParams)

	case ssa.OpReturn:
		if instr.Arg().Valid() {
			v := s.operand(instr.Arg())
			s.fn.Append(&mir.Instr{Op: riscv32isa.OpMv, Dest: mir.NewReg(riscv32isa.A0), HasDest: true, Uses: []mir.Operand{v}})
		}
		s.fn.Append(&mir.Instr{Op: riscv32isa.OpRet})

	case ssa.OpFunction, ssa.OpBlockParam:
		// Pseudo-markers with no machine-code shape of their own.

	default:
		return fmt.Errorf("riscv32: unsupported ssa opcode %d", instr.Opcode())
	}
	return nil
}

var binOpcode = map[ssa.BinaryOp]mir.Opcode{
	ssa.BinAdd: riscv32isa.OpAdd, ssa.BinSub: riscv32isa.OpSub, ssa.BinMul: riscv32isa.OpMul,
	ssa.BinSDiv: riscv32isa.OpDiv, ssa.BinUDiv: riscv32isa.OpDivu,
	ssa.BinSRem: riscv32isa.OpRem, ssa.BinURem: riscv32isa.OpRemu,
	ssa.BinAnd: riscv32isa.OpAnd, ssa.BinOr: riscv32isa.OpOr, ssa.BinXor: riscv32isa.OpXor,
	ssa.BinShl: riscv32isa.OpSll, ssa.BinLShr: riscv32isa.OpSrl, ssa.BinAShr: riscv32isa.OpSra,
}

var icmpCond = map[ssa.BinaryOp]riscv32isa.Cond{
	ssa.BinIcmpEq: riscv32isa.CondEQ, ssa.BinIcmpNe: riscv32isa.CondNE,
	ssa.BinIcmpSlt: riscv32isa.CondSLT, ssa.BinIcmpSle: riscv32isa.CondSLE,
	ssa.BinIcmpUlt: riscv32isa.CondULT, ssa.BinIcmpUle: riscv32isa.CondULE,
}

// lowerBinary needs no rem-via-div-mul-sub sequence the way AArch32 does:
// RV32I defines rem/remu directly, so BinSRem/BinURem are plain entries in
// binOpcode instead of a separate helper.
func (s *selector) lowerBinary(instr *ssa.Instruction) {
	lhs, rhs := s.operand(instr.Arg()), s.operand(instr.Arg2())
	dst := s.def(instr.Return(), instr.Type())

	if op, ok := binOpcode[instr.BinaryOp()]; ok {
		s.fn.Append(&mir.Instr{Op: op, Dest: dst, HasDest: true, Uses: []mir.Operand{lhs, rhs}})
		return
	}
	if cond, ok := icmpCond[instr.BinaryOp()]; ok {
		s.fn.Append(&mir.Instr{Op: riscv32isa.OpSetCond, Dest: dst, HasDest: true, Uses: []mir.Operand{lhs, rhs}, Aux: riscv32isa.SetCondAux{Cond: cond}})
		return
	}
	panic(fmt.Sprintf("BUG: unhandled binary op %d", instr.BinaryOp()))
}

// lowerSelect has no predicated-move form to fall back on the way
// AArch32's CMP+MOVNE does, so a ternary lowers to a real three-way
// branch around two plain moves.
func (s *selector) lowerSelect(instr *ssa.Instruction) {
	cond := s.operand(instr.Arg())
	t := s.operand(instr.Arg2())
	f := s.operand(instr.Arg3())
	dst := s.def(instr.Return(), instr.Type())

	trueLbl := s.fn.Labels.Anonymous().Label()
	endLbl := s.fn.Labels.Anonymous().Label()

	s.fn.Append(&mir.Instr{Op: riscv32isa.OpBne, Uses: []mir.Operand{cond, mir.NewReg(riscv32isa.Zero)}, Label: trueLbl})
	s.fn.Append(&mir.Instr{Op: riscv32isa.OpMv, Dest: dst, HasDest: true, Uses: []mir.Operand{f}})
	s.fn.Append(&mir.Instr{Op: riscv32isa.OpJ, Label: endLbl})
	s.fn.Append(&mir.Instr{Op: riscv32isa.OpLabel, Label: trueLbl})
	s.fn.Append(&mir.Instr{Op: riscv32isa.OpMv, Dest: dst, HasDest: true, Uses: []mir.Operand{t}})
	s.fn.Append(&mir.Instr{Op: riscv32isa.OpLabel, Label: endLbl})
}

func (s *selector) lowerCall(instr *ssa.Instruction) {
	args := instr.Args()
	for i, a := range args {
		v := s.operand(a)
		if i < len(riscv32isa.ArgRegs) {
			s.fn.Append(&mir.Instr{Op: riscv32isa.OpMv, Dest: mir.NewReg(riscv32isa.ArgRegs[i]), HasDest: true, Uses: []mir.Operand{v}})
		} else {
			off := int32((i - len(riscv32isa.ArgRegs)) * 4)
			s.fn.Append(&mir.Instr{Op: riscv32isa.OpSw, Uses: []mir.Operand{v, mir.NewSlot(riscv32isa.SP, off)}})
		}
	}
	s.fn.Append(&mir.Instr{Op: riscv32isa.OpCall, Label: instr.Symbol()})
	if instr.Return().Valid() {
		dst := s.def(instr.Return(), instr.Type())
		s.fn.Append(&mir.Instr{Op: riscv32isa.OpMv, Dest: dst, HasDest: true, Uses: []mir.Operand{mir.NewReg(riscv32isa.A0)}})
	}
}

// lowerBlockArgs copies each argument value into the target block's
// parameter vreg, one move per argument in order. Parallel-copy hazards (a
// param depending on another param's old value) are not resolved.
func (s *selector) lowerBlockArgs(target ssa.BlockID, args []ssa.Value, blockParams map[ssa.BlockID][]mir.Operand) {
	params := blockParams[target]
	for i, a := range args {
		if i >= len(params) {
			break
		}
		v := s.operand(a)
		s.fn.Append(&mir.Instr{Op: riscv32isa.OpMv, Dest: params[i], HasDest: true, Uses: []mir.Operand{v}})
	}
}

func (s *selector) lowerBranch(instr *ssa.Instruction, fn *ssa.Function, t, f ssa.BlockID, blockParams map[ssa.BlockID][]mir.Operand) {
	condVal := instr.Arg()
	tLbl, fLbl := blockLabelName(fn.Name, t), blockLabelName(fn.Name, f)
	if t == fn.EntryBlock().ID() {
		tLbl = s.fn.Label.Label()
	}
	if f == fn.EntryBlock().ID() {
		fLbl = s.fn.Label.Label()
	}

	// Block-argument copies must happen before the branch but are only
	// valid along the edge actually taken; since this selector emits a
	// single pseudo branch, both edges' copies are hoisted above it,
	// which is only safe because no SSA program this backend accepts
	// shares a destination block between two edges of the same branch
	// with different argument lists.
	s.lowerBlockArgs(t, instr.BlockArgsTrue(), blockParams)
	s.lowerBlockArgs(f, instr.BlockArgsFalse(), blockParams)

	cond := s.operand(condVal)
	s.fn.Append(&mir.Instr{
		Op: riscv32isa.OpBrCondPseudo, Uses: []mir.Operand{cond},
		Aux: riscv32isa.CondPseudoAux{Cond: riscv32isa.CondNE, TrueLbl: tLbl, FalseLbl: fLbl},
	})
}
