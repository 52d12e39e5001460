package asmfmt

import (
	"fmt"
	"strings"

	"github.com/ccforge/backend/backend/isa/arm32/arm32isa"
	"github.com/ccforge/backend/ccbackpanic"
	"github.com/ccforge/backend/mir"
)

// ARM32 formats a mir.Module using AArch32 GNU-as syntax.
type ARM32 struct{}

func (ARM32) EmitModule(mod *mir.Module) (string, error) {
	var b strings.Builder

	if len(mod.Data) > 0 {
		b.WriteString(".data\n")
		for _, d := range mod.Data {
			if d.Linkage == mir.LinkageExternal {
				fmt.Fprintf(&b, ".global %s\n", d.Label.Label())
			}
			b.WriteString(d.Label.Label())
			b.WriteString(":\n")
			emitDataDirective(&b, d)
		}
	}

	b.WriteString(".text\n")
	for _, fn := range mod.Funcs {
		if fn.Linkage == mir.LinkageExternal {
			fmt.Fprintf(&b, ".global %s\n", fn.Label.Label())
		}
		for _, instr := range fn.Instrs {
			if err := emitARM32Instr(&b, instr); err != nil {
				return "", fmt.Errorf("emitting %s: %w", fn.Label.Label(), err)
			}
		}
	}
	return b.String(), nil
}

func emitARM32Instr(b *strings.Builder, instr *mir.Instr) error {
	if instr.IsLabel() {
		fmt.Fprintf(b, "%s:\n", instr.Label)
		return nil
	}

	switch instr.Op {
	case arm32isa.OpB:
		fmt.Fprintf(b, "\tb %s\n", instr.Label)
	case arm32isa.OpBCond:
		cond := instr.Aux.(arm32isa.CondAux).Cond
		fmt.Fprintf(b, "\tb%s %s\n", cond, instr.Label)
	case arm32isa.OpBL:
		fmt.Fprintf(b, "\tbl %s\n", instr.Label)
	case arm32isa.OpBX:
		fmt.Fprintf(b, "\tbx %s\n", arm32Operand(instr.Uses[0]))
	case arm32isa.OpPush:
		fmt.Fprintf(b, "\tpush {%s}\n", arm32RegList(instr.Uses))
	case arm32isa.OpPop:
		fmt.Fprintf(b, "\tpop {%s}\n", arm32RegList(instr.Uses))
	case arm32isa.OpCmp:
		fmt.Fprintf(b, "\tcmp %s, %s\n", arm32Operand(instr.Uses[0]), arm32FlexOperand(instr))
	case arm32isa.OpMovW:
		fmt.Fprintf(b, "\tmovw %s, %s\n", arm32Operand(instr.Dest), arm32MovwtSrc(instr.Uses[0], "lower16"))
	case arm32isa.OpMovT:
		fmt.Fprintf(b, "\tmovt %s, %s\n", arm32Operand(instr.Dest), arm32MovwtSrc(instr.Uses[0], "upper16"))
	case arm32isa.OpUmull:
		hi := instr.Aux.(arm32isa.UmullAux).Hi
		fmt.Fprintf(b, "\tumull %s, %s, %s, %s\n", arm32Operand(instr.Dest), arm32Operand(hi), arm32Operand(instr.Uses[0]), arm32Operand(instr.Uses[1]))
	case arm32isa.OpLdr:
		fmt.Fprintf(b, "\tldr %s, %s\n", arm32Operand(instr.Dest), arm32Addr(instr.Uses[0]))
	case arm32isa.OpLdrb:
		fmt.Fprintf(b, "\tldrb %s, %s\n", arm32Operand(instr.Dest), arm32Addr(instr.Uses[0]))
	case arm32isa.OpStr:
		fmt.Fprintf(b, "\tstr %s, %s\n", arm32Operand(instr.Uses[1]), arm32Addr(instr.Uses[0]))
	case arm32isa.OpStrb:
		fmt.Fprintf(b, "\tstrb %s, %s\n", arm32Operand(instr.Uses[1]), arm32Addr(instr.Uses[0]))
	default:
		return emitARM32DataProcessing(b, instr)
	}
	return nil
}

var arm32DPMnemonic = map[mir.Opcode]string{
	arm32isa.OpMov: "mov", arm32isa.OpAdd: "add", arm32isa.OpSub: "sub", arm32isa.OpRsb: "rsb",
	arm32isa.OpMul: "mul", arm32isa.OpMls: "mls", arm32isa.OpSdiv: "sdiv", arm32isa.OpUdiv: "udiv",
	arm32isa.OpAnd: "and", arm32isa.OpOrr: "orr", arm32isa.OpEor: "eor",
	arm32isa.OpLsl: "lsl", arm32isa.OpLsr: "lsr", arm32isa.OpAsr: "asr",
	arm32isa.OpClz: "clz", arm32isa.OpSxtb: "sxtb", arm32isa.OpUxtb: "uxtb", arm32isa.OpSmmul: "smmul",
}

func emitARM32DataProcessing(b *strings.Builder, instr *mir.Instr) error {
	mnem, ok := arm32DPMnemonic[instr.Op]
	if !ok {
		ccbackpanic.Raise("asmfmt: arm32 emitter hit un-legalized or unknown opcode %d", instr.Op)
	}
	if cond, ok := instr.Aux.(arm32isa.CondAux); ok {
		mnem += cond.Cond.String()
	}
	switch len(instr.Uses) {
	case 1:
		fmt.Fprintf(b, "\t%s %s, %s\n", mnem, arm32Operand(instr.Dest), arm32FlexOperand(instr))
	case 2:
		fmt.Fprintf(b, "\t%s %s, %s, %s\n", mnem, arm32Operand(instr.Dest), arm32Operand(instr.Uses[0]), arm32FlexOperand(instr))
	default:
		ccbackpanic.Raise("asmfmt: arm32 data-processing instruction with %d operands", len(instr.Uses))
	}
	return nil
}

// arm32FlexOperand renders the final (second source) operand of a
// data-processing instruction, applying any shift ShiftCombining folded
// onto it.
func arm32FlexOperand(instr *mir.Instr) string {
	last := instr.Uses[len(instr.Uses)-1]
	s := arm32Operand(last)
	if fx, ok := instr.Aux.(arm32isa.FlexAux); ok && fx.Op != arm32isa.ShiftNone {
		s = fmt.Sprintf("%s, %s #%d", s, arm32ShiftMnemonic(fx.Op), fx.Amt)
	}
	return s
}

func arm32ShiftMnemonic(op arm32isa.ShiftOp) string {
	switch op {
	case arm32isa.ShiftLSL:
		return "lsl"
	case arm32isa.ShiftLSR:
		return "lsr"
	case arm32isa.ShiftASR:
		return "asr"
	default:
		return ""
	}
}

func arm32RegList(regs []mir.Operand) string {
	names := make([]string, len(regs))
	for i, r := range regs {
		names[i] = arm32Operand(r)
	}
	return strings.Join(names, ", ")
}

func arm32Addr(o mir.Operand) string {
	if o.IsSlot() {
		off := o.SlotOffset()
		if off == 0 {
			return fmt.Sprintf("[%s]", arm32isa.RegName(o.SlotBase()))
		}
		return fmt.Sprintf("[%s, #%d]", arm32isa.RegName(o.SlotBase()), off)
	}
	return fmt.Sprintf("[%s]", arm32Operand(o))
}

// arm32MovwtSrc formats the source of a MOVW/MOVT half-load: a label
// needs the linker to split its address, so it goes through the
// :lower16:/:upper16: relocation operators; an immediate has already been
// split into its own half by ImmediateNormalization/LEAElimination's
// caller, so it prints as a plain #constant.
func arm32MovwtSrc(o mir.Operand, half string) string {
	if o.Kind() == mir.OperandLabel {
		return fmt.Sprintf("#:%s:%s", half, o.Label())
	}
	return arm32Operand(o)
}

func arm32Operand(o mir.Operand) string {
	switch o.Kind() {
	case mir.OperandReg:
		return arm32isa.RegName(o.Reg())
	case mir.OperandImm:
		return fmt.Sprintf("#%d", o.Imm())
	case mir.OperandLabel:
		return o.Label()
	case mir.OperandSlot:
		return arm32Addr(o)
	default:
		ccbackpanic.Raise("asmfmt: un-allocated operand reached the arm32 emitter: %v", o)
		return ""
	}
}
