package asmfmt

import (
	"fmt"
	"strings"

	"github.com/ccforge/backend/backend/isa/riscv32/riscv32isa"
	"github.com/ccforge/backend/ccbackpanic"
	"github.com/ccforge/backend/mir"
)

// RISCV32 formats a mir.Module using RV32I GNU-as syntax.
type RISCV32 struct{}

func (RISCV32) EmitModule(mod *mir.Module) (string, error) {
	var b strings.Builder

	if len(mod.Data) > 0 {
		b.WriteString(".data\n")
		for _, d := range mod.Data {
			if d.Linkage == mir.LinkageExternal {
				fmt.Fprintf(&b, ".globl %s\n", d.Label.Label())
			}
			b.WriteString(d.Label.Label())
			b.WriteString(":\n")
			emitDataDirective(&b, d)
		}
	}

	b.WriteString(".text\n")
	for _, fn := range mod.Funcs {
		if fn.Linkage == mir.LinkageExternal {
			fmt.Fprintf(&b, ".globl %s\n", fn.Label.Label())
		}
		for _, instr := range fn.Instrs {
			if err := emitRV32Instr(&b, instr); err != nil {
				return "", fmt.Errorf("emitting %s: %w", fn.Label.Label(), err)
			}
		}
	}
	return b.String(), nil
}

var rv32BranchMnemonic = map[mir.Opcode]string{
	riscv32isa.OpBeq: "beq", riscv32isa.OpBne: "bne",
	riscv32isa.OpBlt: "blt", riscv32isa.OpBle: "ble",
	riscv32isa.OpBgt: "bgt", riscv32isa.OpBge: "bge",
	riscv32isa.OpBltu: "bltu", riscv32isa.OpBleu: "bleu",
	riscv32isa.OpBgtu: "bgtu", riscv32isa.OpBgeu: "bgeu",
}

func emitRV32Instr(b *strings.Builder, instr *mir.Instr) error {
	if instr.IsLabel() {
		fmt.Fprintf(b, "%s:\n", instr.Label)
		return nil
	}

	if mnem, ok := rv32BranchMnemonic[instr.Op]; ok {
		fmt.Fprintf(b, "\t%s %s, %s, %s\n", mnem, rv32Operand(instr.Uses[0]), rv32Operand(instr.Uses[1]), instr.Label)
		return nil
	}

	switch instr.Op {
	case riscv32isa.OpJ:
		fmt.Fprintf(b, "\tj %s\n", instr.Label)
	case riscv32isa.OpCall:
		fmt.Fprintf(b, "\tcall %s\n", instr.Label)
	case riscv32isa.OpRet:
		b.WriteString("\tret\n")
	case riscv32isa.OpLi:
		fmt.Fprintf(b, "\tli %s, %s\n", rv32Operand(instr.Dest), rv32Operand(instr.Uses[0]))
	case riscv32isa.OpLa:
		fmt.Fprintf(b, "\tla %s, %s\n", rv32Operand(instr.Dest), rv32Operand(instr.Uses[0]))
	case riscv32isa.OpMv:
		fmt.Fprintf(b, "\tmv %s, %s\n", rv32Operand(instr.Dest), rv32Operand(instr.Uses[0]))
	case riscv32isa.OpLw:
		fmt.Fprintf(b, "\tlw %s, %s\n", rv32Operand(instr.Dest), rv32Addr(instr.Uses[0]))
	case riscv32isa.OpLb:
		fmt.Fprintf(b, "\tlb %s, %s\n", rv32Operand(instr.Dest), rv32Addr(instr.Uses[0]))
	case riscv32isa.OpLbu:
		fmt.Fprintf(b, "\tlbu %s, %s\n", rv32Operand(instr.Dest), rv32Addr(instr.Uses[0]))
	case riscv32isa.OpSw:
		fmt.Fprintf(b, "\tsw %s, %s\n", rv32Operand(instr.Uses[0]), rv32Addr(instr.Uses[1]))
	case riscv32isa.OpSb:
		fmt.Fprintf(b, "\tsb %s, %s\n", rv32Operand(instr.Uses[0]), rv32Addr(instr.Uses[1]))
	default:
		return emitRV32ArithLogic(b, instr)
	}
	return nil
}

// rv32RegMnemonic / rv32ImmMnemonic give the register-register and
// register-immediate forms of each arithmetic/logic opcode; RV32I's
// encoding splits these into distinct mnemonics (add/addi, not a shared
// one with a flexible second operand the way AArch32's data-processing
// instructions work).
var rv32RegMnemonic = map[mir.Opcode]string{
	riscv32isa.OpAdd: "add", riscv32isa.OpSub: "sub", riscv32isa.OpMul: "mul",
	riscv32isa.OpDiv: "div", riscv32isa.OpDivu: "divu", riscv32isa.OpRem: "rem", riscv32isa.OpRemu: "remu",
	riscv32isa.OpSlt: "slt", riscv32isa.OpSltu: "sltu",
	riscv32isa.OpXor: "xor", riscv32isa.OpOr: "or", riscv32isa.OpAnd: "and",
	riscv32isa.OpSll: "sll", riscv32isa.OpSrl: "srl", riscv32isa.OpSra: "sra",
}

var rv32ImmMnemonic = map[mir.Opcode]string{
	riscv32isa.OpAdd: "addi", riscv32isa.OpSlt: "slti", riscv32isa.OpSltu: "sltiu",
	riscv32isa.OpXor: "xori", riscv32isa.OpOr: "ori", riscv32isa.OpAnd: "andi",
	riscv32isa.OpSll: "slli", riscv32isa.OpSrl: "srli", riscv32isa.OpSra: "srai",
}

func emitRV32ArithLogic(b *strings.Builder, instr *mir.Instr) error {
	if len(instr.Uses) != 2 {
		ccbackpanic.Raise("asmfmt: riscv32 arithmetic/logic instruction with %d operands", len(instr.Uses))
	}
	imm := instr.Uses[1].IsImm()
	var mnem string
	var ok bool
	if imm {
		mnem, ok = rv32ImmMnemonic[instr.Op]
	} else {
		mnem, ok = rv32RegMnemonic[instr.Op]
	}
	if !ok {
		ccbackpanic.Raise("asmfmt: riscv32 emitter hit un-legalized or unknown opcode %d", instr.Op)
	}
	fmt.Fprintf(b, "\t%s %s, %s, %s\n", mnem, rv32Operand(instr.Dest), rv32Operand(instr.Uses[0]), rv32Operand(instr.Uses[1]))
	return nil
}

func rv32Addr(o mir.Operand) string {
	if o.IsSlot() {
		return fmt.Sprintf("%d(%s)", o.SlotOffset(), riscv32isa.RegName(o.SlotBase()))
	}
	return fmt.Sprintf("0(%s)", rv32Operand(o))
}

func rv32Operand(o mir.Operand) string {
	switch o.Kind() {
	case mir.OperandReg:
		return riscv32isa.RegName(o.Reg())
	case mir.OperandImm:
		return fmt.Sprintf("%d", o.Imm())
	case mir.OperandLabel:
		return o.Label()
	case mir.OperandSlot:
		return rv32Addr(o)
	default:
		ccbackpanic.Raise("asmfmt: un-allocated operand reached the riscv32 emitter: %v", o)
		return ""
	}
}
