package passes

import (
	"github.com/ccforge/backend/backend/isa/riscv32/riscv32isa"
	"github.com/ccforge/backend/mir"
)

// LoadStorePropagation turns a redundant load from an address whose value
// is already known (because it was just stored, or just loaded) into a
// plain move, and drops a load entirely when its destination already
// holds the value. original_source's lsprop.h tracks this through
// separate defs_/labels_/uses_ maps keyed by raw operand pointers; this
// port uses mir.Operand's native == comparability instead (every operand
// this pass sees is pre-allocation, so its `allocated` field is always
// nil and two equal operands really are the same value). Loads/stores
// through a byte-sized address (lb/lbu/sb) are left alone, matching the
// original's noted "TODO: handle lb/lbu/sb" scope limit. Grounded on
// original_source/src/back/asm/arch/riscv32/passes/lsprop.h.
type LoadStorePropagation struct{}

func (LoadStorePropagation) Name() string { return "lsprop" }

func (LoadStorePropagation) Run(fn *mir.Function) {
	defs := map[mir.Operand]mir.Operand{}   // memory address -> last known value operand
	labelDefs := map[mir.VRegID]string{}    // vreg -> label it was just "la"'d from

	reset := func() {
		defs = map[mir.Operand]mir.Operand{}
		labelDefs = map[mir.VRegID]string{}
	}

	var out []*mir.Instr
	for _, instr := range fn.Instrs {
		switch instr.Op {
		case riscv32isa.OpLa:
			label := instr.Uses[0].Label()
			if instr.HasDest && instr.Dest.IsVReg() {
				if have, ok := labelDefs[instr.Dest.VReg()]; ok && have == label {
					continue // redundant re-load of an address we already hold
				}
				for v, l := range labelDefs {
					if l == label {
						delete(labelDefs, v)
					}
				}
				labelDefs[instr.Dest.VReg()] = label
			}
			out = append(out, instr)

		case riscv32isa.OpLw:
			addr := instr.Uses[0]
			if val, ok := defs[addr]; ok {
				if !(instr.HasDest && val == instr.Dest) {
					out = append(out, &mir.Instr{Op: riscv32isa.OpMv, Dest: instr.Dest, HasDest: true, Uses: []mir.Operand{val}})
				}
			} else {
				out = append(out, instr)
			}
			if instr.HasDest && instr.Dest.IsVReg() {
				delete(labelDefs, instr.Dest.VReg())
			}
			defs[addr] = instr.Dest

		case riscv32isa.OpSw:
			addr := instr.Uses[1]
			defs[addr] = instr.Uses[0]
			out = append(out, instr)

		case riscv32isa.OpSb:
			delete(defs, instr.Uses[1])
			out = append(out, instr)

		default:
			if instr.IsLabel() || instr.Op == riscv32isa.OpCall {
				reset()
			}
			out = append(out, instr)
		}
	}
	replaceAll(fn, out)
}
