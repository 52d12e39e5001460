package passes

import (
	"github.com/ccforge/backend/backend/isa/arm32/arm32isa"
	"github.com/ccforge/backend/mir"
)

// LoadStorePropagation turns a redundant load from an address whose value
// is already known (because it was just stored, or just loaded) into a
// plain move, and drops a load entirely when its destination already
// holds the value. original_source's lsprop.h also tracks a LDR-of-a-
// label indirection (its labels_ map), needed because its LDR can address
// a literal pool entry directly; this target never reaches this pass with
// such a form (LEAElimination has already turned every label into a
// MOVW/MOVT pair by the time this runs), so that indirection has no
// counterpart here. Byte-sized loads/stores (LDRB/STRB) are left alone
// bar invalidation, matching the original's noted "TODO: handle ldrb/strb"
// scope limit. Grounded on
// original_source/src/back/asm/arch/aarch32/passes/lsprop.h.
type LoadStorePropagation struct{}

func (LoadStorePropagation) Name() string { return "lsprop" }

func (LoadStorePropagation) Run(fn *mir.Function) {
	defs := map[mir.Operand]mir.Operand{} // address operand -> last known value operand

	var out []*mir.Instr
	for _, instr := range fn.Instrs {
		switch instr.Op {
		case arm32isa.OpLdr:
			addr := instr.Uses[0]
			if val, ok := defs[addr]; ok {
				if !(instr.HasDest && val == instr.Dest) {
					out = append(out, &mir.Instr{Op: arm32isa.OpMov, Dest: instr.Dest, HasDest: true, Uses: []mir.Operand{val}})
				}
			} else {
				out = append(out, instr)
			}
			defs[addr] = instr.Dest

		case arm32isa.OpStr:
			addr, val := instr.Uses[0], instr.Uses[1]
			defs[addr] = val
			out = append(out, instr)

		case arm32isa.OpStrb:
			delete(defs, instr.Uses[0])
			out = append(out, instr)

		default:
			if instr.IsLabel() || instr.Op == arm32isa.OpBL {
				defs = map[mir.Operand]mir.Operand{}
			}
			out = append(out, instr)
		}
	}
	replaceAll(fn, out)
}
