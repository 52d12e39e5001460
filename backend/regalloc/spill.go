package regalloc

import "github.com/ccforge/backend/mir"

// SpillPolicy supplies the ISA-specific knowledge InsertSpills needs to
// rewrite slot-allocated operands into explicit loads/stores through a
// scratch register: which scratch register is safe to clobber given the
// registers an instruction already names, how to emit a load/store for
// that ISA's addressing modes, and how to recognize a plain register
// move (which InsertSpills turns directly into a load or store rather
// than a load-into-scratch-then-move). This mirrors original_source's
// aarch32::SlotSpillingPass, generalized so riscv32 can supply its own
// scratch choice and addressing limits.
type SpillPolicy interface {
	// UsedMask returns the bitmask of physical registers instr already
	// reads or writes, named directly or through an allocated virtual
	// register, so the scratch choice can avoid clobbering them.
	UsedMask(instr *mir.Instr) uint32

	// ScratchFor picks a scratch register not in used, preferring the
	// ISA's designated spill-scratch register and falling back to a
	// secondary choice if that's unavailable.
	ScratchFor(used uint32) mir.RegID

	// EmitLoad returns the instruction(s) that load slot into dst.
	// Implementations materialize the address into a second scratch
	// register first if slot's offset exceeds the ISA's immediate range.
	EmitLoad(dst mir.Operand, slot mir.Operand, extraScratch mir.RegID) []*mir.Instr

	// EmitStore returns the instruction(s) that store src into slot.
	EmitStore(slot mir.Operand, src mir.Operand, extraScratch mir.RegID) []*mir.Instr

	// IsMove reports whether instr is a plain register-to-register move,
	// and if so its destination and source operands.
	IsMove(instr *mir.Instr) (dst, src mir.Operand, ok bool)
}

// InsertSpills rewrites fn in place so that every operand the allocator
// homed to a frame slot is accessed through an explicit load or store,
// following original_source's SlotSpillingPass:
//   - a move whose source is slot-allocated becomes a direct load into
//     the move's destination, and the move itself is dropped;
//   - any other instruction's slot-allocated source is loaded into a
//     scratch register ahead of the instruction;
//   - a slot-allocated destination is written via a scratch register and
//     stored back immediately after.
//
// Every virtual-register operand must already carry its home via
// Operand.Allocate (the allocator passes set this directly on each
// occurrence in the function's instruction list) — InsertSpills itself
// takes no separate Result, so it can run after other passes have
// rewritten the instruction list between allocation and spilling.
func InsertSpills(fn *mir.Function, policy SpillPolicy) {
	var out []*mir.Instr
	for _, instr := range fn.Instrs {
		if dst, src, ok := policy.IsMove(instr); ok {
			srcHome, srcIsSlot := resolveWithSlot(src)
			dstHome, dstIsSlot := resolveOrPassthrough(dst)
			switch {
			case srcIsSlot && !dstIsSlot:
				used := policy.UsedMask(instr)
				scratch := policy.ScratchFor(used)
				out = append(out, policy.EmitLoad(dstHome, srcHome, scratch)...)
				continue
			case !srcIsSlot && dstIsSlot:
				used := policy.UsedMask(instr)
				scratch := policy.ScratchFor(used)
				out = append(out, policy.EmitStore(dstHome, resolveDirect(src), scratch)...)
				continue
			case srcIsSlot && dstIsSlot:
				used := policy.UsedMask(instr)
				scratch := policy.ScratchFor(used)
				load := policy.EmitLoad(mir.NewReg(scratch), srcHome, scratch)
				store := policy.EmitStore(dstHome, mir.NewReg(scratch), scratch)
				out = append(out, load...)
				out = append(out, store...)
				continue
			}
			// Neither side is a slot: fall through to generic handling
			// below so a plain register move still gets copied over.
		}

		rewritten, pre, post := rewriteOperands(instr, policy)
		out = append(out, pre...)
		out = append(out, rewritten)
		out = append(out, post...)
	}
	// Relink the doubly-linked view; Append-based construction keeps it
	// simple and correct at the cost of one extra pass.
	fn.Instrs = nil
	for _, i := range out {
		fn.Append(i)
	}
}

func resolveOrPassthrough(o mir.Operand) (mir.Operand, bool) {
	if !o.IsVReg() {
		return o, false
	}
	home, ok := o.Allocated()
	if !ok || !home.IsSlot() {
		if ok {
			return home, false
		}
		return o, false
	}
	return home, true
}

func resolveDirect(o mir.Operand) mir.Operand {
	if !o.IsVReg() {
		return o
	}
	if home, ok := o.Allocated(); ok {
		return home
	}
	return o
}

// rewriteOperands substitutes every virtual-register operand of instr
// with its allocated home, inserting a load before for each slot-homed
// source (onto a scratch register) and a store after for a slot-homed
// destination.
func rewriteOperands(instr *mir.Instr, policy SpillPolicy) (*mir.Instr, []*mir.Instr, []*mir.Instr) {
	var pre, post []*mir.Instr
	used := policy.UsedMask(instr)

	newUses := make([]mir.Operand, len(instr.Uses))
	for i, u := range instr.Uses {
		home, isSlot := resolveWithSlot(u)
		if !isSlot {
			newUses[i] = home
			continue
		}
		scratch := policy.ScratchFor(used)
		used |= 1 << uint(scratch)
		pre = append(pre, policy.EmitLoad(mir.NewReg(scratch), home, scratch)...)
		newUses[i] = mir.NewReg(scratch)
	}

	newDest := instr.Dest
	hasDest := instr.HasDest
	if hasDest {
		if home, isSlot := resolveWithSlot(instr.Dest); isSlot {
			scratch := policy.ScratchFor(used)
			newDest = mir.NewReg(scratch)
			post = append(post, policy.EmitStore(home, newDest, scratch)...)
		} else {
			newDest = home
		}
	}

	instr.Uses = newUses
	instr.Dest = newDest
	instr.HasDest = hasDest
	return instr, pre, post
}

func resolveWithSlot(o mir.Operand) (mir.Operand, bool) {
	if !o.IsVReg() {
		return o, false
	}
	home, ok := o.Allocated()
	if !ok {
		return o, false
	}
	return home, home.IsSlot()
}
