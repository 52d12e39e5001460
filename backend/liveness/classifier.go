package liveness

import "github.com/ccforge/backend/mir"

// GenericClassifier implements Classifier in terms of mir.Instr's own
// Dest/Uses fields plus two small ISA-supplied hooks for control flow,
// so individual ISA packages don't each need to re-derive Defs/Uses from
// their own instruction encodings.
type GenericClassifier struct {
	// IsTerm reports whether instr ends a block, and whether control can
	// also fall through to the next instruction.
	IsTerm func(instr *mir.Instr) (isTerminator, fallsThrough bool)
	// Targets returns the label names instr branches to.
	Targets func(instr *mir.Instr) []string
}

func (c GenericClassifier) IsTerminator(instr *mir.Instr) (bool, bool) { return c.IsTerm(instr) }
func (c GenericClassifier) BranchTargets(instr *mir.Instr) []string    { return c.Targets(instr) }

func (c GenericClassifier) Defs(instr *mir.Instr) []mir.VRegID {
	if instr.HasDest && instr.Dest.IsVReg() {
		return []mir.VRegID{instr.Dest.VReg()}
	}
	return nil
}

func (c GenericClassifier) Uses(instr *mir.Instr) []mir.VRegID {
	var out []mir.VRegID
	for _, u := range instr.Uses {
		if u.IsVReg() {
			out = append(out, u.VReg())
		}
		if u.IsSlot() {
			if base := u.SlotBase(); base != 0 {
				// Frame-pointer/stack-pointer bases are physical
				// registers, never virtual; nothing to report.
				_ = base
			}
		}
	}
	return out
}
