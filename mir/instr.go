package mir

// Opcode is a target-specific instruction kind. Each ISA package defines
// its own constants over this type in its own numbering space; mir itself
// assigns no meaning to any value except OpcodeLabel below, which generic
// code (CFG construction, the emitters' label lines) needs to recognize
// across architectures.
type Opcode uint16

// OpcodeLabel is the opcode of a label-marker instruction. Both ISA
// packages number their OpLabel as the first value of their opcode
// enumeration, which is this value.
const OpcodeLabel Opcode = 1

// Instr is one target instruction: an opcode, an optional destination
// operand, and an ordered use list. ISA packages attach opcode-specific
// interpretation (condition codes, shift operands, addressing mode) via
// Aux, keeping a common header with an ISA-specific tail rather than a
// separate struct per instruction kind.
type Instr struct {
	Op   Opcode
	Dest Operand
	HasDest bool
	Uses []Operand

	// Aux carries ISA-specific side data: shift op/amount for AArch32,
	// condition codes for SETcc and the pseudo conditional branch, etc.
	// Concrete type is owned by the emitting ISA package.
	Aux any

	// Label names the label a label-marker instruction (Op == OpcodeLabel)
	// defines, or the target symbol of a branch or call.
	Label string

	prev, next *Instr
}

// Next and Prev walk the containing function's flat instruction list.
func (i *Instr) Next() *Instr { return i.next }
func (i *Instr) Prev() *Instr { return i.prev }

// SetUse overwrites the operand at index idx, used by rewrite passes
// (spill insertion, move propagation) once they've decided a replacement.
func (i *Instr) SetUse(idx int, o Operand) { i.Uses[idx] = o }

// IsLabel reports whether this instruction is a pure label marker.
func (i *Instr) IsLabel() bool { return i.Op == OpcodeLabel && i.Label != "" }
