package mir

// FrameSlots tracks the stack-frame layout a function's prologue/epilogue
// pass computes: the negative-offset local area, the positive-offset
// outgoing-call-argument area, and which callee-saved registers the
// function's body actually clobbers. This is grounded on
// original_source's FuncDecoratePass bookkeeping (used_regs_,
// preserved_slot_size_, slot_size_, poif_slots_).
type FrameSlots struct {
	// LocalSize is the number of bytes reserved below the frame pointer
	// for spills and allocas.
	LocalSize int32

	// OutgoingArgSize is the number of bytes reserved above the stack
	// pointer for arguments to called functions that don't fit in
	// argument registers.
	OutgoingArgSize int32

	// CalleeSaved is the set of callee-saved physical registers the
	// prologue must push and the epilogue must pop, in save order.
	CalleeSaved []RegID

	// UsesLink records whether the function makes a call, forcing the
	// link/return-address register to be preserved even if it would
	// otherwise be allocatable.
	UsesLink bool

	// PositiveOffsetSlots lists slot operands (by pointer into the
	// function's instruction stream) whose offset is relative to the
	// frame pointer on the positive side and must be rebased once the
	// callee-saved area size is known.
	PositiveOffsetSlots []*Operand
}

// Function is one machine-IR function: a label, linkage, a flat
// instruction list (blocks are delimited by label instructions rather
// than modeled as a separate slice, matching original_source's
// InstPtrList shape), and the frame layout the pipeline fills in.
type Function struct {
	Label   Operand
	Linkage Linkage
	Instrs  []*Instr
	Frame   *FrameSlots

	VRegs  VRegFactory
	Labels LabelFactory
}

// Linkage mirrors ssa.Linkage; duplicated here so mir has no import-time
// dependency on the ssa package, keeping it usable standalone in tests.
type Linkage byte

const (
	LinkageInternal Linkage = iota
	LinkageExternal
	LinkageCtor
	LinkageDtor
)

// Append adds instr to the end of the function's instruction list,
// linking it to the current tail.
func (f *Function) Append(instr *Instr) {
	if n := len(f.Instrs); n > 0 {
		prev := f.Instrs[n-1]
		prev.next = instr
		instr.prev = prev
	}
	f.Instrs = append(f.Instrs, instr)
}

// InsertBefore splices instr into the list immediately before the
// instruction at position idx, used by legalization passes that need to
// materialize an operand ahead of its use.
func (f *Function) InsertBefore(idx int, instr *Instr) {
	f.Instrs = append(f.Instrs, nil)
	copy(f.Instrs[idx+1:], f.Instrs[idx:])
	f.Instrs[idx] = instr
	f.relink()
}

// InsertAfter splices instr into the list immediately after idx.
func (f *Function) InsertAfter(idx int, instr *Instr) {
	f.InsertBefore(idx+1, instr)
}

// RemoveAt deletes the instruction at position idx.
func (f *Function) RemoveAt(idx int) {
	f.Instrs = append(f.Instrs[:idx], f.Instrs[idx+1:]...)
	f.relink()
}

func (f *Function) relink() {
	var prev *Instr
	for _, instr := range f.Instrs {
		instr.prev = prev
		if prev != nil {
			prev.next = instr
		}
		prev = instr
	}
	if prev != nil {
		prev.next = nil
	}
}

// Module is the top-level machine-IR compilation unit handed to the
// emitter.
type Module struct {
	Funcs []*Function
	Data  []*DataEntry
}

// DataKind mirrors ssa.GlobalKind; duplicated here for the same
// no-import-time-dependency-on-ssa reason as Linkage above.
type DataKind byte

const (
	DataZero DataKind = iota
	DataAscii
	DataWords
	DataBytes
)

// DataEntry is a module-level data symbol awaiting emission, mirroring
// ssa.GlobalVar but in MIR terms (already-resolved label, no further
// lowering needed). Kind selects the assembler directive form (ZERO /
// ASCIZ / LONG / BYTE, spec §3); Linkage controls whether the emitter
// marks the symbol linker-visible, the same as it does for a Function.
type DataEntry struct {
	Label   Operand
	Size    int64
	Align   int64
	Init    []byte
	Kind    DataKind
	Linkage Linkage
}
