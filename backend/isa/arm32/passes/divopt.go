package passes

import (
	"math/bits"

	"github.com/ccforge/backend/backend/isa/arm32/arm32isa"
	"github.com/ccforge/backend/mir"
)

// DivisionOptimization replaces an SDIV/UDIV by a compile-time constant
// with the multiply-high-by-magic-number, shift, and sign-fixup sequence
// derived from Granlund and Montgomery, avoiding Cortex-A's slow integer
// divider for every constant divisor, not only powers of two. Ported from
// original_source/src/back/asm/arch/aarch32/passes/divopt.h
// (ChooseMultiplier/GenerateSignedDiv/GenerateUnsignedDiv).
type DivisionOptimization struct{}

func (DivisionOptimization) Name() string { return "divopt" }

func (DivisionOptimization) Run(fn *mir.Function) {
	var out []*mir.Instr
	g := &divGen{fn: fn}
	for _, instr := range fn.Instrs {
		if instr.Op != arm32isa.OpSdiv && instr.Op != arm32isa.OpUdiv {
			out = append(out, instr)
			continue
		}
		if len(instr.Uses) != 2 || !instr.Uses[1].IsImm() || instr.Uses[1].Imm() == 0 {
			out = append(out, instr)
			continue
		}
		g.out = &out
		n := instr.Uses[0]
		if instr.Op == arm32isa.OpUdiv {
			g.generateUnsignedDiv(instr.Dest, n, uint32(instr.Uses[1].Imm()))
		} else {
			g.generateSignedDiv(instr.Dest, n, instr.Uses[1].Imm())
		}
	}
	replaceAll(fn, out)
}

// multiplier is the magic constant, post-shift, and divisor bit length
// ChooseMultiplier derives for one divisor/precision pair.
type multiplier struct {
	mHigh  uint64
	shPost int
	l      int
}

// ceilLog2 returns ceil(log2(d)) for d > 0, and 0 for d in {0, 1}.
func ceilLog2(d uint32) int {
	if d <= 1 {
		return 0
	}
	n := 0
	for v := d - 1; v > 0; v >>= 1 {
		n++
	}
	return n
}

// chooseMultiplier picks the smallest magic multiplier and post-shift that
// reproduce division by d exactly for prec-bit operands, the fixed-point
// algorithm from Hacker's Delight / Granlund-Montgomery.
func chooseMultiplier(d uint32, prec int) multiplier {
	l := ceilLog2(d)
	shPost := l
	mLow := (uint64(1) << uint(32+l)) / uint64(d)
	mHigh := ((uint64(1) << uint(32+l)) + (uint64(1) << uint(32+l-prec))) / uint64(d)
	for mLow/2 < mHigh/2 && shPost > 0 {
		mLow /= 2
		mHigh /= 2
		shPost--
	}
	return multiplier{mHigh: mHigh, shPost: shPost, l: l}
}

// divGen emits the instruction sequences ChooseMultiplier's result expands
// to, minting a fresh virtual register for every intermediate value.
type divGen struct {
	fn  *mir.Function
	out *[]*mir.Instr
}

func (g *divGen) emit(instr *mir.Instr) { *g.out = append(*g.out, instr) }

func (g *divGen) vreg() mir.Operand { return g.fn.VRegs.NewVReg(4) }

// mulUH computes the high 32 bits of x * imm, unsigned, via UMULL (which,
// like every ARM multiply, takes no immediate operand: imm is first
// materialized into a register with MOV).
func (g *divGen) mulUH(x mir.Operand, imm uint32) mir.Operand {
	y := g.vreg()
	g.emit(&mir.Instr{Op: arm32isa.OpMov, Dest: y, HasDest: true, Uses: []mir.Operand{mir.NewImm(int32(imm))}})
	lo, hi := g.vreg(), g.vreg()
	g.emit(&mir.Instr{Op: arm32isa.OpUmull, Dest: lo, HasDest: true,
		Uses: []mir.Operand{x, y}, Aux: arm32isa.UmullAux{Hi: hi}})
	return hi
}

// mulSH computes the high 32 bits of x * imm, signed, via SMMUL.
func (g *divGen) mulSH(x mir.Operand, imm int32) mir.Operand {
	y := g.vreg()
	g.emit(&mir.Instr{Op: arm32isa.OpMov, Dest: y, HasDest: true, Uses: []mir.Operand{mir.NewImm(imm)}})
	dest := g.vreg()
	g.emit(&mir.Instr{Op: arm32isa.OpSmmul, Dest: dest, HasDest: true, Uses: []mir.Operand{x, y}})
	return dest
}

func (g *divGen) lsr(x mir.Operand, amt int) mir.Operand {
	if amt == 0 {
		return x
	}
	dest := g.vreg()
	g.emit(&mir.Instr{Op: arm32isa.OpLsr, Dest: dest, HasDest: true, Uses: []mir.Operand{x, mir.NewImm(int32(amt))}})
	return dest
}

func (g *divGen) asr(x mir.Operand, amt int) mir.Operand {
	if amt == 0 {
		return x
	}
	dest := g.vreg()
	g.emit(&mir.Instr{Op: arm32isa.OpAsr, Dest: dest, HasDest: true, Uses: []mir.Operand{x, mir.NewImm(int32(amt))}})
	return dest
}

func (g *divGen) xsign(x mir.Operand) mir.Operand { return g.asr(x, 31) }

func (g *divGen) add(x, y mir.Operand) mir.Operand {
	dest := g.vreg()
	g.emit(&mir.Instr{Op: arm32isa.OpAdd, Dest: dest, HasDest: true, Uses: []mir.Operand{x, y}})
	return dest
}

func (g *divGen) sub(x, y mir.Operand) mir.Operand {
	dest := g.vreg()
	g.emit(&mir.Instr{Op: arm32isa.OpSub, Dest: dest, HasDest: true, Uses: []mir.Operand{x, y}})
	return dest
}

func (g *divGen) move(dest, src mir.Operand) {
	g.emit(&mir.Instr{Op: arm32isa.OpMov, Dest: dest, HasDest: true, Uses: []mir.Operand{src}})
}

// negate writes 0 - src into dest via RSB, the negation ARM's data-
// processing encoding actually offers (there is no plain NEG mnemonic).
func (g *divGen) negate(dest, src mir.Operand) {
	g.emit(&mir.Instr{Op: arm32isa.OpRsb, Dest: dest, HasDest: true, Uses: []mir.Operand{src, mir.NewImm(0)}})
}

// generateUnsignedDiv lowers dest = n / d for a nonzero constant d,
// following original_source's GenerateUnsignedDiv.
func (g *divGen) generateUnsignedDiv(dest, n mir.Operand, d uint32) {
	mp := chooseMultiplier(d, 32)
	m, shPost, l := mp.mHigh, mp.shPost, mp.l

	shPre := 0
	if m >= (uint64(1)<<32) && d%2 == 0 {
		e := bits.TrailingZeros32(d)
		dOdd := d >> uint(e)
		shPre = e
		mp2 := chooseMultiplier(dOdd, 32-e)
		m, shPost = mp2.mHigh, mp2.shPost
	}

	var ans mir.Operand
	switch {
	case l < 32 && d == uint32(1)<<uint(l):
		ans = g.lsr(n, l)
	case m >= (uint64(1) << 32):
		t1 := g.mulUH(n, uint32(m-(uint64(1)<<32)))
		ans = g.sub(n, t1)
		ans = g.lsr(ans, 1)
		ans = g.add(t1, ans)
		ans = g.lsr(ans, shPost-1)
	default:
		ans = g.lsr(n, shPre)
		ans = g.mulUH(ans, uint32(m))
		ans = g.lsr(ans, shPost)
	}
	g.move(dest, ans)
}

// generateSignedDiv lowers dest = n / d for a nonzero constant d,
// following original_source's GenerateSignedDiv.
func (g *divGen) generateSignedDiv(dest, n mir.Operand, d int32) {
	absD := d
	if absD < 0 {
		absD = -absD
	}
	mp := chooseMultiplier(uint32(absD), 31)

	var ans mir.Operand
	switch {
	case absD == 1:
		ans = g.vreg()
		g.move(ans, n)
	case mp.l < 32 && absD == int32(1)<<uint(mp.l):
		ans = g.asr(n, mp.l-1)
		ans = g.lsr(ans, 32-mp.l)
		ans = g.add(n, ans)
		ans = g.asr(ans, mp.l)
	case mp.mHigh < (uint64(1) << 31):
		ans = g.mulSH(n, int32(mp.mHigh))
		ans = g.asr(ans, mp.shPost)
		t := g.xsign(n)
		ans = g.sub(ans, t)
	default:
		ans = g.mulSH(n, int32(mp.mHigh-(uint64(1)<<32)))
		ans = g.add(ans, n)
		ans = g.asr(ans, mp.shPost)
		t := g.xsign(n)
		ans = g.sub(ans, t)
	}

	if d < 0 {
		g.negate(dest, ans)
	} else {
		g.move(dest, ans)
	}
}
