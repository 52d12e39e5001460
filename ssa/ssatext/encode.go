package ssatext

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/ccforge/backend/ssa"
)

// Encode renders mod back into the text Decode accepts. Block and value
// names are synthesized (b<N>, v<N>) rather than recovered from any
// original source, since ssa.Module keeps no such names itself.
func Encode(mod *ssa.Module) string {
	var b strings.Builder
	for _, g := range mod.Globals {
		encodeGlobal(&b, g)
	}
	for _, fn := range mod.Funcs {
		encodeFunc(&b, fn)
	}
	return b.String()
}

func encodeGlobal(b *strings.Builder, g *ssa.GlobalVar) {
	linkage := linkageNames[g.Linkage]
	if g.Kind == ssa.GlobalZero {
		fmt.Fprintf(b, "global %s zero %d %d %s\n", g.Name, g.Size, g.Align, linkage)
		return
	}
	if g.Kind == ssa.GlobalWords {
		words := make([]string, 0, len(g.Init)/4)
		for i := 0; i+4 <= len(g.Init); i += 4 {
			words = append(words, strconv.FormatInt(int64(int32(binary.LittleEndian.Uint32(g.Init[i:]))), 10))
		}
		fmt.Fprintf(b, "global %s words %d %s %s\n", g.Name, g.Align, strings.Join(words, ", "), linkage)
		return
	}
	parts := make([]string, len(g.Init))
	for i, v := range g.Init {
		parts[i] = strconv.Itoa(int(v))
	}
	fmt.Fprintf(b, "global %s %s %d %s %s\n", g.Name, globalKindNames[g.Kind], g.Align, strings.Join(parts, ", "), linkage)
}

func typeName(t ssa.Type) string {
	if t == ssa.TypeInvalid {
		return "void"
	}
	return typeNames[t]
}

func encodeFunc(b *strings.Builder, fn *ssa.Function) {
	params := make([]string, len(fn.Sig.Params))
	for i, t := range fn.Sig.Params {
		params[i] = typeName(t)
	}
	fmt.Fprintf(b, "func %s %s (%s) -> %s {\n", fn.Name, linkageNames[fn.Linkage], strings.Join(params, ", "), typeName(fn.Sig.Result))

	names := newNamer()
	for _, blk := range fn.Blocks {
		names.nameBlock(blk)
		for i := range blk.Params() {
			names.nameValue(blk.ParamValue(i))
		}
	}
	for _, blk := range fn.Blocks {
		for _, instr := range blk.Instrs() {
			if instr.Return().Valid() {
				names.nameValue(instr.Return())
			}
		}
	}

	for _, blk := range fn.Blocks {
		encodeBlock(b, fn, blk, names)
	}
	b.WriteString("}\n")
}

// namer assigns stable "bN"/"vN" text names to blocks and values in
// first-seen order, mirroring how a disassembler invents register names.
type namer struct {
	blocks map[ssa.BlockID]string
	values map[ssa.Value]string
	nb, nv int
}

func newNamer() *namer {
	return &namer{blocks: map[ssa.BlockID]string{}, values: map[ssa.Value]string{}}
}

func (n *namer) nameBlock(b *ssa.Block) string {
	if s, ok := n.blocks[b.ID()]; ok {
		return s
	}
	n.nb++
	s := fmt.Sprintf("b%d", n.nb)
	n.blocks[b.ID()] = s
	return s
}

func (n *namer) nameValue(v ssa.Value) string {
	if !v.Valid() {
		return ""
	}
	if s, ok := n.values[v]; ok {
		return s
	}
	n.nv++
	s := fmt.Sprintf("v%d", n.nv)
	n.values[v] = s
	return s
}

func (n *namer) val(v ssa.Value) string { return n.nameValue(v) }

func encodeBlock(b *strings.Builder, fn *ssa.Function, blk *ssa.Block, names *namer) {
	params := make([]string, len(blk.Params()))
	for i, t := range blk.Params() {
		params[i] = fmt.Sprintf("%s:%s", names.val(blk.ParamValue(i)), typeName(t))
	}
	entry := ""
	if blk.Entry() {
		entry = "entry "
	}
	fmt.Fprintf(b, "block %s %s(%s) {\n", names.nameBlock(blk), entry, strings.Join(params, ", "))
	for _, instr := range blk.Instrs() {
		encodeInstr(b, instr, names)
	}
	b.WriteString("}\n")
}

func dest(b *strings.Builder, names *namer, instr *ssa.Instruction) {
	if instr.Return().Valid() {
		fmt.Fprintf(b, "\t%s = ", names.val(instr.Return()))
	} else {
		b.WriteString("\t")
	}
}

func encodeBlockArgRef(names *namer, target ssa.BlockID, args []ssa.Value) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = names.val(a)
	}
	return fmt.Sprintf("%s(%s)", names.blocks[target], strings.Join(parts, ", "))
}

func encodeInstr(b *strings.Builder, instr *ssa.Instruction, names *namer) {
	switch instr.Opcode() {
	case ssa.OpLoad:
		dest(b, names, instr)
		fmt.Fprintf(b, "load %s : %s;\n", names.val(instr.Arg()), typeName(instr.Type()))
	case ssa.OpStore:
		dest(b, names, instr)
		fmt.Fprintf(b, "store %s, %s;\n", names.val(instr.Arg()), names.val(instr.Arg2()))
	case ssa.OpAccess:
		dest(b, names, instr)
		fmt.Fprintf(b, "access %s, %d : %s;\n", names.val(instr.Arg()), instr.ConstI32(), typeName(instr.Type()))
	case ssa.OpBinary:
		dest(b, names, instr)
		fmt.Fprintf(b, "binary %s %s, %s : %s;\n", binOpNames[instr.BinaryOp()], names.val(instr.Arg()), names.val(instr.Arg2()), typeName(instr.Type()))
	case ssa.OpUnary:
		dest(b, names, instr)
		fmt.Fprintf(b, "unary %s %s : %s;\n", unaryOpNames[instr.UnaryOp()], names.val(instr.Arg()), typeName(instr.Type()))
	case ssa.OpCast:
		dest(b, names, instr)
		fmt.Fprintf(b, "cast %s : %s;\n", names.val(instr.Arg()), typeName(instr.Type()))
	case ssa.OpCall:
		dest(b, names, instr)
		args := make([]string, len(instr.Args()))
		for i, a := range instr.Args() {
			args[i] = names.val(a)
		}
		typ := ""
		if instr.Type() != ssa.TypeInvalid {
			typ = " : " + typeName(instr.Type())
		}
		fmt.Fprintf(b, "call @%s(%s)%s;\n", instr.Symbol(), strings.Join(args, ", "), typ)
	case ssa.OpBranch:
		dest(b, names, instr)
		t, f := instr.BranchTargets()
		fmt.Fprintf(b, "branch %s, %s, %s;\n", names.val(instr.Arg()),
			encodeBlockArgRef(names, t, instr.BlockArgsTrue()), encodeBlockArgRef(names, f, instr.BlockArgsFalse()))
	case ssa.OpJump:
		dest(b, names, instr)
		fmt.Fprintf(b, "jump %s;\n", encodeBlockArgRef(names, instr.JumpTarget(), instr.BlockArgsTrue()))
	case ssa.OpReturn:
		dest(b, names, instr)
		if instr.Arg().Valid() {
			fmt.Fprintf(b, "return %s;\n", names.val(instr.Arg()))
		} else {
			b.WriteString("return;\n")
		}
	case ssa.OpGlobalVar:
		dest(b, names, instr)
		fmt.Fprintf(b, "globalvar @%s;\n", instr.Symbol())
	case ssa.OpAlloca:
		dest(b, names, instr)
		fmt.Fprintf(b, "alloca %d;\n", instr.ConstI32())
	case ssa.OpArgRef:
		dest(b, names, instr)
		fmt.Fprintf(b, "argref %d : %s;\n", instr.ConstI32(), typeName(instr.Type()))
	case ssa.OpConstI32:
		dest(b, names, instr)
		fmt.Fprintf(b, "const.i32 %d;\n", instr.ConstI32())
	case ssa.OpConstBool:
		dest(b, names, instr)
		fmt.Fprintf(b, "const.bool %t;\n", instr.ConstBool())
	case ssa.OpSelect:
		dest(b, names, instr)
		fmt.Fprintf(b, "select %s, %s, %s : %s;\n", names.val(instr.Arg()), names.val(instr.Arg2()), names.val(instr.Arg3()), typeName(instr.Type()))
	case ssa.OpUndef:
		dest(b, names, instr)
		fmt.Fprintf(b, "undef : %s;\n", typeName(instr.Type()))
	default:
		fmt.Fprintf(b, "\t# unencodable opcode %d\n", instr.Opcode())
	}
}
