package ssatext

import (
	"fmt"
	"strconv"

	"github.com/ccforge/backend/ssa"
)

// codegen drives an ssa.Builder from a parsed astModule. Each function is
// built in two passes: first every block header is created (so a jump or
// branch can target a block declared later in the file), then each
// block's instructions are emitted in order, resolving value names
// against what has already been defined.
func codegen(mod astModule) (*ssa.Module, error) {
	out := &ssa.Module{}
	for _, g := range mod.globals {
		linkage := ssa.LinkageInternal
		if g.linkage != "" {
			l, ok := linkageValues[g.linkage]
			if !ok {
				return nil, fmt.Errorf("ssatext: global %s: unknown linkage %q", g.name, g.linkage)
			}
			linkage = l
		}
		kind, ok := globalKindValues[g.kind]
		if !ok {
			return nil, fmt.Errorf("ssatext: global %s: unknown kind %q", g.name, g.kind)
		}
		out.Globals = append(out.Globals, &ssa.GlobalVar{
			Name: g.name, Size: g.size, Align: g.align, Init: g.bytes,
			Kind: kind, Linkage: linkage,
		})
	}
	for _, f := range mod.funcs {
		fn, err := codegenFunc(f)
		if err != nil {
			return nil, err
		}
		out.Funcs = append(out.Funcs, fn)
	}
	return out, nil
}

func codegenFunc(f astFunc) (*ssa.Function, error) {
	linkage, ok := linkageValues[f.linkage]
	if !ok {
		return nil, fmt.Errorf("ssatext: func %s: unknown linkage %q", f.name, f.linkage)
	}
	sig := ssa.Signature{Result: ssa.TypeInvalid}
	for _, t := range f.params {
		typ, ok := typeValues[t]
		if !ok {
			return nil, fmt.Errorf("ssatext: func %s: unknown param type %q", f.name, t)
		}
		sig.Params = append(sig.Params, typ)
	}
	if f.result != "void" {
		typ, ok := typeValues[f.result]
		if !ok {
			return nil, fmt.Errorf("ssatext: func %s: unknown result type %q", f.name, f.result)
		}
		sig.Result = typ
	}

	b := ssa.NewBuilder(f.name, sig, linkage)
	blocks := map[string]*ssa.Block{}
	values := map[string]ssa.Value{}

	for _, ab := range f.blocks {
		var ptypes []ssa.Type
		for _, p := range ab.params {
			typ, ok := typeValues[p.typ]
			if !ok {
				return nil, fmt.Errorf("ssatext: func %s: block %s: unknown param type %q", f.name, ab.name, p.typ)
			}
			ptypes = append(ptypes, typ)
		}
		blk := b.CreateBlock(ab.entry, ptypes...)
		if _, dup := blocks[ab.name]; dup {
			return nil, fmt.Errorf("ssatext: func %s: duplicate block name %q", f.name, ab.name)
		}
		blocks[ab.name] = blk
		for i, p := range ab.params {
			values[p.name] = blk.ParamValue(i)
		}
	}

	for i, ab := range f.blocks {
		blk := blocks[ab.name]
		for _, instr := range ab.instrs {
			if err := codegenInstr(b, blk, instr, blocks, values); err != nil {
				return nil, fmt.Errorf("ssatext: func %s: block %s: %w", f.name, ab.name, err)
			}
		}
		_ = i
	}
	return b.Func(), nil
}

func resolveVal(values map[string]ssa.Value, name string) (ssa.Value, error) {
	v, ok := values[name]
	if !ok {
		return ssa.ValueInvalid, fmt.Errorf("undefined value %q", name)
	}
	return v, nil
}

func resolveBlock(blocks map[string]*ssa.Block, name string) (*ssa.Block, error) {
	blk, ok := blocks[name]
	if !ok {
		return nil, fmt.Errorf("undefined block %q", name)
	}
	return blk, nil
}

func resolveVals(values map[string]ssa.Value, names []string) ([]ssa.Value, error) {
	out := make([]ssa.Value, 0, len(names))
	for _, n := range names {
		v, err := resolveVal(values, n)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func codegenInstr(b *ssa.Builder, blk *ssa.Block, ia instrAST, blocks map[string]*ssa.Block, values map[string]ssa.Value) error {
	bind := func(v ssa.Value) {
		if ia.hasDest {
			values[ia.dest] = v
		}
	}

	switch ia.op {
	case "load":
		addr, err := resolveVal(values, ia.args[0])
		if err != nil {
			return err
		}
		typ, ok := typeValues[ia.typ]
		if !ok {
			return fmt.Errorf("unknown type %q", ia.typ)
		}
		bind(b.InsertLoad(blk, addr, typ))
	case "store":
		addr, err := resolveVal(values, ia.args[0])
		if err != nil {
			return err
		}
		val, err := resolveVal(values, ia.args[1])
		if err != nil {
			return err
		}
		b.InsertStore(blk, addr, val)
	case "access":
		base, err := resolveVal(values, ia.args[0])
		if err != nil {
			return err
		}
		off, err := strconv.ParseInt(ia.imm, 10, 32)
		if err != nil {
			return err
		}
		bind(b.InsertAccess(blk, base, int32(off)))
	case "binary":
		op, ok := binOpValues[ia.binOp]
		if !ok {
			return fmt.Errorf("unknown binary op %q", ia.binOp)
		}
		lhs, err := resolveVal(values, ia.args[0])
		if err != nil {
			return err
		}
		rhs, err := resolveVal(values, ia.args[1])
		if err != nil {
			return err
		}
		typ, ok := typeValues[ia.typ]
		if !ok {
			return fmt.Errorf("unknown type %q", ia.typ)
		}
		bind(b.InsertBinary(blk, op, lhs, rhs, typ))
	case "unary":
		op, ok := unaryOpValues[ia.unaryOp]
		if !ok {
			return fmt.Errorf("unknown unary op %q", ia.unaryOp)
		}
		v, err := resolveVal(values, ia.args[0])
		if err != nil {
			return err
		}
		typ, ok := typeValues[ia.typ]
		if !ok {
			return fmt.Errorf("unknown type %q", ia.typ)
		}
		bind(b.InsertUnary(blk, op, v, typ))
	case "cast":
		v, err := resolveVal(values, ia.args[0])
		if err != nil {
			return err
		}
		typ, ok := typeValues[ia.typ]
		if !ok {
			return fmt.Errorf("unknown type %q", ia.typ)
		}
		bind(b.InsertCast(blk, v, typ))
	case "call":
		args, err := resolveVals(values, ia.callArgs)
		if err != nil {
			return err
		}
		typ := ssa.TypeInvalid
		if ia.typ != "" {
			var ok bool
			typ, ok = typeValues[ia.typ]
			if !ok {
				return fmt.Errorf("unknown type %q", ia.typ)
			}
		}
		bind(b.InsertCall(blk, ia.symbol, args, typ))
	case "branch":
		cond, err := resolveVal(values, ia.args[0])
		if err != nil {
			return err
		}
		tBlk, err := resolveBlock(blocks, ia.targets[0].block)
		if err != nil {
			return err
		}
		fBlk, err := resolveBlock(blocks, ia.targets[1].block)
		if err != nil {
			return err
		}
		tArgs, err := resolveVals(values, ia.targets[0].args)
		if err != nil {
			return err
		}
		fArgs, err := resolveVals(values, ia.targets[1].args)
		if err != nil {
			return err
		}
		b.InsertBranch(blk, cond, tBlk.ID(), fBlk.ID(), tArgs, fArgs)
		b.SetPred(tBlk, blk.ID())
		b.SetPred(fBlk, blk.ID())
	case "jump":
		tBlk, err := resolveBlock(blocks, ia.targets[0].block)
		if err != nil {
			return err
		}
		tArgs, err := resolveVals(values, ia.targets[0].args)
		if err != nil {
			return err
		}
		b.InsertJump(blk, tBlk.ID(), tArgs)
		b.SetPred(tBlk, blk.ID())
	case "return":
		v := ssa.ValueInvalid
		if len(ia.args) == 1 {
			var err error
			v, err = resolveVal(values, ia.args[0])
			if err != nil {
				return err
			}
		}
		b.InsertReturn(blk, v)
	case "globalvar":
		bind(b.InsertGlobalVar(blk, ia.symbol))
	case "alloca":
		sz, err := strconv.ParseInt(ia.imm, 10, 32)
		if err != nil {
			return err
		}
		bind(b.InsertAlloca(blk, int32(sz)))
	case "argref":
		idx, err := strconv.Atoi(ia.imm)
		if err != nil {
			return err
		}
		typ, ok := typeValues[ia.typ]
		if !ok {
			return fmt.Errorf("unknown type %q", ia.typ)
		}
		bind(b.InsertArgRef(blk, idx, typ))
	case "const.i32":
		n, err := strconv.ParseInt(ia.imm, 10, 32)
		if err != nil {
			return err
		}
		bind(b.InsertConstI32(blk, int32(n)))
	case "const.bool":
		bind(b.InsertConstBool(blk, ia.imm == "true"))
	case "select":
		cond, err := resolveVal(values, ia.args[0])
		if err != nil {
			return err
		}
		t, err := resolveVal(values, ia.args[1])
		if err != nil {
			return err
		}
		f, err := resolveVal(values, ia.args[2])
		if err != nil {
			return err
		}
		typ, ok := typeValues[ia.typ]
		if !ok {
			return fmt.Errorf("unknown type %q", ia.typ)
		}
		bind(b.InsertSelect(blk, cond, t, f, typ))
	case "undef":
		typ, ok := typeValues[ia.typ]
		if !ok {
			return fmt.Errorf("unknown type %q", ia.typ)
		}
		bind(b.InsertUndef(blk, typ))
	default:
		return fmt.Errorf("unknown instruction opcode %q", ia.op)
	}
	return nil
}
