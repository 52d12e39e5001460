// Package ssatext is a textual encoding for ssa.Module, used the way the
// teacher's testcases package hand-builds fixture modules in Go source:
// here the fixture lives in a small text file instead, so cmd/ccback and
// the test suite can both load the same corpus of example programs
// without recompiling. Encode renders an in-memory Module back to this
// text, letting a round trip (parse, encode, parse again) double as a
// structural equality check in tests.
//
// Grammar, informally:
//
//	module   := { global | func }
//	global   := "global" ident ( "zero" int int | ("bytes"|"ascii"|"words") int int { "," int } ) [ linkage ]
//	func     := "func" ident linkage "(" [ type { "," type } ] ")" "->" ( type | "void" ) "{" { block } "}"
//	block    := "block" ident [ "entry" ] "(" [ param { "," param } ] ")" "{" { instr } "}"
//	param    := ident ":" type
//	instr    := [ ident "=" ] mnemonic ... ";"
//
// Every value and block is referenced by the identifier it was bound to
// when first produced (an instruction's destination, or a block's name).
// Instructions are ";"-terminated so "return" and "call" can tell an
// optional trailing value apart from the next instruction's own leading
// identifier. Call/global symbol names carry a leading "@" so they are
// never confused with a value or block reference.
package ssatext

import "github.com/ccforge/backend/ssa"

// binOpNames / unaryOpNames / typeNames / linkageNames are the canonical
// text mnemonics for the enums ssa.Module exposes. Kept as the single
// source of truth for both the encoder and the parser so the two can
// never drift out of sync with each other.
var binOpNames = map[ssa.BinaryOp]string{
	ssa.BinAdd: "add", ssa.BinSub: "sub", ssa.BinMul: "mul",
	ssa.BinSDiv: "sdiv", ssa.BinUDiv: "udiv",
	ssa.BinSRem: "srem", ssa.BinURem: "urem",
	ssa.BinAnd: "and", ssa.BinOr: "or", ssa.BinXor: "xor",
	ssa.BinShl: "shl", ssa.BinLShr: "lshr", ssa.BinAShr: "ashr",
	ssa.BinIcmpEq: "icmp_eq", ssa.BinIcmpNe: "icmp_ne",
	ssa.BinIcmpSlt: "icmp_slt", ssa.BinIcmpSle: "icmp_sle",
	ssa.BinIcmpUlt: "icmp_ult", ssa.BinIcmpUle: "icmp_ule",
}

var binOpValues = reverseStr(binOpNames)

var unaryOpNames = map[ssa.UnaryOp]string{
	ssa.UnaryNeg: "neg", ssa.UnaryNot: "not",
}

var unaryOpValues = reverseStr(unaryOpNames)

var typeNames = map[ssa.Type]string{
	ssa.TypeI32: "i32", ssa.TypePtr: "ptr",
}

var typeValues = reverseStr(typeNames)

var linkageNames = map[ssa.Linkage]string{
	ssa.LinkageInternal: "internal", ssa.LinkageExternal: "external",
	ssa.LinkageCtor: "ctor", ssa.LinkageDtor: "dtor",
}

var linkageValues = reverseStr(linkageNames)

var globalKindNames = map[ssa.GlobalKind]string{
	ssa.GlobalZero: "zero", ssa.GlobalAscii: "ascii",
	ssa.GlobalWords: "words", ssa.GlobalBytes: "bytes",
}

var globalKindValues = reverseStr(globalKindNames)

func reverseStr[K comparable](m map[K]string) map[string]K {
	out := make(map[string]K, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}
