// Package asmfmt renders a fully-allocated, legalized mir.Module as
// target-specific GNU-as assembly text: tab-indented mnemonics,
// comma-separated operands, one Formatter implementation per ISA.
// The per-opcode mnemonic-table-plus-switch shape follows the same
// convention objdump-style disassembly formatters use, adapted here
// from a debug-print format to the actual emitted output.
package asmfmt

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/ccforge/backend/mir"
)

// Formatter is the contract each ISA's emitter implements; backend.Machine
// returns one of these (as a backend.Emitter) from its Emitter method.
type Formatter interface {
	EmitModule(mod *mir.Module) (string, error)
}

// emitDataDirective writes one DataEntry's content as the GNU-as directive
// its Kind names (ZERO/ASCIZ/LONG/BYTE, spec §3); the directive mnemonics
// themselves are identical across the AArch32 and RV32I GAS dialects, so
// both ISA emitters share this instead of duplicating the switch.
func emitDataDirective(b *strings.Builder, d *mir.DataEntry) {
	switch d.Kind {
	case mir.DataZero:
		fmt.Fprintf(b, "\t.zero %d\n", d.Size)
	case mir.DataAscii:
		fmt.Fprintf(b, "\t.asciz %q\n", strings.TrimSuffix(string(d.Init), "\x00"))
	case mir.DataWords:
		words := make([]string, 0, len(d.Init)/4)
		for i := 0; i+4 <= len(d.Init); i += 4 {
			words = append(words, strconv.FormatInt(int64(int32(binary.LittleEndian.Uint32(d.Init[i:]))), 10))
		}
		fmt.Fprintf(b, "\t.long %s\n", strings.Join(words, ", "))
	default: // mir.DataBytes
		parts := make([]string, len(d.Init))
		for i, v := range d.Init {
			parts[i] = strconv.Itoa(int(v))
		}
		fmt.Fprintf(b, "\t.byte %s\n", strings.Join(parts, ","))
	}
}
