package riscv32

import (
	"github.com/ccforge/backend/archreg"
	"github.com/ccforge/backend/backend"
)

func init() {
	archreg.Register("riscv32", func() backend.Machine { return Machine{} })
}
