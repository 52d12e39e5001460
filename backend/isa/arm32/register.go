package arm32

import (
	"github.com/ccforge/backend/archreg"
	"github.com/ccforge/backend/backend"
)

func init() {
	archreg.Register("arm32", func() backend.Machine { return Machine{} })
}
