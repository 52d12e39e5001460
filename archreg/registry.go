// Package archreg is the architecture-selector registry: each ISA
// package registers a factory for its name at init(), and the CLI
// resolves a user-supplied architecture string against it, with
// "unknown target architecture" as the single user-visible error this
// backend can produce. Grounded on original_source's
// ArchManager::GetArch / AsmCodeGen::SetTargetArch.
package archreg

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ccforge/backend/backend"
)

// Factory builds a fresh Machine for one compilation. A factory per
// architecture (rather than a single shared Machine instance) keeps
// each compile's Machine state isolated without a reset lifecycle,
// since this backend has no JIT code cache to reuse across compiles.
type Factory func() backend.Machine

var (
	mu       sync.Mutex
	registry = map[string]Factory{}
)

// Register adds name to the registry. Called from each ISA package's
// init(); panics on a duplicate name since that can only be a programming
// error in this repository, never user input.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("BUG: architecture %q registered twice", name))
	}
	registry[name] = f
}

// Lookup resolves name to a Factory. The returned error, when non-nil, is
// the sole user-visible failure mode of this backend: every other
// invariant violation is a fatal panic, never a returned error.
func Lookup(name string) (Factory, error) {
	mu.Lock()
	defer mu.Unlock()
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown target architecture %q (known: %v)", name, knownLocked())
	}
	return f, nil
}

// Known lists every registered architecture name, sorted, for help text.
func Known() []string {
	mu.Lock()
	defer mu.Unlock()
	return knownLocked()
}

func knownLocked() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
