// Package pipeline runs a target's declared list of MIR passes over one
// function in order, matching original_source's PassPtrList /
// AsmCodeGen::Dump driving a fixed pass sequence per optimization level.
package pipeline

import "github.com/ccforge/backend/mir"

// Pass is one MIR transformation or analysis step. Implementations live
// in each ISA's passes package; Pipeline itself knows nothing about what
// any individual pass does.
type Pass interface {
	// Name identifies the pass for diagnostics and test assertions.
	Name() string
	// Run transforms fn in place.
	Run(fn *mir.Function)
}

// Pipeline is an ordered list of passes for one architecture.
type Pipeline struct {
	Passes []Pass
}

// Run executes every pass over fn in declared order.
func (p *Pipeline) Run(fn *mir.Function) {
	for _, pass := range p.Passes {
		pass.Run(fn)
	}
}

// Func adapts a plain function into a Pass, for simple stateless passes
// that don't need their own named type.
type Func struct {
	PassName string
	Fn       func(fn *mir.Function)
}

func (f Func) Name() string            { return f.PassName }
func (f Func) Run(fn *mir.Function)    { f.Fn(fn) }
