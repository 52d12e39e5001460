// Package ccbackpanic wraps the fatal-invariant-violation panics the
// assembly emitters raise in a typed value, so the one recovery point at
// the process boundary (cmd/ccback) can print a clean diagnostic instead
// of a raw goroutine stack dump. Everywhere else in the pipeline, a
// violated invariant is simply a bare panic — there is no error-return
// plumbing for conditions that should never occur given a well-formed
// SSA module.
package ccbackpanic

import "fmt"

// Invariant is the payload of a panic raised when the pipeline finds
// itself in a state that should be impossible, such as an unallocated
// virtual register or an un-legalized opcode reaching the emitter. An SSA
// opcode a selector does not lower is reported as an error instead.
type Invariant struct {
	Msg string
}

func (i Invariant) Error() string { return i.Msg }

// Raise panics with an Invariant built from format/args.
func Raise(format string, args ...any) {
	panic(Invariant{Msg: fmt.Sprintf(format, args...)})
}

// Recover turns a panicking Invariant into an error, leaving any other
// panic value to propagate untouched. Intended to be deferred exactly
// once, at the CLI's command entry point.
func Recover(err *error) {
	if r := recover(); r != nil {
		if inv, ok := r.(Invariant); ok {
			*err = inv
			return
		}
		panic(r)
	}
}
