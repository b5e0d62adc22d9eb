package asm

import "io"

// Host is the capability interface the embedding code generator supplies to
// a compilation unit. The library never writes or logs on its own; all
// generated output and diagnostics flow through here.
type Host interface {
	// Line emits one line of generated host output.
	Line(s string)

	// Deferred reserves the current point in the generated output. The
	// render function is invoked when the unit is finalized, once the
	// tables it renders have stopped growing.
	Deferred(render func(w io.Writer))

	// Report surfaces a diagnostic for an error that aborted the unit.
	Report(err error)
}
