package main

import (
	"bufio"
	"fmt"
	"io"

	"github.com/logrusorgru/aurora"
)

// textHost implements the library's Host capability interface for the CLI:
// generated lines and deferred table renderers accumulate in order and are
// written out once assembly finishes; diagnostics go to stderr with the
// current source position.
type textHost struct {
	stdErr io.Writer
	chunks []chunk

	file string
	line int
}

// chunk is one ordered piece of output: either literal text or a deferred
// renderer whose content becomes known only at the end of the unit.
type chunk struct {
	text   string
	render func(w io.Writer)
}

// Line implements Host.Line.
func (h *textHost) Line(s string) {
	h.chunks = append(h.chunks, chunk{text: s + "\n"})
}

// Deferred implements Host.Deferred.
func (h *textHost) Deferred(render func(w io.Writer)) {
	h.chunks = append(h.chunks, chunk{render: render})
}

// Report implements Host.Report.
func (h *textHost) Report(err error) {
	if h.file != "" {
		fmt.Fprintf(h.stdErr, "%s:%d: %s\n", aurora.Bold(h.file), h.line, aurora.Red(err.Error()))
		return
	}
	fmt.Fprintln(h.stdErr, aurora.Red(err.Error()))
}

// errorf reports and returns a CLI-level diagnostic.
func (h *textHost) errorf(format string, args ...interface{}) error {
	err := fmt.Errorf(format, args...)
	h.Report(err)
	return err
}

// at records the source position used to prefix diagnostics.
func (h *textHost) at(file string, line int) {
	h.file = file
	h.line = line
}

// render writes the accumulated output, resolving deferred chunks.
func (h *textHost) render(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, c := range h.chunks {
		if c.render != nil {
			c.render(bw)
			continue
		}
		if _, err := bw.WriteString(c.text); err != nil {
			return err
		}
	}
	return bw.Flush()
}
