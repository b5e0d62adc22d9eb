package asm

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeHost records emitted lines and renders deferred chunks on demand.
type fakeHost struct {
	lines    []string
	deferred []func(w io.Writer)
	errs     []error
}

func (h *fakeHost) Line(s string) { h.lines = append(h.lines, s) }

func (h *fakeHost) Deferred(render func(io.Writer)) { h.deferred = append(h.deferred, render) }

func (h *fakeHost) Report(err error) { h.errs = append(h.errs, err) }

func (h *fakeHost) renderAll(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	for _, render := range h.deferred {
		render(&buf)
	}
	return buf.String()
}

func TestSerializerApplyBatch(t *testing.T) {
	host := &fakeHost{}
	z := NewSerializer(host)

	z.ApplyBatch(0, 3, nil)
	z.ApplyBatch(3, 5, []string{`"foo"`, "offsetof(struct s, f)"})

	require.Equal(t, []string{
		"ppc_apply(ctx, _ppc_stream + 0, 3, 0);",
		`ppc_apply(ctx, _ppc_stream + 3, 5, 2, "foo", offsetof(struct s, f));`,
	}, host.lines)
}

func TestSerializerStreamOutputPoint(t *testing.T) {
	host := &fakeHost{}
	z := NewSerializer(host)
	s := NewStream(z)

	// Schedule first, append after: the rendering is deferred until the
	// stream has stopped growing.
	z.StreamOutputPoint(s)
	s.AppendWord(0x38640064)
	s.AppendWord(100) // escaped
	s.Flush(false)

	out := host.renderAll(t)
	require.Contains(t, out, "static const unsigned int _ppc_stream[4] = {")
	require.Contains(t, out, "0x38640064,")
	require.Contains(t, out, "0x00020000,") // escape marker
	require.Contains(t, out, "0x00000064,")
	require.Contains(t, out, "};")
}

func TestSerializerLabelOutputPoints(t *testing.T) {
	host := &fakeHost{}
	z := NewSerializer(host)

	globals := NewGlobalLabels()
	externs := NewExternLabels()
	z.GlobalEnumOutputPoint(globals)
	z.GlobalNamesOutputPoint(globals)
	z.ExternNamesOutputPoint(externs)

	_, err := globals.Get("entry")
	require.NoError(t, err)
	_, err = globals.Get("loop_top")
	require.NoError(t, err)
	_, err = externs.Get("printf")
	require.NoError(t, err)

	out := host.renderAll(t)
	require.Contains(t, out, "_L_entry = 20,")
	require.Contains(t, out, "_L_loop_top = 21,")
	require.Contains(t, out, `static const char *_ppc_label_names[2] = { "entry", "loop_top" };`)
	require.Contains(t, out, `static const char *_ppc_extern_names[1] = { "printf" };`)
}
