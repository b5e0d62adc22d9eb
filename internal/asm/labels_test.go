package asm

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGlobalLabelNumbering(t *testing.T) {
	g := NewGlobalLabels()

	n, err := g.Get("foo")
	require.NoError(t, err)
	require.Equal(t, uint16(20), n)

	n, err = g.Get("bar")
	require.NoError(t, err)
	require.Equal(t, uint16(21), n)

	// Re-referencing is idempotent.
	n, err = g.Get("foo")
	require.NoError(t, err)
	require.Equal(t, uint16(20), n)

	require.Equal(t, []string{"foo", "bar"}, g.Names())
	require.Equal(t, 20, g.Base())
}

func TestGlobalLabelNameGrammar(t *testing.T) {
	g := NewGlobalLabels()
	for _, name := range []string{"", "1abc", "a-b", "a b", "a.b"} {
		_, err := g.Get(name)
		require.Error(t, err, "name %q", name)
	}
	for _, name := range []string{"_", "a", "A9", "snake_case_99"} {
		_, err := g.Get(name)
		require.NoError(t, err, "name %q", name)
	}
}

func TestGlobalLabelOverflow(t *testing.T) {
	g := NewGlobalLabels()
	for i := 20; i <= 2047; i++ {
		n, err := g.Get(fmt.Sprintf("l%d", i))
		require.NoError(t, err)
		require.Equal(t, uint16(i), n)
	}
	_, err := g.Get("one_too_many")
	require.EqualError(t, err, `too many global labels: "one_too_many" would exceed 2047`)

	// Known names still resolve after exhaustion.
	n, err := g.Get("l20")
	require.NoError(t, err)
	require.Equal(t, uint16(20), n)
}

func TestExternLabelNumbering(t *testing.T) {
	e := NewExternLabels()

	n, err := e.Get("printf")
	require.NoError(t, err)
	require.Equal(t, uint16(0), n)

	n, err = e.Get("memcpy")
	require.NoError(t, err)
	require.Equal(t, uint16(1), n)

	n, err = e.Get("printf")
	require.NoError(t, err)
	require.Equal(t, uint16(0), n)

	// Extern naming rules are unrestricted.
	n, err = e.Get("an odd-name.v2")
	require.NoError(t, err)
	require.Equal(t, uint16(2), n)
}

func TestLocalLabels(t *testing.T) {
	// A forward reference resolves to n, a backward reference and a
	// definition site both to n+10.
	for n := uint16(1); n <= 9; n++ {
		fwd, err := ParseLocalRef(fmt.Sprintf(">%d", n))
		require.NoError(t, err)
		require.Equal(t, n, fwd)

		back, err := ParseLocalRef(fmt.Sprintf("<%d", n))
		require.NoError(t, err)
		require.Equal(t, n+10, back)

		def, err := ParseLocalDef(fmt.Sprintf("%d", n))
		require.NoError(t, err)
		require.Equal(t, n+10, def)
	}

	for _, bad := range []string{"", "0", "10", "<0", ">10", "<x", "3", "x3"} {
		_, err := ParseLocalRef(bad)
		require.Error(t, err, "reference %q", bad)
	}
	for _, bad := range []string{"", "0", "10", "x"} {
		_, err := ParseLocalDef(bad)
		require.Error(t, err, "definition %q", bad)
	}

	require.True(t, IsLocalLabel("3"))
	require.False(t, IsLocalLabel("foo"))
	require.True(t, IsLocalRef("<9"))
	require.False(t, IsLocalRef("9"))
}
