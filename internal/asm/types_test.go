package asm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTypeTable(t *testing.T) {
	tt := NewTypeTable()
	require.NoError(t, tt.Define("vm", "struct vm_state *", "r30"))
	require.NoError(t, tt.Define("frame", "struct frame *", ""))

	a, ok := tt.Lookup("vm")
	require.True(t, ok)
	require.Equal(t, "struct vm_state *", a.CType)
	require.Equal(t, "r30", a.DefaultReg)

	_, ok = tt.Lookup("missing")
	require.False(t, ok)

	require.EqualError(t, tt.Define("vm", "int", ""), `type alias "vm" already defined`)
	require.Error(t, tt.Define("1bad", "int", ""))
}
