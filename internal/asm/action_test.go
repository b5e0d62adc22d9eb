package asm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestActionKindWireValues(t *testing.T) {
	// The numeric values are the compatibility boundary with the external
	// patcher; renumbering them is a breaking change.
	require.Equal(t, ActionKind(0), ActionTerminate)
	require.Equal(t, ActionKind(1), ActionSection)
	require.Equal(t, ActionKind(2), ActionEscape)
	require.Equal(t, ActionKind(3), ActionExtern)
	require.Equal(t, ActionKind(4), ActionAlign)
	require.Equal(t, ActionKind(5), ActionLocalReloc)
	require.Equal(t, ActionKind(6), ActionGlobalReloc)
	require.Equal(t, ActionKind(7), ActionLocalDef)
	require.Equal(t, ActionKind(8), ActionGlobalDef)
	require.Equal(t, ActionKind(9), ActionPCReloc)
	require.Equal(t, ActionKind(10), ActionPCDef)
	require.Equal(t, ActionKind(11), ActionPatch)
	require.Equal(t, 12, numActionKinds)
}

func TestActionKindString(t *testing.T) {
	require.Equal(t, "terminate", ActionTerminate.String())
	require.Equal(t, "patch", ActionPatch.String())
	require.Equal(t, "action(42)", ActionKind(42).String())
}

func TestActionEntry(t *testing.T) {
	require.Equal(t, uint32(0x000b1234), actionEntry(ActionPatch, 0x1234))
	require.Equal(t, uint32(0x00060014), actionEntry(ActionGlobalReloc, 20))
}

func TestPatchPayload(t *testing.T) {
	p, err := PatchPayload(16, 0, 1, true)
	require.NoError(t, err)
	require.Equal(t, uint16(1<<13|16), p)

	p, err = PatchPayload(5, 11, 4, false)
	require.NoError(t, err)
	require.Equal(t, uint16(2<<10|11<<5|5), p)

	_, err = PatchPayload(0, 0, 1, false)
	require.Error(t, err)
	_, err = PatchPayload(32, 0, 1, false)
	require.Error(t, err)
	_, err = PatchPayload(16, 32, 1, false)
	require.Error(t, err)
	_, err = PatchPayload(16, 0, 3, false)
	require.Error(t, err)
	_, err = PatchPayload(16, 0, 0, false)
	require.Error(t, err)
}
