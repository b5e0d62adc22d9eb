package asm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// recordingSink collects the batches a stream hands off at flush.
type recordingSink struct {
	batches []batch
}

type batch struct {
	offset, length int
	args           []string
}

func (s *recordingSink) ApplyBatch(offset, length int, args []string) {
	s.batches = append(s.batches, batch{offset, length, append([]string{}, args...)})
}

func newTestStream() (*Stream, *recordingSink) {
	sink := &recordingSink{}
	return NewStream(sink), sink
}

func TestStreamAppendWordEscape(t *testing.T) {
	for _, tc := range []struct {
		name    string
		word    uint32
		escaped bool
	}{
		{name: "zero", word: 0, escaped: true},
		{name: "small", word: 100, escaped: true},
		{name: "highest ambiguous", word: ambiguousLimit - 1, escaped: true},
		{name: "lowest unambiguous", word: ambiguousLimit, escaped: false},
		{name: "instruction word", word: 0x38640064, escaped: false},
		{name: "max", word: 0xffffffff, escaped: false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s, _ := newTestStream()
			s.AppendWord(tc.word)
			if tc.escaped {
				require.Equal(t, 2, s.Len())
				require.Equal(t, actionEntry(ActionEscape, 0), s.Entries()[0])
				require.Equal(t, tc.word, s.Entries()[1])
			} else {
				require.Equal(t, 1, s.Len())
				require.Equal(t, tc.word, s.Entries()[0])
			}
		})
	}
}

func TestStreamPendingAccounting(t *testing.T) {
	s, _ := newTestStream()
	s.AppendAction(ActionAlign, 8)
	require.Equal(t, 0, s.Pending()) // no argument, no slot

	s.AppendActionArg(ActionExtern, 0, `"printf"`)
	require.Equal(t, 1, s.Pending())
	s.AppendActionArg(ActionPatch, 0x10, "offsetof(struct s, f)")
	require.Equal(t, 2, s.Pending())
}

func TestStreamReserveCommit(t *testing.T) {
	s, _ := newTestStream()
	slot := s.ReserveSlot()
	s.AppendActionArg(ActionExtern, 0, `"f"`)
	require.NoError(t, s.CommitSlot(slot, 0x48000001))
	require.Equal(t, uint32(0x48000001), s.Entries()[slot])

	require.Error(t, s.CommitSlot(99, 0x48000001))
	// A value needing an escape marker cannot be patched in place.
	slot2 := s.ReserveSlot()
	require.Error(t, s.CommitSlot(slot2, 100))
}

func TestStreamFlush(t *testing.T) {
	t.Run("empty flush is a no-op", func(t *testing.T) {
		s, sink := newTestStream()
		s.Flush(false)
		require.Nil(t, sink.batches)
	})

	t.Run("appends terminator and resets accounting", func(t *testing.T) {
		s, sink := newTestStream()
		s.AppendWord(0x38640064)
		s.AppendActionArg(ActionExtern, 0, `"f"`)
		s.Flush(false)

		require.Equal(t, 1, len(sink.batches))
		b := sink.batches[0]
		require.Equal(t, 0, b.offset)
		require.Equal(t, 3, b.length) // word, extern, terminate
		require.Equal(t, []string{`"f"`}, b.args)
		require.Equal(t, actionEntry(ActionTerminate, 0), s.Entries()[2])
		require.Equal(t, 0, s.Pending())

		// Nothing new appended: flushing again does nothing.
		s.Flush(false)
		require.Equal(t, 1, len(sink.batches))
	})

	t.Run("section switch suppresses the terminator", func(t *testing.T) {
		s, sink := newTestStream()
		s.AppendWord(0x38640064)
		s.AppendAction(ActionSection, 1)
		s.Flush(true)

		require.Equal(t, 1, len(sink.batches))
		require.Equal(t, 2, sink.batches[0].length)
		require.Equal(t, actionEntry(ActionSection, 1), s.Entries()[1])
	})

	t.Run("second batch offsets past the first", func(t *testing.T) {
		s, sink := newTestStream()
		s.AppendWord(0x38640064)
		s.Flush(false)
		s.AppendWord(0x38840064)
		s.Flush(false)

		require.Equal(t, 2, len(sink.batches))
		require.Equal(t, 0, sink.batches[0].offset)
		require.Equal(t, 2, sink.batches[0].length)
		require.Equal(t, 2, sink.batches[1].offset)
		require.Equal(t, 2, sink.batches[1].length)
	})
}

func TestStreamEnsureRoom(t *testing.T) {
	s, sink := newTestStream()
	for i := 0; i < MaxPending; i++ {
		s.EnsureRoom(1)
		s.AppendActionArg(ActionExtern, uint16(i), `"f"`)
	}
	// Exactly MaxPending slot-consuming appends fit in one batch.
	require.Nil(t, sink.batches)
	require.Equal(t, MaxPending, s.Pending())

	// The next slot-consuming append forces a flush first.
	s.EnsureRoom(1)
	require.Equal(t, 1, len(sink.batches))
	require.Equal(t, 0, s.Pending())
	require.Equal(t, MaxPending, len(sink.batches[0].args))
}
