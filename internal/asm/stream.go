package asm

import "fmt"

// MaxPending bounds the number of argument-carrying actions buffered
// between flushes. It exists only to keep a single apply-batch statement in
// the generated host output to a tractable size, not for correctness.
const MaxPending = 25

// Sink receives one completed batch per flush: the offset and length of the
// batch within the whole stream, plus the arguments attached to its action
// records, in record order.
type Sink interface {
	ApplyBatch(offset, length int, args []string)
}

// Stream is the append-only sequence of literal 32-bit words and action
// records produced for one compilation unit. Entries accumulate for the
// lifetime of the unit; Flush hands off batches to the Sink but never
// discards entries, since the stream array itself is rendered once at the
// unit's stream output point.
type Stream struct {
	entries []uint32
	args    []string

	// batchBase is the index of the first entry of the unflushed batch.
	batchBase int
	// pending counts argument-carrying actions in the unflushed batch.
	pending int
	// terminal records whether the last appended entry already terminates
	// the batch (a section switch), so Flush must not add a terminator.
	terminal bool

	sink Sink
}

// NewStream constructs an empty stream draining into sink.
func NewStream(sink Sink) *Stream {
	return &Stream{sink: sink}
}

// Len returns the number of entries appended so far.
func (s *Stream) Len() int { return len(s.entries) }

// Entries returns the whole stream for rendering. The slice aliases the
// stream's storage and remains valid only until the next append.
func (s *Stream) Entries() []uint32 { return s.entries }

// Pending returns the number of argument-carrying actions buffered since
// the last flush.
func (s *Stream) Pending() int { return s.pending }

// AppendWord appends a literal data word. A word whose value could be
// misread as an action record is preceded by an escape marker so the
// consumer never needs lookahead to disambiguate.
func (s *Stream) AppendWord(v uint32) {
	if v < ambiguousLimit {
		s.entries = append(s.entries, actionEntry(ActionEscape, 0))
	}
	s.entries = append(s.entries, v)
	s.terminal = false
}

// AppendAction appends an action record carrying no argument. Such a record
// does not consume a pending slot.
func (s *Stream) AppendAction(kind ActionKind, payload uint16) {
	s.entries = append(s.entries, actionEntry(kind, payload))
	s.terminal = kind == ActionSection
}

// AppendActionArg appends an action record with its attached argument,
// consuming one pending slot.
func (s *Stream) AppendActionArg(kind ActionKind, payload uint16, arg string) {
	s.AppendAction(kind, payload)
	s.args = append(s.args, arg)
	s.pending++
}

// ReserveSlot appends a placeholder for a word whose value is only known
// after further parsing within the same instruction, returning its index
// for CommitSlot.
func (s *Stream) ReserveSlot() int {
	s.entries = append(s.entries, 0)
	s.terminal = false
	return len(s.entries) - 1
}

// CommitSlot overwrites a previously reserved slot. Reserved slots hold
// instruction words, whose primary opcode keeps them out of the ambiguous
// range; a value that would need escaping cannot be committed in place.
func (s *Stream) CommitSlot(slot int, v uint32) error {
	if slot < 0 || slot >= len(s.entries) {
		return fmt.Errorf("internal: commit of unreserved slot %d", slot)
	}
	if v < ambiguousLimit {
		return fmt.Errorf("internal: word %#08x committed to slot %d needs an escape marker", v, slot)
	}
	s.entries[slot] = v
	return nil
}

// EnsureRoom flushes the current batch if encoding something that may
// consume up to n more pending slots could exceed MaxPending.
func (s *Stream) EnsureRoom(n int) {
	if s.pending+n > MaxPending {
		s.Flush(false)
	}
}

// Flush finalizes the current batch: appends a terminator unless the caller
// already appended a terminal action (terminal true, or the last entry was
// a section switch), hands the batch to the sink, and resets the batch
// accounting. Flushing an empty batch is a no-op.
func (s *Stream) Flush(terminal bool) {
	if s.batchBase == len(s.entries) {
		return
	}
	if !terminal && !s.terminal {
		s.AppendAction(ActionTerminate, 0)
	}
	s.sink.ApplyBatch(s.batchBase, len(s.entries)-s.batchBase, s.args)
	s.batchBase = len(s.entries)
	s.args = nil
	s.pending = 0
	s.terminal = false
}
