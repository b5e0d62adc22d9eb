// Package asm holds the architecture-independent core of the assembler
// back end: the action stream buffer, the label namespaces, the type-alias
// table and the host capability interface. Architecture backends (see the
// ppc subpackage) drive these to produce the word/action stream consumed
// by the external runtime patcher.
package asm

import "fmt"

// ActionKind identifies one typed record in the action stream. The numeric
// values are the wire format shared with the external patcher and must
// never be renumbered.
type ActionKind uint16

const (
	// ActionTerminate ends the current batch of the stream.
	ActionTerminate ActionKind = iota
	// ActionSection switches the output section; it is terminal like
	// ActionTerminate.
	ActionSection
	// ActionEscape marks the next stream entry as a literal data word even
	// if its value would otherwise parse as an action record.
	ActionEscape
	// ActionExtern requests relocation against an externally-resolved
	// symbol; payload is the extern number.
	ActionExtern
	// ActionAlign requests alignment padding; payload is the alignment in
	// bytes.
	ActionAlign
	// ActionLocalReloc / ActionGlobalReloc request patching of the
	// preceding instruction word with a label address.
	ActionLocalReloc
	ActionGlobalReloc
	// ActionLocalDef / ActionGlobalDef bind a label number to the current
	// stream position.
	ActionLocalDef
	ActionGlobalDef
	// ActionPCReloc / ActionPCDef are the program-counter-relative
	// flavors used by branch encodings.
	ActionPCReloc
	ActionPCDef
	// ActionPatch is the generic immediate patch: payload carries the
	// field geometry (see PatchPayload), the attached argument carries the
	// host expression producing the value.
	ActionPatch

	numActionKinds = iota
)

var actionKindNames = [numActionKinds]string{
	"terminate", "section", "escape", "extern", "align",
	"local-reloc", "global-reloc", "local-def", "global-def",
	"pc-reloc", "pc-def", "patch",
}

// String implements fmt.Stringer.
func (k ActionKind) String() string {
	if int(k) < len(actionKindNames) {
		return actionKindNames[k]
	}
	return fmt.Sprintf("action(%d)", uint16(k))
}

// An action record is encoded in the stream as kind<<16 | payload. Any
// literal word below ambiguousLimit could be misread as such a record by a
// stream consumer, so AppendWord escapes it.
const ambiguousLimit = uint32(numActionKinds) << 16

func actionEntry(kind ActionKind, payload uint16) uint32 {
	return uint32(kind)<<16 | uint32(payload)
}

// PatchPayload packs the geometry of a deferred immediate field into the
// 16-bit payload of an ActionPatch record: sign<<13 | log2(scale)<<10 |
// shift<<5 | width.
func PatchPayload(width, shift uint, scale uint32, signed bool) (uint16, error) {
	if width == 0 || width > 31 {
		return 0, fmt.Errorf("patch field width %d out of range", width)
	}
	if shift > 31 {
		return 0, fmt.Errorf("patch field shift %d out of range", shift)
	}
	scaleLog := uint(0)
	for s := scale; s > 1; s >>= 1 {
		scaleLog++
	}
	if scale == 0 || uint32(1)<<scaleLog != scale || scaleLog > 7 {
		return 0, fmt.Errorf("patch field scale %d is not a supported power of two", scale)
	}
	p := uint16(width) | uint16(shift)<<5 | uint16(scaleLog)<<10
	if signed {
		p |= 1 << 13
	}
	return p, nil
}
