// Package ppcasm is a PowerPC back end for a host meta-assembler: it turns
// mnemonic+operand calls into a stream of 32-bit machine words interleaved
// with relocation actions, plus symbol tables for global, local and extern
// labels, and renders everything to host source fragments through an
// injected capability interface. The action stream is executed later by an
// external patcher that substitutes runtime addresses into the emitted
// code.
package ppcasm

import (
	"fmt"
	"strconv"

	"github.com/dyngen/ppcasm/internal/asm"
	"github.com/dyngen/ppcasm/internal/asm/ppc"
)

// Unit is one compilation-unit context. All tables and the action stream
// belong to it; nothing survives across units and independent units must
// not share a Unit. A Unit is not safe for concurrent use.
type Unit struct {
	host    Host
	stream  *asm.Stream
	globals *asm.LabelTable
	externs *asm.LabelTable
	types   *asm.TypeTable
	out     *asm.Serializer
	backend *ppc.Assembler
}

// NewUnit constructs a fresh compilation-unit context.
func NewUnit(config *Config) (*Unit, error) {
	if config == nil || config.host == nil {
		return nil, fmt.Errorf("ppcasm: a host must be configured")
	}
	u := &Unit{
		host:    config.host,
		globals: asm.NewGlobalLabels(),
		externs: asm.NewExternLabels(),
		types:   asm.NewTypeTable(),
		out:     asm.NewSerializer(config.host),
	}
	u.stream = asm.NewStream(u.out)
	u.backend = ppc.NewAssembler(u.stream, u.globals, u.externs, u.types)
	return u, nil
}

// fail reports err through the host and returns it. All failures are fatal
// to the unit; the caller must stop feeding it instructions.
func (u *Unit) fail(err error) error {
	if err != nil {
		u.host.Report(err)
	}
	return err
}

// Encode assembles one instruction.
func (u *Unit) Encode(mnemonic string, operands ...string) error {
	return u.fail(u.backend.Encode(mnemonic, operands))
}

// Templates returns the derived opcode-template table, for debug dumps.
func (u *Unit) Templates() map[string]string {
	return u.backend.Templates()
}

// DefineLabel binds a label to the current stream position: a digit 1-9
// defines a local label, anything else a global label.
func (u *Unit) DefineLabel(text string) error {
	if asm.IsLocalLabel(text) {
		n, _ := asm.ParseLocalDef(text)
		u.stream.AppendAction(asm.ActionLocalDef, n)
		return nil
	}
	n, err := u.globals.Get(text)
	if err != nil {
		return u.fail(err)
	}
	u.stream.EnsureRoom(1)
	u.stream.AppendActionArg(asm.ActionGlobalDef, n, strconv.Quote(text))
	return nil
}

// DefinePC binds a program-counter-relative definition to the current
// stream position, with the same local/global syntax as DefineLabel.
func (u *Unit) DefinePC(text string) error {
	if asm.IsLocalLabel(text) {
		n, _ := asm.ParseLocalDef(text)
		u.stream.AppendAction(asm.ActionPCDef, n)
		return nil
	}
	n, err := u.globals.Get(text)
	if err != nil {
		return u.fail(err)
	}
	u.stream.EnsureRoom(1)
	u.stream.AppendActionArg(asm.ActionPCDef, n, strconv.Quote(text))
	return nil
}

// RawWords appends literal data words to the stream.
func (u *Unit) RawWords(words ...uint32) {
	for _, w := range words {
		u.stream.AppendWord(w)
	}
}

// Align requests alignment padding. The value must be a power of two
// between 4 and 4096.
func (u *Unit) Align(n uint32) error {
	if n < 4 || n > 4096 || n&(n-1) != 0 {
		return u.fail(fmt.Errorf("bad alignment %d: want a power of two in 4..4096", n))
	}
	u.stream.AppendAction(asm.ActionAlign, uint16(n))
	return nil
}

// DefineType registers a type alias for the indirect register and
// displacement syntax. defaultReg may be empty.
func (u *Unit) DefineType(name, ctype, defaultReg string) error {
	return u.fail(u.types.Define(name, ctype, defaultReg))
}

// SwitchSection emits a section-switch action and forces a terminal flush;
// switching sections never leaves a partial batch pending.
func (u *Unit) SwitchSection(section uint16) {
	u.stream.AppendAction(asm.ActionSection, section)
	u.stream.Flush(true)
}

// Flush finalizes the currently buffered batch, if any.
func (u *Unit) Flush() {
	u.stream.Flush(false)
}

// MarkStreamOutput schedules the word/action array at the current output
// position.
func (u *Unit) MarkStreamOutput() {
	u.out.StreamOutputPoint(u.stream)
}

// MarkGlobalEnumOutput schedules the global label enum at the current
// output position.
func (u *Unit) MarkGlobalEnumOutput() {
	u.out.GlobalEnumOutputPoint(u.globals)
}

// MarkGlobalNamesOutput schedules the global label name table at the
// current output position.
func (u *Unit) MarkGlobalNamesOutput() {
	u.out.GlobalNamesOutputPoint(u.globals)
}

// MarkExternNamesOutput schedules the extern name table at the current
// output position.
func (u *Unit) MarkExternNamesOutput() {
	u.out.ExternNamesOutputPoint(u.externs)
}

// Finish flushes whatever remains buffered. The host renders its deferred
// output points after this returns.
func (u *Unit) Finish() {
	u.stream.Flush(false)
}
