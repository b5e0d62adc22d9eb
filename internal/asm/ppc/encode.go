// Package ppc is the PowerPC back end: operand parsers, the opcode-template
// table, and the bitfield template interpreter that packs operands into
// 32-bit instruction words and emits relocation actions for everything that
// can only be resolved at patch time.
package ppc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dyngen/ppcasm/internal/asm"
)

// fieldStart is the bit position just above the 6-bit primary opcode; the
// rolling field cursor starts here and moves down as register fields are
// placed.
const fieldStart = 26

// Assembler encodes instructions for one compilation unit. It owns no
// state of its own beyond the immutable template table; labels, types and
// the stream belong to the unit and are shared with the pseudo-operations.
type Assembler struct {
	table   map[string]string
	stream  *asm.Stream
	globals *asm.LabelTable
	externs *asm.LabelTable
	types   *asm.TypeTable
}

// NewAssembler constructs a backend over the unit's tables and stream.
func NewAssembler(stream *asm.Stream, globals, externs *asm.LabelTable, types *asm.TypeTable) *Assembler {
	return &Assembler{
		table:   opcodeTable(),
		stream:  stream,
		globals: globals,
		externs: externs,
		types:   types,
	}
}

// Templates returns the derived template table, keyed by
// "<mnemonic>_<arity>". Exposed for the debug dump.
func (a *Assembler) Templates() map[string]string { return a.table }

// Encode assembles one instruction into the stream. On any operand error
// the whole instruction fails and the unit must be aborted; no completed
// word is ever committed for a failing instruction.
func (a *Assembler) Encode(mnemonic string, operands []string) error {
	key := strings.ToLower(mnemonic) + "_" + strconv.Itoa(len(operands))
	tmpl, ok := a.table[key]
	if !ok {
		return fmt.Errorf("unknown instruction %q with %d operands", mnemonic, len(operands))
	}
	// Force a flush up front if this instruction could overrun the
	// pending-argument ceiling of a single batch. Each operand can emit at
	// most one argument-carrying action.
	a.stream.EnsureRoom(len(operands))
	return a.interpret(tmpl, operands)
}

// gprOperand remembers a parsed general-register operand for the
// structural register-zero check.
type gprOperand struct {
	value uint32
	text  string
}

// interpret walks one template: 8 hex digits of base opcode followed by
// single-character field codes. Exactly one word is committed at the slot
// reserved up front (two for the paired-expansion code).
func (a *Assembler) interpret(tmpl string, operands []string) error {
	if len(tmpl) < 8 {
		return fmt.Errorf("internal: malformed template %q", tmpl)
	}
	base, err := strconv.ParseUint(tmpl[:8], 16, 32)
	if err != nil {
		return fmt.Errorf("internal: bad base opcode in template %q", tmpl)
	}

	op := uint32(base)
	rs := uint(fieldStart)
	n := 0
	slot := a.stream.ReserveSlot()

	next := func() (string, error) {
		if n >= len(operands) {
			return "", fmt.Errorf("internal: template %q consumes more than %d operands", tmpl, len(operands))
		}
		o := operands[n]
		n++
		return o, nil
	}

	var gprs []gprOperand
	var vsrHigh uint32
	pairExpand := false
	dispDeferred := false
	var dispText string

	for _, code := range []byte(tmpl[8:]) {
		var text string
		switch code {
		case 'R', 'P', 'F', 'Q', 'V', 'X', 'C', 'c', 'I', 'i', 'u', 'o', 'D', 'L', 'l', 'E', 'J', 'j':
			if text, err = next(); err != nil {
				return err
			}
		}

		switch code {
		case 'R': // general register at the rolling cursor
			rs -= 5
			v, err := a.parseIndirectGPR(text)
			if err != nil {
				return err
			}
			op |= v << rs
			gprs = append(gprs, gprOperand{v, text})

		case 'P': // even general register pair
			rs -= 5
			v, err := gprClass.parsePair(text)
			if err != nil {
				return err
			}
			op |= v << rs
			gprs = append(gprs, gprOperand{v, text})

		case 'F': // floating-point register
			rs -= 5
			v, err := fprClass.parse(text)
			if err != nil {
				return err
			}
			op |= v << rs

		case 'Q': // even floating-point register pair
			rs -= 5
			v, err := fprClass.parsePair(text)
			if err != nil {
				return err
			}
			op |= v << rs

		case 'V': // vector register
			rs -= 5
			v, err := vrClass.parse(text)
			if err != nil {
				return err
			}
			op |= v << rs

		case 'X': // vector-scalar register: low 5 bits here, bit 5 held for 'h'
			rs -= 5
			v, err := vsrClass.parse(text)
			if err != nil {
				return err
			}
			op |= (v & 0x1f) << rs
			vsrHigh = v >> 5

		case 'C': // condition register field (3 bits)
			rs -= 3
			v, err := crClass.parse(text)
			if err != nil {
				return err
			}
			op |= v << rs

		case 'c': // condition bit, 4*crN+cond
			rs -= 5
			v, err := parseConditionBit(text)
			if err != nil {
				return err
			}
			op |= v << rs

		case 'I': // signed 16-bit immediate at bits 0-15
			v, err := a.immediate(text, immField{width: 16, scale: 1, signed: true})
			if err != nil {
				return err
			}
			op |= v

		case 'i': // unsigned 16-bit immediate at bits 0-15
			v, err := a.immediate(text, immField{width: 16, scale: 1})
			if err != nil {
				return err
			}
			op |= v

		case 'u': // unsigned 5-bit immediate at the rolling cursor
			rs -= 5
			v, err := a.immediate(text, immField{width: 5, shift: rs, scale: 1})
			if err != nil {
				return err
			}
			op |= v

		case 'o': // 10-bit split field, halves permuted
			rs -= 10
			v, err := strconv.ParseUint(text, 0, 32)
			if err != nil || v > 1023 {
				return fmt.Errorf("bad special-purpose register number %q", text)
			}
			op |= splitField10(uint32(v), true) << rs

		case 'D': // displacement: base register at the cursor, offset at 0-15
			rs -= 5
			pendingBefore := a.stream.Pending()
			v, err := a.displacement(text, rs, immField{width: 16, scale: 1, signed: true})
			if err != nil {
				return err
			}
			op |= v
			// A symbolic offset left a patch action behind; a paired
			// expansion cannot derive its second word from the placeholder.
			if a.stream.Pending() != pendingBefore {
				dispDeferred, dispText = true, text
			}

		case 'L': // global label relocation
			num, err := a.globals.Get(text)
			if err != nil {
				return err
			}
			a.stream.AppendActionArg(asm.ActionGlobalReloc, num, strconv.Quote(text))

		case 'l': // local label relocation
			num, err := asm.ParseLocalRef(text)
			if err != nil {
				return err
			}
			a.stream.AppendAction(asm.ActionLocalReloc, num)

		case 'E': // extern relocation
			num, err := a.externs.Get(text)
			if err != nil {
				return err
			}
			a.stream.AppendActionArg(asm.ActionExtern, num, strconv.Quote(text))

		case 'J', 'j': // pc-relative branch target, local or global by syntax
			if asm.IsLocalRef(text) {
				num, _ := asm.ParseLocalRef(text)
				a.stream.AppendAction(asm.ActionPCReloc, num)
			} else {
				num, err := a.globals.Get(text)
				if err != nil {
					return err
				}
				a.stream.AppendActionArg(asm.ActionPCReloc, num, strconv.Quote(text))
			}

		case '0': // no general register operand so far may be r0
			for _, g := range gprs {
				if g.value == 0 {
					return fmt.Errorf("register %q not allowed: r0 is forbidden in this position", g.text)
				}
			}

		case 'z': // exchange the fields at bits 21-25 and 16-20
			hi := op >> 21 & 0x1f
			lo := op >> 16 & 0x1f
			op = op&^(0x3ff<<16) | lo<<21 | hi<<16

		case 'S': // copy the field at bits 21-25 also into bits 11-15
			op |= (op >> 21 & 0x1f) << 11

		case 's': // spacer: skip one 5-bit field, no bit effect
			rs -= 5

		case 't': // spacer: skip two bits, no bit effect
			rs -= 2

		case 'h': // place the held vector-scalar high bit at bit 0
			op |= vsrHigh

		case 'y':
			// Reserved. Kept as a no-op for template-table compatibility.

		case '@': // paired expansion: emit a second word after commit
			pairExpand = true

		default:
			return fmt.Errorf("internal: unknown field code %q in template %q", code, tmpl)
		}
	}

	if n != len(operands) {
		return fmt.Errorf("internal: template %q left %d operands unconsumed", tmpl, len(operands)-n)
	}
	var second uint32
	if pairExpand {
		if dispDeferred {
			return fmt.Errorf("paired expansion needs a known displacement, %q defers to a patch", dispText)
		}
		if second, err = pairSecondWord(op); err != nil {
			return err
		}
	}
	if err := a.stream.CommitSlot(slot, op); err != nil {
		return err
	}
	if pairExpand {
		a.stream.AppendWord(second)
	}
	return nil
}

// pairSecondWord derives the second word of a paired load/store expansion:
// the target register field advances to the odd half of the pair and the
// displacement moves one word forward, which must stay within the signed
// 16-bit field.
func pairSecondWord(op uint32) (uint32, error) {
	disp := int32(int16(op & 0xffff))
	if disp+4 > 0x7fff {
		return 0, fmt.Errorf("displacement %d leaves no room for the second word of a paired access", disp)
	}
	reg := (op>>21 + 1) & 0x1f
	return op&^(0x1f<<21)&^uint32(0xffff) | reg<<21 | uint32(disp+4)&0xffff, nil
}
