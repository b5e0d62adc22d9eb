package ppc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dyngen/ppcasm/internal/asm"
)

// regClass describes one register namespace: its operand prefix, the
// highest valid index, and the name used in diagnostics.
type regClass struct {
	prefix string
	limit  uint32
	name   string
}

var (
	gprClass = regClass{"r", 31, "general register"}
	fprClass = regClass{"f", 31, "floating-point register"}
	vrClass  = regClass{"v", 31, "vector register"}
	vsrClass = regClass{"vs", 63, "vector-scalar register"}
	crClass  = regClass{"cr", 7, "condition register"}
)

// parse validates text as a register of the class and returns its index.
func (c regClass) parse(text string) (uint32, error) {
	if !strings.HasPrefix(text, c.prefix) {
		return 0, fmt.Errorf("expected %s, found %q", c.name, text)
	}
	n, err := strconv.ParseUint(text[len(c.prefix):], 10, 32)
	if err != nil || uint32(n) > c.limit {
		return 0, fmt.Errorf("bad %s %q: index must be 0-%d", c.name, text, c.limit)
	}
	return uint32(n), nil
}

// parsePair is parse plus the even-index requirement of paired operands.
func (c regClass) parsePair(text string) (uint32, error) {
	n, err := c.parse(text)
	if err != nil {
		return 0, err
	}
	if n%2 != 0 {
		return 0, fmt.Errorf("misaligned register pair %q: index must be even", text)
	}
	return n, nil
}

// looksLikeRegister reports whether text has the shape of a register
// operand of any class. Used to reject registers where an immediate is
// required.
func looksLikeRegister(text string) bool {
	for _, c := range []regClass{vsrClass, crClass, gprClass, fprClass, vrClass} {
		if _, err := c.parse(text); err == nil {
			return true
		}
	}
	return false
}

// parseIndirectGPR accepts a plain general register or the indirect syntax
// built on a type alias: "alias" uses the alias's default register,
// "alias:rN" overrides it. An alias without a default and without an
// override is an error.
func (a *Assembler) parseIndirectGPR(text string) (uint32, error) {
	if strings.HasPrefix(text, "r") {
		if n, err := gprClass.parse(text); err == nil {
			return n, nil
		}
	}
	name, reg := text, ""
	if i := strings.IndexByte(text, ':'); i >= 0 {
		name, reg = text[:i], text[i+1:]
	}
	alias, ok := a.types.Lookup(name)
	if !ok {
		return 0, fmt.Errorf("expected general register or type alias, found %q", text)
	}
	if reg == "" {
		reg = alias.DefaultReg
	}
	if reg == "" {
		return 0, fmt.Errorf("type alias %q declares no default register and %q supplies none", name, text)
	}
	return gprClass.parse(reg)
}

// immField is the geometry of one immediate field: bit width, destination
// shift, power-of-two scale divided out of the value before encoding, and
// signedness.
type immField struct {
	width  uint
	shift  uint
	scale  int64
	signed bool
}

// immediate turns operand text into the shifted field encoding. A
// register-shaped token is a type error. A token that is neither numeric
// nor a register is a deferred symbolic immediate: a patch action carrying
// the field geometry is recorded and the word under construction gets a
// zero placeholder.
func (a *Assembler) immediate(text string, f immField) (uint32, error) {
	if looksLikeRegister(text) {
		return 0, fmt.Errorf("expected immediate, found register %q", text)
	}
	v, err := strconv.ParseInt(text, 0, 64)
	if err != nil {
		payload, perr := asm.PatchPayload(f.width, f.shift, uint32(f.scale), f.signed)
		if perr != nil {
			return 0, perr
		}
		a.stream.AppendActionArg(asm.ActionPatch, payload, text)
		return 0, nil
	}
	return encodeImmediate(text, v, f)
}

// encodeImmediate scales, range-checks and shifts a known value.
func encodeImmediate(text string, v int64, f immField) (uint32, error) {
	if f.scale > 1 {
		if v%f.scale != 0 {
			return 0, fmt.Errorf("immediate %q is not a multiple of %d", text, f.scale)
		}
		v /= f.scale
	}
	// Two's-complement range check: a signed value fits iff the bits above
	// the field are all equal to the sign bit; an unsigned value fits iff
	// they are all zero.
	if f.signed {
		if s := v >> (f.width - 1); s != 0 && s != -1 {
			return 0, fmt.Errorf("immediate %q out of range for signed %d-bit field", text, f.width)
		}
	} else {
		if v < 0 || v>>f.width != 0 {
			return 0, fmt.Errorf("immediate %q out of range for unsigned %d-bit field", text, f.width)
		}
	}
	mask := uint32(1)<<f.width - 1
	return (uint32(v) & mask) << f.shift, nil
}

// displacement parses the memory-operand forms and returns the base
// register and offset bits, with the base field placed at shift rs:
//
//	imm(rN)         numeric or deferred-symbolic offset
//	alias:rN member offset patched through the alias's native type
//	alias member    as above, using the alias's default register
//
// The base register r0 is architecturally reserved as a displacement base
// and rejected.
func (a *Assembler) displacement(text string, rs uint, f immField) (uint32, error) {
	if i := strings.IndexByte(text, '('); i >= 0 && strings.HasSuffix(text, ")") {
		base, err := gprClass.parse(text[i+1 : len(text)-1])
		if err != nil {
			return 0, err
		}
		if base == 0 {
			return 0, fmt.Errorf("r0 cannot be a displacement base in %q", text)
		}
		offText := text[:i]
		if offText == "" {
			offText = "0"
		}
		off, err := a.immediate(offText, f)
		if err != nil {
			return 0, err
		}
		return base<<rs | off, nil
	}

	head, member := text, ""
	if i := strings.IndexByte(text, ' '); i >= 0 {
		head, member = text[:i], strings.TrimSpace(text[i+1:])
	}
	base, err := a.parseIndirectGPR(head)
	if err != nil {
		return 0, fmt.Errorf("bad displacement operand %q: %w", text, err)
	}
	if base == 0 {
		return 0, fmt.Errorf("r0 cannot be a displacement base in %q", text)
	}
	if member != "" {
		name := head
		if i := strings.IndexByte(name, ':'); i >= 0 {
			name = name[:i]
		}
		alias, ok := a.types.Lookup(name)
		if !ok {
			return 0, fmt.Errorf("bad displacement operand %q: %q is not a type alias", text, name)
		}
		payload, err := asm.PatchPayload(f.width, f.shift, uint32(f.scale), f.signed)
		if err != nil {
			return 0, err
		}
		a.stream.AppendActionArg(asm.ActionPatch, payload, fmt.Sprintf("offsetof(%s, %s)", alias.CType, member))
	}
	return base << rs, nil
}

// conditionBitNames maps the condition names of the combined
// "4*crN+cond" syntax to their bit within a condition register field.
var conditionBitNames = map[string]uint32{"lt": 0, "gt": 1, "eq": 2, "so": 3, "un": 3}

// parseConditionBit parses the combined condition-bit syntax "4*crN+cond"
// (or a plain bit number 0-31) into a 5-bit index.
func parseConditionBit(text string) (uint32, error) {
	if rest, ok := strings.CutPrefix(text, "4*"); ok {
		crText, cond, ok := strings.Cut(rest, "+")
		if !ok {
			return 0, fmt.Errorf("bad condition bit %q: want 4*crN+cond", text)
		}
		cr, err := crClass.parse(crText)
		if err != nil {
			return 0, err
		}
		bit, ok := conditionBitNames[cond]
		if !ok {
			return 0, fmt.Errorf("bad condition name %q in %q", cond, text)
		}
		return 4*cr + bit, nil
	}
	n, err := strconv.ParseUint(text, 0, 32)
	if err != nil || n > 31 {
		return 0, fmt.Errorf("bad condition bit %q: want 4*crN+cond or 0-31", text)
	}
	return uint32(n), nil
}

// splitField10 optionally permutes a 10-bit value into its two 5-bit
// halves swapped, as required by the split special-register field
// encodings. The permutation mode is fixed per field code, never
// data-dependent.
func splitField10(v uint32, permute bool) uint32 {
	if !permute {
		return v
	}
	return (v&0x1f)<<5 | v>>5
}
