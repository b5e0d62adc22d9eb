package asm

import "fmt"

// Label numbering policy, shared by the global and extern namespaces: the
// next number to hand out and the inclusive cap of the namespace.
const (
	globalLabelBase  = 20
	labelNumberLimit = 2047
	externLabelBase  = 0
)

// LabelTable is a get-or-create namespace of named labels with
// auto-assigned, strictly increasing numbers. Used for the global and
// extern namespaces; local labels are purely syntactic (see ParseLocalRef).
type LabelTable struct {
	kind    string // for diagnostics: "global" or "extern"
	numbers map[string]uint16
	order   []string // names in assignment order, for name-table output
	next    int
	limit   int
	// identifiers restricts names to the identifier grammar (global
	// namespace only).
	identifiers bool
}

// NewGlobalLabels constructs the global namespace: identifiers only,
// numbered from 20 up to 2047.
func NewGlobalLabels() *LabelTable {
	return &LabelTable{
		kind:        "global",
		numbers:     map[string]uint16{},
		next:        globalLabelBase,
		limit:       labelNumberLimit,
		identifiers: true,
	}
}

// NewExternLabels constructs the extern namespace: unrestricted names,
// numbered from 0 up to 2047.
func NewExternLabels() *LabelTable {
	return &LabelTable{
		kind:    "extern",
		numbers: map[string]uint16{},
		next:    externLabelBase,
		limit:   labelNumberLimit,
	}
}

// Get returns the number for name, assigning the next free number on first
// reference. Re-referencing a known name is idempotent. Exhausting the
// namespace is fatal.
func (t *LabelTable) Get(name string) (uint16, error) {
	if n, ok := t.numbers[name]; ok {
		return n, nil
	}
	if name == "" {
		return 0, fmt.Errorf("empty %s label name", t.kind)
	}
	if t.identifiers && !isIdentifier(name) {
		return 0, fmt.Errorf("bad %s label name %q", t.kind, name)
	}
	if t.next > t.limit {
		return 0, fmt.Errorf("too many %s labels: %q would exceed %d", t.kind, name, t.limit)
	}
	n := uint16(t.next)
	t.next++
	t.numbers[name] = n
	t.order = append(t.order, name)
	return n, nil
}

// Base returns the first number the table hands out.
func (t *LabelTable) Base() int { return t.firstNumber() }

func (t *LabelTable) firstNumber() int {
	if t.identifiers {
		return globalLabelBase
	}
	return externLabelBase
}

// Names returns the label names in number order.
func (t *LabelTable) Names() []string { return t.order }

// Len returns the number of labels assigned so far.
func (t *LabelTable) Len() int { return len(t.order) }

func isIdentifier(s string) bool {
	for i, c := range s {
		switch {
		case c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return len(s) > 0
}

// Local labels occupy the fixed digits 1-9. A definition site and a
// backward reference both encode as n+10; a forward reference encodes as n.
// The distinction between definition and backward reference lives entirely
// in the action kind wrapping the number.

// ParseLocalRef resolves a local label reference: ">n" (forward) to n,
// "<n" (backward) to n+10.
func ParseLocalRef(text string) (uint16, error) {
	if len(text) != 2 || (text[0] != '<' && text[0] != '>') {
		return 0, fmt.Errorf("bad local label reference %q", text)
	}
	n, err := localDigit(text[1:])
	if err != nil {
		return 0, err
	}
	if text[0] == '<' {
		return n + 10, nil
	}
	return n, nil
}

// ParseLocalDef resolves a local label definition site "n" to n+10.
func ParseLocalDef(text string) (uint16, error) {
	n, err := localDigit(text)
	if err != nil {
		return 0, err
	}
	return n + 10, nil
}

// IsLocalLabel reports whether text is a bare local label digit.
func IsLocalLabel(text string) bool {
	_, err := localDigit(text)
	return err == nil
}

// IsLocalRef reports whether text is a local label reference.
func IsLocalRef(text string) bool {
	_, err := ParseLocalRef(text)
	return err == nil
}

func localDigit(text string) (uint16, error) {
	if len(text) != 1 || text[0] < '1' || text[0] > '9' {
		return 0, fmt.Errorf("bad local label %q: want a digit 1-9", text)
	}
	return uint16(text[0] - '0'), nil
}
