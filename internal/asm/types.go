package asm

import "fmt"

// TypeAlias maps a symbolic name to a native (C-compatible) type string
// and, optionally, a default register for the indirect register syntax
// "alias:rN". Populated once per compilation unit, immutable afterward.
type TypeAlias struct {
	Name  string
	CType string
	// DefaultReg is the register used when the operand names the alias
	// without an explicit register override, e.g. "r3". Empty means none.
	DefaultReg string
}

// TypeTable holds the per-unit type aliases.
type TypeTable struct {
	aliases map[string]*TypeAlias
}

// NewTypeTable constructs an empty alias table.
func NewTypeTable() *TypeTable {
	return &TypeTable{aliases: map[string]*TypeAlias{}}
}

// Define registers an alias. Redefinition is fatal.
func (t *TypeTable) Define(name, ctype, defaultReg string) error {
	if !isIdentifier(name) {
		return fmt.Errorf("bad type alias name %q", name)
	}
	if _, ok := t.aliases[name]; ok {
		return fmt.Errorf("type alias %q already defined", name)
	}
	t.aliases[name] = &TypeAlias{Name: name, CType: ctype, DefaultReg: defaultReg}
	return nil
}

// Lookup returns the alias registered under name, if any.
func (t *TypeTable) Lookup(name string) (*TypeAlias, bool) {
	a, ok := t.aliases[name]
	return a, ok
}
