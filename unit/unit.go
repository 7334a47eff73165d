// Package unit defines the compiled unit type that module loaders define
// and cache. A Unit is immutable after creation and safe for concurrent
// use, so a single Unit may be shared by every caller that resolved it.
package unit

// Unit represents one named, loadable piece of compiled logic extracted
// from a module's raw bytes.
type Unit struct {
	name         string
	constants    []any
	symbols      []string
	instructions []uint32
}

// Params contains parameters for creating a new Unit.
type Params struct {
	Name         string
	Constants    []any
	Symbols      []string // Names of symbols this unit references
	Instructions []uint32
}

// New creates a new immutable Unit from the given parameters. Input slices
// are copied, so the caller may reuse them afterwards.
func New(params Params) *Unit {
	return &Unit{
		name:         params.Name,
		constants:    copyAny(params.Constants),
		symbols:      copyStrings(params.Symbols),
		instructions: copyInstructions(params.Instructions),
	}
}

// Name returns the symbol name this unit is registered under.
func (u *Unit) Name() string {
	return u.name
}

// ConstantCount returns the number of constants.
func (u *Unit) ConstantCount() int {
	return len(u.constants)
}

// ConstantAt returns the constant at the given index.
func (u *Unit) ConstantAt(index int) any {
	return u.constants[index]
}

// SymbolCount returns the number of referenced symbol names.
func (u *Unit) SymbolCount() int {
	return len(u.symbols)
}

// SymbolAt returns the referenced symbol name at the given index.
func (u *Unit) SymbolAt(index int) string {
	return u.symbols[index]
}

// Symbols returns a copy of all referenced symbol names.
func (u *Unit) Symbols() []string {
	if len(u.symbols) == 0 {
		return nil
	}
	return copyStrings(u.symbols)
}

// InstructionCount returns the number of instructions.
func (u *Unit) InstructionCount() int {
	return len(u.instructions)
}

// InstructionAt returns the instruction at the given index.
func (u *Unit) InstructionAt(index int) uint32 {
	return u.instructions[index]
}

// Stats holds summary statistics for a unit, used by inspection tooling.
type Stats struct {
	ConstantCount    int
	SymbolCount      int
	InstructionCount int
}

// Stats returns summary statistics about this unit.
func (u *Unit) Stats() Stats {
	return Stats{
		ConstantCount:    len(u.constants),
		SymbolCount:      len(u.symbols),
		InstructionCount: len(u.instructions),
	}
}
