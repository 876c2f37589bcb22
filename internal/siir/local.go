package siir

// Linkage describes the external visibility of a Global or Function.
type Linkage uint8

const (
	// LinkageExternal is visible outside the translation unit.
	LinkageExternal Linkage = iota
	// LinkageInternal is only visible within the translation unit.
	LinkageInternal
)

// Local is a stack-allocated slot within a Function. Its Type is always a
// pointer to the type it was allocated as (AllocatedType); loads/stores
// through it use that pointer. The SSA construction pass may delete a Local
// outright once every use has been rewritten into pure SSA values.
type Local struct {
	ValueBase
	Name          string
	AllocatedType Type
	Align         uint64

	parent *Function
	prev, next *Local
}

func (*Local) ReplaceAllUsesWith(other Value) {
	panic("statim: invariant violated: Local values are not rewired via ReplaceAllUsesWith")
}

func newLocal(name string, allocatedType Type, align uint64) *Local {
	return &Local{
		ValueBase:     newValueBase(ValueKindLocal, nil),
		Name:          name,
		AllocatedType: allocatedType,
		Align:         align,
	}
}

// Global is a named top-level pointer-typed value, optionally initialized
// with a constant and carrying a linkage.
type Global struct {
	ValueBase
	Name        string
	PointeeType Type
	Init        Constant // nil if uninitialized (e.g. extern declaration)
	Linkage     Linkage
}

func (g *Global) ReplaceAllUsesWith(other Value) { replaceAllUsesWith(g, &g.ValueBase, other) }

// Argument is a numbered parameter of a Function.
type Argument struct {
	ValueBase
	Index int
}

func (a *Argument) ReplaceAllUsesWith(other Value) { replaceAllUsesWith(a, &a.ValueBase, other) }

func newArgument(index int, typ Type) *Argument {
	return &Argument{ValueBase: newValueBase(ValueKindArgument, typ), Index: index}
}
