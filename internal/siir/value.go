package siir

// ValueKind discriminates the variants of Value.
type ValueKind uint8

const (
	ValueKindConstant ValueKind = iota
	ValueKindGlobal
	ValueKindLocal
	ValueKindArgument
	ValueKindBasicBlock
	ValueKindFunction
	ValueKindInstruction
	ValueKindInlineAsm
)

// Value is anything that can be the operand of an instruction: a constant, a
// global, a local, a function argument, a basic block (as a branch target),
// a function (as a call callee), or an instruction result.
// ValueKindInlineAsm is declared, but no Value variant carries it.
//
// Replacing a value X with Y (ReplaceAllUsesWith) rewires every recorded use
// of X to Y; this is the fundamental IR rewrite primitive used by the SSA
// construction and DCE passes.
type Value interface {
	ValueKind() ValueKind

	// Type returns the type this value carries, or nil for values that do
	// not produce a typed result (e.g. a BasicBlock used as a jump target).
	Type() Type

	// Uses returns every recorded use of this value. The returned slice is
	// freshly built from the intrusive use-list and safe to mutate.
	Uses() []*Use

	// Used reports whether this value has at least one recorded use.
	Used() bool

	// ReplaceAllUsesWith rewires every use of this value to point at other.
	ReplaceAllUsesWith(other Value)

	addUse(u *Use)
	removeUse(u *Use)
}

// User is a Value that itself holds ordered operands into other values.
type User interface {
	Value

	// Operands returns the ordered operand (Use) list of this user.
	Operands() []*Use

	// SetOperand rewires operand i to point at v, updating def-use edges on
	// both the old and new producer.
	SetOperand(i int, v Value)
}

// Use is a def-use edge linking a User's operand slot to the Value that
// produces it. Uses form an intrusive doubly linked list per producer Value
// so that ReplaceAllUsesWith runs in time proportional to the use count,
// not the size of the function.
type Use struct {
	value Value
	user  User
	index int

	prevUse, nextUse *Use
}

// Value returns the producer of this use.
func (u *Use) Value() Value { return u.value }

// User returns the consumer of this use.
func (u *Use) User() User { return u.user }

// Index returns the operand slot within User.Operands() this use occupies.
func (u *Use) Index() int { return u.index }

// set rewires this use to point at producer v, removing it from the old
// producer's use-list and adding it to the new producer's use-list.
func (u *Use) set(v Value) {
	if u.value != nil {
		u.value.removeUse(u)
	}
	u.value = v
	if v != nil {
		v.addUse(u)
	}
}

// ValueBase implements the bookkeeping shared by every Value variant: the
// type it carries and the intrusive use-list of every Use that names it as
// a producer. Concrete value types embed ValueBase by value.
type ValueBase struct {
	kind     ValueKind
	typ      Type
	firstUse *Use
}

func newValueBase(kind ValueKind, typ Type) ValueBase {
	return ValueBase{kind: kind, typ: typ}
}

func (v *ValueBase) ValueKind() ValueKind { return v.kind }
func (v *ValueBase) Type() Type           { return v.typ }

func (v *ValueBase) addUse(u *Use) {
	u.prevUse = nil
	u.nextUse = v.firstUse
	if v.firstUse != nil {
		v.firstUse.prevUse = u
	}
	v.firstUse = u
}

func (v *ValueBase) removeUse(u *Use) {
	if u.prevUse != nil {
		u.prevUse.nextUse = u.nextUse
	} else {
		v.firstUse = u.nextUse
	}
	if u.nextUse != nil {
		u.nextUse.prevUse = u.prevUse
	}
	u.prevUse, u.nextUse = nil, nil
}

func (v *ValueBase) Used() bool { return v.firstUse != nil }

func (v *ValueBase) Uses() []*Use {
	var uses []*Use
	for u := v.firstUse; u != nil; u = u.nextUse {
		uses = append(uses, u)
	}
	return uses
}

// replaceAllUsesWith is shared logic invoked through the embedding value's
// exported ReplaceAllUsesWith, since Go embedding cannot give ValueBase
// access to the concrete self required by addUse on the *new* value.
func replaceAllUsesWith(self Value, vb *ValueBase, other Value) {
	if self == other {
		panic("statim: invariant violated: value cannot replace all uses with itself")
	}
	for u := vb.firstUse; u != nil; {
		next := u.nextUse
		u.user.SetOperand(u.index, other)
		u = next
	}
}

// UserBase implements the shared Operands/SetOperand bookkeeping for a
// User. Most users get their whole operand list at construction; phi
// instructions start empty and grow theirs through appendOperand.
type UserBase struct {
	operands []*Use
}

func newUserBase(self User, producers []Value) UserBase {
	ops := make([]*Use, len(producers))
	for i, p := range producers {
		u := &Use{user: self, index: i}
		u.set(p)
		ops[i] = u
	}
	return UserBase{operands: ops}
}

func (ub *UserBase) Operands() []*Use { return ub.operands }

func (ub *UserBase) Operand(i int) Value { return ub.operands[i].value }

func (ub *UserBase) SetOperand(i int, v Value) { ub.operands[i].set(v) }

// appendOperand grows the operand list, used by phi instructions, which
// accumulate operands after construction.
func (ub *UserBase) appendOperand(self User, v Value) *Use {
	u := &Use{user: self, index: len(ub.operands)}
	u.set(v)
	ub.operands = append(ub.operands, u)
	return u
}
