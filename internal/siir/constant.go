package siir

import "math"

// Constant is a Value variant owned and interned by a CFG's constant pool.
// Two calls that describe "the same" constant return the identical pointer;
// reference equality implies semantic equality, mirroring the type pool.
type Constant interface {
	Value
	isConstant()
}

// ConstantInt is an interned integer constant of a given IntegerType. The
// 1-bit width has two distinguished instances, ConstantInt true and false,
// created once per CFG (see CFG.ConstTrue / CFG.ConstFalse).
type ConstantInt struct {
	ValueBase
	Val int64
}

func (*ConstantInt) isConstant() {}

// ConstantFP is an interned floating-point constant keyed by its raw bit
// pattern, so +0.0 and -0.0 (or distinct NaN payloads) intern separately.
type ConstantFP struct {
	ValueBase
	Bits uint64
}

func (*ConstantFP) isConstant() {}

// Float64 reinterprets Bits as a float64 (for 64-bit float constants).
func (c *ConstantFP) Float64() float64 { return math.Float64frombits(c.Bits) }

// Float32 reinterprets the low 32 bits as a float32 (for 32-bit float
// constants).
func (c *ConstantFP) Float32() float32 { return math.Float32frombits(uint32(c.Bits)) }

// ConstantNull is the null pointer constant of a given PointerType, interned
// per pointee so that null-of-T pointers compare identical only when T is
// identical.
type ConstantNull struct {
	ValueBase
}

func (*ConstantNull) isConstant() {}

// BlockAddress is the address of a basic block, usable only as a jump or
// branch-if operand. It is interned by block identity.
type BlockAddress struct {
	ValueBase
	Block *BasicBlock
}

func (*BlockAddress) isConstant() {}

// ConstantString is an interned byte string, materialized as a global by the
// instruction selector's string-constant handling. Interned by exact byte
// content.
type ConstantString struct {
	ValueBase
	Bytes []byte
}

func (*ConstantString) isConstant() {}

// PhiOperand wraps one incoming edge of a phi instruction: the predecessor
// block the value arrives from, and the incoming value itself (tracked as a
// genuine def-use edge so the incoming value's use-count accounts for phi
// references). A phi instruction's operand list consists entirely of
// PhiOperand values.
type PhiOperand struct {
	ValueBase
	UserBase
	Predecessor *BasicBlock
}

func (*PhiOperand) isConstant() {}

// Incoming returns the value flowing in from Predecessor.
func (p *PhiOperand) Incoming() Value { return p.Operand(0) }

func newPhiOperand(pred *BasicBlock, incoming Value) *PhiOperand {
	p := &PhiOperand{ValueBase: newValueBase(ValueKindConstant, incoming.Type()), Predecessor: pred}
	p.UserBase = newUserBase(p, []Value{incoming})
	return p
}

func (p *PhiOperand) Operands() []*Use        { return p.UserBase.Operands() }
func (p *PhiOperand) SetOperand(i int, v Value) { p.UserBase.SetOperand(i, v) }
func (p *PhiOperand) ReplaceAllUsesWith(other Value) {
	replaceAllUsesWith(p, &p.ValueBase, other)
}

// --- ValueBase glue for the simple constant variants ---
//
// Each variant embeds ValueBase directly and therefore needs only its own
// ReplaceAllUsesWith trampoline, since Go cannot let an embedded struct's
// method reference the concrete embedding type.

func (c *ConstantInt) ReplaceAllUsesWith(other Value)      { replaceAllUsesWith(c, &c.ValueBase, other) }
func (c *ConstantFP) ReplaceAllUsesWith(other Value)       { replaceAllUsesWith(c, &c.ValueBase, other) }
func (c *ConstantNull) ReplaceAllUsesWith(other Value)     { replaceAllUsesWith(c, &c.ValueBase, other) }
func (c *BlockAddress) ReplaceAllUsesWith(other Value)     { replaceAllUsesWith(c, &c.ValueBase, other) }
func (c *ConstantString) ReplaceAllUsesWith(other Value)   { replaceAllUsesWith(c, &c.ValueBase, other) }

// --- Constant pool, owned by CFG ---

// constantPool interns every constant variant for one CFG.
type constantPool struct {
	int1Zero, int1One *ConstantInt
	ints8             map[int64]*ConstantInt
	ints16            map[int64]*ConstantInt
	ints32            map[int64]*ConstantInt
	ints64            map[int64]*ConstantInt
	floats32          map[uint64]*ConstantFP
	floats64          map[uint64]*ConstantFP
	nulls             map[Type]*ConstantNull
	blockAddrs        map[*BasicBlock]*BlockAddress
	strings           map[string]*ConstantString
}

func newConstantPool() constantPool {
	cp := constantPool{
		ints8:      make(map[int64]*ConstantInt),
		ints16:     make(map[int64]*ConstantInt),
		ints32:     make(map[int64]*ConstantInt),
		ints64:     make(map[int64]*ConstantInt),
		floats32:   make(map[uint64]*ConstantFP),
		floats64:   make(map[uint64]*ConstantFP),
		nulls:      make(map[Type]*ConstantNull),
		blockAddrs: make(map[*BasicBlock]*BlockAddress),
		strings:    make(map[string]*ConstantString),
	}
	return cp
}

// ConstInt returns the interned integer constant of type ty (which must be
// an *IntegerType) with value v, truncated to the type's width.
func (cfg *CFG) ConstInt(ty Type, v int64) *ConstantInt {
	it, ok := ty.(*IntegerType)
	if !ok {
		panic("statim: invariant violated: ConstInt requires an integer type")
	}

	switch it.Width {
	case 1:
		if v == 0 {
			return cfg.constants.int1Zero
		}
		return cfg.constants.int1One
	case 8:
		v = int64(int8(v))
		return internInt(cfg.constants.ints8, v, ty)
	case 16:
		v = int64(int16(v))
		return internInt(cfg.constants.ints16, v, ty)
	case 32:
		v = int64(int32(v))
		return internInt(cfg.constants.ints32, v, ty)
	case 64:
		return internInt(cfg.constants.ints64, v, ty)
	default:
		panic("statim: invariant violated: unsupported integer width")
	}
}

func internInt(pool map[int64]*ConstantInt, v int64, ty Type) *ConstantInt {
	if c, ok := pool[v]; ok {
		return c
	}
	c := &ConstantInt{ValueBase: newValueBase(ValueKindConstant, ty), Val: v}
	pool[v] = c
	return c
}

// ConstTrue returns the distinguished 1-bit constant `true`.
func (cfg *CFG) ConstTrue() *ConstantInt { return cfg.constants.int1One }

// ConstFalse returns the distinguished 1-bit constant `false`.
func (cfg *CFG) ConstFalse() *ConstantInt { return cfg.constants.int1Zero }

// ConstFP returns the interned float constant of type ty (an *FloatType)
// with the IEEE-754 value v.
func (cfg *CFG) ConstFP(ty Type, v float64) *ConstantFP {
	ft, ok := ty.(*FloatType)
	if !ok {
		panic("statim: invariant violated: ConstFP requires a float type")
	}

	switch ft.Width {
	case 32:
		bits := uint64(math.Float32bits(float32(v)))
		if c, ok := cfg.constants.floats32[bits]; ok {
			return c
		}
		c := &ConstantFP{ValueBase: newValueBase(ValueKindConstant, ty), Bits: bits}
		cfg.constants.floats32[bits] = c
		return c
	case 64:
		bits := math.Float64bits(v)
		if c, ok := cfg.constants.floats64[bits]; ok {
			return c
		}
		c := &ConstantFP{ValueBase: newValueBase(ValueKindConstant, ty), Bits: bits}
		cfg.constants.floats64[bits] = c
		return c
	default:
		panic("statim: invariant violated: unsupported float width")
	}
}

// ConstNull returns the interned null-pointer constant of pointer type ty.
func (cfg *CFG) ConstNull(ty Type) *ConstantNull {
	if !IsPointer(ty) {
		panic("statim: invariant violated: ConstNull requires a pointer type")
	}
	if c, ok := cfg.constants.nulls[ty]; ok {
		return c
	}
	c := &ConstantNull{ValueBase: newValueBase(ValueKindConstant, ty)}
	cfg.constants.nulls[ty] = c
	return c
}

// ConstBlockAddress returns the interned block-address constant for blk.
func (cfg *CFG) ConstBlockAddress(blk *BasicBlock) *BlockAddress {
	if c, ok := cfg.constants.blockAddrs[blk]; ok {
		return c
	}
	c := &BlockAddress{ValueBase: newValueBase(ValueKindConstant, nil), Block: blk}
	cfg.constants.blockAddrs[blk] = c
	return c
}

// ConstString returns the interned string constant for the exact bytes s.
// The type carried is always a pointer to i8 (a byte array decays to its
// element pointer when materialized).
func (cfg *CFG) ConstString(s []byte) *ConstantString {
	key := string(s)
	if c, ok := cfg.constants.strings[key]; ok {
		return c
	}
	c := &ConstantString{
		ValueBase: newValueBase(ValueKindConstant, cfg.PointerType(cfg.IntType(8))),
		Bytes:     append([]byte(nil), s...),
	}
	cfg.constants.strings[key] = c
	return c
}
