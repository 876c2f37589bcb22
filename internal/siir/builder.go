package siir

// InsertMode controls where Builder places newly built instructions within
// its current insertion block.
type InsertMode uint8

const (
	// Append inserts after the block's last instruction (the common case).
	Append InsertMode = iota
	// Prepend inserts before the block's first instruction, used by the SSA
	// construction pass to place phi instructions ahead of everything else.
	Prepend
)

// Builder constructs Instructions into a single insertion block at a time.
// It owns no state beyond the current position; a frontend typically keeps
// one Builder per CFG and repositions it with SetInsertBlock as it walks
// its own AST.
type Builder struct {
	cfg   *CFG
	block *BasicBlock
	mode  InsertMode
}

// NewBuilder returns a Builder with no insertion block set.
func NewBuilder(cfg *CFG) *Builder {
	return &Builder{cfg: cfg, mode: Append}
}

// SetInsertBlock repositions the builder to insert into blk.
func (b *Builder) SetInsertBlock(blk *BasicBlock) { b.block = blk }

// InsertBlock returns the builder's current insertion block.
func (b *Builder) InsertBlock() *BasicBlock { return b.block }

// SetInsertMode changes whether subsequent Build* calls append or prepend
// within the current insertion block.
func (b *Builder) SetInsertMode(mode InsertMode) { b.mode = mode }

// emit allocates, initializes, and inserts a new instruction of the given
// opcode, result type, and data field with the given operands, threading a
// fresh result id from the parent function unless typ is nil (an
// effect-only instruction, e.g. store, has no result).
func (b *Builder) emit(op Opcode, typ Type, data uint16, operands []Value) *Instruction {
	if b.block == nil {
		panic("statim: invariant violated: builder has no insertion block")
	}

	inst := b.cfg.allocInstruction()
	var resultID uint32
	if typ != nil {
		resultID = b.block.parent.nextResult()
	}
	*inst = Instruction{
		ValueBase: newValueBase(ValueKindInstruction, typ),
		Opcode:    op,
		ResultID:  resultID,
		Data:      data,
	}
	inst.UserBase = newUserBase(inst, operands)

	switch b.mode {
	case Prepend:
		b.block.insertAtFront(inst)
	default:
		b.block.insertAtEnd(inst)
	}
	return inst
}

// BuildLoad builds a load of *typ through ptr, which must carry a pointer
// type. align is in bytes.
func (b *Builder) BuildLoad(ptr Value, typ Type, align uint64) *Instruction {
	if !IsPointer(ptr.Type()) {
		panic("statim: invariant violated: load operand must be a pointer")
	}
	return b.emit(OpLoad, typ, uint16(align), []Value{ptr})
}

// BuildStore builds a store of val through ptr. Stores produce no result.
func (b *Builder) BuildStore(val, ptr Value, align uint64) *Instruction {
	if !IsPointer(ptr.Type()) {
		panic("statim: invariant violated: store pointer operand must be a pointer")
	}
	return b.emit(OpStore, nil, uint16(align), []Value{val, ptr})
}

// BuildAccessPtr builds a pointer computation: base (a pointer to
// aggregateType) offset by the field/element identified by index, yielding
// a pointer to the indexed element's type.
func (b *Builder) BuildAccessPtr(base Value, aggregateType Type, index int, resultType Type) *Instruction {
	if !IsPointer(base.Type()) {
		panic("statim: invariant violated: access-ptr base must be a pointer")
	}
	idxConst := b.cfg.ConstInt(b.cfg.IntType(64), int64(index))
	return b.emit(OpAccessPtr, b.cfg.PointerType(resultType), 0, []Value{base, idxConst})
}

// BuildConstant materializes a constant as an instruction result, used when
// a frontend wants every value (even constants) to flow through a uniform
// instruction stream; most callers instead use the constant Value directly
// as an operand without this wrapper.
func (b *Builder) BuildConstant(c Constant) *Instruction {
	return b.emit(OpConstant, c.Type(), 0, []Value{c})
}

func (b *Builder) buildBinary(op Opcode, lhs, rhs Value) *Instruction {
	if lhs.Type() != rhs.Type() {
		panic("statim: invariant violated: binary operand types must match")
	}
	return b.emit(op, lhs.Type(), 0, []Value{lhs, rhs})
}

func (b *Builder) BuildIAdd(lhs, rhs Value) *Instruction { return b.buildBinary(OpIAdd, lhs, rhs) }
func (b *Builder) BuildISub(lhs, rhs Value) *Instruction { return b.buildBinary(OpISub, lhs, rhs) }
func (b *Builder) BuildSMul(lhs, rhs Value) *Instruction { return b.buildBinary(OpSMul, lhs, rhs) }
func (b *Builder) BuildUMul(lhs, rhs Value) *Instruction { return b.buildBinary(OpUMul, lhs, rhs) }
func (b *Builder) BuildSDiv(lhs, rhs Value) *Instruction { return b.buildBinary(OpSDiv, lhs, rhs) }
func (b *Builder) BuildUDiv(lhs, rhs Value) *Instruction { return b.buildBinary(OpUDiv, lhs, rhs) }
func (b *Builder) BuildSRem(lhs, rhs Value) *Instruction { return b.buildBinary(OpSRem, lhs, rhs) }
func (b *Builder) BuildURem(lhs, rhs Value) *Instruction { return b.buildBinary(OpURem, lhs, rhs) }
func (b *Builder) BuildFAdd(lhs, rhs Value) *Instruction { return b.buildBinary(OpFAdd, lhs, rhs) }
func (b *Builder) BuildFSub(lhs, rhs Value) *Instruction { return b.buildBinary(OpFSub, lhs, rhs) }
func (b *Builder) BuildFMul(lhs, rhs Value) *Instruction { return b.buildBinary(OpFMul, lhs, rhs) }
func (b *Builder) BuildFDiv(lhs, rhs Value) *Instruction { return b.buildBinary(OpFDiv, lhs, rhs) }
func (b *Builder) BuildFRem(lhs, rhs Value) *Instruction { return b.buildBinary(OpFRem, lhs, rhs) }
func (b *Builder) BuildAnd(lhs, rhs Value) *Instruction  { return b.buildBinary(OpAnd, lhs, rhs) }
func (b *Builder) BuildOr(lhs, rhs Value) *Instruction   { return b.buildBinary(OpOr, lhs, rhs) }
func (b *Builder) BuildXor(lhs, rhs Value) *Instruction  { return b.buildBinary(OpXor, lhs, rhs) }
func (b *Builder) BuildShl(lhs, rhs Value) *Instruction  { return b.buildBinary(OpShl, lhs, rhs) }
func (b *Builder) BuildShr(lhs, rhs Value) *Instruction  { return b.buildBinary(OpShr, lhs, rhs) }
func (b *Builder) BuildSar(lhs, rhs Value) *Instruction  { return b.buildBinary(OpSar, lhs, rhs) }

func (b *Builder) BuildINeg(val Value) *Instruction { return b.emit(OpINeg, val.Type(), 0, []Value{val}) }
func (b *Builder) BuildFNeg(val Value) *Instruction { return b.emit(OpFNeg, val.Type(), 0, []Value{val}) }
func (b *Builder) BuildNot(val Value) *Instruction  { return b.emit(OpNot, val.Type(), 0, []Value{val}) }

func (b *Builder) buildConversion(op Opcode, val Value, to Type) *Instruction {
	return b.emit(op, to, 0, []Value{val})
}

func (b *Builder) BuildSExt(val Value, to Type) *Instruction    { return b.buildConversion(OpSExt, val, to) }
func (b *Builder) BuildZExt(val Value, to Type) *Instruction    { return b.buildConversion(OpZExt, val, to) }
func (b *Builder) BuildITrunc(val Value, to Type) *Instruction  { return b.buildConversion(OpITrunc, val, to) }
func (b *Builder) BuildFExt(val Value, to Type) *Instruction    { return b.buildConversion(OpFExt, val, to) }
func (b *Builder) BuildFTrunc(val Value, to Type) *Instruction  { return b.buildConversion(OpFTrunc, val, to) }
func (b *Builder) BuildSI2FP(val Value, to Type) *Instruction   { return b.buildConversion(OpSI2FP, val, to) }
func (b *Builder) BuildUI2FP(val Value, to Type) *Instruction   { return b.buildConversion(OpUI2FP, val, to) }
func (b *Builder) BuildFP2SI(val Value, to Type) *Instruction   { return b.buildConversion(OpFP2SI, val, to) }
func (b *Builder) BuildFP2UI(val Value, to Type) *Instruction   { return b.buildConversion(OpFP2UI, val, to) }
func (b *Builder) BuildP2I(val Value, to Type) *Instruction     { return b.buildConversion(OpP2I, val, to) }
func (b *Builder) BuildI2P(val Value, to Type) *Instruction     { return b.buildConversion(OpI2P, val, to) }
func (b *Builder) BuildReinterpret(val Value, to Type) *Instruction {
	return b.buildConversion(OpReinterpret, val, to)
}

// BuildSelect builds a branchless select between ifTrue and ifFalse governed
// by a 1-bit cond.
func (b *Builder) BuildSelect(cond, ifTrue, ifFalse Value) *Instruction {
	if ifTrue.Type() != ifFalse.Type() {
		panic("statim: invariant violated: select operand types must match")
	}
	return b.emit(OpSelect, ifTrue.Type(), 0, []Value{cond, ifTrue, ifFalse})
}

func (b *Builder) buildCompare(op Opcode, lhs, rhs Value) *Instruction {
	if lhs.Type() != rhs.Type() {
		panic("statim: invariant violated: comparison operand types must match")
	}
	return b.emit(op, b.cfg.IntType(1), 0, []Value{lhs, rhs})
}

func (b *Builder) BuildCmpIEQ(lhs, rhs Value) *Instruction  { return b.buildCompare(OpCmpIEQ, lhs, rhs) }
func (b *Builder) BuildCmpINE(lhs, rhs Value) *Instruction  { return b.buildCompare(OpCmpINE, lhs, rhs) }
func (b *Builder) BuildCmpSLT(lhs, rhs Value) *Instruction  { return b.buildCompare(OpCmpSLT, lhs, rhs) }
func (b *Builder) BuildCmpSLE(lhs, rhs Value) *Instruction  { return b.buildCompare(OpCmpSLE, lhs, rhs) }
func (b *Builder) BuildCmpSGT(lhs, rhs Value) *Instruction  { return b.buildCompare(OpCmpSGT, lhs, rhs) }
func (b *Builder) BuildCmpSGE(lhs, rhs Value) *Instruction  { return b.buildCompare(OpCmpSGE, lhs, rhs) }
func (b *Builder) BuildCmpULT(lhs, rhs Value) *Instruction  { return b.buildCompare(OpCmpULT, lhs, rhs) }
func (b *Builder) BuildCmpULE(lhs, rhs Value) *Instruction  { return b.buildCompare(OpCmpULE, lhs, rhs) }
func (b *Builder) BuildCmpUGT(lhs, rhs Value) *Instruction  { return b.buildCompare(OpCmpUGT, lhs, rhs) }
func (b *Builder) BuildCmpUGE(lhs, rhs Value) *Instruction  { return b.buildCompare(OpCmpUGE, lhs, rhs) }
func (b *Builder) BuildCmpOEQ(lhs, rhs Value) *Instruction  { return b.buildCompare(OpCmpOEQ, lhs, rhs) }
func (b *Builder) BuildCmpONE(lhs, rhs Value) *Instruction  { return b.buildCompare(OpCmpONE, lhs, rhs) }
func (b *Builder) BuildCmpOLT(lhs, rhs Value) *Instruction  { return b.buildCompare(OpCmpOLT, lhs, rhs) }
func (b *Builder) BuildCmpOLE(lhs, rhs Value) *Instruction  { return b.buildCompare(OpCmpOLE, lhs, rhs) }
func (b *Builder) BuildCmpOGT(lhs, rhs Value) *Instruction  { return b.buildCompare(OpCmpOGT, lhs, rhs) }
func (b *Builder) BuildCmpOGE(lhs, rhs Value) *Instruction  { return b.buildCompare(OpCmpOGE, lhs, rhs) }
func (b *Builder) BuildCmpUNEQ(lhs, rhs Value) *Instruction { return b.buildCompare(OpCmpUNEQ, lhs, rhs) }
func (b *Builder) BuildCmpUNNE(lhs, rhs Value) *Instruction { return b.buildCompare(OpCmpUNNE, lhs, rhs) }
func (b *Builder) BuildCmpUNLT(lhs, rhs Value) *Instruction { return b.buildCompare(OpCmpUNLT, lhs, rhs) }
func (b *Builder) BuildCmpUNLE(lhs, rhs Value) *Instruction { return b.buildCompare(OpCmpUNLE, lhs, rhs) }
func (b *Builder) BuildCmpUNGT(lhs, rhs Value) *Instruction { return b.buildCompare(OpCmpUNGT, lhs, rhs) }
func (b *Builder) BuildCmpUNGE(lhs, rhs Value) *Instruction { return b.buildCompare(OpCmpUNGE, lhs, rhs) }

// BuildCall builds a call to callee (a *Function or a Value of function
// pointer type) with the given arguments. resultType is nil for a void
// call.
func (b *Builder) BuildCall(callee Value, args []Value, resultType Type) *Instruction {
	operands := make([]Value, 0, len(args)+1)
	operands = append(operands, callee)
	operands = append(operands, args...)
	return b.emit(OpCall, resultType, 0, operands)
}

// BuildJump builds an unconditional jump to target, recording the CFG edge.
// The operand is target's BlockAddress, not the block itself: a
// BlockAddress is the only value a jump/branch may hold as an operand.
func (b *Builder) BuildJump(target *BasicBlock) *Instruction {
	inst := b.emit(OpJump, nil, 0, []Value{b.cfg.ConstBlockAddress(target)})
	b.block.addSuccessor(target)
	return inst
}

// BuildBranchIf builds a conditional branch on a 1-bit cond to ifTrue or
// ifFalse, recording both CFG edges.
func (b *Builder) BuildBranchIf(cond Value, ifTrue, ifFalse *BasicBlock) *Instruction {
	inst := b.emit(OpBranchIf, nil, 0, []Value{cond, b.cfg.ConstBlockAddress(ifTrue), b.cfg.ConstBlockAddress(ifFalse)})
	b.block.addSuccessor(ifTrue)
	b.block.addSuccessor(ifFalse)
	return inst
}

// BuildReturn builds a return terminator. val is nil for a void return.
func (b *Builder) BuildReturn(val Value) *Instruction {
	if val == nil {
		return b.emit(OpReturn, nil, 0, nil)
	}
	return b.emit(OpReturn, nil, 0, []Value{val})
}

// BuildAbort builds a call to the runtime's trap path (e.g. an out-of-bounds
// array access), which never returns.
func (b *Builder) BuildAbort() *Instruction { return b.emit(OpAbort, nil, 0, nil) }

// BuildUnreachable marks a program point the frontend has proven can never
// execute, licensing the backend to omit any code for it.
func (b *Builder) BuildUnreachable() *Instruction { return b.emit(OpUnreachable, nil, 0, nil) }

// BuildPhi builds an empty phi instruction of the given type; incoming
// edges are attached afterward with Instruction.AddIncoming. Used directly
// by frontends that build their own SSA form, and internally by the SSA
// construction pass when promoting Locals.
func (b *Builder) BuildPhi(typ Type) *Instruction {
	return b.emit(OpPhi, typ, 0, nil)
}
