package siir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderBuildLoadRejectsNonPointerOperand(t *testing.T) {
	cfg := newTestCFG()
	fn := cfg.AddFunction("f", cfg.FunctionType(nil, nil), LinkageExternal, false)
	bb := fn.AppendBlock()
	b := NewBuilder(cfg)
	b.SetInsertBlock(bb)

	i64 := cfg.IntType(64)
	assert.Panics(t, func() { b.BuildLoad(cfg.ConstInt(i64, 1), i64, 8) })
}

func TestBuilderBuildAccessPtrComputesAPointerToTheFieldType(t *testing.T) {
	cfg := newTestCFG()
	fn := cfg.AddFunction("f", cfg.FunctionType(nil, nil), LinkageExternal, false)
	bb := fn.AppendBlock()
	b := NewBuilder(cfg)
	b.SetInsertBlock(bb)

	i64 := cfg.IntType(64)
	local := fn.AddLocal("box", i64, 8)
	inst := b.BuildAccessPtr(local, i64, 0, i64)

	assert.Equal(t, cfg.PointerType(i64), inst.Type())
	assert.Equal(t, 2, len(inst.Operands()))
}

func TestBuilderBinaryOpsRejectMismatchedOperandTypes(t *testing.T) {
	cfg := newTestCFG()
	fn := cfg.AddFunction("f", cfg.FunctionType(nil, nil), LinkageExternal, false)
	bb := fn.AppendBlock()
	b := NewBuilder(cfg)
	b.SetInsertBlock(bb)

	i32 := cfg.IntType(32)
	i64 := cfg.IntType(64)
	assert.Panics(t, func() { b.BuildIAdd(cfg.ConstInt(i32, 1), cfg.ConstInt(i64, 1)) })
}

func TestBuilderBinaryOpResultTypeMatchesOperands(t *testing.T) {
	cfg := newTestCFG()
	fn := cfg.AddFunction("f", cfg.FunctionType(nil, nil), LinkageExternal, false)
	bb := fn.AppendBlock()
	b := NewBuilder(cfg)
	b.SetInsertBlock(bb)

	i64 := cfg.IntType(64)
	inst := b.BuildIAdd(cfg.ConstInt(i64, 1), cfg.ConstInt(i64, 2))
	assert.Same(t, i64, inst.Type())
	assert.Equal(t, OpIAdd, inst.Opcode)
}

func TestBuilderComparisonsAlwaysResultInI1(t *testing.T) {
	cfg := newTestCFG()
	fn := cfg.AddFunction("f", cfg.FunctionType(nil, nil), LinkageExternal, false)
	bb := fn.AppendBlock()
	b := NewBuilder(cfg)
	b.SetInsertBlock(bb)

	i64 := cfg.IntType(64)
	inst := b.BuildCmpSLT(cfg.ConstInt(i64, 1), cfg.ConstInt(i64, 2))
	assert.Same(t, cfg.IntType(1), inst.Type())
	assert.Equal(t, OpCmpSLT, inst.Opcode)
}

func TestBuilderSelectRejectsMismatchedArmTypes(t *testing.T) {
	cfg := newTestCFG()
	fn := cfg.AddFunction("f", cfg.FunctionType(nil, nil), LinkageExternal, false)
	bb := fn.AppendBlock()
	b := NewBuilder(cfg)
	b.SetInsertBlock(bb)

	i1 := cfg.IntType(1)
	i32 := cfg.IntType(32)
	i64 := cfg.IntType(64)
	cond := cfg.ConstInt(i1, 1)
	assert.Panics(t, func() { b.BuildSelect(cond, cfg.ConstInt(i32, 1), cfg.ConstInt(i64, 2)) })
}

func TestBuilderSelectResultTypeMatchesArms(t *testing.T) {
	cfg := newTestCFG()
	fn := cfg.AddFunction("f", cfg.FunctionType(nil, nil), LinkageExternal, false)
	bb := fn.AppendBlock()
	b := NewBuilder(cfg)
	b.SetInsertBlock(bb)

	i1 := cfg.IntType(1)
	i64 := cfg.IntType(64)
	cond := cfg.ConstInt(i1, 1)
	inst := b.BuildSelect(cond, cfg.ConstInt(i64, 1), cfg.ConstInt(i64, 2))
	assert.Same(t, i64, inst.Type())
}

func TestBuilderConversionsCarryTheTargetType(t *testing.T) {
	cfg := newTestCFG()
	fn := cfg.AddFunction("f", cfg.FunctionType(nil, nil), LinkageExternal, false)
	bb := fn.AppendBlock()
	b := NewBuilder(cfg)
	b.SetInsertBlock(bb)

	i32 := cfg.IntType(32)
	i64 := cfg.IntType(64)
	inst := b.BuildSExt(cfg.ConstInt(i32, 1), i64)
	assert.Same(t, i64, inst.Type())
	assert.Equal(t, OpSExt, inst.Opcode)
}

func TestBuilderCallThreadsCalleeAheadOfArguments(t *testing.T) {
	cfg := newTestCFG()
	i64 := cfg.IntType(64)
	callee := cfg.AddFunction("callee", cfg.FunctionType([]Type{i64}, i64), LinkageExternal, true)
	fn := cfg.AddFunction("f", cfg.FunctionType(nil, i64), LinkageExternal, false)
	bb := fn.AppendBlock()
	b := NewBuilder(cfg)
	b.SetInsertBlock(bb)

	arg := cfg.ConstInt(i64, 5)
	inst := b.BuildCall(callee, []Value{arg}, i64)

	assert.Equal(t, 2, len(inst.Operands()))
	assert.Same(t, callee, inst.Operand(0))
	assert.Same(t, arg, inst.Operand(1))
	assert.Same(t, i64, inst.Type())
}

func TestBuilderJumpAndBranchIfRecordCFGEdges(t *testing.T) {
	cfg := newTestCFG()
	fn := cfg.AddFunction("f", cfg.FunctionType(nil, nil), LinkageExternal, false)
	entry := fn.AppendBlock()
	ifTrue := fn.AppendBlock()
	ifFalse := fn.AppendBlock()
	join := fn.AppendBlock()

	b := NewBuilder(cfg)
	b.SetInsertBlock(entry)
	cond := cfg.ConstInt(cfg.IntType(1), 1)
	b.BuildBranchIf(cond, ifTrue, ifFalse)

	b.SetInsertBlock(ifTrue)
	b.BuildJump(join)
	b.SetInsertBlock(ifFalse)
	b.BuildJump(join)

	assert.ElementsMatch(t, []*BasicBlock{ifTrue, ifFalse}, entry.Succs())
	assert.ElementsMatch(t, []*BasicBlock{ifTrue, ifFalse}, join.Preds())

	branchIf := entry.Back()
	require.Equal(t, cfg.ConstBlockAddress(ifTrue), branchIf.Operand(1), "branch-if operands are BlockAddresses, not raw blocks")
	require.Equal(t, cfg.ConstBlockAddress(ifFalse), branchIf.Operand(2))

	jump := ifTrue.Back()
	require.Equal(t, cfg.ConstBlockAddress(join), jump.Operand(0), "jump operands are BlockAddresses, not raw blocks")
}

func TestBuilderReturnAllowsNilForVoid(t *testing.T) {
	cfg := newTestCFG()
	fn := cfg.AddFunction("f", cfg.FunctionType(nil, nil), LinkageExternal, false)
	bb := fn.AppendBlock()
	b := NewBuilder(cfg)
	b.SetInsertBlock(bb)

	inst := b.BuildReturn(nil)
	assert.Equal(t, 0, len(inst.Operands()))
	assert.True(t, inst.IsTerminator())
}
