package siir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueUsedAndUsesTrackOperandRegistration(t *testing.T) {
	cfg := newTestCFG()
	fn := cfg.AddFunction("f", cfg.FunctionType(nil, nil), LinkageExternal, false)
	bb := fn.AppendBlock()
	b := NewBuilder(cfg)
	b.SetInsertBlock(bb)

	i64 := cfg.IntType(64)
	lhs := cfg.ConstInt(i64, 1)

	assert.False(t, lhs.Used())
	add := b.BuildIAdd(lhs, cfg.ConstInt(i64, 2))
	assert.True(t, lhs.Used())

	uses := lhs.Uses()
	assert.Len(t, uses, 1)
	assert.Same(t, add, uses[0].User())
	assert.Equal(t, 0, uses[0].Index())
}

func TestSetOperandMigratesTheUseBetweenProducers(t *testing.T) {
	cfg := newTestCFG()
	fn := cfg.AddFunction("f", cfg.FunctionType(nil, nil), LinkageExternal, false)
	bb := fn.AppendBlock()
	b := NewBuilder(cfg)
	b.SetInsertBlock(bb)

	i64 := cfg.IntType(64)
	oldVal := cfg.ConstInt(i64, 1)
	newVal := cfg.ConstInt(i64, 99)
	add := b.BuildIAdd(oldVal, cfg.ConstInt(i64, 2))

	add.SetOperand(0, newVal)

	assert.False(t, oldVal.Used())
	assert.True(t, newVal.Used())
	assert.Same(t, newVal, add.Operand(0))
}

func TestReplaceAllUsesWithRewiresEveryRecordedUse(t *testing.T) {
	cfg := newTestCFG()
	fn := cfg.AddFunction("f", cfg.FunctionType(nil, nil), LinkageExternal, false)
	bb := fn.AppendBlock()
	b := NewBuilder(cfg)
	b.SetInsertBlock(bb)

	i64 := cfg.IntType(64)
	old := cfg.ConstInt(i64, 1)
	repl := cfg.ConstInt(i64, 2)
	useA := b.BuildIAdd(old, cfg.ConstInt(i64, 3))
	useB := b.BuildISub(old, cfg.ConstInt(i64, 4))

	old.ReplaceAllUsesWith(repl)

	assert.False(t, old.Used())
	assert.Same(t, repl, useA.Operand(0))
	assert.Same(t, repl, useB.Operand(0))
}

func TestReplaceAllUsesWithRejectsSelfReplacement(t *testing.T) {
	cfg := newTestCFG()
	i64 := cfg.IntType(64)
	c := cfg.ConstInt(i64, 1)
	assert.Panics(t, func() { c.ReplaceAllUsesWith(c) })
}

func TestLocalReplaceAllUsesWithPanics(t *testing.T) {
	cfg := newTestCFG()
	fn := cfg.AddFunction("f", cfg.FunctionType(nil, nil), LinkageExternal, false)
	i64 := cfg.IntType(64)
	local := fn.AddLocal("x", i64, 8)

	assert.Panics(t, func() { local.ReplaceAllUsesWith(cfg.ConstInt(i64, 1)) })
}
