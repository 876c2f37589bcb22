package siir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeadCodeEliminationRemovesUnusedPureInstructions(t *testing.T) {
	cfg := newTestCFG()
	i64 := cfg.IntType(64)
	fn := cfg.AddFunction("f", cfg.FunctionType(nil, i64), LinkageExternal, false)
	b := NewBuilder(cfg)

	entry := fn.AppendBlock()
	b.SetInsertBlock(entry)
	dead := b.BuildIAdd(cfg.ConstInt(i64, 1), cfg.ConstInt(i64, 2))
	_ = dead
	b.BuildReturn(cfg.ConstInt(i64, 42))

	require.Equal(t, 1, countOpcode(fn, OpIAdd))

	RunPasses(cfg, DeadCodeElimination{})

	assert.Zero(t, countOpcode(fn, OpIAdd), "the unused iadd has no side effects and zero uses")
	assert.Equal(t, 1, countOpcode(fn, OpReturn), "the terminator always survives")
}

func TestDeadCodeEliminationKeepsSideEffectingInstructions(t *testing.T) {
	cfg := newTestCFG()
	i64 := cfg.IntType(64)
	fn := cfg.AddFunction("f", cfg.FunctionType(nil, nil), LinkageExternal, false)
	b := NewBuilder(cfg)

	entry := fn.AppendBlock()
	b.SetInsertBlock(entry)
	local := fn.AddLocal("x", i64, 8)
	b.BuildStore(cfg.ConstInt(i64, 1), local, 8) // store result is unused, but has side effects
	b.BuildReturn(nil)

	RunPasses(cfg, DeadCodeElimination{})

	assert.Equal(t, 1, countOpcode(fn, OpStore))
}

func TestDeadCodeEliminationIteratesToFixedPoint(t *testing.T) {
	cfg := newTestCFG()
	i64 := cfg.IntType(64)
	fn := cfg.AddFunction("f", cfg.FunctionType(nil, i64), LinkageExternal, false)
	b := NewBuilder(cfg)

	entry := fn.AppendBlock()
	b.SetInsertBlock(entry)
	inner := b.BuildIAdd(cfg.ConstInt(i64, 1), cfg.ConstInt(i64, 2))
	outer := b.BuildIAdd(inner, cfg.ConstInt(i64, 3)) // only consumer of inner, itself unused
	_ = outer
	b.BuildReturn(cfg.ConstInt(i64, 0))

	require.Equal(t, 2, countOpcode(fn, OpIAdd))

	RunPasses(cfg, DeadCodeElimination{})

	assert.Zero(t, countOpcode(fn, OpIAdd), "removing outer must make inner dead in the same pass")
}
