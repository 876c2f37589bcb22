package siir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nwmarino/statim/internal/target"
)

func newTestCFG() *CFG {
	return NewCFG("test.stm", target.X86_64Linux())
}

func TestIntTypeInterning(t *testing.T) {
	cfg := newTestCFG()
	a := cfg.IntType(32)
	b := cfg.IntType(32)
	assert.Same(t, a, b)
	assert.NotSame(t, a, cfg.IntType(64))
}

func TestIntTypeRejectsUnsupportedWidth(t *testing.T) {
	cfg := newTestCFG()
	assert.Panics(t, func() { cfg.IntType(24) })
}

func TestFloatTypeInterning(t *testing.T) {
	cfg := newTestCFG()
	assert.Same(t, cfg.FloatType(64), cfg.FloatType(64))
	assert.Panics(t, func() { cfg.FloatType(16) })
}

func TestPointerTypeInternsPerPointee(t *testing.T) {
	cfg := newTestCFG()
	i32 := cfg.IntType(32)
	i64 := cfg.IntType(64)

	p1 := cfg.PointerType(i32)
	p2 := cfg.PointerType(i32)
	p3 := cfg.PointerType(i64)

	assert.Same(t, p1, p2)
	assert.NotSame(t, p1, p3)
}

func TestArrayTypeInternsByElementAndCount(t *testing.T) {
	cfg := newTestCFG()
	i8 := cfg.IntType(8)

	a1 := cfg.ArrayType(i8, 16)
	a2 := cfg.ArrayType(i8, 16)
	a3 := cfg.ArrayType(i8, 32)

	assert.Same(t, a1, a2)
	assert.NotSame(t, a1, a3)
}

func TestStructTypeShellIsNamedAndIncompleteUntilSetFields(t *testing.T) {
	cfg := newTestCFG()
	i64 := cfg.IntType(64)

	shell := cfg.StructTypeShell("point")
	assert.False(t, shell.Complete())

	again := cfg.StructTypeShell("point")
	assert.Same(t, shell, again, "struct shells are interned by name")

	shell.SetFields([]Type{i64, i64})
	require.True(t, shell.Complete())
	assert.Equal(t, []Type{i64, i64}, shell.Fields)
}

func TestStructTypeSetFieldsOnlyOnce(t *testing.T) {
	cfg := newTestCFG()
	i64 := cfg.IntType(64)
	shell := cfg.StructTypeShell("once")
	shell.SetFields([]Type{i64})
	assert.Panics(t, func() { shell.SetFields([]Type{i64, i64}) })
}

func TestFunctionTypeStringIncludesVoidReturn(t *testing.T) {
	cfg := newTestCFG()
	i32 := cfg.IntType(32)
	fnType := cfg.FunctionType([]Type{i32, i32}, nil)
	assert.Equal(t, "(i32, i32) -> void", fnType.String())
}

func TestIsIntegerFloatPointerPredicates(t *testing.T) {
	cfg := newTestCFG()
	i32 := cfg.IntType(32)
	f64 := cfg.FloatType(64)
	ptr := cfg.PointerType(i32)

	assert.True(t, IsInteger(i32))
	assert.False(t, IsInteger(f64))
	assert.True(t, IsFloat(f64))
	assert.True(t, IsPointer(ptr))
	assert.False(t, IsPointer(i32))
}
