package siir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddFunctionRejectsDuplicateName(t *testing.T) {
	cfg := newTestCFG()
	sig := cfg.FunctionType(nil, nil)
	cfg.AddFunction("main", sig, LinkageExternal, false)
	assert.Panics(t, func() { cfg.AddFunction("main", sig, LinkageExternal, false) })
}

func TestGetFunctionReturnsNilWhenAbsent(t *testing.T) {
	cfg := newTestCFG()
	assert.Nil(t, cfg.GetFunction("nope"))
}

func TestAddGlobalRejectsDuplicateName(t *testing.T) {
	cfg := newTestCFG()
	i32 := cfg.IntType(32)
	cfg.AddGlobal("counter", i32, cfg.ConstInt(i32, 0), LinkageInternal)
	assert.Panics(t, func() { cfg.AddGlobal("counter", i32, cfg.ConstInt(i32, 0), LinkageInternal) })
}

func TestAddGlobalCarriesPointerToPointeeType(t *testing.T) {
	cfg := newTestCFG()
	i32 := cfg.IntType(32)
	g := cfg.AddGlobal("counter", i32, cfg.ConstInt(i32, 0), LinkageInternal)
	require.IsType(t, &PointerType{}, g.Type())
	assert.Same(t, i32, g.Type().(*PointerType).Pointee)
}

func TestAddLocalRejectsDuplicateName(t *testing.T) {
	cfg := newTestCFG()
	i64 := cfg.IntType(64)
	fn := cfg.AddFunction("f", cfg.FunctionType(nil, i64), LinkageExternal, false)
	fn.AddLocal("x", i64, 8)
	assert.Panics(t, func() { fn.AddLocal("x", i64, 8) })
}

func TestAppendBlockAssignsMonotonicNumbers(t *testing.T) {
	cfg := newTestCFG()
	fn := cfg.AddFunction("f", cfg.FunctionType(nil, nil), LinkageExternal, false)
	b0 := fn.AppendBlock()
	b1 := fn.AppendBlock()

	assert.Equal(t, "bb0", b0.Name())
	assert.Equal(t, "bb1", b1.Name())
	assert.True(t, b0.IsEntry())
	assert.False(t, b1.IsEntry())
	assert.Same(t, b0, fn.Front())
	assert.Same(t, b1, fn.Back())
}
