package siir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildCountingLoop constructs a four-block while-loop CFG (two promotable
// locals, a header with a back edge) directly, mirroring
// internal/siirtest's Scenario4.
func buildCountingLoop(t *testing.T) (*CFG, *Function) {
	t.Helper()
	cfg := newTestCFG()
	i64 := cfg.IntType(64)
	fn := cfg.AddFunction("main", cfg.FunctionType(nil, i64), LinkageExternal, false)
	b := NewBuilder(cfg)

	entry := fn.AppendBlock()
	header := fn.AppendBlock()
	body := fn.AppendBlock()
	exit := fn.AppendBlock()

	b.SetInsertBlock(entry)
	iLocal := fn.AddLocal("i", i64, 8)
	sLocal := fn.AddLocal("s", i64, 8)
	b.BuildStore(cfg.ConstInt(i64, 0), iLocal, 8)
	b.BuildStore(cfg.ConstInt(i64, 0), sLocal, 8)
	b.BuildJump(header)

	b.SetInsertBlock(header)
	iVal := b.BuildLoad(iLocal, i64, 8)
	cond := b.BuildCmpSLT(iVal, cfg.ConstInt(i64, 10))
	b.BuildBranchIf(cond, body, exit)

	b.SetInsertBlock(body)
	sVal := b.BuildLoad(sLocal, i64, 8)
	iVal2 := b.BuildLoad(iLocal, i64, 8)
	b.BuildStore(b.BuildIAdd(sVal, iVal2), sLocal, 8)
	iVal3 := b.BuildLoad(iLocal, i64, 8)
	b.BuildStore(b.BuildIAdd(iVal3, cfg.ConstInt(i64, 1)), iLocal, 8)
	b.BuildJump(header)

	b.SetInsertBlock(exit)
	finalS := b.BuildLoad(sLocal, i64, 8)
	b.BuildReturn(finalS)

	return cfg, fn
}

func countOpcode(fn *Function, op Opcode) int {
	n := 0
	for blk := fn.Front(); blk != nil; blk = blk.Next() {
		for inst := blk.Front(); inst != nil; inst = inst.Next() {
			if inst.Opcode == op {
				n++
			}
		}
	}
	return n
}

func TestSSAConstructionPromotesScalarLocals(t *testing.T) {
	cfg, fn := buildCountingLoop(t)
	require.Len(t, fn.Locals(), 2)
	require.Equal(t, 5, countOpcode(fn, OpLoad))
	require.Equal(t, 4, countOpcode(fn, OpStore))

	RunPasses(cfg, SSAConstruction{})

	assert.Empty(t, fn.Locals(), "both locals are scalar and fully promotable")
	assert.Zero(t, countOpcode(fn, OpLoad))
	assert.Zero(t, countOpcode(fn, OpStore))
	assert.Greater(t, countOpcode(fn, OpPhi), 0, "the loop header needs a phi per promoted local")
}

func TestSSAConstructionLeavesNonPromotableLocalsOnStack(t *testing.T) {
	cfg := newTestCFG()
	i64 := cfg.IntType(64)
	box := cfg.StructTypeShell("box")
	box.SetFields([]Type{i64, i64})

	fn := cfg.AddFunction("main", cfg.FunctionType(nil, i64), LinkageExternal, false)
	b := NewBuilder(cfg)
	entry := fn.AppendBlock()
	b.SetInsertBlock(entry)

	boxLocal := fn.AddLocal("b", box, 8)
	aPtr := b.BuildAccessPtr(boxLocal, box, 0, i64)
	b.BuildStore(cfg.ConstInt(i64, 10), aPtr, 8)
	loaded := b.BuildLoad(aPtr, i64, 8)
	b.BuildReturn(loaded)

	RunPasses(cfg, SSAConstruction{})

	require.Len(t, fn.Locals(), 1, "boxLocal is used as an access-ptr base, not a direct load/store operand")
	assert.Equal(t, boxLocal, fn.Locals()["b"])
}

// buildTrivialPhiLoop constructs a five-block CFG where a promotable local
// x is assigned the same constant on every path into a loop header and
// again on the loop's early-exit path, so both the header's phi and a
// later merge point's phi are trivial: every incoming value collapses to
// the one constant 5. The header's phi starts incomplete (the back edge
// from body hasn't been seen when it is first read) and is only resolved
// once body's processing seals the header, exercising the defs-rewrite
// path in tryRemoveTrivialPhi: the header's cached definition is rewritten
// to the constant before tail's phi reads through exit into it.
func buildTrivialPhiLoop(t *testing.T) (*CFG, *Function, *Instruction, *Instruction) {
	t.Helper()
	cfg := newTestCFG()
	i64 := cfg.IntType(64)
	fn := cfg.AddFunction("main", cfg.FunctionType(nil, i64), LinkageExternal, false)
	b := NewBuilder(cfg)

	entry := fn.AppendBlock()
	header := fn.AppendBlock()
	body := fn.AppendBlock()
	exit := fn.AppendBlock()
	tail := fn.AppendBlock()

	x := fn.AddLocal("x", i64, 8)

	b.SetInsertBlock(entry)
	b.BuildStore(cfg.ConstInt(i64, 5), x, 8)
	b.BuildJump(header)

	b.SetInsertBlock(header)
	v := b.BuildLoad(x, i64, 8)
	headerCond := b.BuildCmpSLT(v, cfg.ConstInt(i64, 3))
	b.BuildBranchIf(headerCond, body, exit)

	b.SetInsertBlock(body)
	b.BuildStore(cfg.ConstInt(i64, 5), x, 8)
	bodyCond := b.BuildCmpSLT(cfg.ConstInt(i64, 0), cfg.ConstInt(i64, 1))
	b.BuildBranchIf(bodyCond, header, tail)

	b.SetInsertBlock(exit)
	b.BuildJump(tail)

	b.SetInsertBlock(tail)
	finalV := b.BuildLoad(x, i64, 8)
	ret := b.BuildReturn(finalV)

	return cfg, fn, headerCond, ret
}

// TestSSAConstructionCollapsesTrivialPhi exercises a phi whose incoming
// values are all the constant 5: it must be deleted entirely, and both a
// direct user (the header's compare) and a user reached only by forwarding
// through another block's cached definition (the final return) must
// observe the replacement constant rather than a dangling reference to
// the removed phi.
func TestSSAConstructionCollapsesTrivialPhi(t *testing.T) {
	cfg, fn, headerCond, ret := buildTrivialPhiLoop(t)

	RunPasses(cfg, SSAConstruction{})

	assert.Zero(t, countOpcode(fn, OpPhi), "every incoming value is the same constant, so no phi should survive")
	assert.Empty(t, fn.Locals())

	five := cfg.ConstInt(cfg.IntType(64), 5)
	assert.Equal(t, Value(five), headerCond.Operand(0), "the header compare must observe the collapsed constant, not the removed phi")
	assert.Equal(t, Value(five), ret.Operand(0), "the return, reached via a forwarded cached definition, must observe the collapsed constant")
}

func TestSSAConstructionSkipsExternalFunctions(t *testing.T) {
	cfg := newTestCFG()
	i64 := cfg.IntType(64)
	fn := cfg.AddFunction("puts", cfg.FunctionType([]Type{i64}, i64), LinkageExternal, true)
	assert.NotPanics(t, func() { RunPasses(cfg, SSAConstruction{}) })
	assert.Nil(t, fn.Front())
}
