package siir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBasicBlockNameFollowsItsNumber(t *testing.T) {
	cfg := newTestCFG()
	fn := cfg.AddFunction("f", cfg.FunctionType(nil, nil), LinkageExternal, false)
	bb0 := fn.AppendBlock()
	bb1 := fn.AppendBlock()

	assert.Equal(t, "bb0", bb0.Name())
	assert.Equal(t, "bb1", bb1.Name())
}

func TestBasicBlockIsEntryOnlyForTheFirstBlock(t *testing.T) {
	cfg := newTestCFG()
	fn := cfg.AddFunction("f", cfg.FunctionType(nil, nil), LinkageExternal, false)
	bb0 := fn.AppendBlock()
	bb1 := fn.AppendBlock()

	assert.True(t, bb0.IsEntry())
	assert.False(t, bb1.IsEntry())
}

func TestBasicBlockAddSuccessorKeepsPredsAndSuccsConsistent(t *testing.T) {
	cfg := newTestCFG()
	fn := cfg.AddFunction("f", cfg.FunctionType(nil, nil), LinkageExternal, false)
	bb0 := fn.AppendBlock()
	bb1 := fn.AppendBlock()

	bb0.addSuccessor(bb1)

	assert.Equal(t, []*BasicBlock{bb1}, bb0.Succs())
	assert.Equal(t, []*BasicBlock{bb0}, bb1.Preds())
	assert.Equal(t, 1, bb0.NumSuccs())
	assert.Equal(t, 1, bb1.NumPreds())
}

func TestBasicBlockRemoveSuccessorUndoesTheEdge(t *testing.T) {
	cfg := newTestCFG()
	fn := cfg.AddFunction("f", cfg.FunctionType(nil, nil), LinkageExternal, false)
	bb0 := fn.AppendBlock()
	bb1 := fn.AppendBlock()

	bb0.addSuccessor(bb1)
	bb0.removeSuccessor(bb1)

	assert.Empty(t, bb0.Succs())
	assert.Empty(t, bb1.Preds())
}

func TestBasicBlockInsertAtFrontAndEndOrderInstructions(t *testing.T) {
	cfg := newTestCFG()
	fn := cfg.AddFunction("f", cfg.FunctionType(nil, nil), LinkageExternal, false)
	bb := fn.AppendBlock()
	b := NewBuilder(cfg)
	b.SetInsertBlock(bb)

	i64 := cfg.IntType(64)
	local := fn.AddLocal("x", i64, 8)
	first := b.BuildLoad(local, i64, 8)

	b.SetInsertMode(Prepend)
	phi := b.BuildPhi(i64)

	assert.Same(t, phi, bb.Front())
	assert.Same(t, first, bb.Back())
	assert.Same(t, bb, phi.Parent())
}
