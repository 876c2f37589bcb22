package amd64

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nwmarino/statim/internal/mir"
	"github.com/nwmarino/statim/internal/siir"
)

func TestAsmWriterEmitsPrologueBodyAndEpilogueForAReturningFunction(t *testing.T) {
	cfg, obj := newTestCFGAndObject(t)
	i64 := cfg.IntType(64)
	fn := cfg.AddFunction("main", cfg.FunctionType(nil, i64), siir.LinkageExternal, false)

	b := siir.NewBuilder(cfg)
	entry := fn.AppendBlock()
	b.SetInsertBlock(entry)
	b.BuildReturn(cfg.ConstInt(i64, 42))

	mf := NewInstSelection(obj, cfg, fn, newTestReporter()).Run()
	Allocate(mf)

	var sb strings.Builder
	require.NoError(t, NewAsmWriter(obj).Run(&sb))

	out := sb.String()
	assert.Contains(t, out, "\t.global\tmain\n")
	assert.Contains(t, out, "main:\n\t.cfi_startproc\n")
	assert.Contains(t, out, "pushq\t%rbp")
	assert.Contains(t, out, "movq\t%rsp, %rbp")
	assert.Contains(t, out, "$42, %rax")
	assert.Contains(t, out, "retq\n")
}

func TestAsmWriterSkipsExternalFunctionBodies(t *testing.T) {
	cfg, obj := newTestCFGAndObject(t)
	i64 := cfg.IntType(64)
	fn := cfg.AddFunction("puts", cfg.FunctionType([]siir.Type{i64}, i64), siir.LinkageExternal, true)
	mf := NewInstSelection(obj, cfg, fn, newTestReporter()).Run()
	obj.AddFunction(mf)

	var sb strings.Builder
	require.NoError(t, NewAsmWriter(obj).Run(&sb))

	assert.NotContains(t, sb.String(), "puts:")
}

func TestAsmWriterEmitsGlobalDataWithSizeAndAlignment(t *testing.T) {
	cfg, obj := newTestCFGAndObject(t)
	i64 := cfg.IntType(64)
	cfg.AddGlobal("counter", i64, cfg.ConstInt(i64, 7), siir.LinkageExternal)

	var sb strings.Builder
	require.NoError(t, NewAsmWriter(obj).Run(&sb))

	out := sb.String()
	assert.Contains(t, out, "\t.global counter\n")
	assert.Contains(t, out, "counter:\n")
	assert.Contains(t, out, "\t.quad 7\n")
}

func TestIsRedundantMoveDetectsSameRegisterMoves(t *testing.T) {
	mov := mir.NewMachineInst(mir.Opcode(MOV64))
	mov.AddReg(AsMachineReg(RAX), 0, true)
	mov.AddReg(AsMachineReg(RAX), 0, false)
	assert.True(t, isRedundantMove(mov))

	diff := mir.NewMachineInst(mir.Opcode(MOV64))
	diff.AddReg(AsMachineReg(RAX), 0, true)
	diff.AddReg(AsMachineReg(RCX), 0, false)
	assert.False(t, isRedundantMove(diff))
}
