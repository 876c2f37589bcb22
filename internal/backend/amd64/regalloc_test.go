package amd64

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nwmarino/statim/internal/mir"
)

func TestAllocateAssignsDisjointRegistersToNonOverlappingRanges(t *testing.T) {
	mf := newTestMachineFunction(t)
	v0 := mf.NewVReg(mir.GeneralPurpose)
	v1 := mf.NewVReg(mir.GeneralPurpose)

	bb := mf.Append()
	bb.Append(mir.NewMachineInst(mir.Opcode(MOV64), mir.Reg(v0, 0, true), mir.Imm(1)))
	useV0 := mir.NewMachineInst(mir.Opcode(RET))
	useV0.AddReg(v0, 0, false)
	bb.Append(useV0)
	bb.Append(mir.NewMachineInst(mir.Opcode(MOV64), mir.Reg(v1, 0, true), mir.Imm(2)))
	useV1 := mir.NewMachineInst(mir.Opcode(RET))
	useV1.AddReg(v1, 0, false)
	bb.Append(useV1)

	Allocate(mf)

	info0 := mf.Regs.Info(v0.ID())
	info1 := mf.Regs.Info(v1.ID())
	require.True(t, info0.Alloc.Valid())
	require.True(t, info1.Alloc.Valid())
	assert.Equal(t, info0.Alloc, info1.Alloc, "v0's range ends before v1's begins, so they may share a register")
}

func TestAllocateRewritesEveryVirtualOperandToThePhysicalAssignment(t *testing.T) {
	mf := newTestMachineFunction(t)
	v0 := mf.NewVReg(mir.GeneralPurpose)

	bb := mf.Append()
	mov := mir.NewMachineInst(mir.Opcode(MOV64))
	mov.AddReg(v0, 0, true)
	mov.AddImm(9)
	bb.Append(mov)
	ret := mir.NewMachineInst(mir.Opcode(RET))
	ret.AddReg(v0, 0, false)
	bb.Append(ret)

	Allocate(mf)

	assert.True(t, mov.Operand(0).Reg().IsPhysical())
	assert.True(t, ret.Operand(0).Reg().IsPhysical())
	assert.Equal(t, mov.Operand(0).Reg(), ret.Operand(0).Reg())
}

func TestAllocatePanicsWhenLiveRangesExceedTheRegisterPool(t *testing.T) {
	mf := newTestMachineFunction(t)
	bb := mf.Append()

	// Keep more simultaneously live general-purpose vregs than the pool
	// has room for: define them all up front, use them all at the end.
	vregs := make([]mir.Register, len(GeneralPurposeRegisters)+1)
	for i := range vregs {
		vregs[i] = mf.NewVReg(mir.GeneralPurpose)
		def := mir.NewMachineInst(mir.Opcode(MOV64))
		def.AddReg(vregs[i], 0, true)
		def.AddImm(int64(i))
		bb.Append(def)
	}
	ret := mir.NewMachineInst(mir.Opcode(RET))
	for _, v := range vregs {
		ret.AddReg(v, 0, false)
	}
	bb.Append(ret)

	assert.Panics(t, func() { Allocate(mf) })
}
