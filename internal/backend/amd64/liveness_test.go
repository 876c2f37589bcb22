package amd64

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nwmarino/statim/internal/mir"
	"github.com/nwmarino/statim/internal/siir"
	"github.com/nwmarino/statim/internal/target"
)

func newTestMachineFunction(t *testing.T) *mir.MachineFunction {
	t.Helper()
	cfg := siir.NewCFG("test.stm", target.X86_64Linux())
	i64 := cfg.IntType(64)
	fn := cfg.AddFunction("f", cfg.FunctionType(nil, i64), siir.LinkageExternal, false)
	return mir.NewMachineFunction(fn)
}

// TestComputeLivenessStraightLine builds:
//
//	bb0: v0 = mov 1
//	     v1 = mov 2
//	     v2 = mov v0
//	     add v1, v2           ; destructive: v2's def operand also uses v2
//	     ret v2
//
// (the two-address form the selector emits for iadd) and checks that v0's
// interval spans from its def to the copy into v2 (its last use), and v2's
// interval spans from that copy to the ret.
func TestComputeLivenessStraightLine(t *testing.T) {
	mf := newTestMachineFunction(t)
	v0 := mf.NewVReg(mir.GeneralPurpose)
	v1 := mf.NewVReg(mir.GeneralPurpose)
	v2 := mf.NewVReg(mir.GeneralPurpose)

	bb := mf.Append()
	bb.Append(mir.NewMachineInst(mir.Opcode(MOV64), mir.Reg(v0, 0, true), mir.Imm(1)))
	bb.Append(mir.NewMachineInst(mir.Opcode(MOV64), mir.Reg(v1, 0, true), mir.Imm(2)))
	bb.Append(mir.NewMachineInst(mir.Opcode(MOV64), mir.Reg(v0, 0, false), mir.Reg(v2, 0, true)))
	addInst := mir.NewMachineInst(mir.Opcode(ADD64))
	addInst.AddReg(v1, 0, false)
	addInst.AddReg(v2, 0, true)
	bb.Append(addInst)
	retInst := mir.NewMachineInst(mir.Opcode(RET))
	retInst.AddReg(v2, 0, false)
	bb.Append(retInst)

	intervals := ComputeLiveness(mf)
	require.Len(t, intervals, 3)

	byReg := make(map[mir.Register]LiveInterval)
	for _, iv := range intervals {
		byReg[iv.Reg] = iv
	}

	v0iv := byReg[v0]
	v2iv := byReg[v2]
	assert.Equal(t, 0, v0iv.Start)
	assert.Equal(t, 2, v0iv.End, "v0's last use is the copy into v2 at position 2")
	assert.Equal(t, 2, v2iv.Start)
	assert.Equal(t, 4, v2iv.End, "v2's last use is the ret at position 4")
}

// TestComputeLivenessAcrossBranch builds entry -> middle -> join, where v0 is
// defined in entry and used only in join, so its interval must span the
// intervening block even though v0 has no use there.
func TestComputeLivenessAcrossBranch(t *testing.T) {
	mf := newTestMachineFunction(t)
	v0 := mf.NewVReg(mir.GeneralPurpose)

	entry := mf.Append()
	middle := mf.Append()
	join := mf.Append()

	entry.Append(mir.NewMachineInst(mir.Opcode(MOV64), mir.Reg(v0, 0, true), mir.Imm(1)))
	jmp := mir.NewMachineInst(mir.Opcode(JMP))
	jmp.AddBlock(middle)
	entry.Append(jmp)

	jmpJoin := mir.NewMachineInst(mir.Opcode(JMP))
	jmpJoin.AddBlock(join)
	middle.Append(jmpJoin)

	retInst := mir.NewMachineInst(mir.Opcode(RET))
	retInst.AddReg(v0, 0, false)
	join.Append(retInst)

	intervals := ComputeLiveness(mf)
	require.Len(t, intervals, 1)
	assert.Equal(t, v0, intervals[0].Reg)
	assert.Equal(t, 0, intervals[0].Start)
	assert.GreaterOrEqual(t, intervals[0].End, 2, "v0 must stay live through the ret in join")
}
