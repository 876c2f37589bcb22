package mir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachineInstBuildsOperandsFluently(t *testing.T) {
	mi := NewMachineInst(Opcode(1))
	mi.AddReg(Register(1), 0, true).
		AddReg(Register(2), 0, false).
		AddImm(8)

	require.Equal(t, 3, mi.NumOperands())
	assert.True(t, mi.Operand(0).IsDef())
	assert.True(t, mi.Operand(1).IsUse())
	assert.Equal(t, int64(8), mi.Operand(2).Imm())
}

func TestMachineInstDefsAndUsesSkipImplicitAndNonRegister(t *testing.T) {
	mi := NewMachineInst(Opcode(2))
	mi.AddReg(Register(1), 0, true)                  // explicit def
	mi.AddReg(Register(2), 0, true, Implicit)         // implicit def (e.g. rdx on idiv)
	mi.AddReg(Register(3), 0, false)                  // explicit use
	mi.AddReg(Register(4), 0, false, Implicit)        // implicit use
	mi.AddImm(1)                                      // non-register operand

	var defs, uses, allDefs, allUses []int
	mi.Defs(func(i int, _ Operand) { defs = append(defs, i) })
	mi.Uses(func(i int, _ Operand) { uses = append(uses, i) })
	mi.AllDefs(func(i int, _ Operand) { allDefs = append(allDefs, i) })
	mi.AllUses(func(i int, _ Operand) { allUses = append(allUses, i) })

	assert.Equal(t, []int{0}, defs)
	assert.Equal(t, []int{2}, uses)
	assert.Equal(t, []int{0, 1}, allDefs)
	assert.Equal(t, []int{2, 3}, allUses)
}

func TestMachineInstDetachUnlinksFromBlock(t *testing.T) {
	blk := newMachineBlock(0)
	a := NewMachineInst(Opcode(1))
	b := NewMachineInst(Opcode(2))
	c := NewMachineInst(Opcode(3))
	blk.Append(a)
	blk.Append(b)
	blk.Append(c)

	b.detach()

	assert.Same(t, a, blk.Front())
	assert.Same(t, c, blk.Back())
	assert.Same(t, c, a.Next())
	assert.Same(t, a, c.Prev())
	assert.Nil(t, b.Parent())
}

func TestMachineBlockPrependPlacesInstructionFirst(t *testing.T) {
	blk := newMachineBlock(0)
	a := NewMachineInst(Opcode(1))
	b := NewMachineInst(Opcode(2))
	blk.Append(a)
	blk.Prepend(b)

	assert.Same(t, b, blk.Front())
	assert.Same(t, a, blk.Back())
}
