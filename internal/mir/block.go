package mir

import "fmt"

// MachineBlock is a node of a MachineFunction's instruction stream. Unlike
// siir.BasicBlock it carries no predecessor/successor lists of its own:
// control flow at this level is expressed entirely by the target's branch
// instructions and their MachineBlock operands, a linear post-selection
// block model.
type MachineBlock struct {
	Number int

	parent *MachineFunction

	first, last *MachineInst
	prev, next  *MachineBlock
}

func newMachineBlock(number int) *MachineBlock {
	return &MachineBlock{Number: number}
}

// Name returns this block's printable label, e.g. "bb3".
func (b *MachineBlock) Name() string { return fmt.Sprintf("bb%d", b.Number) }

func (b *MachineBlock) Parent() *MachineFunction { return b.parent }

func (b *MachineBlock) Front() *MachineInst { return b.first }
func (b *MachineBlock) Back() *MachineInst  { return b.last }

func (b *MachineBlock) Prev() *MachineBlock { return b.prev }
func (b *MachineBlock) Next() *MachineBlock { return b.next }

// Append adds inst to the end of this block's instruction list.
func (b *MachineBlock) Append(inst *MachineInst) {
	inst.parent = b
	if b.last != nil {
		b.last.next = inst
		inst.prev = b.last
	} else {
		b.first = inst
	}
	b.last = inst
}

// Prepend adds inst to the start of this block's instruction list, used to
// place prologue/spill-adjacent instructions ahead of the selected body.
func (b *MachineBlock) Prepend(inst *MachineInst) {
	inst.parent = b
	if b.first != nil {
		b.first.prev = inst
		inst.next = b.first
	} else {
		b.last = inst
	}
	b.first = inst
}

// Remove detaches inst from this block.
func (b *MachineBlock) Remove(inst *MachineInst) { inst.detach() }
