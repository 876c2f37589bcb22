package siir

import "fmt"

// BasicBlock is a node of a Function's control-flow graph: a doubly linked
// list of instructions, a predecessor list, and a successor list. A block
// is the entry block of its function iff it is the first block in the
// function's block list.
type BasicBlock struct {
	ValueBase

	Number int
	parent *Function

	firstInst, lastInst *Instruction

	preds []*BasicBlock
	succs []*BasicBlock

	prev, next *BasicBlock
}

func (b *BasicBlock) ReplaceAllUsesWith(other Value) {
	replaceAllUsesWith(b, &b.ValueBase, other)
}

func newBasicBlock(number int) *BasicBlock {
	return &BasicBlock{ValueBase: newValueBase(ValueKindBasicBlock, nil), Number: number}
}

// Name returns the unique printable name of this block, e.g. "bb3".
func (b *BasicBlock) Name() string { return fmt.Sprintf("bb%d", b.Number) }

// Parent returns the function this block belongs to.
func (b *BasicBlock) Parent() *Function { return b.parent }

// Front/Back return the first/last instruction in the block, or nil if
// empty.
func (b *BasicBlock) Front() *Instruction { return b.firstInst }
func (b *BasicBlock) Back() *Instruction  { return b.lastInst }

// Preds/Succs return this block's predecessor/successor lists.
func (b *BasicBlock) Preds() []*BasicBlock { return b.preds }
func (b *BasicBlock) Succs() []*BasicBlock { return b.succs }
func (b *BasicBlock) NumPreds() int        { return len(b.preds) }
func (b *BasicBlock) NumSuccs() int        { return len(b.succs) }

// IsEntry reports whether this is the first block of its parent function.
func (b *BasicBlock) IsEntry() bool {
	return b.parent != nil && b.parent.firstBlock == b
}

// Prev/Next walk the intrusive block list of the parent function.
func (b *BasicBlock) Prev() *BasicBlock { return b.prev }
func (b *BasicBlock) Next() *BasicBlock { return b.next }

// insertAtEnd appends inst to the end of this block's instruction list.
func (b *BasicBlock) insertAtEnd(inst *Instruction) {
	inst.parent = b
	if b.lastInst != nil {
		b.lastInst.next = inst
		inst.prev = b.lastInst
	} else {
		b.firstInst = inst
	}
	b.lastInst = inst
}

// insertAtFront prepends inst to the start of this block's instruction
// list, used by the SSA construction pass to place phi instructions.
func (b *BasicBlock) insertAtFront(inst *Instruction) {
	inst.parent = b
	if b.firstInst != nil {
		b.firstInst.prev = inst
		inst.next = b.firstInst
	} else {
		b.lastInst = inst
	}
	b.firstInst = inst
}

// addSuccessor records a CFG edge b -> succ, keeping preds/succs
// consistent: b appears in succ.preds exactly once, and succ appears in
// b.succs exactly once.
func (b *BasicBlock) addSuccessor(succ *BasicBlock) {
	for _, s := range b.succs {
		if s == succ {
			return
		}
	}
	b.succs = append(b.succs, succ)
	succ.preds = append(succ.preds, b)
}

// removeSuccessor is the inverse of addSuccessor for a single matching
// edge. Used when rewriting branches during later passes (not needed by
// this backend's fixed passes, but kept for builder symmetry).
func (b *BasicBlock) removeSuccessor(succ *BasicBlock) {
	for i, s := range b.succs {
		if s == succ {
			b.succs = append(b.succs[:i], b.succs[i+1:]...)
			break
		}
	}
	for i, p := range succ.preds {
		if p == b {
			succ.preds = append(succ.preds[:i], succ.preds[i+1:]...)
			break
		}
	}
}
